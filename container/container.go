package container

import (
	"sync"

	"github.com/drobin/nuts-go/backend"
	ncrypto "github.com/drobin/nuts-go/crypto"
	logging "github.com/ipfs/go-log/v2"
)

var log = logging.Logger("nuts/container")

// Info describes a container's static geometry, layering the backend's
// own Info with the container-level block size accounting (payload bytes
// per block, once cipher overhead such as a GCM tag is subtracted).
type Info struct {
	backend.Info
	PayloadSize uint32
}

// Container owns a backend plus its decrypted header and cipher context,
// and exposes whole-block acquire/release/read/write with encryption
// layered transparently over the backend — the same ownership shape the
// teacher's store.Store holds over its primary storage plus freelist,
// generalized from variable-length records to fixed, encrypted blocks.
type Container[ID backend.Id] struct {
	mu       sync.RWMutex
	b        backend.Backend[ID]
	header   *Header
	ctx      *ncrypto.Context
	pwStore  *PasswordStore
}

// blockIV derives the IV used for block id by XORing the header's base IV
// with every byte of id's encoded form, right-aligned; an encoding longer
// than the IV wraps around and is XORed in again from the IV's end
// (resolves the spec's open question on per-block IV derivation: option
// (a), per-block derivation rather than reusing the header IV verbatim).
func blockIV[ID backend.Id](b backend.Backend[ID], baseIV []byte, id ID) []byte {
	iv := make([]byte, len(baseIV))
	copy(iv, baseIV)
	if len(iv) == 0 {
		return iv
	}
	idBytes := b.EncodeId(id)
	for i := 0; i < len(idBytes); i++ {
		iv[len(iv)-1-(i%len(iv))] ^= idBytes[len(idBytes)-1-i]
	}
	return iv
}

// Create builds a fresh header for b (which must already have been
// constructed via the backend's own Create), seals it with cipher/kdf and
// the password pwStore supplies (if any), writes it to b's header slot,
// and returns a ready-to-use Container.
func Create[ID backend.Id](b backend.Backend[ID], cipher ncrypto.Cipher, kdf ncrypto.Kdf, pwStore *PasswordStore) (*Container[ID], error) {
	key := make([]byte, cipher.KeyLen())
	if len(key) > 0 {
		if err := ncrypto.RandBytes(key); err != nil {
			return nil, err
		}
	}
	iv := make([]byte, cipher.IVLen())
	if len(iv) > 0 {
		if err := ncrypto.RandBytes(iv); err != nil {
			return nil, err
		}
	}
	settingsBytes, err := b.Settings().Bytes()
	if err != nil {
		return nil, err
	}

	h := &Header{
		Revision: currentRevision,
		Cipher:   cipher,
		Kdf:      kdf,
		Key:      key,
		IV:       iv,
		Settings: settingsBytes,
	}
	data, err := WriteHeader(h, pwStore)
	if err != nil {
		return nil, err
	}
	if err := b.HeaderSlot().PutHeaderBytes(data); err != nil {
		return nil, BackendError{Err: err}
	}

	ctx, err := ncrypto.NewContext(cipher, key, iv)
	if err != nil {
		return nil, err
	}
	log.Infow("created container", "cipher", cipher, "kdf", kdf)
	return &Container[ID]{b: b, header: h, ctx: ctx, pwStore: pwStore}, nil
}

// Open reads and decrypts b's header slot (b must already have been
// constructed via the backend's own Open) and returns a ready-to-use
// Container. migrator may be nil.
func Open[ID backend.Id](b backend.Backend[ID], migrator *Migrator, pwStore *PasswordStore) (*Container[ID], error) {
	slotBuf := make([]byte, HeaderMaxSize)
	if err := b.HeaderSlot().GetHeaderBytes(slotBuf); err != nil {
		return nil, BackendError{Err: err}
	}
	h, err := ReadHeader(slotBuf, migrator, pwStore)
	if err != nil {
		return nil, err
	}
	ctx, err := ncrypto.NewContext(h.Cipher, h.Key, h.IV)
	if err != nil {
		return nil, err
	}
	log.Debugw("opened container", "cipher", h.Cipher, "revision", h.Revision)
	return &Container[ID]{b: b, header: h, ctx: ctx, pwStore: pwStore}, nil
}

// BlockSize returns the backend's fixed block size.
func (c *Container[ID]) BlockSize() uint32 { return c.b.BlockSize() }

// NullId returns the backend's distinguished "no block" id.
func (c *Container[ID]) NullId() ID { return c.b.NullId() }

// IsNullId reports whether id is the backend's null id.
func (c *Container[ID]) IsNullId(id ID) bool { return c.b.IsNullId(id) }

// IdSize returns the fixed encoded size of an id, in bytes.
func (c *Container[ID]) IdSize() int { return c.b.IdSize() }

// EncodeId serializes id to its fixed-size wire form.
func (c *Container[ID]) EncodeId(id ID) []byte { return c.b.EncodeId(id) }

// DecodeId parses an id from its fixed-size wire form.
func (c *Container[ID]) DecodeId(buf []byte) (ID, error) { return c.b.DecodeId(buf) }

// PayloadSize returns the number of plaintext bytes a single block can
// carry, i.e. BlockSize minus the cipher's per-block overhead.
func (c *Container[ID]) PayloadSize() uint32 {
	return c.b.BlockSize() - uint32(c.header.Cipher.Overhead())
}

// NeedsMigration reports whether this container was opened from a
// revision-0 header with no Migration registered, meaning TopID is
// unavailable until the caller registers a migration and reopens (or
// calls PersistMigration after supplying one some other way).
func (c *Container[ID]) NeedsMigration() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.header.NeedsMigration
}

// TopID returns the archive root id, and whether one is set.
func (c *Container[ID]) TopID() (ID, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var zero ID
	if c.header.TopID == nil {
		return zero, false
	}
	id, err := c.b.DecodeId(c.header.TopID)
	if err != nil {
		return zero, false
	}
	return id, true
}

// SetTopID persists id as the archive root and rewrites the header,
// failing with InvalidHeader if a root is already set (acquire-once
// semantics, spec §3: "top_id.is_some() iff a service has acquired the
// container").
func (c *Container[ID]) SetTopID(id ID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.header.TopID != nil {
		return InvalidHeader{Reason: "container already acquired"}
	}
	c.header.TopID = c.b.EncodeId(id)
	log.Debugw("acquired container as top-id owner", "id", c.b.EncodeId(id))
	return c.rewriteHeaderLocked()
}

// PersistMigration rewrites the header slot with the currently in-memory
// header, unconditionally. Open's revision-0 path upgrades a header to the
// current revision (and, via a registered Migration, its top-id) only in
// memory; nothing calls this automatically, since a read-only open should
// not silently rewrite the backend. The CLI's "archive migrate" command
// calls this right after opening the container with its migrator.
func (c *Container[ID]) PersistMigration() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rewriteHeaderLocked()
}

func (c *Container[ID]) rewriteHeaderLocked() error {
	data, err := WriteHeader(c.header, c.pwStore)
	if err != nil {
		return err
	}
	if err := c.b.HeaderSlot().PutHeaderBytes(data); err != nil {
		return BackendError{Err: err}
	}
	return nil
}

// Info returns the container's combined backend/cipher geometry.
func (c *Container[ID]) Info() Info {
	return Info{Info: c.b.Info(), PayloadSize: c.PayloadSize()}
}

// Acquire allocates a new block id.
func (c *Container[ID]) Acquire() (ID, error) {
	id, err := c.b.Acquire()
	if err != nil {
		return id, BackendError{Err: err}
	}
	return id, nil
}

// Release returns a block id to the backend.
func (c *Container[ID]) Release(id ID) error {
	if c.b.IsNullId(id) {
		return NullId{}
	}
	if err := c.b.Release(id); err != nil {
		return BackendError{Err: err}
	}
	return nil
}

// Read decrypts the block at id into buf, returning the number of
// plaintext bytes copied (min(len(buf), PayloadSize())); any remaining
// bytes in buf are zeroed.
func (c *Container[ID]) Read(id ID, buf []byte) (int, error) {
	if c.b.IsNullId(id) {
		return 0, NullId{}
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	raw := make([]byte, c.b.BlockSize())
	defer ncrypto.Wipe(raw)
	if _, err := c.b.Read(id, raw); err != nil {
		return 0, BackendError{Err: err}
	}
	iv := blockIV(c.b, c.header.IV, id)
	plain, err := c.ctx.Decrypt(iv, raw)
	if err != nil {
		return 0, err
	}
	defer ncrypto.Wipe(plain)
	n := copy(buf, plain)
	for i := n; i < len(buf); i++ {
		buf[i] = 0
	}
	return n, nil
}

// Write encrypts data into the block at id, zero-padding any remainder of
// the block's payload capacity. Returns the number of bytes consumed from
// data (min(len(data), PayloadSize())).
func (c *Container[ID]) Write(id ID, data []byte) (int, error) {
	if c.b.IsNullId(id) {
		return 0, NullId{}
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	payload := make([]byte, c.PayloadSize())
	defer ncrypto.Wipe(payload)
	n := copy(payload, data)
	iv := blockIV(c.b, c.header.IV, id)
	ciphertext, err := c.ctx.Encrypt(iv, payload)
	if err != nil {
		return 0, err
	}
	if _, err := c.b.Write(id, ciphertext); err != nil {
		return 0, BackendError{Err: err}
	}
	return n, nil
}

// Close releases the underlying backend's resources, flushing any
// buffered state first, and wipes the cached password.
func (c *Container[ID]) Close() error {
	c.pwStore.Close()
	if err := c.b.Close(); err != nil {
		return BackendError{Err: err}
	}
	return nil
}
