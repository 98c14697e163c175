// Package directory implements a backend.Backend that stores each block as
// its own file inside a directory, one header sidecar file, and a
// binary freelist file (a big-endian u32 next-id followed by one big-endian
// u32 per released block id) recording released block ids for reuse
// — the layout is a direct generalization of the teacher's
// store/primary/gsfaprimary file-per-store pattern (bufio-buffered
// sequential file) crossed with store/freelist/freelist.go's id-reuse
// bookkeeping, fixed-size-block instead of variable-length-record.
package directory

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/drobin/nuts-go/backend"
	logging "github.com/ipfs/go-log/v2"
)

var log = logging.Logger("nuts/backend/directory")

// Id is the directory backend's block identifier: a 1-based sequence
// number, 0 reserved as null, encoded as a hex filename.
type Id uint32

func (id Id) filename() string { return fmt.Sprintf("%016x", uint64(id)) }

// Settings records the directory backend's on-disk layout version, round
// tripped through the container header the way gsfaprimary's header.go
// records a format version alongside the store root.
type Settings struct {
	Version uint32
}

func (s Settings) Bytes() ([]byte, error) {
	buf := make([]byte, 4)
	binary.BigEndian.PutUint32(buf, s.Version)
	return buf, nil
}

// ParseSettings decodes Settings from header bytes.
func ParseSettings(buf []byte) (Settings, error) {
	if len(buf) != 4 {
		return Settings{}, backend.UnknownSettings{Reason: "directory settings must be 4 bytes"}
	}
	return Settings{Version: binary.BigEndian.Uint32(buf)}, nil
}

const currentVersion = 1

type headerSlot struct {
	path string
}

func (h headerSlot) GetHeaderBytes(buf []byte) error {
	f, err := os.Open(h.path)
	if err != nil {
		return err
	}
	defer f.Close()
	r := bufio.NewReader(f)
	_, err = readFull(r, buf)
	return err
}

func (h headerSlot) PutHeaderBytes(buf []byte) error {
	f, err := os.OpenFile(h.path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	defer f.Close()
	w := bufio.NewWriter(f)
	if _, err := w.Write(buf); err != nil {
		return err
	}
	return w.Flush()
}

func readFull(r *bufio.Reader, buf []byte) (int, error) {
	n := 0
	for n < len(buf) {
		m, err := r.Read(buf[n:])
		n += m
		if err != nil {
			return n, err
		}
	}
	return n, nil
}

// Backend is a directory-backed backend.Backend[Id].
type Backend struct {
	mu        sync.Mutex
	root      string
	blockSize uint32
	next      Id
	free      []Id
	header    headerSlot
}

// Create initializes a fresh, empty backend rooted at dir, which must
// already exist and be empty.
func Create(dir string, blockSize uint32) (*Backend, error) {
	log.Infow("creating directory backend", "dir", dir, "blockSize", blockSize)
	return &Backend{
		root:      dir,
		blockSize: blockSize,
		next:      1,
		header:    headerSlot{path: filepath.Join(dir, "header")},
	}, nil
}

// Open reopens a directory backend previously created at dir, recovering
// its freelist from the sidecar file written on the prior Close (mirrors
// freelist.Freelist.recover scanning persisted free entries on store
// open).
func Open(dir string, blockSize uint32) (*Backend, error) {
	b := &Backend{
		root:      dir,
		blockSize: blockSize,
		next:      1,
		header:    headerSlot{path: filepath.Join(dir, "header")},
	}
	if err := b.recoverFreelist(); err != nil {
		return nil, err
	}
	log.Debugw("opened directory backend", "dir", dir, "free", len(b.free))
	return b, nil
}

func (b *Backend) freelistPath() string { return filepath.Join(b.root, "freelist") }

func (b *Backend) recoverFreelist() error {
	data, err := os.ReadFile(b.freelistPath())
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	if len(data) < 4 {
		return nil
	}
	b.next = Id(binary.BigEndian.Uint32(data[:4]))
	for off := 4; off+4 <= len(data); off += 4 {
		b.free = append(b.free, Id(binary.BigEndian.Uint32(data[off:off+4])))
	}
	return nil
}

func (b *Backend) persistFreelist() error {
	buf := make([]byte, 4+4*len(b.free))
	binary.BigEndian.PutUint32(buf[:4], uint32(b.next))
	for i, id := range b.free {
		binary.BigEndian.PutUint32(buf[4+4*i:8+4*i], uint32(id))
	}
	return os.WriteFile(b.freelistPath(), buf, 0o600)
}

func (b *Backend) BlockSize() uint32 { return b.blockSize }
func (b *Backend) NullId() Id       { return 0 }
func (b *Backend) IsNullId(id Id) bool { return id == 0 }
func (b *Backend) IdSize() int      { return 4 }

func (b *Backend) EncodeId(id Id) []byte {
	buf := make([]byte, 4)
	binary.BigEndian.PutUint32(buf, uint32(id))
	return buf
}

func (b *Backend) DecodeId(buf []byte) (Id, error) {
	if len(buf) != 4 {
		return 0, backend.WrongBlockSize{Got: uint32(len(buf)), Want: 4}
	}
	return Id(binary.BigEndian.Uint32(buf)), nil
}

func (b *Backend) blockPath(id Id) string { return filepath.Join(b.root, id.filename()) }

func (b *Backend) Acquire() (Id, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	var id Id
	if n := len(b.free); n > 0 {
		id = b.free[n-1]
		b.free = b.free[:n-1]
	} else {
		id = b.next
		b.next++
	}

	f, err := os.OpenFile(b.blockPath(id), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	zero := make([]byte, b.blockSize)
	if _, err := f.Write(zero); err != nil {
		return 0, err
	}
	return id, nil
}

func (b *Backend) Release(id Id) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if id == 0 {
		return backend.NullId{}
	}
	if err := os.Remove(b.blockPath(id)); err != nil && !os.IsNotExist(err) {
		return err
	}
	b.free = append(b.free, id)
	return nil
}

func (b *Backend) Read(id Id, buf []byte) (int, error) {
	if id == 0 {
		return 0, backend.NullId{}
	}
	f, err := os.Open(b.blockPath(id))
	if err != nil {
		return 0, err
	}
	defer f.Close()
	return readFull(bufio.NewReader(f), buf)
}

func (b *Backend) Write(id Id, buf []byte) (int, error) {
	if id == 0 {
		return 0, backend.NullId{}
	}
	f, err := os.OpenFile(b.blockPath(id), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	w := bufio.NewWriter(f)
	n, err := w.Write(buf)
	if err != nil {
		return n, err
	}
	return n, w.Flush()
}

func (b *Backend) Info() backend.Info {
	return backend.Info{BlockSize: b.blockSize, Extra: b.root}
}

func (b *Backend) Settings() backend.Settings { return Settings{Version: currentVersion} }

func (b *Backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.persistFreelist()
}

func (b *Backend) HeaderSlot() backend.HeaderSlot { return b.header }
