package container

import (
	stdbytes "bytes"
	"fmt"

	"github.com/drobin/nuts-go/backend"
	nbytes "github.com/drobin/nuts-go/bytes"
	ncrypto "github.com/drobin/nuts-go/crypto"
)

// magic is the fixed 7-byte prefix every header slot begins with.
var magic = [7]byte{'n', 'u', 't', 's', '-', 'i', 'o'}

const currentRevision = 1

// Header is the decoded, in-memory form of a container's header slot.
// Key/IV are the working block cipher material (distinct from the
// header-level key/IV, which exist only to seal the secret and are
// never retained past the read). TopID is nil until a layered service
// has acquired the container.
type Header struct {
	Revision uint32
	Cipher   ncrypto.Cipher
	Kdf      ncrypto.Kdf
	Key      []byte
	IV       []byte
	TopID    []byte
	Settings []byte

	// NeedsMigration is set when this header was read from a revision-0
	// slot with no Migration registered to bring it forward: the
	// container itself opens fine (spec §4.D scenario S2), but TopID is
	// left unset and any layered service refuses to open it (spec §4.D:
	// "the container is usable, but any layered service refuses to open
	// it").
	NeedsMigration bool
}

// HeaderMaxSize is the fixed size of a container's header slot.
const HeaderMaxSize = backend.HeaderMaxSize

func readKdf(r *nbytes.Reader) (ncrypto.Kdf, error) {
	kind, err := r.GetU32()
	if err != nil {
		return ncrypto.Kdf{}, err
	}
	switch ncrypto.KdfKind(kind) {
	case ncrypto.KdfNone:
		return ncrypto.NoneKdf(), nil
	case ncrypto.KdfPbkdf2:
		digest, err := r.GetU32()
		if err != nil {
			return ncrypto.Kdf{}, err
		}
		iterations, err := r.GetU32()
		if err != nil {
			return ncrypto.Kdf{}, err
		}
		salt, err := r.GetByteSeq()
		if err != nil {
			return ncrypto.Kdf{}, err
		}
		return ncrypto.NewPbkdf2(ncrypto.Digest(digest), iterations, salt), nil
	default:
		return ncrypto.Kdf{}, UnknownKdf{Discriminant: kind}
	}
}

func writeKdf(w *nbytes.Writer, kdf ncrypto.Kdf) error {
	if err := w.PutU32(uint32(kdf.Kind)); err != nil {
		return err
	}
	if kdf.Kind == ncrypto.KdfPbkdf2 {
		if err := w.PutU32(uint32(kdf.Digest)); err != nil {
			return err
		}
		if err := w.PutU32(kdf.Iterations); err != nil {
			return err
		}
		if err := w.PutByteSeq(kdf.Salt); err != nil {
			return err
		}
	}
	return nil
}

// ReadHeader parses and decrypts a header slot. migrator may be nil
// (meaning no legacy migrations are registered); pwStore supplies the
// password if the header's cipher requires one.
func ReadHeader(data []byte, migrator *Migrator, pwStore *PasswordStore) (*Header, error) {
	r := nbytes.NewReader(stdbytes.NewReader(data), nbytes.Fixed)

	var gotMagic [7]byte
	if err := r.GetRaw(gotMagic[:]); err != nil {
		return nil, InvalidHeader{Reason: "short read"}
	}
	if gotMagic != magic {
		return nil, InvalidHeader{Reason: "magic mismatch"}
	}

	revision, err := r.GetU32()
	if err != nil {
		return nil, InvalidHeader{Reason: "short read"}
	}
	if revision > currentRevision {
		return nil, InvalidHeader{Reason: fmt.Sprintf("unsupported revision %d", revision)}
	}

	cipherKind, err := r.GetU32()
	if err != nil {
		return nil, InvalidHeader{Reason: "short read"}
	}
	cipher := ncrypto.Cipher(cipherKind)
	if !cipher.Valid() {
		return nil, UnknownCipher{Discriminant: cipherKind}
	}

	headerIV, err := r.GetByteSeq()
	if err != nil {
		return nil, InvalidHeader{Reason: "short read (iv)"}
	}
	kdf, err := readKdf(r)
	if err != nil {
		return nil, err
	}
	ciphertext, err := r.GetByteSeq()
	if err != nil {
		return nil, InvalidHeader{Reason: "short read (secret)"}
	}

	var password []byte
	if cipher != ncrypto.CipherNone {
		password, err = pwStore.Password()
		if err != nil {
			return nil, err
		}
	}
	headerKey, err := kdf.CreateKey(password, cipher.KeyLen())
	if err != nil {
		return nil, err
	}
	defer ncrypto.Wipe(headerKey)
	ctx, err := ncrypto.NewContext(cipher, headerKey, headerIV)
	if err != nil {
		return nil, err
	}
	plaintext, err := ctx.Decrypt(headerIV, ciphertext)
	if err != nil {
		return nil, err
	}
	defer ncrypto.Wipe(plaintext)

	h := &Header{Revision: revision, Cipher: cipher, Kdf: kdf}

	if revision == 0 {
		legacy, err := decodeRevision0Secret(plaintext)
		if err != nil {
			return nil, err
		}
		if legacy.magic1 != legacy.magic2 {
			return nil, WrongPassword{}
		}
		h.Key = legacy.key
		h.IV = legacy.iv
		h.Settings = legacy.settings
		h.Revision = currentRevision

		if m := migrator.Rev0(); m != nil {
			_, topID, err := m.MigrateRev0(legacy.userdata)
			if err != nil {
				return nil, MigrationFailed{Msg: err.Error()}
			}
			h.TopID = topID
			log.Infow("migrated revision-0 header", "hasTopID", topID != nil)
		} else {
			log.Warn("read revision-0 header without a registered migration, top-id left unset")
			h.NeedsMigration = true
		}
		return h, nil
	}

	s, err := decodeSecret(plaintext)
	if err != nil {
		return nil, err
	}
	if s.magic1 != s.magic2 {
		return nil, WrongPassword{}
	}
	h.Key = s.key
	h.IV = s.iv
	h.TopID = s.topID
	h.Settings = s.settings
	return h, nil
}

// WriteHeader serializes and seals h into a fresh HeaderMaxSize-byte
// slot, generating a new random header-level IV (and, for Pbkdf2, reusing
// h.Kdf's configured salt) on every call — so no two writes of the same
// logical header ever produce the same bytes.
func WriteHeader(h *Header, pwStore *PasswordStore) ([]byte, error) {
	plain := &secret{
		key:      h.Key,
		iv:       h.IV,
		topID:    h.TopID,
		settings: h.Settings,
	}
	magicVal, err := ncrypto.RandU32()
	if err != nil {
		return nil, err
	}
	plain.magic1, plain.magic2 = magicVal, magicVal

	payload, err := plain.encode()
	if err != nil {
		return nil, err
	}
	defer ncrypto.Wipe(payload)

	var password []byte
	if h.Cipher != ncrypto.CipherNone {
		password, err = pwStore.Password()
		if err != nil {
			return nil, err
		}
	}
	headerKey, err := h.Kdf.CreateKey(password, h.Cipher.KeyLen())
	if err != nil {
		return nil, err
	}
	defer ncrypto.Wipe(headerKey)
	headerIV := make([]byte, h.Cipher.IVLen())
	if len(headerIV) > 0 {
		if err := ncrypto.RandBytes(headerIV); err != nil {
			return nil, err
		}
	}
	ctx, err := ncrypto.NewContext(h.Cipher, headerKey, headerIV)
	if err != nil {
		return nil, err
	}
	ciphertext, err := ctx.Encrypt(headerIV, payload)
	if err != nil {
		return nil, err
	}

	var buf stdbytes.Buffer
	w := nbytes.NewWriter(&buf, nbytes.Fixed)
	if err := w.PutRaw(magic[:]); err != nil {
		return nil, err
	}
	if err := w.PutU32(currentRevision); err != nil {
		return nil, err
	}
	if err := w.PutU32(uint32(h.Cipher)); err != nil {
		return nil, err
	}
	if err := w.PutByteSeq(headerIV); err != nil {
		return nil, err
	}
	if err := writeKdf(w, h.Kdf); err != nil {
		return nil, err
	}
	if err := w.PutByteSeq(ciphertext); err != nil {
		return nil, err
	}

	if buf.Len() > HeaderMaxSize {
		return nil, HeaderTooLarge{Size: buf.Len(), Max: HeaderMaxSize}
	}
	out := make([]byte, HeaderMaxSize)
	copy(out, buf.Bytes())
	return out, nil
}
