package container

import (
	stdbytes "bytes"

	nbytes "github.com/drobin/nuts-go/bytes"
)

// secret is the plaintext structure sealed inside a header's ciphertext
// blob (spec §4.D): the paired magic is the only password-correctness
// signal for non-AEAD ciphers, key/iv are the container's working block
// cipher material (distinct from the header-level key/iv used only to
// seal this structure), topID is the archive root (absent until a
// service acquires the container), and settings is the backend's opaque
// configuration blob.
type secret struct {
	magic1   uint32
	magic2   uint32
	key      []byte
	iv       []byte
	topID    []byte // nil means absent (Option<Id>::None)
	settings []byte
}

func (s *secret) encode() ([]byte, error) {
	var buf stdbytes.Buffer
	w := nbytes.NewWriter(&buf, nbytes.Fixed)
	if err := w.PutU32(s.magic1); err != nil {
		return nil, err
	}
	if err := w.PutU32(s.magic2); err != nil {
		return nil, err
	}
	if err := w.PutByteSeq(s.key); err != nil {
		return nil, err
	}
	if err := w.PutByteSeq(s.iv); err != nil {
		return nil, err
	}
	if err := w.PutOption(s.topID != nil, func() error {
		return w.PutByteSeq(s.topID)
	}); err != nil {
		return nil, err
	}
	if err := w.PutByteSeq(s.settings); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeSecret(data []byte) (*secret, error) {
	r := nbytes.NewReader(stdbytes.NewReader(data), nbytes.Fixed)
	s := &secret{}
	var err error
	if s.magic1, err = r.GetU32(); err != nil {
		return nil, err
	}
	if s.magic2, err = r.GetU32(); err != nil {
		return nil, err
	}
	if s.key, err = r.GetByteSeq(); err != nil {
		return nil, err
	}
	if s.iv, err = r.GetByteSeq(); err != nil {
		return nil, err
	}
	present, err := r.GetOption(func() error {
		topID, err := r.GetByteSeq()
		if err != nil {
			return err
		}
		s.topID = topID
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !present {
		s.topID = nil
	}
	if s.settings, err = r.GetByteSeq(); err != nil {
		return nil, err
	}
	return s, nil
}

// revision0Secret is the legacy plaintext structure: userdata replaces
// topID (spec §4.D "Revision 0 layout").
type revision0Secret struct {
	magic1   uint32
	magic2   uint32
	key      []byte
	iv       []byte
	userdata []byte
	settings []byte
}

func decodeRevision0Secret(data []byte) (*revision0Secret, error) {
	r := nbytes.NewReader(stdbytes.NewReader(data), nbytes.Fixed)
	s := &revision0Secret{}
	var err error
	if s.magic1, err = r.GetU32(); err != nil {
		return nil, err
	}
	if s.magic2, err = r.GetU32(); err != nil {
		return nil, err
	}
	if s.key, err = r.GetByteSeq(); err != nil {
		return nil, err
	}
	if s.iv, err = r.GetByteSeq(); err != nil {
		return nil, err
	}
	if s.userdata, err = r.GetByteSeq(); err != nil {
		return nil, err
	}
	if s.settings, err = r.GetByteSeq(); err != nil {
		return nil, err
	}
	return s, nil
}
