package container

import (
	"sync"

	ncrypto "github.com/drobin/nuts-go/crypto"
)

// PasswordCallback supplies password bytes on demand, e.g. reading a TTY
// prompt, a file, or a file descriptor (see cmd/nuts's precedence order).
type PasswordCallback func() ([]byte, error)

// PasswordStore lazily invokes a PasswordCallback at most once per
// container lifetime and caches the result in a SecureBytes, mirroring
// the original's PasswordStore (original_source/src/container/password.rs):
// a header that never needs a password (cipher None) never prompts.
type PasswordStore struct {
	mu       sync.Mutex
	callback PasswordCallback
	cached   *ncrypto.SecureBytes
}

// NewPasswordStore wraps cb, which may be nil (meaning "no password
// available"; NoPassword is returned if one is ever required).
func NewPasswordStore(cb PasswordCallback) *PasswordStore {
	return &PasswordStore{callback: cb}
}

// Password returns the cached password, invoking the callback on first
// use.
func (p *PasswordStore) Password() ([]byte, error) {
	if p == nil {
		return nil, NoPassword{}
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cached != nil {
		return p.cached.Bytes(), nil
	}
	if p.callback == nil {
		return nil, NoPassword{}
	}
	pw, err := p.callback()
	if err != nil {
		return nil, NoPassword{Msg: err.Error()}
	}
	sb := ncrypto.NewSecureBytes(pw)
	p.cached = sb
	return sb.Bytes(), nil
}

// Close wipes the cached password, if any.
func (p *PasswordStore) Close() {
	if p == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cached != nil {
		p.cached.Close()
		p.cached = nil
	}
}
