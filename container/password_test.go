package container

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswordStoreNoCallback(t *testing.T) {
	p := NewPasswordStore(nil)
	_, err := p.Password()
	var np NoPassword
	require.ErrorAs(t, err, &np)
	assert.Equal(t, "", np.Msg)
}

func TestPasswordStoreNilStore(t *testing.T) {
	var p *PasswordStore
	_, err := p.Password()
	var np NoPassword
	require.ErrorAs(t, err, &np)
}

func TestPasswordStoreCallbackErrorWrapsMessage(t *testing.T) {
	p := NewPasswordStore(func() ([]byte, error) { return nil, errors.New("tty not available") })
	_, err := p.Password()
	var np NoPassword
	require.ErrorAs(t, err, &np)
	assert.Equal(t, "tty not available", np.Msg)
}

func TestPasswordStoreCachesAfterFirstCall(t *testing.T) {
	calls := 0
	p := NewPasswordStore(func() ([]byte, error) {
		calls++
		return []byte("hunter2"), nil
	})

	pw1, err := p.Password()
	require.NoError(t, err)
	pw2, err := p.Password()
	require.NoError(t, err)

	assert.Equal(t, []byte("hunter2"), pw1)
	assert.Equal(t, []byte("hunter2"), pw2)
	assert.Equal(t, 1, calls)
}
