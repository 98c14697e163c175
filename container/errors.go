package container

import "fmt"

// InvalidHeader is returned when the header slot does not parse: bad
// magic, an unreadable revision, or a malformed tagged union.
type InvalidHeader struct{ Reason string }

func (e InvalidHeader) Error() string { return "container: invalid header: " + e.Reason }

// WrongPassword is returned only from the sealed secret's paired-magic
// check (secret_magic1 != secret_magic2); never from a cipher failure.
type WrongPassword struct{}

func (WrongPassword) Error() string { return "container: wrong password" }

// NoPassword is returned when a cipher requires a password but the
// configured PasswordStore has none to offer: either no callback is
// registered at all (Msg == "") or the registered callback itself
// errored trying to produce one (Msg holds that error's text).
type NoPassword struct{ Msg string }

func (e NoPassword) Error() string {
	if e.Msg == "" {
		return "container: no password available"
	}
	return "container: no password available: " + e.Msg
}

// HeaderTooLarge is returned when the serialized header, once encrypted,
// would not fit inside the backend's fixed header slot.
type HeaderTooLarge struct{ Size, Max int }

func (e HeaderTooLarge) Error() string {
	return fmt.Sprintf("container: header too large: %d bytes, max %d", e.Size, e.Max)
}

// MigrationRequired is returned by a layered service's Open (e.g.
// archive.Open) when the underlying container's header is a revision-0
// header that was read with no Migration registered: the container opens
// fine on its own (TopID is just left unset), but the service has no
// root to anchor on until a migration runs. See Container.NeedsMigration.
type MigrationRequired struct{}

func (MigrationRequired) Error() string { return "container: migration required" }

// MigrationFailed wraps an error a Migration returned while converting a
// legacy header.
type MigrationFailed struct{ Msg string }

func (e MigrationFailed) Error() string { return "container: migration failed: " + e.Msg }

// UnknownCipher/UnknownKdf mirror the crypto package's own unsupported
// errors at the container boundary, per the propagation policy: codec and
// crypto errors translate into container errors at this boundary.
type UnknownCipher struct{ Discriminant uint32 }

func (e UnknownCipher) Error() string {
	return fmt.Sprintf("container: unknown cipher discriminant %d", e.Discriminant)
}

type UnknownKdf struct{ Discriminant uint32 }

func (e UnknownKdf) Error() string {
	return fmt.Sprintf("container: unknown kdf discriminant %d", e.Discriminant)
}

// NullId is returned when a block operation is attempted against the
// backend's null id.
type NullId struct{}

func (NullId) Error() string { return "container: operation on the null block id" }

// BackendError wraps any error surfaced unchanged from the backend, per
// the propagation policy ("every backend error surfaces unchanged via a
// Backend(...) wrapper").
type BackendError struct{ Err error }

func (e BackendError) Error() string { return "container: backend: " + e.Err.Error() }
func (e BackendError) Unwrap() error { return e.Err }
