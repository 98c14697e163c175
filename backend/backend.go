// Package backend defines the abstract block-store contract that
// container.Container layers encryption over. Backend is "the one true
// polymorphism boundary" (spec §9); everything above it — container,
// archive — is generic over this interface instead of switching on backend
// kind.
//
// Concrete backends (memory, directory, plugin) are collaborators: spec §1
// places them out of scope beyond this contract, so only as much of each is
// implemented as is needed to exercise the container/archive test suite
// end-to-end.
package backend

import "fmt"

// Id is a backend-defined opaque block identifier. Backends fix a
// concrete, comparable Go type for Id (see memory.Id, directory.Id) and
// provide NullId/IsNull/EncodeId/DecodeId through the Backend interface,
// mirroring the original's Backend::Id associated type plus its
// null()/is_null() methods.
type Id interface {
	comparable
}

// Settings is an opaque, byte-serializable value a backend round-trips
// through the container header: in the clear when the cipher is None, or
// sealed inside the secret otherwise.
type Settings interface {
	// Bytes returns the settings serialized for storage in the header.
	Bytes() ([]byte, error)
}

// Info describes a backend's static geometry, returned by
// Container.Info().
type Info struct {
	BlockSize uint32
	// Extra is a short, backend-specific human-readable description
	// (e.g. a directory path, or "memory"), used only for diagnostics.
	Extra string
}

// NullId is returned by Container.Read/Write/Acquire/Release operations
// attempted against the backend's null id.
type NullId struct{}

func (NullId) Error() string { return "backend: operation on the null block id" }

// UnknownSettings is returned when a backend cannot interpret the settings
// bytes handed back to it on open.
type UnknownSettings struct{ Reason string }

func (e UnknownSettings) Error() string { return "backend: unknown settings: " + e.Reason }

// WrongBlockSize is returned when a read/write buffer's expectations
// don't match the backend's fixed block size in a way the caller should
// know about (used by backends that validate eagerly; Container itself
// pads/truncates per spec §4.E instead of erroring).
type WrongBlockSize struct{ Got, Want uint32 }

func (e WrongBlockSize) Error() string {
	return fmt.Sprintf("backend: wrong block size: got %d, want %d", e.Got, e.Want)
}

// Backend is the abstract block store a Container layers a cipher over.
// ID is the backend's concrete, comparable block-identifier type.
//
// Lifetime: each concrete backend is fully constructed by its own
// Create/Open (or Start, for plugins) before a Container sees it.
// Container.Create reads Settings() and seals it into the header. On open,
// the settings recovered from the decrypted header stay in Header.Settings;
// they are not handed back to the backend.
type Backend[ID Id] interface {
	// BlockSize returns the fixed block size in effect for this backend,
	// constant for the container's lifetime.
	BlockSize() uint32

	// NullId returns the distinguished "no block" id.
	NullId() ID
	// IsNullId reports whether id is the null id.
	IsNullId(id ID) bool
	// IdSize returns the fixed encoded size of an Id, in bytes.
	IdSize() int
	// EncodeId serializes id to its fixed-size wire form.
	EncodeId(id ID) []byte
	// DecodeId parses an id from its fixed-size wire form.
	DecodeId(buf []byte) (ID, error)

	// Acquire allocates a new block and returns its id. The block's
	// contents are unspecified until first written.
	Acquire() (ID, error)
	// Release returns a block to the backend for reuse.
	Release(id ID) error
	// Read decrypted-layer bytes: Container calls this with a
	// block-sized buffer and decrypts what comes back. Returns the
	// number of bytes read (always BlockSize() for a backend that
	// always stores full blocks).
	Read(id ID, buf []byte) (int, error)
	// Write persists exactly len(buf) (== BlockSize()) encrypted bytes
	// for id.
	Write(id ID, buf []byte) (int, error)

	// Info returns the backend's static geometry and description.
	Info() Info

	// Settings returns the current settings value, read by
	// Container.Create so it can be sealed into the header.
	Settings() Settings

	// Close releases any resources the backend holds (file handles,
	// subprocess pipes, ...), flushing first if the backend buffers
	// writes.
	Close() error

	// HeaderSlot returns a read/write view over the single fixed-size
	// header slot this backend reserves, sized exactly HeaderMaxSize
	// bytes.
	HeaderSlot() HeaderSlot
}

// HeaderMaxSize is the protocol-wide fixed size of a container's header
// slot (spec §6: "approximately 512 bytes"; fixed here per DESIGN.md open
// question #3).
const HeaderMaxSize = 512

// HeaderSlot is the single fixed-size header slot every backend reserves
// exactly one of.
type HeaderSlot interface {
	// GetHeaderBytes reads HeaderMaxSize bytes into buf, which must have
	// length HeaderMaxSize.
	GetHeaderBytes(buf []byte) error
	// PutHeaderBytes writes HeaderMaxSize bytes from buf, which must
	// have length HeaderMaxSize.
	PutHeaderBytes(buf []byte) error
}
