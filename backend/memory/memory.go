// Package memory implements an in-memory backend.Backend, used by the
// container and archive test suites the way the teacher's tests exercise
// store.PrimaryStorage against an in-memory fixture instead of a real
// gsfa/car file.
package memory

import (
	"encoding/binary"
	"sync"

	"github.com/drobin/nuts-go/backend"
	logging "github.com/ipfs/go-log/v2"
)

var log = logging.Logger("nuts/backend/memory")

// Id is the memory backend's block identifier: a 1-based sequence number,
// with 0 reserved as the null id.
type Id uint32

// Settings is the memory backend's (empty) settings value: nothing about
// an in-memory store needs to survive a close/reopen cycle, since the
// backend doesn't persist anything.
type Settings struct{}

func (Settings) Bytes() ([]byte, error) { return []byte{}, nil }

type headerSlot struct {
	mu  sync.Mutex
	buf [backend.HeaderMaxSize]byte
}

func (h *headerSlot) GetHeaderBytes(buf []byte) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	copy(buf, h.buf[:])
	return nil
}

func (h *headerSlot) PutHeaderBytes(buf []byte) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	copy(h.buf[:], buf)
	return nil
}

// Backend is an in-memory backend.Backend[Id]. Acquire hands out
// monotonically increasing ids; Release simply forgets a block's
// contents (ids are never recycled, matching the teacher's freelist
// being an optional optimization rather than a correctness requirement).
type Backend struct {
	mu        sync.Mutex
	blockSize uint32
	blocks    map[Id][]byte
	next      Id
	header    headerSlot
}

// New creates an empty in-memory backend with the given fixed block size.
func New(blockSize uint32) *Backend {
	log.Debugw("new in-memory backend", "blockSize", blockSize)
	return &Backend{
		blockSize: blockSize,
		blocks:    make(map[Id][]byte),
		next:      1,
	}
}

func (b *Backend) BlockSize() uint32 { return b.blockSize }

func (b *Backend) NullId() Id { return 0 }

func (b *Backend) IsNullId(id Id) bool { return id == 0 }

func (b *Backend) IdSize() int { return 4 }

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

func (b *Backend) Acquire() (Id, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.next
	b.next++
	b.blocks[id] = make([]byte, b.blockSize)
	return id, nil
}

func (b *Backend) Release(id Id) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if id == 0 {
		return backend.NullId{}
	}
	delete(b.blocks, id)
	return nil
}

func (b *Backend) Read(id Id, buf []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if id == 0 {
		return 0, backend.NullId{}
	}
	block, ok := b.blocks[id]
	if !ok {
		return 0, backend.UnknownSettings{Reason: "no such block"}
	}
	n := copy(buf, block)
	return n, nil
}

func (b *Backend) Write(id Id, buf []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if id == 0 {
		return 0, backend.NullId{}
	}
	block := make([]byte, len(buf))
	copy(block, buf)
	b.blocks[id] = block
	return len(buf), nil
}

func (b *Backend) Info() backend.Info {
	return backend.Info{BlockSize: b.blockSize, Extra: "memory"}
}

func (b *Backend) Settings() backend.Settings { return Settings{} }

func (b *Backend) Close() error { return nil }

func (b *Backend) HeaderSlot() backend.HeaderSlot { return &b.header }
