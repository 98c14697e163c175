// Package plugin implements a thin out-of-process backend.Backend that
// delegates every operation to a subprocess speaking a line-oriented
// protocol over stdin/stdout. Spec §1 places out-of-process backends
// largely out of scope beyond "a stable command surface exists"; this is
// deliberately the minimal wiring that satisfies that surface rather than
// a full plugin SDK.
package plugin

import (
	"bufio"
	stdbytes "bytes"
	"encoding/hex"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"

	"github.com/drobin/nuts-go/backend"
	logging "github.com/ipfs/go-log/v2"
)

var log = logging.Logger("nuts/backend/plugin")

// Id is the plugin backend's block identifier: an opaque byte string
// handed back by the subprocess, compared by value.
type Id string

// idSize is the fixed encoded width the plugin protocol commits to for an
// Id's wire form (spec §3: a backend declares a fixed Id size). The
// subprocess itself may return ids of any natural length up to this
// width; archive/container callers never see idSize, only IdSize().
const idSize = 32

// Settings carries whatever configuration string the plugin reports back
// (e.g. a remote bucket name), opaque to this package.
type Settings struct{ Raw string }

func (s Settings) Bytes() ([]byte, error) { return []byte(s.Raw), nil }

// Backend drives a subprocess implementing the nuts plugin protocol: one
// request per line ("acquire", "release <id>", "read <id>", "write <id>
// <hex>", "settings", "header-get", "header-put <hex>"), one
// response per line ("ok [payload]" or "err <message>").
type Backend struct {
	mu        sync.Mutex
	cmd       *exec.Cmd
	stdin     io.WriteCloser
	stdout    *bufio.Reader
	blockSize uint32
}

// Start launches name with args as the backend subprocess.
func Start(name string, args []string, blockSize uint32) (*Backend, error) {
	cmd := exec.Command(name, args...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, err
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	if err := cmd.Start(); err != nil {
		return nil, err
	}
	log.Infow("started plugin backend", "name", name, "args", args)
	return &Backend{
		cmd:       cmd,
		stdin:     stdin,
		stdout:    bufio.NewReader(stdout),
		blockSize: blockSize,
	}, nil
}

func (b *Backend) roundTrip(req string) (string, error) {
	if _, err := io.WriteString(b.stdin, req+"\n"); err != nil {
		return "", err
	}
	line, err := b.stdout.ReadString('\n')
	if err != nil {
		return "", err
	}
	line = strings.TrimRight(line, "\n")
	if strings.HasPrefix(line, "err ") {
		return "", fmt.Errorf("plugin: %s", strings.TrimPrefix(line, "err "))
	}
	return strings.TrimPrefix(line, "ok "), nil
}

func (b *Backend) BlockSize() uint32   { return b.blockSize }
func (b *Backend) NullId() Id          { return "" }
func (b *Backend) IsNullId(id Id) bool { return id == "" }
func (b *Backend) IdSize() int         { return idSize }

// EncodeId zero-pads id into its fixed idSize-byte wire form. Callers
// (Acquire) reject ids that don't fit before one ever reaches here.
func (b *Backend) EncodeId(id Id) []byte {
	buf := make([]byte, idSize)
	copy(buf, id)
	return buf
}

// DecodeId trims the trailing zero padding EncodeId added. This backend's
// protocol only ever hands out short ASCII ids (see the helper process in
// plugin_test.go), so embedded NUL bytes are not a real-world concern.
func (b *Backend) DecodeId(buf []byte) (Id, error) {
	return Id(stdbytes.TrimRight(buf, "\x00")), nil
}

func (b *Backend) Acquire() (Id, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	resp, err := b.roundTrip("acquire")
	if err != nil {
		return "", err
	}
	if len(resp) > idSize {
		return "", fmt.Errorf("plugin: id %q exceeds the fixed id size of %d bytes", resp, idSize)
	}
	return Id(resp), nil
}

func (b *Backend) Release(id Id) error {
	if id == "" {
		return backend.NullId{}
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	_, err := b.roundTrip("release " + string(id))
	return err
}

func (b *Backend) Read(id Id, buf []byte) (int, error) {
	if id == "" {
		return 0, backend.NullId{}
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	resp, err := b.roundTrip("read " + string(id))
	if err != nil {
		return 0, err
	}
	raw, err := hex.DecodeString(resp)
	if err != nil {
		return 0, err
	}
	return copy(buf, raw), nil
}

func (b *Backend) Write(id Id, buf []byte) (int, error) {
	if id == "" {
		return 0, backend.NullId{}
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	_, err := b.roundTrip("write " + string(id) + " " + hex.EncodeToString(buf))
	if err != nil {
		return 0, err
	}
	return len(buf), nil
}

func (b *Backend) Info() backend.Info {
	return backend.Info{BlockSize: b.blockSize, Extra: "plugin:" + b.cmd.Path}
}

func (b *Backend) Settings() backend.Settings {
	b.mu.Lock()
	defer b.mu.Unlock()
	resp, err := b.roundTrip("settings")
	if err != nil {
		return Settings{}
	}
	return Settings{Raw: resp}
}

func (b *Backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.stdin.Close()
	return b.cmd.Wait()
}

type pluginHeaderSlot struct{ b *Backend }

func (h pluginHeaderSlot) GetHeaderBytes(buf []byte) error {
	h.b.mu.Lock()
	defer h.b.mu.Unlock()
	resp, err := h.b.roundTrip("header-get")
	if err != nil {
		return err
	}
	raw, err := hex.DecodeString(resp)
	if err != nil {
		return err
	}
	if len(raw) != len(buf) {
		return fmt.Errorf("plugin: header slot length %d, want %d", len(raw), len(buf))
	}
	copy(buf, raw)
	return nil
}

func (h pluginHeaderSlot) PutHeaderBytes(buf []byte) error {
	h.b.mu.Lock()
	defer h.b.mu.Unlock()
	_, err := h.b.roundTrip("header-put " + hex.EncodeToString(buf))
	return err
}

func (b *Backend) HeaderSlot() backend.HeaderSlot { return pluginHeaderSlot{b: b} }
