package plugin

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"os"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestHelperProcess is not a real test. It is re-executed as the plugin
// subprocess by startTestBackend, gated on an environment variable so a
// normal test run skips straight past it.
func TestHelperProcess(t *testing.T) {
	if os.Getenv("NUTS_PLUGIN_TEST_HELPER") != "1" {
		return
	}

	blocks := map[string][]byte{}
	header := make([]byte, 512)
	next := 1

	in := bufio.NewScanner(os.Stdin)
	out := bufio.NewWriter(os.Stdout)
	defer out.Flush()

	reply := func(format string, args ...any) {
		fmt.Fprintf(out, format+"\n", args...)
		out.Flush()
	}

	for in.Scan() {
		fields := strings.SplitN(in.Text(), " ", 3)
		switch fields[0] {
		case "acquire":
			id := "b" + strconv.Itoa(next)
			if os.Getenv("NUTS_PLUGIN_TEST_HELPER_LONG_ID") == "1" {
				id = strings.Repeat("x", idSize+1)
			}
			next++
			blocks[id] = nil
			reply("ok %s", id)
		case "release":
			delete(blocks, fields[1])
			reply("ok")
		case "read":
			reply("ok %s", hex.EncodeToString(blocks[fields[1]]))
		case "write":
			raw, err := hex.DecodeString(fields[2])
			if err != nil {
				reply("err %s", err)
				continue
			}
			blocks[fields[1]] = raw
			reply("ok")
		case "settings":
			reply("ok test-settings")
		case "header-get":
			reply("ok %s", hex.EncodeToString(header))
		case "header-put":
			raw, err := hex.DecodeString(fields[1])
			if err != nil {
				reply("err %s", err)
				continue
			}
			copy(header, raw)
			reply("ok")
		default:
			reply("err unknown command %q", fields[0])
		}
	}
}

func startTestBackend(t *testing.T) *Backend {
	t.Helper()
	os.Setenv("NUTS_PLUGIN_TEST_HELPER", "1")
	t.Cleanup(func() { os.Unsetenv("NUTS_PLUGIN_TEST_HELPER") })

	b, err := Start(os.Args[0], []string{"-test.run=^TestHelperProcess$"}, 16)
	require.NoError(t, err)
	t.Cleanup(func() { b.Close() })
	return b
}

func TestPluginAcquireWriteReadRoundTrip(t *testing.T) {
	b := startTestBackend(t)

	id, err := b.Acquire()
	require.NoError(t, err)
	assert.NotEqual(t, b.NullId(), id)

	payload := make([]byte, 16)
	copy(payload, "plugin payload!")
	n, err := b.Write(id, payload)
	require.NoError(t, err)
	assert.Equal(t, 16, n)

	buf := make([]byte, 16)
	n, err = b.Read(id, buf)
	require.NoError(t, err)
	assert.Equal(t, 16, n)
	assert.Equal(t, payload, buf)
}

func TestPluginNullIdRejectedLocally(t *testing.T) {
	b := startTestBackend(t)

	_, err := b.Read(b.NullId(), make([]byte, 16))
	assert.Error(t, err)
	_, err = b.Write(b.NullId(), make([]byte, 16))
	assert.Error(t, err)
	assert.Error(t, b.Release(b.NullId()))
}

func TestPluginHeaderSlotRoundTrip(t *testing.T) {
	b := startTestBackend(t)

	want := make([]byte, 512)
	copy(want, "plugin header")
	require.NoError(t, b.HeaderSlot().PutHeaderBytes(want))

	got := make([]byte, 512)
	require.NoError(t, b.HeaderSlot().GetHeaderBytes(got))
	assert.Equal(t, want, got)
}

func TestPluginSettingsRoundTrip(t *testing.T) {
	b := startTestBackend(t)

	s := b.Settings().(Settings)
	assert.Equal(t, "test-settings", s.Raw)
}

func TestPluginIdEncodeDecodeRoundTrip(t *testing.T) {
	b := startTestBackend(t)

	id, err := b.Acquire()
	require.NoError(t, err)

	encoded := b.EncodeId(id)
	assert.Len(t, encoded, b.IdSize())

	decoded, err := b.DecodeId(encoded)
	require.NoError(t, err)
	assert.Equal(t, id, decoded)
}

func TestPluginAcquireRejectsOverlongId(t *testing.T) {
	os.Setenv("NUTS_PLUGIN_TEST_HELPER", "1")
	t.Cleanup(func() { os.Unsetenv("NUTS_PLUGIN_TEST_HELPER") })
	os.Setenv("NUTS_PLUGIN_TEST_HELPER_LONG_ID", "1")
	t.Cleanup(func() { os.Unsetenv("NUTS_PLUGIN_TEST_HELPER_LONG_ID") })

	b, err := Start(os.Args[0], []string{"-test.run=^TestHelperProcess$"}, 16)
	require.NoError(t, err)
	t.Cleanup(func() { b.Close() })

	_, err = b.Acquire()
	assert.Error(t, err)
}

func TestPluginReleaseThenReadReturnsNoBytes(t *testing.T) {
	b := startTestBackend(t)

	id, err := b.Acquire()
	require.NoError(t, err)
	require.NoError(t, b.Release(id))

	buf := make([]byte, 16)
	n, err := b.Read(id, buf)
	require.NoError(t, err)
	assert.Equal(t, 0, n, "released id's block is gone, decoding an empty hex string")
}
