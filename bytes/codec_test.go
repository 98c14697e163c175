package bytes

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func roundTrip(t *testing.T, mode IntMode, write func(*Writer) error, read func(*Reader) error) {
	t.Helper()
	var buf bytes.Buffer
	w := NewWriter(&buf, mode)
	require.NoError(t, write(w))
	r := NewReader(&buf, mode)
	require.NoError(t, read(r))
}

func TestPrimitivesRoundTrip(t *testing.T) {
	for _, mode := range []IntMode{Fixed, Variable} {
		t.Run(modeName(mode), func(t *testing.T) {
			var buf bytes.Buffer
			w := NewWriter(&buf, mode)
			require.NoError(t, w.PutBool(true))
			require.NoError(t, w.PutU8(200))
			require.NoError(t, w.PutI8(-5))
			require.NoError(t, w.PutU16(40000))
			require.NoError(t, w.PutI16(-1234))
			require.NoError(t, w.PutU32(3000000000))
			require.NoError(t, w.PutI32(-70000))
			require.NoError(t, w.PutU64(18000000000000000000))
			require.NoError(t, w.PutI64(-1))
			require.NoError(t, w.PutF32(3.5))
			require.NoError(t, w.PutF64(-2.25))
			require.NoError(t, w.PutChar('λ'))
			require.NoError(t, w.PutUnit())
			require.NoError(t, w.PutByteSeq([]byte("hello")))
			require.NoError(t, w.PutString("world"))

			r := NewReader(&buf, mode)
			b, err := r.GetBool()
			require.NoError(t, err)
			assert.True(t, b)

			u8, err := r.GetU8()
			require.NoError(t, err)
			assert.Equal(t, uint8(200), u8)

			i8, err := r.GetI8()
			require.NoError(t, err)
			assert.Equal(t, int8(-5), i8)

			u16, err := r.GetU16()
			require.NoError(t, err)
			assert.Equal(t, uint16(40000), u16)

			i16, err := r.GetI16()
			require.NoError(t, err)
			assert.Equal(t, int16(-1234), i16)

			u32, err := r.GetU32()
			require.NoError(t, err)
			assert.Equal(t, uint32(3000000000), u32)

			i32, err := r.GetI32()
			require.NoError(t, err)
			assert.Equal(t, int32(-70000), i32)

			u64, err := r.GetU64()
			require.NoError(t, err)
			assert.Equal(t, uint64(18000000000000000000), u64)

			i64, err := r.GetI64()
			require.NoError(t, err)
			assert.Equal(t, int64(-1), i64)

			f32, err := r.GetF32()
			require.NoError(t, err)
			assert.Equal(t, float32(3.5), f32)

			f64, err := r.GetF64()
			require.NoError(t, err)
			assert.Equal(t, float64(-2.25), f64)

			ch, err := r.GetChar()
			require.NoError(t, err)
			assert.Equal(t, 'λ', ch)

			require.NoError(t, r.GetUnit())

			bs, err := r.GetByteSeq()
			require.NoError(t, err)
			assert.Equal(t, []byte("hello"), bs)

			s, err := r.GetString()
			require.NoError(t, err)
			assert.Equal(t, "world", s)
		})
	}
}

func modeName(m IntMode) string {
	if m == Fixed {
		return "fixed"
	}
	return "variable"
}

func TestVariableSmallValuesTakeOneByte(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, Variable)
	require.NoError(t, w.PutU64(17))
	assert.Equal(t, 1, buf.Len())
}

func TestVariableNarrowingFails(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, Variable)
	require.NoError(t, w.PutU64(70000)) // needs 4-byte sentinel

	r := NewReader(&buf, Variable)
	_, err := r.GetU16()
	require.Error(t, err)
	var ii InvalidInteger
	require.ErrorAs(t, err, &ii)
	assert.Equal(t, 16, ii.Expected)
	assert.Equal(t, 32, ii.Got)
}

func TestOptionRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, Fixed)
	require.NoError(t, w.PutOption(false, func() error { return nil }))
	require.NoError(t, w.PutOption(true, func() error { return w.PutU32(42) }))

	r := NewReader(&buf, Fixed)
	present, err := r.GetOption(func() error { return nil })
	require.NoError(t, err)
	assert.False(t, present)

	var v uint32
	present, err = r.GetOption(func() error {
		var e error
		v, e = r.GetU32()
		return e
	})
	require.NoError(t, err)
	assert.True(t, present)
	assert.Equal(t, uint32(42), v)
}

func TestVariantRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, Fixed)
	require.NoError(t, w.PutVariant(2, func() error { return w.PutU8(9) }))

	r := NewReader(&buf, Fixed)
	idx, err := r.GetVariant(3)
	require.NoError(t, err)
	assert.Equal(t, uint32(2), idx)
	payload, err := r.GetU8()
	require.NoError(t, err)
	assert.Equal(t, uint8(9), payload)
}

func TestVariantRejectsOutOfRange(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, Fixed)
	require.NoError(t, w.PutU32(5))

	r := NewReader(&buf, Fixed)
	_, err := r.GetVariant(3)
	require.Error(t, err)
	var ivi InvalidVariantIndex
	require.ErrorAs(t, err, &ivi)
	assert.Equal(t, InvalidVariantIndex(5), ivi)
}

func TestEofOnShortInput(t *testing.T) {
	r := NewReader(bytes.NewReader([]byte{1, 2}), Fixed)
	_, err := r.GetU32()
	require.Error(t, err)
	assert.IsType(t, Eof{}, err)
}

func TestInvalidStringUTF8(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, Fixed)
	require.NoError(t, w.PutByteSeq([]byte{0xff, 0xfe}))

	r := NewReader(&buf, Fixed)
	_, err := r.GetString()
	require.Error(t, err)
	var is InvalidString
	require.ErrorAs(t, err, &is)
}

func TestInvalidCharRejected(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, Fixed)
	require.NoError(t, w.PutU32(0xD800)) // surrogate, not a valid rune

	r := NewReader(&buf, Fixed)
	_, err := r.GetChar()
	require.Error(t, err)
	assert.IsType(t, InvalidChar(0), err)
}

func TestSeqLenAndRawRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, Variable)
	require.NoError(t, w.PutSeqLen(3))
	for i := 0; i < 3; i++ {
		require.NoError(t, w.PutU32(uint32(i)))
	}
	require.NoError(t, w.PutRaw([]byte{1, 2, 3, 4}))

	r := NewReader(&buf, Variable)
	n, err := r.GetSeqLen()
	require.NoError(t, err)
	require.Equal(t, uint64(3), n)
	for i := uint64(0); i < n; i++ {
		v, err := r.GetU32()
		require.NoError(t, err)
		assert.Equal(t, uint32(i), v)
	}
	raw := make([]byte, 4)
	require.NoError(t, r.GetRaw(raw))
	assert.Equal(t, []byte{1, 2, 3, 4}, raw)
}
