package bytes

import (
	"io"
	"math"
	"unicode/utf8"
)

// Reader deserializes typed values from big-endian bytes under a fixed
// IntMode chosen when the Reader is constructed; it must match the IntMode
// the corresponding Writer used.
type Reader struct {
	r    io.Reader
	mode IntMode
}

// NewReader returns a Reader that reads from r using the given integer mode.
func NewReader(r io.Reader, mode IntMode) *Reader {
	return &Reader{r: r, mode: mode}
}

func (r *Reader) readFull(buf []byte) error {
	_, err := io.ReadFull(r.r, buf)
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return Eof{}
	}
	return err
}

// GetBool reads a single byte: zero is false, anything else is true.
func (r *Reader) GetBool() (bool, error) {
	var buf [1]byte
	if err := r.readFull(buf[:]); err != nil {
		return false, err
	}
	return buf[0] != 0, nil
}

// GetU8 reads a single byte.
func (r *Reader) GetU8() (uint8, error) {
	var buf [1]byte
	if err := r.readFull(buf[:]); err != nil {
		return 0, err
	}
	return buf[0], nil
}

// GetI8 reads a single byte as a two's complement int8.
func (r *Reader) GetI8() (int8, error) {
	v, err := r.GetU8()
	return int8(v), err
}

func (r *Reader) readBE(width int) (uint64, error) {
	buf := make([]byte, width)
	if err := r.readFull(buf); err != nil {
		return 0, err
	}
	var v uint64
	for _, b := range buf {
		v = v<<8 | uint64(b)
	}
	return v, nil
}

// getUint reads an integer targeting a declared width of 1, 2, 4 or 8 bytes.
func (r *Reader) getUint(width int) (uint64, error) {
	if width == 1 {
		v, err := r.GetU8()
		return uint64(v), err
	}
	if r.mode == Fixed {
		return r.readBE(width)
	}
	b, err := r.GetU8()
	if err != nil {
		return 0, err
	}
	if b <= maxSmall {
		return uint64(b), nil
	}
	sw := widthFor(b)
	if sw == 0 {
		return 0, Custom("malformed variable-length integer tag")
	}
	if sw > width {
		return 0, InvalidInteger{Expected: width * 8, Got: sw * 8}
	}
	return r.readBE(sw)
}

func (r *Reader) GetU16() (uint16, error) {
	v, err := r.getUint(2)
	return uint16(v), err
}

func (r *Reader) GetU32() (uint32, error) {
	v, err := r.getUint(4)
	return uint32(v), err
}

func (r *Reader) GetU64() (uint64, error) {
	return r.getUint(8)
}

func (r *Reader) GetI16() (int16, error) {
	v, err := r.getUint(2)
	return int16(uint16(v)), err
}

func (r *Reader) GetI32() (int32, error) {
	v, err := r.getUint(4)
	return int32(uint32(v)), err
}

func (r *Reader) GetI64() (int64, error) {
	v, err := r.getUint(8)
	return int64(v), err
}

// GetU128 reads a 128-bit unsigned integer as (hi, lo) big-endian halves.
func (r *Reader) GetU128() (hi, lo uint64, err error) {
	if r.mode == Fixed {
		buf := make([]byte, 16)
		if err = r.readFull(buf); err != nil {
			return 0, 0, err
		}
		for _, b := range buf[:8] {
			hi = hi<<8 | uint64(b)
		}
		for _, b := range buf[8:] {
			lo = lo<<8 | uint64(b)
		}
		return hi, lo, nil
	}
	b, err := r.GetU8()
	if err != nil {
		return 0, 0, err
	}
	if b <= maxSmall {
		return 0, uint64(b), nil
	}
	sw := widthFor(b)
	if sw == 0 {
		return 0, 0, Custom("malformed variable-length integer tag")
	}
	if sw < 16 {
		lo, err = r.readBE(sw)
		return 0, lo, err
	}
	buf := make([]byte, 16)
	if err = r.readFull(buf); err != nil {
		return 0, 0, err
	}
	for _, b := range buf[:8] {
		hi = hi<<8 | uint64(b)
	}
	for _, b := range buf[8:] {
		lo = lo<<8 | uint64(b)
	}
	return hi, lo, nil
}

func (r *Reader) GetI128() (hi, lo uint64, err error) { return r.GetU128() }

// GetF32/GetF64 read IEEE-754 floats from their fixed-width bit patterns.
func (r *Reader) GetF32() (float32, error) {
	v, err := r.readBE(4)
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(uint32(v)), nil
}

func (r *Reader) GetF64() (float64, error) {
	v, err := r.readBE(8)
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(v), nil
}

// GetChar reads and validates a unicode code point encoded as a u32.
func (r *Reader) GetChar() (rune, error) {
	v, err := r.GetU32()
	if err != nil {
		return 0, err
	}
	ru := rune(v)
	if !utf8.ValidRune(ru) {
		return 0, InvalidChar(v)
	}
	return ru, nil
}

// GetUnit reads nothing; present for symmetry with Writer.PutUnit.
func (r *Reader) GetUnit() error { return nil }

// GetRaw reads exactly len(buf) bytes into buf with no length prefix.
func (r *Reader) GetRaw(buf []byte) error { return r.readFull(buf) }

// GetByteSeq reads a length-prefixed byte sequence.
func (r *Reader) GetByteSeq() ([]byte, error) {
	n, err := r.GetU64()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return []byte{}, nil
	}
	buf := make([]byte, n)
	if err := r.readFull(buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// GetString reads a length-prefixed, UTF-8-validated string.
func (r *Reader) GetString() (string, error) {
	b, err := r.GetByteSeq()
	if err != nil {
		return "", err
	}
	if !utf8.Valid(b) {
		return "", InvalidString{Pos: firstInvalidUTF8(b)}
	}
	return string(b), nil
}

func firstInvalidUTF8(b []byte) int {
	pos := 0
	for len(b) > 0 {
		r, size := utf8.DecodeRune(b)
		if r == utf8.RuneError && size <= 1 {
			return pos
		}
		pos += size
		b = b[size:]
	}
	return pos
}

// GetSeqLen reads the length of a caller-managed ordered sequence.
func (r *Reader) GetSeqLen() (uint64, error) { return r.GetU64() }

// GetOption reads the option tag, and if present invokes read to consume
// the payload.
func (r *Reader) GetOption(read func() error) (bool, error) {
	tag, err := r.GetU8()
	if err != nil {
		return false, err
	}
	if tag == 0 {
		return false, nil
	}
	return true, read()
}

// GetVariant reads a tagged-union discriminant, validates it is below n,
// and returns it for the caller to switch on.
func (r *Reader) GetVariant(n uint32) (uint32, error) {
	idx, err := r.GetU32()
	if err != nil {
		return 0, err
	}
	if idx >= n {
		return 0, InvalidVariantIndex(idx)
	}
	return idx, nil
}
