package bytes

import (
	"io"
	"math"
	"unicode/utf8"
)

// Writer serializes typed values as big-endian bytes under a fixed IntMode
// chosen when the Writer is constructed.
type Writer struct {
	w    io.Writer
	mode IntMode
}

// NewWriter returns a Writer that writes to w using the given integer mode.
func NewWriter(w io.Writer, mode IntMode) *Writer {
	return &Writer{w: w, mode: mode}
}

func (w *Writer) write(p []byte) error {
	_, err := w.w.Write(p)
	return err
}

// PutBool writes a single byte: 0 for false, 1 for true.
func (w *Writer) PutBool(v bool) error {
	if v {
		return w.write([]byte{1})
	}
	return w.write([]byte{0})
}

// PutU8 writes a single byte.
func (w *Writer) PutU8(v uint8) error { return w.write([]byte{v}) }

// PutI8 writes a single byte carrying the two's complement bit pattern.
func (w *Writer) PutI8(v int8) error { return w.PutU8(uint8(v)) }

func minWidthFor(v uint64) int {
	switch {
	case v <= math.MaxUint16:
		return 2
	case v <= math.MaxUint32:
		return 4
	default:
		return 8
	}
}

// putUint writes v, which must fit in width bytes (1, 2, 4 or 8).
func (w *Writer) putUint(width int, v uint64) error {
	if width == 1 {
		return w.PutU8(uint8(v))
	}
	if w.mode == Fixed {
		return w.writeBE(width, v)
	}
	if v <= maxSmall {
		return w.PutU8(uint8(v))
	}
	needed := minWidthFor(v)
	if needed > width {
		needed = width
	}
	if err := w.PutU8(sentinelFor(needed)); err != nil {
		return err
	}
	return w.writeBE(needed, v)
}

func (w *Writer) writeBE(width int, v uint64) error {
	buf := make([]byte, width)
	for i := width - 1; i >= 0; i-- {
		buf[i] = byte(v)
		v >>= 8
	}
	return w.write(buf)
}

// PutU16/PutU32/PutU64 write unsigned integers of the given width, subject
// to the Writer's IntMode.
func (w *Writer) PutU16(v uint16) error { return w.putUint(2, uint64(v)) }
func (w *Writer) PutU32(v uint32) error { return w.putUint(4, uint64(v)) }
func (w *Writer) PutU64(v uint64) error { return w.putUint(8, v) }

func (w *Writer) PutI16(v int16) error { return w.putUint(2, uint64(uint16(v))) }
func (w *Writer) PutI32(v int32) error { return w.putUint(4, uint64(uint32(v))) }
func (w *Writer) PutI64(v int64) error { return w.putUint(8, uint64(v)) }

// PutU128 writes a 128-bit unsigned integer given as (hi, lo) big-endian
// halves.
func (w *Writer) PutU128(hi, lo uint64) error {
	if w.mode == Fixed || hi != 0 {
		buf := make([]byte, 16)
		for i := 15; i >= 8; i-- {
			buf[i] = byte(lo)
			lo >>= 8
		}
		for i := 7; i >= 0; i-- {
			buf[i] = byte(hi)
			hi >>= 8
		}
		if w.mode == Variable {
			if err := w.PutU8(sentinelFor(16)); err != nil {
				return err
			}
		}
		return w.write(buf)
	}
	return w.putUint(8, lo)
}

// PutI128 writes a 128-bit signed integer given as its two's complement
// (hi, lo) big-endian halves.
func (w *Writer) PutI128(hi, lo uint64) error { return w.PutU128(hi, lo) }

// PutF32/PutF64 write IEEE-754 floats as their fixed-width bit patterns;
// IntMode never applies to floats.
func (w *Writer) PutF32(v float32) error {
	return w.writeBE(4, uint64(math.Float32bits(v)))
}

func (w *Writer) PutF64(v float64) error {
	return w.writeBE(8, math.Float64bits(v))
}

// PutChar writes a unicode code point as a validated u32.
func (w *Writer) PutChar(r rune) error {
	if !utf8.ValidRune(r) {
		return InvalidChar(uint32(r))
	}
	return w.PutU32(uint32(r))
}

// PutUnit writes nothing; present for symmetry with Reader.GetUnit.
func (w *Writer) PutUnit() error { return nil }

// PutRaw writes exactly len(b) bytes with no length prefix; used for
// fixed-size arrays such as a backend's Id encoding.
func (w *Writer) PutRaw(b []byte) error { return w.write(b) }

// PutByteSeq writes a length-prefixed byte sequence: a u64 length (subject
// to IntMode) followed by the raw bytes.
func (w *Writer) PutByteSeq(b []byte) error {
	if err := w.PutU64(uint64(len(b))); err != nil {
		return err
	}
	if len(b) == 0 {
		return nil
	}
	return w.write(b)
}

// PutString writes a length-prefixed UTF-8 string.
func (w *Writer) PutString(s string) error {
	return w.PutByteSeq([]byte(s))
}

// PutSeqLen writes the length of a caller-managed ordered sequence; the
// caller then writes each element in order.
func (w *Writer) PutSeqLen(n int) error { return w.PutU64(uint64(n)) }

// PutOption writes the option tag and, if present is true, invokes write to
// emit the payload.
func (w *Writer) PutOption(present bool, write func() error) error {
	if !present {
		return w.PutU8(0)
	}
	if err := w.PutU8(1); err != nil {
		return err
	}
	return write()
}

// PutVariant writes a tagged-union discriminant (as u32) followed by the
// variant's payload, written by write in declaration order.
func (w *Writer) PutVariant(index uint32, write func() error) error {
	if err := w.PutU32(index); err != nil {
		return err
	}
	return write()
}
