// Package bytes implements the hand-written, reflection-free, big-endian
// typed binary codec shared by the container header and the archive entry
// records.
//
// There is no code generation here: every persisted type in container/ and
// archive/ has its own hand-written encode/decode functions built on Reader
// and Writer (e.g. encodeMeta/decodeMeta, secret.encode/decodeSecret), the
// way store/freelist and store/primary/gsfaprimary hand-rolled their own
// wire framing in the teacher repo.
package bytes

// IntMode selects how unsigned/signed integers are framed on the wire.
type IntMode int

const (
	// Fixed emits every uN as its N/8 big-endian bytes.
	Fixed IntMode = iota
	// Variable emits a leading byte b; b <= 250 is the value itself,
	// sentinels 251|252|253|254 mean the value is the next 2|4|8|16
	// big-endian bytes.
	Variable
)

const (
	sentinel2  = 251
	sentinel4  = 252
	sentinel8  = 253
	sentinel16 = 254
	// maxSmall is the largest value a variable-mode integer can encode
	// directly in its leading byte.
	maxSmall = 250
)

// widthFor returns the byte width implied by a variable-mode sentinel, or 0
// if b is not a sentinel (i.e. it is the value itself).
func widthFor(b byte) int {
	switch b {
	case sentinel2:
		return 2
	case sentinel4:
		return 4
	case sentinel8:
		return 8
	case sentinel16:
		return 16
	default:
		return 0
	}
}

// sentinelFor returns the sentinel byte for a given encoded width.
func sentinelFor(width int) byte {
	switch width {
	case 2:
		return sentinel2
	case 4:
		return sentinel4
	case 8:
		return sentinel8
	case 16:
		return sentinel16
	default:
		panic("bytes: invalid variable-int width")
	}
}
