package compress

import (
	"github.com/thoreinstein/arx/internal/errors"
)

// Algorithm identifies a compression algorithm. The numeric values are
// part of the archive format and must not be reordered.
type Algorithm uint8

const (
	// Huffman is canonical Huffman entropy coding over raw bytes.
	Huffman Algorithm = 0
	// LZSS is sliding-window dictionary coding.
	LZSS Algorithm = 1
	// Joined is LZSS dictionary coding followed by Huffman entropy coding
	// of the token stream.
	Joined Algorithm = 2
)

// String returns the lowercase algorithm name.
func (a Algorithm) String() string {
	switch a {
	case Huffman:
		return "huffman"
	case LZSS:
		return "lzss"
	case Joined:
		return "joined"
	default:
		return "unknown"
	}
}

// Valid reports whether a names a known algorithm.
func (a Algorithm) Valid() bool {
	return a <= Joined
}

// ParseAlgorithm maps a config/CLI name to an Algorithm.
func ParseAlgorithm(name string) (Algorithm, error) {
	switch name {
	case "huffman":
		return Huffman, nil
	case "lzss":
		return LZSS, nil
	case "joined":
		return Joined, nil
	default:
		return 0, errors.Newf("unknown compression algorithm %q", name)
	}
}

// Codec encodes and decodes byte streams. Decode(Encode(x)) == x for every
// input, including empty and single-byte inputs. Implementations are
// stateless and safe for concurrent use.
type Codec interface {
	Encode(data []byte) ([]byte, error)
	Decode(data []byte) ([]byte, error)
}

// New returns the codec for the given algorithm.
func New(algo Algorithm) (Codec, error) {
	switch algo {
	case Huffman:
		return huffmanCodec{}, nil
	case LZSS:
		return lzssCodec{}, nil
	case Joined:
		return joinedCodec{}, nil
	default:
		return nil, errors.Newf("unknown compression algorithm %d", algo)
	}
}
