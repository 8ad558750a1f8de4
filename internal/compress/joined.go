package compress

import (
	"github.com/thoreinstein/arx/internal/errors"
)

// joinedCodec runs LZSS dictionary coding and then Huffman entropy codes
// the resulting token stream. LZSS removes repetition; its output bytes
// (flags, literals, offsets packed together) are far from uniformly
// distributed, which is exactly what the entropy coder exploits.
type joinedCodec struct{}

func (joinedCodec) Encode(data []byte) ([]byte, error) {
	tokens, err := lzssCodec{}.Encode(data)
	if err != nil {
		return nil, errors.Wrap(err, "joined: lzss stage")
	}
	out, err := huffmanCodec{}.Encode(tokens)
	if err != nil {
		return nil, errors.Wrap(err, "joined: huffman stage")
	}
	return out, nil
}

func (joinedCodec) Decode(data []byte) ([]byte, error) {
	tokens, err := huffmanCodec{}.Decode(data)
	if err != nil {
		return nil, errors.Wrap(err, "joined: huffman stage")
	}
	out, err := lzssCodec{}.Decode(tokens)
	if err != nil {
		return nil, errors.Wrap(err, "joined: lzss stage")
	}
	return out, nil
}
