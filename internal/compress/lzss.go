package compress

import (
	"encoding/binary"

	"github.com/thoreinstein/arx/internal/errors"
)

// LZSS parameters. Offsets use 12 bits, lengths 4 bits, so a match token
// costs 17 bits against 9 for a literal; minMatch 3 keeps matches a win.
const (
	lzssWindow   = 4096 // max offset is lzssWindow-1
	lzssMinMatch = 3
	lzssMaxMatch = lzssMinMatch + 15

	lzssOffsetBits = 12
	lzssLengthBits = 4

	// Bound on hash-chain candidates examined per position. Capping the
	// search keeps encoding near-linear; the chain is walked newest-first
	// so the nearest match always wins ties regardless of the cap.
	lzssMaxChain = 64
)

// LZSS stream layout:
//
//	uvarint(original length) | token bitstream
//
// Each token is a flag bit: 1 followed by an 8-bit literal, or 0 followed
// by a 12-bit offset and 4-bit (length - minMatch). Matches may overlap
// the current position; the decoder copies byte by byte.
type lzssCodec struct{}

func lzssKey(a, b, c byte) uint32 {
	return uint32(a)<<16 | uint32(b)<<8 | uint32(c)
}

func (lzssCodec) Encode(data []byte) ([]byte, error) {
	out := binary.AppendUvarint(nil, uint64(len(data)))
	if len(data) == 0 {
		return out, nil
	}

	w := newBitWriter(out)

	// Positions of each 3-byte prefix, oldest first.
	chains := make(map[uint32][]int)

	emitLiteral := func(b byte) {
		w.writeBit(1)
		w.writeBits(uint64(b), 8)
	}

	record := func(pos int) {
		if pos+lzssMinMatch <= len(data) {
			k := lzssKey(data[pos], data[pos+1], data[pos+2])
			chains[k] = append(chains[k], pos)
		}
	}

	i := 0
	for i < len(data) {
		bestLen, bestOff := 0, 0

		if i+lzssMinMatch <= len(data) {
			k := lzssKey(data[i], data[i+1], data[i+2])
			chain := chains[k]
			tried := 0
			for c := len(chain) - 1; c >= 0 && tried < lzssMaxChain; c-- {
				pos := chain[c]
				off := i - pos
				if off >= lzssWindow {
					break // older entries are only farther away
				}
				tried++

				maxLen := lzssMaxMatch
				if rem := len(data) - i; rem < maxLen {
					maxLen = rem
				}
				l := 0
				for l < maxLen && data[pos+l] == data[i+l] {
					l++
				}
				// Strictly greater keeps the nearest match on ties,
				// since the chain is walked newest-first.
				if l > bestLen {
					bestLen, bestOff = l, off
					if l == maxLen {
						break
					}
				}
			}
		}

		if bestLen >= lzssMinMatch {
			w.writeBit(0)
			w.writeBits(uint64(bestOff), lzssOffsetBits)
			w.writeBits(uint64(bestLen-lzssMinMatch), lzssLengthBits)
			for j := 0; j < bestLen; j++ {
				record(i + j)
			}
			i += bestLen
		} else {
			emitLiteral(data[i])
			record(i)
			i++
		}
	}

	return w.bytes(), nil
}

func (lzssCodec) Decode(data []byte) ([]byte, error) {
	origLen, n := binary.Uvarint(data)
	if n <= 0 {
		return nil, errors.New("lzss: missing length header")
	}
	data = data[n:]

	if origLen == 0 {
		return []byte{}, nil
	}

	out := make([]byte, 0, origLen)
	r := newBitReader(data)

	for uint64(len(out)) < origLen {
		flag, err := r.readBit()
		if err != nil {
			return nil, errors.Wrap(err, "lzss")
		}
		if flag == 1 {
			lit, err := r.readBits(8)
			if err != nil {
				return nil, errors.Wrap(err, "lzss")
			}
			out = append(out, byte(lit))
			continue
		}

		off, err := r.readBits(lzssOffsetBits)
		if err != nil {
			return nil, errors.Wrap(err, "lzss")
		}
		l, err := r.readBits(lzssLengthBits)
		if err != nil {
			return nil, errors.Wrap(err, "lzss")
		}
		length := int(l) + lzssMinMatch

		if off == 0 || int(off) > len(out) {
			return nil, errors.Newf("lzss: invalid match offset %d at output position %d", off, len(out))
		}
		if uint64(len(out)+length) > origLen {
			return nil, errors.New("lzss: match overruns declared length")
		}

		start := len(out) - int(off)
		for j := 0; j < length; j++ {
			out = append(out, out[start+j])
		}
	}

	return out, nil
}
