package compress

import (
	"container/heap"
	"encoding/binary"
	"sort"

	"github.com/thoreinstein/arx/internal/errors"
)

// Huffman stream layout:
//
//	uvarint(original length) | code length table (256 bytes) | bit-packed codes
//
// The table stores the canonical code length per byte value (0 = unused),
// so the decoder reconstructs exactly the codes the encoder used. An empty
// input is just uvarint(0) with no table.
type huffmanCodec struct{}

type huffNode struct {
	freq  uint64
	order int // deterministic heap tie-break: symbol for leaves, 256+seq for internal
	sym   byte
	left  *huffNode
	right *huffNode
}

func (n *huffNode) leaf() bool { return n.left == nil && n.right == nil }

type huffHeap []*huffNode

func (h huffHeap) Len() int { return len(h) }
func (h huffHeap) Less(i, j int) bool {
	if h[i].freq != h[j].freq {
		return h[i].freq < h[j].freq
	}
	return h[i].order < h[j].order
}
func (h huffHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *huffHeap) Push(x any)        { *h = append(*h, x.(*huffNode)) }
func (h *huffHeap) Pop() any {
	old := *h
	n := old[len(old)-1]
	*h = old[:len(old)-1]
	return n
}

// codeLengths computes the canonical code length per symbol from byte
// frequencies. Ties break by symbol value, then by node creation order, so
// the table is fully determined by the input.
func codeLengths(freq *[256]uint64) [256]byte {
	var lengths [256]byte

	h := make(huffHeap, 0, 256)
	for sym, f := range freq {
		if f > 0 {
			h = append(h, &huffNode{freq: f, order: sym, sym: byte(sym)})
		}
	}

	switch len(h) {
	case 0:
		return lengths
	case 1:
		// A single distinct symbol still needs one bit per occurrence.
		lengths[h[0].sym] = 1
		return lengths
	}

	heap.Init(&h)
	seq := 256
	for h.Len() > 1 {
		a := heap.Pop(&h).(*huffNode)
		b := heap.Pop(&h).(*huffNode)
		heap.Push(&h, &huffNode{freq: a.freq + b.freq, order: seq, left: a, right: b})
		seq++
	}

	root := h[0]
	var walk func(n *huffNode, depth byte)
	walk = func(n *huffNode, depth byte) {
		if n.leaf() {
			lengths[n.sym] = depth
			return
		}
		walk(n.left, depth+1)
		walk(n.right, depth+1)
	}
	walk(root, 0)
	return lengths
}

// canonicalCodes assigns canonical codes from a length table: symbols
// sorted by (length, value) receive consecutive codes.
func canonicalCodes(lengths *[256]byte) (codes [256]uint64) {
	type symLen struct {
		sym byte
		len byte
	}
	syms := make([]symLen, 0, 256)
	for s, l := range lengths {
		if l > 0 {
			syms = append(syms, symLen{sym: byte(s), len: l})
		}
	}
	sort.Slice(syms, func(i, j int) bool {
		if syms[i].len != syms[j].len {
			return syms[i].len < syms[j].len
		}
		return syms[i].sym < syms[j].sym
	})

	var code uint64
	var prevLen byte
	for _, sl := range syms {
		code <<= uint(sl.len - prevLen)
		codes[sl.sym] = code
		code++
		prevLen = sl.len
	}
	return codes
}

func (huffmanCodec) Encode(data []byte) ([]byte, error) {
	out := binary.AppendUvarint(nil, uint64(len(data)))
	if len(data) == 0 {
		return out, nil
	}

	var freq [256]uint64
	for _, b := range data {
		freq[b]++
	}

	lengths := codeLengths(&freq)
	codes := canonicalCodes(&lengths)

	out = append(out, lengths[:]...)

	w := newBitWriter(out)
	for _, b := range data {
		w.writeBits(codes[b], int(lengths[b]))
	}
	return w.bytes(), nil
}

func (huffmanCodec) Decode(data []byte) ([]byte, error) {
	origLen, n := binary.Uvarint(data)
	if n <= 0 {
		return nil, errors.New("huffman: missing length header")
	}
	data = data[n:]

	if origLen == 0 {
		return []byte{}, nil
	}

	if len(data) < 256 {
		return nil, errors.New("huffman: truncated code length table")
	}
	var lengths [256]byte
	copy(lengths[:], data[:256])
	data = data[256:]

	root, err := buildDecodeTree(&lengths)
	if err != nil {
		return nil, err
	}

	out := make([]byte, 0, origLen)
	r := newBitReader(data)
	node := root
	for uint64(len(out)) < origLen {
		bit, err := r.readBit()
		if err != nil {
			return nil, errors.Wrap(err, "huffman")
		}
		if bit == 0 {
			node = node.left
		} else {
			node = node.right
		}
		if node == nil {
			return nil, errors.New("huffman: invalid code in stream")
		}
		if node.leaf() {
			out = append(out, node.sym)
			node = root
		}
	}
	return out, nil
}

// checkLengths verifies the code length table describes a prefix-free
// code: no length exceeds what a uint64 code can hold, and the Kraft
// sum (scaled by 2^64) does not exceed the code space. An oversubscribed
// table would make canonical assignment hand the same code to two
// symbols, decoding a forged archive into garbage instead of an error.
func checkLengths(lengths *[256]byte) error {
	var sum uint64
	full := false
	for _, l := range lengths {
		if l == 0 {
			continue
		}
		if l > 64 {
			return errors.Newf("huffman: code length %d out of range", l)
		}
		if full {
			return errors.New("huffman: oversubscribed code length table")
		}
		add := uint64(1) << (64 - l)
		sum += add
		if sum < add {
			// Wrapped. Exactly 2^64 is a complete code; anything past
			// it does not fit.
			if sum != 0 {
				return errors.New("huffman: oversubscribed code length table")
			}
			full = true
		}
	}
	return nil
}

// buildDecodeTree reconstructs the decoding tree from canonical codes.
func buildDecodeTree(lengths *[256]byte) (*huffNode, error) {
	if err := checkLengths(lengths); err != nil {
		return nil, err
	}
	codes := canonicalCodes(lengths)

	root := &huffNode{}
	any := false
	for s := 0; s < 256; s++ {
		l := lengths[s]
		if l == 0 {
			continue
		}
		any = true
		node := root
		code := codes[s]
		for i := int(l) - 1; i >= 0; i-- {
			bit := (code >> uint(i)) & 1
			var next **huffNode
			if bit == 0 {
				next = &node.left
			} else {
				next = &node.right
			}
			if *next == nil {
				*next = &huffNode{}
			}
			node = *next
		}
		if !node.leaf() {
			return nil, errors.New("huffman: inconsistent code length table")
		}
		node.sym = byte(s)
	}
	if !any {
		return nil, errors.New("huffman: empty code length table for non-empty stream")
	}
	return root, nil
}
