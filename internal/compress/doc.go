// Package compress implements the archive payload codecs: canonical
// Huffman entropy coding, LZSS sliding-window dictionary coding, and the
// joined pipeline (LZSS then Huffman over the token stream).
//
// All three are deterministic: the same input always produces the same
// encoded bytes, so archives are reproducible. An archive uses exactly one
// algorithm for its whole payload; the choice travels in the archive
// header, not per file.
package compress
