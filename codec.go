package huffman

import (
	"bytes"
	"errors"
	"io"

	"github.com/icza/bitio"

	"github.com/seiflotfy/huffman/tree"
)

// EncodeSymbols appends the code of every symbol in data, in input order, to
// a packed bitstream: most significant bit first, 8 bits per byte, the last
// byte padded with zero bits.
func EncodeSymbols(data []byte, codes *tree.CodeTable) ([]byte, error) {
	var bitLen uint64
	for i, b := range data {
		c, ok := codes.Lookup(b)
		if !ok {
			return nil, &EncodingError{Symbol: b, Offset: i, Err: ErrUnknownSymbol}
		}
		bitLen += uint64(c.Len)
	}

	buf := bytes.NewBuffer(make([]byte, 0, (bitLen+7)/8))
	w := bitio.NewWriter(buf)
	for _, b := range data {
		c := codes[b]
		if err := w.WriteBits(c.Bits, c.Len); err != nil {
			return nil, &EncodingError{Offset: -1, Err: err}
		}
	}
	if err := w.Close(); err != nil {
		return nil, &EncodingError{Offset: -1, Err: err}
	}
	return buf.Bytes(), nil
}

// decodeState is the position of the decoder in the tree walk.
type decodeState uint8

const (
	atRoot decodeState = iota
	atInternal
	done
)

// DecodeSymbols walks t one bit at a time: 0 moves left, 1 moves right, and
// reaching a leaf emits its symbol and returns to the root. It stops after
// count symbols, so padding bits in the last byte are never read.
//
// A one-leaf tree consumes a single 0 bit per symbol.
func DecodeSymbols(t *tree.Tree, body []byte, count uint64) ([]byte, error) {
	if count == 0 {
		return nil, &DecodingError{Err: ErrMalformedHeader}
	}
	out := make([]byte, 0, min(count, uint64(len(body))*8))
	r := bitio.NewReader(bytes.NewReader(body))

	var (
		decoded uint64
		node    = t.Root()
		state   = atRoot
	)
	for state != done {
		bit, err := r.ReadBool()
		if err != nil {
			if errors.Is(err, io.EOF) {
				err = ErrTruncated
			}
			return nil, &DecodingError{Symbols: decoded, Err: err}
		}

		if t.Single() {
			if bit {
				return nil, &DecodingError{Symbols: decoded, Err: ErrInvalidWalk}
			}
		} else {
			next, ok := t.Step(node, bit)
			if !ok {
				return nil, &DecodingError{Symbols: decoded, Err: ErrInvalidWalk}
			}
			node = next
			if !t.Node(node).IsLeaf() {
				state = atInternal
				continue
			}
		}

		out = append(out, t.Node(node).Symbol)
		decoded++
		node, state = t.Root(), atRoot
		if decoded == count {
			state = done
		}
	}
	return out, nil
}
