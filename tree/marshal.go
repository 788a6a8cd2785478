package tree

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/icza/bitio"
)

// ErrMalformed indicates a serialized tree that cannot be a Huffman tree.
var ErrMalformed = errors.New("malformed tree")

// Wire format: preorder, one tag bit per node, MSB first.
//
//	leaf     = 1 symbol[8]
//	internal = 0 left right
//
// The stream is zero-padded to a byte boundary.

// MarshalBinary serializes the tree shape. Frequencies are not stored.
func (t *Tree) MarshalBinary() ([]byte, error) {
	var buf bytes.Buffer
	w := bitio.NewWriter(&buf)

	var write func(h int32) error
	write = func(h int32) error {
		n := t.nodes[h]
		if n.IsLeaf() {
			if err := w.WriteBool(true); err != nil {
				return err
			}
			return w.WriteBits(uint64(n.Symbol), 8)
		}
		if err := w.WriteBool(false); err != nil {
			return err
		}
		if err := write(n.Left); err != nil {
			return err
		}
		return write(n.Right)
	}
	if err := write(t.root); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// UnmarshalTree rebuilds a tree from its MarshalBinary form. It rejects
// truncated payloads, more than 511 nodes, repeated leaf symbols and trailing
// bytes after the padded shape.
func UnmarshalTree(payload []byte) (*Tree, error) {
	br := bytes.NewReader(payload)
	r := bitio.NewReader(br)
	t := &Tree{nodes: make([]Node, 0, 64)}
	var seen [Symbols]bool

	var parse func() (int32, error)
	parse = func() (int32, error) {
		h := int32(len(t.nodes))
		if len(t.nodes) >= maxNodes {
			return nilNode, fmt.Errorf("%w: more than %d nodes", ErrMalformed, maxNodes)
		}
		leaf, err := r.ReadBool()
		if err != nil {
			return nilNode, fmt.Errorf("%w: read tag of node %d: %w", ErrMalformed, h, err)
		}
		if leaf {
			sym, err := r.ReadBits(8)
			if err != nil {
				return nilNode, fmt.Errorf("%w: read symbol of node %d: %w", ErrMalformed, h, err)
			}
			if seen[sym] {
				return nilNode, fmt.Errorf("%w: duplicate symbol %#02x at node %d", ErrMalformed, sym, h)
			}
			seen[sym] = true
			t.nodes = append(t.nodes, Node{Left: nilNode, Right: nilNode, Symbol: byte(sym)})
			return h, nil
		}

		t.nodes = append(t.nodes, Node{})
		left, err := parse()
		if err != nil {
			return nilNode, err
		}
		right, err := parse()
		if err != nil {
			return nilNode, err
		}
		t.nodes[h].Left = left
		t.nodes[h].Right = right
		return h, nil
	}

	root, err := parse()
	if err != nil {
		return nil, err
	}
	r.Align()
	if br.Len() != 0 {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrMalformed, br.Len())
	}
	t.root = root
	return t, nil
}
