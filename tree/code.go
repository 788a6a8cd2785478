package tree

import (
	"errors"
	"strings"
)

// MaxCodeLen is the longest code a Code can hold.
const MaxCodeLen = 64

// ErrCodeTooLong indicates a leaf deeper than MaxCodeLen.
var ErrCodeTooLong = errors.New("code longer than 64 bits")

// Code is a root-to-leaf path stored in the low Len bits of Bits, most
// significant bit first. Len == 0 means the symbol has no code.
type Code struct {
	Bits uint64
	Len  uint8
}

// String renders the code as '0'/'1' characters.
func (c Code) String() string {
	var sb strings.Builder
	sb.Grow(int(c.Len))
	for i := int(c.Len) - 1; i >= 0; i-- {
		if (c.Bits>>uint(i))&1 == 1 {
			sb.WriteByte('1')
		} else {
			sb.WriteByte('0')
		}
	}
	return sb.String()
}

// CodeTable maps every byte to its code.
type CodeTable [Symbols]Code

// Lookup returns the code for sym and whether it exists.
func (ct *CodeTable) Lookup(sym byte) (Code, bool) {
	c := ct[sym]
	return c, c.Len > 0
}

// Len returns the number of symbols with a code.
func (ct *CodeTable) Len() int {
	n := 0
	for _, c := range ct {
		if c.Len > 0 {
			n++
		}
	}
	return n
}

// Codes walks the tree depth-first and records each leaf's path: left appends
// 0, right appends 1. A one-leaf tree gets the one-bit code "0".
func (t *Tree) Codes() (*CodeTable, error) {
	ct := new(CodeTable)
	if t.Single() {
		ct[t.nodes[t.root].Symbol] = Code{Bits: 0, Len: 1}
		return ct, nil
	}

	var walk func(h int32, bits uint64, depth int) error
	walk = func(h int32, bits uint64, depth int) error {
		n := t.nodes[h]
		if n.IsLeaf() {
			if depth > MaxCodeLen {
				return ErrCodeTooLong
			}
			ct[n.Symbol] = Code{Bits: bits, Len: uint8(depth)}
			return nil
		}
		if err := walk(n.Left, bits<<1, depth+1); err != nil {
			return err
		}
		return walk(n.Right, bits<<1|1, depth+1)
	}
	if err := walk(t.root, 0, 0); err != nil {
		return nil, err
	}
	return ct, nil
}
