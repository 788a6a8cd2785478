// Package tree provides the Huffman tree arena used by the huffman codec.
package tree

import (
	"container/heap"
	"errors"
)

// Symbols is the size of the byte alphabet.
const Symbols = 256

// maxNodes bounds a full binary tree over the byte alphabet (2n-1 nodes).
const maxNodes = 2*Symbols - 1

var (
	// ErrNoSymbols indicates Build was called with an all-zero frequency slice.
	ErrNoSymbols = errors.New("no symbols with non-zero frequency")
	// ErrTooManySymbols indicates more than 256 frequency entries were provided.
	ErrTooManySymbols = errors.New("frequency slice larger than byte alphabet")
)

// nilNode marks the absent children of a leaf.
const nilNode int32 = -1

// Node is an arena entry. Leaves have Left == Right == -1 and carry Symbol.
// Internal nodes carry the handles of exactly two children and the sum of
// their frequencies.
type Node struct {
	Freq   uint64
	Left   int32
	Right  int32
	Symbol byte
}

// IsLeaf reports whether the node owns a symbol.
func (n Node) IsLeaf() bool {
	return n.Left == nilNode && n.Right == nilNode
}

// Tree is a finalized Huffman tree stored as an arena of nodes indexed by
// int32 handles. Each child handle is referenced by exactly one parent.
type Tree struct {
	nodes []Node
	root  int32
}

// Root returns the handle of the root node.
func (t *Tree) Root() int32 { return t.root }

// Node returns the node stored at handle h.
func (t *Tree) Node(h int32) Node { return t.nodes[h] }

// Len returns the number of nodes in the arena.
func (t *Tree) Len() int { return len(t.nodes) }

// Leaves returns the number of leaf nodes, i.e. the number of distinct symbols.
func (t *Tree) Leaves() int {
	return (len(t.nodes) + 1) / 2
}

// Freq returns the root frequency. Trees read back from an archive carry no
// frequencies and report 0.
func (t *Tree) Freq() uint64 {
	return t.nodes[t.root].Freq
}

// Single reports whether the tree is one leaf with no internal nodes.
func (t *Tree) Single() bool {
	return t.nodes[t.root].IsLeaf()
}

// Step moves from node h along one bit: false selects the left child, true
// the right child. ok is false when h has no such child.
func (t *Tree) Step(h int32, bit bool) (next int32, ok bool) {
	if h < 0 || int(h) >= len(t.nodes) {
		return nilNode, false
	}
	n := t.nodes[h]
	if n.IsLeaf() {
		return nilNode, false
	}
	if bit {
		next = n.Right
	} else {
		next = n.Left
	}
	if next < 0 || int(next) >= len(t.nodes) {
		return nilNode, false
	}
	return next, true
}

// queueItem orders arena handles by frequency, then by creation sequence, so
// equal frequencies pop in FIFO order.
type queueItem struct {
	freq   uint64
	seq    int
	handle int32
}

type nodeQueue []queueItem

func (q nodeQueue) Len() int { return len(q) }
func (q nodeQueue) Less(i, j int) bool {
	if q[i].freq != q[j].freq {
		return q[i].freq < q[j].freq
	}
	return q[i].seq < q[j].seq
}
func (q nodeQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }
func (q *nodeQueue) Push(x any)   { *q = append(*q, x.(queueItem)) }
func (q *nodeQueue) Pop() any {
	old := *q
	n := len(old)
	item := old[n-1]
	*q = old[:n-1]
	return item
}

// Build constructs a Huffman tree from per-symbol frequencies, where freqs[s]
// is the count of byte s. Zero entries are skipped.
//
// Algorithm:
//  1. Push one leaf per present symbol, in ascending symbol order.
//  2. Pop the two lowest-frequency nodes, merge them under a new internal
//     node (first popped on the left), push the merge.
//  3. Stop when one node remains.
//
// Ties on frequency are broken by creation order: earlier nodes pop first.
// A single present symbol yields a one-leaf tree.
func Build(freqs []uint64) (*Tree, error) {
	if len(freqs) > Symbols {
		return nil, ErrTooManySymbols
	}

	t := &Tree{nodes: make([]Node, 0, maxNodes)}
	q := make(nodeQueue, 0, Symbols)
	for sym, f := range freqs {
		if f == 0 {
			continue
		}
		h := int32(len(t.nodes))
		t.nodes = append(t.nodes, Node{Freq: f, Left: nilNode, Right: nilNode, Symbol: byte(sym)})
		q = append(q, queueItem{freq: f, seq: int(h), handle: h})
	}
	if len(q) == 0 {
		return nil, ErrNoSymbols
	}
	heap.Init(&q)

	for q.Len() > 1 {
		left := heap.Pop(&q).(queueItem)
		right := heap.Pop(&q).(queueItem)

		h := int32(len(t.nodes))
		t.nodes = append(t.nodes, Node{
			Freq:  left.freq + right.freq,
			Left:  left.handle,
			Right: right.handle,
		})
		heap.Push(&q, queueItem{freq: left.freq + right.freq, seq: int(h), handle: h})
	}

	t.root = q[0].handle
	return t, nil
}
