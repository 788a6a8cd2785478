package huffman

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/seiflotfy/huffman/tree"
)

// cachedTree is a built tree together with its code table. codes is nil for
// trees that were read back from an archive.
type cachedTree struct {
	tree  *tree.Tree
	codes *tree.CodeTable
}

// treeCache is an LRU of built trees. A nil *treeCache is a valid, always
// missing cache.
type treeCache struct {
	lru *lru.Cache[uint64, *cachedTree]
}

func newTreeCache(size int) *treeCache {
	if size <= 0 {
		return nil
	}
	c, err := lru.New[uint64, *cachedTree](size)
	if err != nil {
		return nil
	}
	return &treeCache{lru: c}
}

func (c *treeCache) get(key uint64) (*cachedTree, bool) {
	if c == nil {
		return nil, false
	}
	return c.lru.Get(key)
}

func (c *treeCache) add(key uint64, v *cachedTree) {
	if c == nil {
		return
	}
	c.lru.Add(key, v)
}

func (c *treeCache) len() int {
	if c == nil {
		return 0
	}
	return c.lru.Len()
}
