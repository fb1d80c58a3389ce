// Package cache keeps built hierarchy views keyed by store revision.
package cache

import (
	"github.com/dgraph-io/ristretto/v2"

	"github.com/alexanderramin/roadmap/internal/domain"
)

// TreeCache maps a store revision to the tree built from it. A revision
// never changes content, so entries never need invalidating; old revisions
// simply age out. Cached trees are shared and must not be modified.
type TreeCache struct {
	c *ristretto.Cache[uint64, *domain.Tree]
}

// NewTreeCache holds at most maxItems trees.
func NewTreeCache(maxItems int64) (*TreeCache, error) {
	c, err := ristretto.NewCache(&ristretto.Config[uint64, *domain.Tree]{
		NumCounters:        maxItems * 10,
		MaxCost:            maxItems,
		BufferItems:        64,
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, err
	}
	return &TreeCache{c: c}, nil
}

func (t *TreeCache) Get(revision uint64) (*domain.Tree, bool) {
	return t.c.Get(revision)
}

// Set stores tree and waits until it is visible to Get.
func (t *TreeCache) Set(revision uint64, tree *domain.Tree) {
	if t.c.Set(revision, tree, 1) {
		t.c.Wait()
	}
}

func (t *TreeCache) Close() {
	t.c.Close()
}
