package store

import (
	"sort"
	"sync"

	"QRKara/model"
)

// CatalogStore is the locally known product catalog. Refetched wholesale on
// product_update events; reads come from the command loop, writes from the
// transport goroutine, so access is guarded like every other store.
type CatalogStore struct {
	mu       sync.RWMutex
	products map[int64]model.Product
	subs     []func()
}

// NewCatalogStore creates an empty catalog.
func NewCatalogStore() *CatalogStore {
	return &CatalogStore{products: make(map[int64]model.Product)}
}

// Subscribe registers fn to run after every replacement.
func (c *CatalogStore) Subscribe(fn func()) {
	c.mu.Lock()
	c.subs = append(c.subs, fn)
	c.mu.Unlock()
}

// Replace swaps the catalog wholesale with a fresh fetch.
func (c *CatalogStore) Replace(products []model.Product) {
	fresh := make(map[int64]model.Product, len(products))
	for _, p := range products {
		fresh[p.ID] = p
	}
	c.mu.Lock()
	c.products = fresh
	subs := make([]func(), len(c.subs))
	copy(subs, c.subs)
	c.mu.Unlock()
	for _, fn := range subs {
		fn()
	}
}

// Get returns one product by id.
func (c *CatalogStore) Get(productID int64) (model.Product, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.products[productID]
	return p, ok
}

// Products returns the catalog ordered by product id.
func (c *CatalogStore) Products() []model.Product {
	c.mu.RLock()
	out := make([]model.Product, 0, len(c.products))
	for _, p := range c.products {
		out = append(out, p)
	}
	c.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
