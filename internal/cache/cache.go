// Package cache provides a thread-safe generic map and the rendered document cache.
package cache

import "sync"

type Cache[K comparable, V any] struct {
	mu    sync.RWMutex
	items map[K]V
}

func NewCache[K comparable, V any]() *Cache[K, V] {
	return &Cache[K, V]{
		items: make(map[K]V),
	}
}

func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	val, ok := c.items[key]
	return val, ok
}

func (c *Cache[K, V]) Set(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = value
}

func (c *Cache[K, V]) Delete(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
}

// DeleteFunc removes key only if keep reports false for its current value.
// It returns whether an entry was removed.
func (c *Cache[K, V]) DeleteFunc(key K, keep func(V) bool) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	val, ok := c.items[key]
	if !ok || keep(val) {
		return false
	}
	delete(c.items, key)
	return true
}

func (c *Cache[K, V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

func (c *Cache[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[K]V)
}

// RenderedDocument is a rendered post body plus its table of contents.
type RenderedDocument struct {
	HTML []byte
	TOC  any
}

var renderedDocumentCache = NewCache[string, *RenderedDocument]()

func renderedKey(contentHash, syntaxTheme string, authenticated bool) string {
	key := contentHash + ":" + syntaxTheme
	if authenticated {
		key += ":auth"
	}
	return key
}

func GetRenderedDocument(contentHash, syntaxTheme string, authenticated bool) (*RenderedDocument, bool) {
	return renderedDocumentCache.Get(renderedKey(contentHash, syntaxTheme, authenticated))
}

func SetRenderedDocument(contentHash, syntaxTheme string, authenticated bool, html []byte, toc any) {
	renderedDocumentCache.Set(renderedKey(contentHash, syntaxTheme, authenticated), &RenderedDocument{
		HTML: html,
		TOC:  toc,
	})
}

func ClearRenderedDocumentCache() {
	renderedDocumentCache.Clear()
}
