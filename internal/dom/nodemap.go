package dom

import (
	"runtime"
	"sync"
	"weak"

	"golang.org/x/net/html"
)

// NodeMap associates a value with a node without keeping the node alive.
// Entries are keyed by a weak pointer and evicted by a runtime cleanup once
// the node has been garbage collected, so state attached to a node is
// destroyed with it. Values must not reference their node.
//
// The zero value is ready to use. A NodeMap must not be copied after first use.
//
// Design decision: we use a side table rather than attributes on the node
// because:
// 1. Rendered output carries no bookkeeping markup
// 2. Values can be any Go type, including listener slices
// 3. Collection of the node is the only removal signal that is always right
type NodeMap[T any] struct {
	mu sync.Mutex
	m  map[weak.Pointer[html.Node]]*T
}

// Load returns the value attached to n.
func (nm *NodeMap[T]) Load(n *html.Node) (*T, bool) {
	nm.mu.Lock()
	defer nm.mu.Unlock()
	v, ok := nm.m[weak.Make(n)]
	return v, ok
}

// LoadOrCreate returns the value attached to n, attaching a zero value first
// when there is none.
func (nm *NodeMap[T]) LoadOrCreate(n *html.Node) *T {
	key := weak.Make(n)

	nm.mu.Lock()
	defer nm.mu.Unlock()
	if v, ok := nm.m[key]; ok {
		return v
	}
	if nm.m == nil {
		nm.m = make(map[weak.Pointer[html.Node]]*T)
	}
	v := new(T)
	nm.m[key] = v
	runtime.AddCleanup(n, nm.evict, key)
	return v
}

// Delete detaches the value from n.
func (nm *NodeMap[T]) Delete(n *html.Node) {
	nm.mu.Lock()
	defer nm.mu.Unlock()
	delete(nm.m, weak.Make(n))
}

// Len returns the number of live entries.
func (nm *NodeMap[T]) Len() int {
	nm.mu.Lock()
	defer nm.mu.Unlock()
	return len(nm.m)
}

func (nm *NodeMap[T]) evict(key weak.Pointer[html.Node]) {
	nm.mu.Lock()
	defer nm.mu.Unlock()
	delete(nm.m, key)
}
