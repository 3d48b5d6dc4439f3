// Package dom provides the content tree that studysight inspects and annotates.
//
// A Document wraps an HTML tree parsed with golang.org/x/net/html and adds the
// pieces of browser behaviour the rest of the tool relies on:
//   - selector queries (github.com/andybalholm/cascadia) that respect
//     encapsulation boundaries, plus deep queries that cross them
//   - inline style reads and writes (github.com/aymerick/douceur)
//   - per-node event listeners with mouseenter/mouseleave dispatch
//   - structural mutation methods and subtree-scoped mutation observers
//   - NodeMap, a weak side table for state attached to a node
//
// # Encapsulation boundaries
//
// A boundary is a declarative shadow root: a <template shadowrootmode="open">
// element placed as a child of its host. golang.org/x/net/html stores the
// template contents as children of the template element, so ordinary queries
// stop at every <template>, and DeepQueryAll enters shadow roots explicitly.
//
//	<ytd-rich-grid-media>
//	  <template shadowrootmode="open">
//	    <span id="video-title">Linear Algebra Lecture 3</span>
//	  </template>
//	</ytd-rich-grid-media>
//
// # Ownership
//
// A Document is not safe for concurrent use. The reconciler owns it from a
// single goroutine; NodeMap is the only type with internal locking, because
// its entries are evicted by runtime cleanups.
package dom
