package relay

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Receiver handles a message and always answers.
type Receiver interface {
	Deliver(ctx context.Context, msg Message) Response
}

// ReceiverFunc adapts a function to Receiver.
type ReceiverFunc func(ctx context.Context, msg Message) Response

// Deliver implements Receiver.
func (f ReceiverFunc) Deliver(ctx context.Context, msg Message) Response {
	return f(ctx, msg)
}

// Stats counts the outcome of a broadcast.
type Stats struct {
	Delivered int
	Failed    int
}

// Hub fans messages out to registered receivers. It is safe for concurrent
// use.
type Hub struct {
	mu        sync.Mutex
	receivers map[int]Receiver
	nextID    int
	logger    *slog.Logger
}

// NewHub creates an empty Hub. A nil logger discards output.
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Hub{receivers: make(map[int]Receiver), logger: logger}
}

// Register adds r and returns a function that removes it again.
func (h *Hub) Register(r Receiver) (unregister func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	id := h.nextID
	h.nextID++
	h.receivers[id] = r
	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		delete(h.receivers, id)
	}
}

// Len returns the number of registered receivers.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.receivers)
}

// Broadcast delivers msg to every receiver concurrently and waits for all of
// them. Failures are logged at debug level and counted, never returned.
func (h *Hub) Broadcast(ctx context.Context, msg Message) Stats {
	h.mu.Lock()
	targets := make([]Receiver, 0, len(h.receivers))
	for _, r := range h.receivers {
		targets = append(targets, r)
	}
	h.mu.Unlock()

	var (
		mu    sync.Mutex
		stats Stats
		g     errgroup.Group
	)
	for _, r := range targets {
		g.Go(func() error {
			resp := deliver(ctx, r, msg)
			mu.Lock()
			defer mu.Unlock()
			if resp.Success {
				stats.Delivered++
				return nil
			}
			stats.Failed++
			h.logger.Debug("relay delivery failed", "type", msg.Type, "error", resp.Error)
			return nil
		})
	}
	_ = g.Wait()
	return stats
}

// deliver converts a panicking receiver into a failed response.
func deliver(ctx context.Context, r Receiver, msg Message) (resp Response) {
	defer func() {
		if v := recover(); v != nil {
			resp = Response{Error: fmt.Sprintf("receiver panicked: %v", v)}
		}
	}()
	return r.Deliver(ctx, msg)
}
