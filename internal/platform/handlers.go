package platform

import (
	"sync"

	"swupdate/internal/updater"
)

// handlers is a listener list safe for concurrent add/remove while firing.
type handlers[F any] struct {
	mu     sync.Mutex
	nextID uint64
	fns    map[uint64]F
	order  []uint64
}

func (h *handlers[F]) add(fn F) updater.Subscription {
	h.mu.Lock()
	if h.fns == nil {
		h.fns = make(map[uint64]F)
	}
	h.nextID++
	id := h.nextID
	h.fns[id] = fn
	h.order = append(h.order, id)
	h.mu.Unlock()
	return updater.SubscriptionFunc(func() { h.remove(id) })
}

func (h *handlers[F]) remove(id uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.fns[id]; !ok {
		return
	}
	delete(h.fns, id)
	for i, v := range h.order {
		if v == id {
			h.order = append(h.order[:i:i], h.order[i+1:]...)
			break
		}
	}
}

// snapshot returns the live listeners in attach order.
func (h *handlers[F]) snapshot() []F {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]F, 0, len(h.order))
	for _, id := range h.order {
		out = append(out, h.fns[id])
	}
	return out
}

func (h *handlers[F]) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.order)
}
