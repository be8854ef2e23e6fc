package updater

import (
	"fmt"
	"sync"
)

type subscriber struct {
	id uint64
	fn func()
}

// subscriberList holds the callbacks of one event name in registration order.
type subscriberList struct {
	mu     sync.Mutex
	nextID uint64
	subs   []subscriber
}

func (l *subscriberList) add(fn func()) Subscription {
	l.mu.Lock()
	l.nextID++
	id := l.nextID
	l.subs = append(l.subs, subscriber{id: id, fn: fn})
	l.mu.Unlock()
	var once sync.Once
	return SubscriptionFunc(func() {
		once.Do(func() { l.remove(id) })
	})
}

func (l *subscriberList) remove(id uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i, s := range l.subs {
		if s.id == id {
			l.subs = append(l.subs[:i:i], l.subs[i+1:]...)
			return
		}
	}
}

func (l *subscriberList) snapshot() []subscriber {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]subscriber, len(l.subs))
	copy(out, l.subs)
	return out
}

func (l *subscriberList) len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.subs)
}

// emit calls every subscriber of event in registration order. A panicking
// subscriber is logged and skipped; the rest still run.
func (c *Coordinator) emit(event string) {
	list := c.listeners[event]
	if list == nil {
		return
	}
	for i, s := range list.snapshot() {
		c.invoke(event, i, s.fn)
	}
}

func (c *Coordinator) invoke(event string, idx int, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			c.log.Error().
				Str("event", event).
				Int("subscriber", idx).
				Str("panic", fmt.Sprint(r)).
				Msg("subscriber panicked")
			c.pub.Publish(Event{Name: EvSubscriberPanic, Fields: map[string]any{
				"event":      event,
				"subscriber": idx,
				"panic":      fmt.Sprint(r),
			}})
		}
	}()
	fn()
}
