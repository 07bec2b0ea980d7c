package identity

import (
	"sync"

	"github.com/rs/zerolog/log"
)

// Broadcaster delivers values to subscribers in the order they were enqueued.
//
// Values enqueued while a delivery is running, including from inside a
// subscriber, are appended to the queue and delivered by the goroutine that
// is already draining it. Deliveries never interleave.
//
// The zero value is ready to use.
type Broadcaster[T any] struct {
	mu       sync.Mutex
	subs     []subscription[T]
	nextID   uint64
	queue    []delivery[T]
	draining bool
}

type subscription[T any] struct {
	id uint64
	fn func(T)
}

type delivery[T any] struct {
	value  T
	target uint64
}

// Subscribe registers fn and returns its id and an idempotent unsubscribe function.
func (b *Broadcaster[T]) Subscribe(fn func(T)) (uint64, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	b.subs = append(b.subs, subscription[T]{id: id, fn: fn})

	var once sync.Once

	return id, func() {
		once.Do(func() { b.remove(id) })
	}
}

func (b *Broadcaster[T]) remove(id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, s := range b.subs {
		if s.id == id {
			b.subs = append(b.subs[:i:i], b.subs[i+1:]...)
			return
		}
	}
}

// Len returns the number of subscribers.
func (b *Broadcaster[T]) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return len(b.subs)
}

// Enqueue queues v for every subscriber. Call Drain to deliver.
func (b *Broadcaster[T]) Enqueue(v T) {
	b.mu.Lock()
	b.queue = append(b.queue, delivery[T]{value: v})
	b.mu.Unlock()
}

// EnqueueTo queues v for the subscriber with the given id only.
func (b *Broadcaster[T]) EnqueueTo(id uint64, v T) {
	b.mu.Lock()
	b.queue = append(b.queue, delivery[T]{value: v, target: id})
	b.mu.Unlock()
}

// Publish enqueues v and drains the queue.
func (b *Broadcaster[T]) Publish(v T) {
	b.Enqueue(v)
	b.Drain()
}

// Drain delivers queued values. It returns at once when another goroutine
// is already draining; that goroutine delivers the values instead.
func (b *Broadcaster[T]) Drain() {
	b.mu.Lock()
	if b.draining {
		b.mu.Unlock()
		return
	}

	b.draining = true

	for len(b.queue) > 0 {
		next := b.queue[0]
		b.queue[0] = delivery[T]{}
		b.queue = b.queue[1:]

		targets := make([]subscription[T], 0, len(b.subs))
		for _, s := range b.subs {
			if next.target == 0 || next.target == s.id {
				targets = append(targets, s)
			}
		}

		b.mu.Unlock()

		for _, s := range targets {
			deliver(s.fn, next.value)
		}

		b.mu.Lock()
	}

	b.draining = false
	b.mu.Unlock()
}

func deliver[T any](fn func(T), v T) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("identity: subscriber panicked")
		}
	}()

	fn(v)
}
