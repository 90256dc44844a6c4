package hooks

import "sync"

// Transform receives the in-progress value and returns a possibly
// modified one.
type Transform[T any] func(T) T

// Pipeline is an ordered list of registered transforms applied at a
// fixed extension point, e.g. after query construction or after facet
// counting. Registration order is application order.
type Pipeline[T any] struct {
	mu  sync.RWMutex
	fns []Transform[T]
}

func NewPipeline[T any]() *Pipeline[T] {
	return &Pipeline[T]{}
}

func (p *Pipeline[T]) Register(fn Transform[T]) {
	if fn == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.fns = append(p.fns, fn)
}

func (p *Pipeline[T]) Apply(value T) T {
	p.mu.RLock()
	defer p.mu.RUnlock()
	for _, fn := range p.fns {
		value = fn(value)
	}
	return value
}

func (p *Pipeline[T]) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.fns)
}
