// Package replica implements named values that are owned by one authority and
// mirrored on observers through explicit deltas.
package replica

// Property is a replicated value. The owner mutates it with Set, which runs
// the change hook, commits and publishes. Observers mirror it with Apply,
// which runs the same hook and commits without publishing.
//
// Property is not safe for concurrent use; callers serialize access on a
// single goroutine.
type Property[T comparable] struct {
	name    string
	value   T
	hook    func(T)
	publish func(T)
}

// New creates a property holding initial. hook may be nil.
func New[T comparable](name string, initial T, hook func(T)) *Property[T] {
	return &Property[T]{name: name, value: initial, hook: hook}
}

// Name identifies the property on the wire and in logs.
func (p *Property[T]) Name() string {
	return p.name
}

// Get returns the committed value.
func (p *Property[T]) Get() T {
	return p.value
}

// OnPublish sets the function receiving every owner-side change.
func (p *Property[T]) OnPublish(fn func(T)) {
	p.publish = fn
}

// Set changes the value on the owner. Setting the current value is a no-op.
// It reports whether the value changed.
func (p *Property[T]) Set(v T) bool {
	if v == p.value {
		return false
	}
	p.commit(v)
	if p.publish != nil {
		p.publish(v)
	}
	return true
}

// Apply mirrors a value received from the owner. The hook always runs, so a
// repeated delta re-derives any dependent state.
func (p *Property[T]) Apply(v T) {
	p.commit(v)
}

// Sync runs the hook with the committed value without publishing. Used to
// bring collaborators in line with initial values.
func (p *Property[T]) Sync() {
	if p.hook != nil {
		p.hook(p.value)
	}
}

func (p *Property[T]) commit(v T) {
	if p.hook != nil {
		p.hook(v)
	}
	p.value = v
}
