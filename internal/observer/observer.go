// Package observer delivers "state changed" notifications to registered
// views without the state owner knowing what the views are.
package observer

import (
	"fmt"
	"reflect"

	"github.com/idilsaglam/basket/internal/logger"
)

// Observer re-derives itself from current state when Update is called.
type Observer interface {
	Update()
}

// Func adapts a plain function to Observer.
type Func func()

func (f Func) Update() { f() }

type registration struct {
	id  uint64
	obs Observer
}

// Notifier is a synchronous observer hub. The zero value is ready to use and
// logs nothing. It is not safe for concurrent use; NotifyAll must not be
// called from inside an observer's Update.
type Notifier struct {
	log    logger.Logger
	nextID uint64
	regs   []registration
}

// NewNotifier returns a Notifier that reports panicking observers to log.
func NewNotifier(log logger.Logger) *Notifier {
	return &Notifier{log: log}
}

// Subscribe registers o and calls it once right away so it can initialise
// from current state. The returned func removes this registration.
func (n *Notifier) Subscribe(o Observer) (cancel func()) {
	n.nextID++
	id := n.nextID
	n.regs = append(n.regs, registration{id: id, obs: o})
	n.deliver(o)
	return func() { n.remove(func(r registration) bool { return r.id == id }) }
}

// Unsubscribe removes the first registration of o. Unknown observers, and
// observers whose value cannot be compared (such as Func, or a struct holding
// a slice in an interface field), are ignored; use the func returned by
// Subscribe for those.
func (n *Notifier) Unsubscribe(o Observer) {
	if o == nil {
		return
	}
	n.remove(func(r registration) bool { return same(r.obs, o) })
}

// same compares observers without panicking on uncomparable dynamic values.
func same(a, b Observer) bool {
	if a == nil || b == nil || reflect.TypeOf(a) != reflect.TypeOf(b) {
		return false
	}
	if !reflect.ValueOf(a).Comparable() || !reflect.ValueOf(b).Comparable() {
		return false
	}
	return a == b
}

// NotifyAll calls every observer in registration order. Registrations made
// or removed during delivery take effect on the next call.
func (n *Notifier) NotifyAll() {
	regs := make([]registration, len(n.regs))
	copy(regs, n.regs)
	for _, r := range regs {
		n.deliver(r.obs)
	}
}

// Len returns the number of registrations.
func (n *Notifier) Len() int { return len(n.regs) }

func (n *Notifier) remove(match func(registration) bool) {
	for i, r := range n.regs {
		if match(r) {
			n.regs = append(n.regs[:i:i], n.regs[i+1:]...)
			return
		}
	}
}

// deliver isolates a panicking observer so the rest still hear about the
// change.
func (n *Notifier) deliver(o Observer) {
	defer func() {
		if r := recover(); r != nil && n.log != nil {
			n.log.Warn("observer update panicked", "observer", fmt.Sprintf("%T", o), "panic", r)
		}
	}()
	o.Update()
}
