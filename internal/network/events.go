package network

import (
	"reflect"
	"sync"
)

// Lifecycle and raw-traffic notifications. Decoded messages are published
// as their *pdu.X value.
type (
	// Connected is raised once the socket is open and reading
	Connected struct{}
	// Disconnected is raised when an open connection is closed
	Disconnected struct{}
	// ConnectionFailed is raised when resolve or dial fails
	ConnectionFailed struct{}
	// RawDataSent carries one outbound frame including its terminator
	RawDataSent struct{ Data string }
	// RawDataReceived carries one inbound frame including its terminator
	RawDataReceived struct{ Data string }
	// NetworkError reports a recoverable or fatal session problem
	NetworkError struct {
		Message string
		Fatal   bool
	}
)

// Dispatcher decides where notification handlers run
type Dispatcher interface {
	Dispatch(fn func())
}

// InlineDispatcher runs handlers on the publishing goroutine
type InlineDispatcher struct{}

// Dispatch runs fn immediately
func (InlineDispatcher) Dispatch(fn func()) { fn() }

// QueueDispatcher runs handlers in order on a single executor goroutine.
// The queue is unbounded so Dispatch never blocks, even when called from a
// handler running on the executor.
type QueueDispatcher struct {
	mu      sync.Mutex
	cond    *sync.Cond
	pending []func()
	closed  bool
	done    chan struct{}
}

// NewQueueDispatcher starts the executor goroutine
func NewQueueDispatcher() *QueueDispatcher {
	d := &QueueDispatcher{done: make(chan struct{})}
	d.cond = sync.NewCond(&d.mu)
	go d.run()
	return d
}

func (d *QueueDispatcher) run() {
	defer close(d.done)
	for {
		d.mu.Lock()
		for len(d.pending) == 0 && !d.closed {
			d.cond.Wait()
		}
		if len(d.pending) == 0 {
			d.mu.Unlock()
			return
		}
		batch := d.pending
		d.pending = nil
		d.mu.Unlock()

		for _, fn := range batch {
			fn()
		}
	}
}

// Dispatch enqueues fn. Work submitted after Close is dropped.
func (d *QueueDispatcher) Dispatch(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	d.pending = append(d.pending, fn)
	d.cond.Signal()
}

// Close stops accepting work and waits for queued handlers to finish. It
// must not be called from a handler.
func (d *QueueDispatcher) Close() {
	d.mu.Lock()
	d.closed = true
	d.cond.Signal()
	d.mu.Unlock()
	<-d.done
}

type handler struct {
	id uint64
	fn func(any)
}

// Events is a typed subscription registry. Handlers for one kind run in
// registration order, and one publish is delivered as a single dispatch so
// ordering across frames is kept by any ordered Dispatcher.
type Events struct {
	mu         sync.RWMutex
	nextID     uint64
	handlers   map[reflect.Type][]handler
	dispatcher Dispatcher
}

// NewEvents creates a registry delivering through d, or inline when d is nil
func NewEvents(d Dispatcher) *Events {
	if d == nil {
		d = InlineDispatcher{}
	}
	return &Events{
		handlers:   make(map[reflect.Type][]handler),
		dispatcher: d,
	}
}

// Subscription removes a handler when cancelled
type Subscription struct {
	events *Events
	kind   reflect.Type
	id     uint64
}

// Unsubscribe removes the handler. It is safe to call more than once.
func (s *Subscription) Unsubscribe() {
	if s == nil || s.events == nil {
		return
	}
	e := s.events
	e.mu.Lock()
	defer e.mu.Unlock()
	list := e.handlers[s.kind]
	for i, h := range list {
		if h.id == s.id {
			e.handlers[s.kind] = append(list[:i:i], list[i+1:]...)
			break
		}
	}
	s.events = nil
}

// On registers fn for notifications of type T, for example
// On(events, func(p *pdu.ATCPosition) {...}) or On(events, func(Connected) {...}).
func On[T any](e *Events, fn func(T)) *Subscription {
	kind := reflect.TypeOf((*T)(nil)).Elem()
	e.mu.Lock()
	defer e.mu.Unlock()
	e.nextID++
	id := e.nextID
	e.handlers[kind] = append(e.handlers[kind], handler{
		id: id,
		fn: func(v any) { fn(v.(T)) },
	})
	return &Subscription{events: e, kind: kind, id: id}
}

// Publish delivers v to every handler registered for its dynamic type
func (e *Events) Publish(v any) {
	e.mu.RLock()
	list := e.handlers[reflect.TypeOf(v)]
	snapshot := make([]handler, len(list))
	copy(snapshot, list)
	e.mu.RUnlock()
	if len(snapshot) == 0 {
		return
	}
	e.dispatcher.Dispatch(func() {
		for _, h := range snapshot {
			h.fn(v)
		}
	})
}
