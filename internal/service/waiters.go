package service

import "sync"

// dispatchWaiter is the channel pair a running dispatch loop blocks on.
// acceptCh carries the winning provider ID; cancelCh is closed when the
// rider cancels mid-dispatch.
type dispatchWaiter struct {
	acceptCh chan string
	cancelCh chan struct{}
}

// waiterRegistry tracks the dispatch loop waiting on each trip so that
// acceptance and cancellation, which arrive on other goroutines, can wake
// it.
type waiterRegistry struct {
	mu      sync.Mutex
	waiters map[string]*dispatchWaiter
}

func newWaiterRegistry() *waiterRegistry {
	return &waiterRegistry{waiters: make(map[string]*dispatchWaiter)}
}

// register creates the waiter for a trip's dispatch loop.
func (r *waiterRegistry) register(tripID string) *dispatchWaiter {
	w := &dispatchWaiter{
		acceptCh: make(chan string, 1),
		cancelCh: make(chan struct{}),
	}

	r.mu.Lock()
	r.waiters[tripID] = w
	r.mu.Unlock()

	return w
}

// unregister removes the waiter when the dispatch loop exits.
func (r *waiterRegistry) unregister(tripID string) {
	r.mu.Lock()
	delete(r.waiters, tripID)
	r.mu.Unlock()
}

// notifyAccept wakes the trip's dispatch loop with the winning provider.
// The buffered channel makes this non-blocking; a second acceptance for
// the same trip cannot happen because the winner is decided by the
// database CAS before this is called.
func (r *waiterRegistry) notifyAccept(tripID, providerID string) {
	r.mu.Lock()
	w := r.waiters[tripID]
	r.mu.Unlock()

	if w == nil {
		return
	}

	select {
	case w.acceptCh <- providerID:
	default:
	}
}

// notifyCancel wakes the trip's dispatch loop for a rider cancellation.
func (r *waiterRegistry) notifyCancel(tripID string) {
	r.mu.Lock()
	w := r.waiters[tripID]
	r.mu.Unlock()

	if w == nil {
		return
	}

	select {
	case <-w.cancelCh:
	default:
		close(w.cancelCh)
	}
}
