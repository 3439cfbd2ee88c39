package application

import "sync"

// resourceLocks serializes the booking pipeline per resource. The conflict
// and quota checks read existing reservations and the subsequent insert must
// observe the same state, so every create/approve/update on a resource runs
// under that resource's mutex.
type resourceLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newResourceLocks() *resourceLocks {
	return &resourceLocks{locks: make(map[string]*sync.Mutex)}
}

// acquire locks the mutex for the resource and returns its unlock function.
func (r *resourceLocks) acquire(resourceID string) func() {
	r.mu.Lock()
	lock, ok := r.locks[resourceID]
	if !ok {
		lock = &sync.Mutex{}
		r.locks[resourceID] = lock
	}
	r.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}
