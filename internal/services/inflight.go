package services

import (
	"sync"

	"trip_tracker/internal/models"
)

// InFlight guards the fare configs of each vehicle type. Fare computations
// hold the shared side from before the active config is looked up until the
// breakdown is built; a delete needs the exclusive side and never waits for it.
type InFlight struct {
	mu    sync.Mutex
	locks map[models.VehicleType]*sync.RWMutex
}

func NewInFlight() *InFlight {
	return &InFlight{locks: map[models.VehicleType]*sync.RWMutex{}}
}

func (f *InFlight) lock(vt models.VehicleType) *sync.RWMutex {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.locks[vt]
	if !ok {
		l = new(sync.RWMutex)
		f.locks[vt] = l
	}
	return l
}

// Acquire marks the configs of vt as being read until release is called.
func (f *InFlight) Acquire(vt models.VehicleType) (release func()) {
	l := f.lock(vt)
	l.RLock()
	var once sync.Once
	return func() { once.Do(l.RUnlock) }
}

// TryExclusive takes the configs of vt for a mutation. ok is false while any
// computation holds them.
func (f *InFlight) TryExclusive(vt models.VehicleType) (release func(), ok bool) {
	l := f.lock(vt)
	if !l.TryLock() {
		return nil, false
	}
	var once sync.Once
	return func() { once.Do(l.Unlock) }, true
}

func (f *InFlight) InUse(vt models.VehicleType) bool {
	release, ok := f.TryExclusive(vt)
	if ok {
		release()
	}
	return !ok
}
