package scheduling

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/slotwise/booking-api/internal/model"
)

// partitionLocks serializes all writes touching one (organization, date)
// queue partition. Different partitions proceed in parallel; a lock is held
// only for one logical transition plus its recompute, never across I/O to
// anything but the store.
type partitionLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newPartitionLocks() *partitionLocks {
	return &partitionLocks{locks: make(map[string]*sync.Mutex)}
}

// lock acquires the partition mutex and returns its release func.
func (p *partitionLocks) lock(orgID uuid.UUID, date time.Time) func() {
	key := orgID.String() + "|" + date.Format(model.DateFormat)

	p.mu.Lock()
	m, ok := p.locks[key]
	if !ok {
		m = &sync.Mutex{}
		p.locks[key] = m
	}
	p.mu.Unlock()

	m.Lock()
	return m.Unlock
}
