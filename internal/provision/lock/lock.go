package lock

import (
	"context"
	"errors"
	"sync"
)

var (
	// ErrLockTimeout is returned when the key could not be acquired before ctx expired.
	ErrLockTimeout = errors.New("lock_timeout")
	// ErrLockUnavailable is returned when the lock backend itself fails.
	ErrLockUnavailable = errors.New("lock_unavailable")
)

// Locker serializes writers that share a key.
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

// KeyedMutex is an in-process Locker with one slot per key. Idle keys are
// dropped once their last holder or waiter leaves.
type KeyedMutex struct {
	mu    sync.Mutex
	slots map[string]*slot
}

type slot struct {
	ch   chan struct{}
	refs int
}

func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{slots: make(map[string]*slot)}
}

func (m *KeyedMutex) Lock(ctx context.Context, key string) (func(), error) {
	s := m.acquireSlot(key)

	select {
	case s.ch <- struct{}{}:
	case <-ctx.Done():
		m.releaseSlot(key, s)
		return nil, ErrLockTimeout
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-s.ch
			m.releaseSlot(key, s)
		})
	}, nil
}

func (m *KeyedMutex) acquireSlot(key string) *slot {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.slots[key]
	if !ok {
		s = &slot{ch: make(chan struct{}, 1)}
		m.slots[key] = s
	}
	s.refs++
	return s
}

func (m *KeyedMutex) releaseSlot(key string, s *slot) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s.refs--
	if s.refs == 0 {
		delete(m.slots, key)
	}
}

func (m *KeyedMutex) size() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.slots)
}
