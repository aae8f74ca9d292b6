// Package userlock serializes operations per key, typically per user and operation.
//
// Local serializes within one process. Redis additionally holds a SET NX PX lease so
// that several server replicas sharing a database do not interleave the same key.
package userlock

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/semaphore"
)

// Locker runs fn while holding the lock for key.
type Locker interface {
	Do(ctx context.Context, key string, fn func(ctx context.Context) error) error
}

// Key builds a lock key from an operation name and a user id.
func Key(operation string, userID int, parts ...interface{}) string {
	key := fmt.Sprintf("%s:%d", operation, userID)
	for _, p := range parts {
		key += fmt.Sprintf(":%v", p)
	}
	return key
}

type entry struct {
	sem  *semaphore.Weighted
	refs int
}

// Local is an in-process keyed lock. Entries are dropped once no caller references them.
type Local struct {
	mu    sync.Mutex
	locks map[string]*entry
}

// NewLocal creates an empty in-process locker.
func NewLocal() *Local {
	return &Local{locks: make(map[string]*entry)}
}

// Do waits for the key, honouring ctx cancellation, then runs fn.
func (l *Local) Do(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	e := l.ref(key)
	defer l.unref(key, e)

	if err := e.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer e.sem.Release(1)

	return fn(ctx)
}

func (l *Local) ref(key string) *entry {
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.locks[key]
	if !ok {
		e = &entry{sem: semaphore.NewWeighted(1)}
		l.locks[key] = e
	}
	e.refs++
	return e
}

func (l *Local) unref(key string, e *entry) {
	l.mu.Lock()
	defer l.mu.Unlock()

	e.refs--
	if e.refs == 0 {
		delete(l.locks, key)
	}
}

// size reports the number of live keys.
func (l *Local) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
