package repository

import (
	"context"
	"time"
)

// StoreObserver receives timings for every store call.
type StoreObserver interface {
	ObserveStoreOperation(op, collection string, duration time.Duration, err error)
}

// InstrumentedStore reports store calls to an observer.
type InstrumentedStore struct {
	next     KVStore
	observer StoreObserver
}

// NewInstrumentedStore wraps next. A nil observer returns next unchanged.
func NewInstrumentedStore(next KVStore, observer StoreObserver) KVStore {
	if observer == nil {
		return next
	}
	return &InstrumentedStore{next: next, observer: observer}
}

// Get implements KVStore. Absent keys are not reported as failures.
func (s *InstrumentedStore) Get(ctx context.Context, key string) ([]byte, error) {
	start := time.Now()
	value, err := s.next.Get(ctx, key)
	reported := err
	if IsKeyNotFound(err) {
		reported = nil
	}
	s.observer.ObserveStoreOperation("get", key, time.Since(start), reported)
	return value, err
}

// Set implements KVStore.
func (s *InstrumentedStore) Set(ctx context.Context, key string, value []byte) error {
	start := time.Now()
	err := s.next.Set(ctx, key, value)
	s.observer.ObserveStoreOperation("set", key, time.Since(start), err)
	return err
}

// Delete forwards to the wrapped store when it supports deletion.
func (s *InstrumentedStore) Delete(ctx context.Context, key string) error {
	d, ok := s.next.(Deleter)
	if !ok {
		return s.Set(ctx, key, []byte("null"))
	}
	start := time.Now()
	err := d.Delete(ctx, key)
	s.observer.ObserveStoreOperation("delete", key, time.Since(start), err)
	return err
}

// Ping forwards to the wrapped store when it supports it.
func (s *InstrumentedStore) Ping(ctx context.Context) error {
	if p, ok := s.next.(Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}
