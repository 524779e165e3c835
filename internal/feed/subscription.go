// Package feed keeps one refreshable subscription per backend resource.
package feed

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Fetcher loads one resource. It must honour ctx cancellation.
type Fetcher[T any] func(ctx context.Context) (T, error)

// Policy controls when a subscription refetches. A zero Interval means manual
// refresh only; a zero Timeout leaves the deadline to the parent context.
type Policy struct {
	Interval time.Duration
	Timeout  time.Duration
}

// Observer receives the outcome of every completed fetch.
type Observer interface {
	ObserveFetch(resource string, d time.Duration, err error)
}

var ErrAlreadyStarted = errors.New("subscription already started")

type Subscription[T any] struct {
	name     string
	fetch    Fetcher[T]
	policy   Policy
	observer Observer

	mu        sync.RWMutex
	result    Result[T]
	listeners []func(resource string)
	running   bool
	stopped   bool

	refreshCh chan struct{}
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
}

func NewSubscription[T any](name string, fetch Fetcher[T], policy Policy, observer Observer) *Subscription[T] {
	return &Subscription[T]{
		name:      name,
		fetch:     fetch,
		policy:    policy,
		observer:  observer,
		refreshCh: make(chan struct{}, 1),
	}
}

func (s *Subscription[T]) Name() string {
	return s.name
}

// Start fetches once immediately and then follows the policy until ctx is
// cancelled or Stop is called.
func (s *Subscription[T]) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running || s.stopped {
		s.mu.Unlock()
		return ErrAlreadyStarted
	}
	s.running = true
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.mu.Unlock()

	s.wg.Add(1)
	go s.run()

	log.Debug().
		Str("resource", s.name).
		Dur("interval", s.policy.Interval).
		Msg("Subscription started")
	return nil
}

// Stop cancels any in-flight fetch and waits for the loop to exit. Results
// that complete after Stop, or after the parent context is done, are discarded.
func (s *Subscription[T]) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	cancel := s.cancel
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	s.wg.Wait()
}

// Refresh asks for a fetch as soon as the current one (if any) finishes.
// Requests made while one is already queued are coalesced.
func (s *Subscription[T]) Refresh() {
	select {
	case s.refreshCh <- struct{}{}:
	default:
	}
}

func (s *Subscription[T]) Snapshot() Result[T] {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.result
}

// OnUpdate registers fn to be called with the resource name after each stored result.
func (s *Subscription[T]) OnUpdate(fn func(resource string)) {
	s.mu.Lock()
	s.listeners = append(s.listeners, fn)
	s.mu.Unlock()
}

func (s *Subscription[T]) run() {
	defer s.wg.Done()

	var tick <-chan time.Time
	if s.policy.Interval > 0 {
		ticker := time.NewTicker(s.policy.Interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	s.fetchOnce()
	for {
		select {
		case <-s.ctx.Done():
			return
		case <-tick:
			s.fetchOnce()
		case <-s.refreshCh:
			s.fetchOnce()
		}
	}
}

func (s *Subscription[T]) fetchOnce() {
	ctx := s.ctx
	if s.policy.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.policy.Timeout)
		defer cancel()
	}

	start := time.Now()
	value, err := s.fetch(ctx)
	elapsed := time.Since(start)

	s.mu.Lock()
	if s.stopped || s.ctx.Err() != nil {
		s.mu.Unlock()
		log.Debug().Str("resource", s.name).Msg("Discarding result received after stop")
		return
	}
	s.result = apply(s.result, value, err, time.Now())
	listeners := slices.Clone(s.listeners)
	s.mu.Unlock()

	if s.observer != nil {
		s.observer.ObserveFetch(s.name, elapsed, err)
	}
	if err != nil {
		log.Warn().Err(err).Str("resource", s.name).Dur("elapsed", elapsed).Msg("Fetch failed")
	}

	for _, fn := range listeners {
		fn(s.name)
	}
}

func apply[T any](prev Result[T], value T, err error, now time.Time) Result[T] {
	if err != nil {
		prev.State = Failed
		prev.Err = err
		prev.UpdatedAt = now
		return prev
	}
	return Result[T]{State: Ready, Value: value, Loaded: true, UpdatedAt: now}
}
