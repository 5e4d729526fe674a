package apiclient

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/jrsteele09/go-auth-client/apierrors"
	"github.com/rs/zerolog/log"
)

// Dispatcher starts a replay. Replays are handed to it in FIFO order.
type Dispatcher func(task func())

// GoDispatcher runs every replay on its own goroutine.
func GoDispatcher(task func()) {
	go task()
}

// InlineDispatcher runs replays one after another on the goroutine that
// completed the refresh, which makes the order they reach the transport
// deterministic (primarily for testing).
func InlineDispatcher(task func()) {
	task()
}

type result struct {
	resp *Response
	err  error
}

// waiter is a request parked until the in-flight refresh settles. done is
// buffered so settling never blocks on a caller that stopped listening.
type waiter struct {
	ctx     context.Context
	request *Request
	done    chan result
}

func newWaiter(ctx context.Context, req *Request) *waiter {
	return &waiter{ctx: ctx, request: req, done: make(chan result, 1)}
}

func (w *waiter) resolve(resp *Response, err error) {
	w.done <- result{resp: resp, err: err}
}

// wait blocks until the waiter is settled or ctx is done. The replay of an
// abandoned waiter still runs; its result is dropped.
func (w *waiter) wait(ctx context.Context) (*Response, error) {
	select {
	case r := <-w.done:
		return r.resp, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Coordinator is the single-flight gate in front of the refresh endpoint.
// At most one refresh runs at a time; requests that hit 401 while it runs
// are queued and replayed once with the new credential.
//
// Replay order is arrival order, and the request that triggered the refresh
// arrived first, so it is dispatched before the queued waiters.
type Coordinator struct {
	refresher Refresher
	store     SessionStore
	replay    func(ctx context.Context, req *Request) (*Response, error)
	dispatch  Dispatcher
	onExpired func(error)

	mu           sync.Mutex
	inFlight     bool
	waiters      []*waiter // non-empty only while inFlight
	refreshCount int
}

func newCoordinator(
	refresher Refresher,
	store SessionStore,
	replay func(ctx context.Context, req *Request) (*Response, error),
	dispatch Dispatcher,
	onExpired func(error),
) *Coordinator {
	if dispatch == nil {
		dispatch = GoDispatcher
	}
	return &Coordinator{
		refresher: refresher,
		store:     store,
		replay:    replay,
		dispatch:  dispatch,
		onExpired: onExpired,
	}
}

// HandleUnauthorized resolves req, which received 401 and has not been
// retried. Either it starts a refresh and replays everything queued behind
// it, or it joins the queue of the refresh already running.
func (c *Coordinator) HandleUnauthorized(ctx context.Context, req *Request) (*Response, error) {
	c.mu.Lock()
	if c.inFlight {
		w := newWaiter(ctx, req)
		c.waiters = append(c.waiters, w)
		c.mu.Unlock()
		return w.wait(ctx)
	}

	// The credential was replaced after req went out: replay without
	// refreshing again.
	if cred, ok := c.store.Credential(); ok && req.sentWith != "" && cred.Token != req.sentWith {
		c.mu.Unlock()
		log.Debug().Str("path", req.Path).Msg("Credential already refreshed, replaying")
		return c.replay(ctx, req)
	}

	c.inFlight = true
	c.refreshCount++
	epoch := c.store.Epoch()
	c.mu.Unlock()

	trigger := newWaiter(ctx, req)

	// A caller giving up must not fail the refresh for everyone queued
	// behind it. The transport timeout still bounds the call.
	grant, err := c.refresher.Refresh(context.WithoutCancel(ctx))
	if err == nil && (grant == nil || grant.Credential.Token == "") {
		err = errors.New("refresh response carried no credential")
	}
	if err != nil {
		failure := fmt.Errorf("%w: %w", apierrors.ErrRefreshFailed, err)
		log.Err(err).Msg("Session refresh failed")
		c.settle(func(w *waiter) { w.resolve(nil, failure) })
		if c.onExpired != nil {
			c.onExpired(failure)
		}
		return nil, failure
	}

	installed, err := c.store.Renew(epoch, grant)
	if err != nil {
		log.Warn().Err(err).Msg("Refreshed session could not be persisted")
	}
	switch _, signedIn := c.store.Credential(); {
	case installed:
		log.Debug().Msg("Session refreshed")
	case signedIn:
		log.Debug().Msg("Signed in again during refresh, replaying with the new credential")
	default:
		// Signed out while the refresh ran: the refreshed credential is dropped.
		ended := fmt.Errorf("%w: session ended during refresh", apierrors.ErrNotAuthenticated)
		log.Debug().Msg("Session ended during refresh")
		c.settle(func(w *waiter) { w.resolve(nil, ended) })
		return nil, ended
	}

	c.dispatchReplay(trigger)
	c.settle(c.dispatchReplay)
	return trigger.wait(ctx)
}

func (c *Coordinator) dispatchReplay(w *waiter) {
	c.dispatch(func() {
		resp, err := c.replay(w.ctx, w.request)
		w.resolve(resp, err)
	})
}

// settle hands every queued waiter to fn in arrival order, including any
// that join while it runs, then clears the in-flight flag in the same
// critical section that observes the queue empty.
func (c *Coordinator) settle(fn func(*waiter)) {
	for {
		c.mu.Lock()
		batch := c.waiters
		c.waiters = nil
		if len(batch) == 0 {
			c.inFlight = false
			c.mu.Unlock()
			return
		}
		c.mu.Unlock()

		for _, w := range batch {
			fn(w)
		}
	}
}

// InFlight reports whether a refresh is running.
func (c *Coordinator) InFlight() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inFlight
}

// Pending returns the number of queued waiters.
func (c *Coordinator) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.waiters)
}

// Refreshes returns how many refresh calls have been started.
func (c *Coordinator) Refreshes() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.refreshCount
}
