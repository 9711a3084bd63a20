package api

import (
	"context"
	"sync"
)

// refreshResult is what a suspended request receives when the refresh
// settles: the new access token, or the refresh error.
type refreshResult struct {
	token string
	err   error
}

// refresher enforces the refresh protocol: at most one refresh call in
// flight process-wide. Requests that hit a refresh-eligible 401 while a
// refresh is running are suspended as continuations in arrival order and
// resolved exactly once, FIFO, when the refresh settles.
type refresher struct {
	run func(ctx context.Context) (string, error)

	mu       sync.Mutex
	inFlight bool
	queue    []func(refreshResult)
}

func newRefresher(run func(ctx context.Context) (string, error)) *refresher {
	return &refresher{run: run}
}

// await either starts the refresh (becoming the leader) or joins the
// pending queue of an in-flight one. Every caller gets the same outcome.
func (r *refresher) await(ctx context.Context) (string, error) {
	r.mu.Lock()
	if r.inFlight {
		w := make(chan refreshResult, 1)
		r.queue = append(r.queue, func(res refreshResult) { w <- res })
		r.mu.Unlock()
		select {
		case res := <-w:
			return res.token, res.err
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	r.inFlight = true
	r.mu.Unlock()

	token, err := r.run(ctx)

	r.mu.Lock()
	queue := r.queue
	r.queue = nil
	r.inFlight = false
	r.mu.Unlock()

	// Resolve suspended requests in arrival order. The channels behind the
	// continuations are buffered, so a slow waiter cannot stall the drain.
	for _, resolve := range queue {
		resolve(refreshResult{token: token, err: err})
	}
	return token, err
}
