// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package ping notifies weblog update services that the blog changed,
// using the XML-RPC weblogUpdates.ping call.
package ping

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/rpc"
	"sync"
	"time"

	"github.com/kolo/xmlrpc"
	"golang.org/x/time/rate"

	"picoblog/internal/config"
	"picoblog/internal/metrics"
)

// MethodName is the XML-RPC method every endpoint is called with.
const MethodName = "weblogUpdates.ping"

// ErrRejected is returned when an endpoint answers with flerror set or an
// XML-RPC fault.
var ErrRejected = errors.New("ping rejected")

// response is the struct weblogUpdates.ping answers with.
type response struct {
	Error   bool   `xmlrpc:"flerror"`
	Message string `xmlrpc:"message"`
}

// Pinger sends update notifications to a fixed list of endpoints.
type Pinger struct {
	transport http.RoundTripper
	endpoints []string
	blogName  string
	blogURL   string
	timeout   time.Duration
	limiter   *rate.Limiter

	mu        sync.Mutex
	deferred  bool // a delayed round is scheduled
	flush     chan struct{}
	flushOnce sync.Once
	wg        sync.WaitGroup
}

// New creates a Pinger. Rounds of notifications are spaced at least
// cfg.Interval apart; a zero interval disables throttling.
func New(cfg config.Ping, blog config.Blog) *Pinger {
	limit := rate.Inf
	if cfg.Interval > 0 {
		limit = rate.Every(cfg.Interval)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Pinger{
		transport: http.DefaultTransport,
		endpoints: cfg.URLs,
		blogName:  blog.Name,
		blogURL:   blog.CanonicalURL,
		timeout:   timeout,
		limiter:   rate.NewLimiter(limit, 1),
		flush:     make(chan struct{}),
	}
}

// Enabled reports whether any endpoint is configured.
func (p *Pinger) Enabled() bool {
	return p != nil && len(p.endpoints) > 0
}

// Ping notifies every endpoint and returns the joined errors of those
// that failed.
func (p *Pinger) Ping(ctx context.Context) error {
	var errs []error
	for _, endpoint := range p.endpoints {
		err := p.pingOne(ctx, endpoint)
		if err != nil {
			metrics.RecordPing("error")
			errs = append(errs, fmt.Errorf("ping %s: %w", endpoint, err))
			continue
		}
		metrics.RecordPing("ok")
	}
	return errors.Join(errs...)
}

// Notify pings all endpoints in the background and never blocks the
// caller. A change arriving within the interval of the previous round is
// announced by one delayed round once the interval has passed; changes
// made while that round is pending are covered by it.
func (p *Pinger) Notify() {
	if !p.Enabled() {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.deferred {
		metrics.RecordPing("coalesced")
		return
	}

	delay := p.limiter.Reserve().Delay()
	if delay > 0 {
		p.deferred = true
		metrics.RecordPing("deferred")
		slog.Debug("ping deferred", "delay", delay)
	}

	p.wg.Add(1)
	go p.round(delay)
}

// Wait sends a delayed round at once, if one is pending, and blocks until
// background notifications have finished.
func (p *Pinger) Wait() {
	if p == nil {
		return
	}
	p.flushOnce.Do(func() { close(p.flush) })
	p.wg.Wait()
}

func (p *Pinger) round(delay time.Duration) {
	defer p.wg.Done()

	if delay > 0 {
		timer := time.NewTimer(delay)
		select {
		case <-timer.C:
		case <-p.flush:
			timer.Stop()
		}
		p.mu.Lock()
		p.deferred = false
		p.mu.Unlock()
	}

	ctx, cancel := context.WithTimeout(context.Background(), p.timeout*time.Duration(len(p.endpoints)))
	defer cancel()

	if err := p.Ping(ctx); err != nil {
		slog.Warn("update ping failed", "error", err)
		return
	}
	slog.Debug("update ping sent", "endpoints", len(p.endpoints))
}

func (p *Pinger) pingOne(ctx context.Context, endpoint string) error {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	client, err := xmlrpc.NewClient(endpoint, boundTransport{ctx: ctx, base: p.transport})
	if err != nil {
		return fmt.Errorf("xml-rpc client: %w", err)
	}
	defer client.Close()

	var resp response
	err = client.Call(MethodName, []any{p.blogName, p.blogURL}, &resp)

	var serverErr rpc.ServerError
	var fault xmlrpc.FaultError
	switch {
	case errors.As(err, &fault):
		return fmt.Errorf("%w: %s", ErrRejected, fault.String)
	case errors.As(err, &serverErr):
		return fmt.Errorf("%w: %s", ErrRejected, string(serverErr))
	case err != nil:
		return fmt.Errorf("xml-rpc call: %w", err)
	case resp.Error:
		return fmt.Errorf("%w: %s", ErrRejected, resp.Message)
	}
	return nil
}

// boundTransport sends every request with ctx and fails on non-2xx
// statuses, so only real XML-RPC faults come back as server errors.
type boundTransport struct {
	ctx  context.Context
	base http.RoundTripper
}

func (t boundTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.base.RoundTrip(req.WithContext(t.ctx))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return resp, nil
}
