// Package submit runs a single non-idempotent create request against a
// remote service, waiting out rate limiting with a fixed delay and surfacing
// every other outcome to the caller without retrying.
package submit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/Mr-Squirrely-Net/GitBugger/internal/logging"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

const (
	// DefaultDelay is the wait between attempts while rate limited.
	DefaultDelay = 60 * time.Second
	// DefaultMaxAttempts bounds the total number of attempts per submission.
	DefaultMaxAttempts = 10
	// DefaultRequestTimeout bounds a single attempt.
	DefaultRequestTimeout = 30 * time.Second
)

// Policy configures how a submission is retried.
type Policy struct {
	// Delay is waited after every rate-limited attempt.
	Delay time.Duration
	// MaxAttempts is the total number of attempts, including the first.
	MaxAttempts int
	// MaxElapsed, when non-zero, stops retrying once another wait would
	// exceed it.
	MaxElapsed time.Duration
	// RequestTimeout bounds each attempt. Zero disables the per-attempt timeout.
	RequestTimeout time.Duration
}

// DefaultPolicy returns the policy used when nothing is configured.
func DefaultPolicy() Policy {
	return Policy{
		Delay:          DefaultDelay,
		MaxAttempts:    DefaultMaxAttempts,
		RequestTimeout: DefaultRequestTimeout,
	}
}

// Validate reports configuration values that cannot work.
func (p Policy) Validate() error {
	if p.Delay < 0 {
		return fmt.Errorf("retry delay must not be negative: %s", p.Delay)
	}
	if p.MaxAttempts < 1 {
		return fmt.Errorf("max attempts must be at least 1: %d", p.MaxAttempts)
	}
	if p.MaxElapsed < 0 {
		return fmt.Errorf("max elapsed must not be negative: %s", p.MaxElapsed)
	}
	if p.RequestTimeout < 0 {
		return fmt.Errorf("request timeout must not be negative: %s", p.RequestTimeout)
	}
	return nil
}

// Class is the classification of a remote response.
type Class int

const (
	// Created means the remote service accepted the request.
	Created Class = iota
	// RateLimited means the request should be retried after the delay.
	RateLimited
	// Rejected means the request failed and must not be retried.
	Rejected
)

func (c Class) String() string {
	switch c {
	case Created:
		return "created"
	case RateLimited:
		return "rate_limited"
	default:
		return "rejected"
	}
}

// Classifier maps a response status code to a Class.
type Classifier func(statusCode int) Class

// ClassifyStatus treats 201 as created, 403 as rate limiting and everything
// else as a rejection.
func ClassifyStatus(statusCode int) Class {
	switch statusCode {
	case http.StatusCreated:
		return Created
	case http.StatusForbidden:
		return RateLimited
	default:
		return Rejected
	}
}

// Reply is the status and raw body of one attempt.
type Reply struct {
	StatusCode int
	Body       []byte
}

// Attempt performs one request. A returned error is a transport failure.
type Attempt func(ctx context.Context) (*Reply, error)

// Result describes a successful submission.
type Result struct {
	Reply *Reply
	// Attempts is the number of requests sent.
	Attempts int
	// Waits is the number of rate-limit delays waited out.
	Waits int
}

// EventType identifies an observable step of a submission.
type EventType string

// Event types, in the order a submission can emit them.
const (
	EventAttempt   EventType = "attempt"
	EventRetrying  EventType = "retrying"
	EventSucceeded EventType = "succeeded"
	EventFailed    EventType = "failed"
	EventExhausted EventType = "exhausted"
)

// Event is reported to the runner's observer.
type Event struct {
	Type         EventType
	SubmissionID string
	Attempt      int
	StatusCode   int
	Delay        time.Duration
	Err          error
}

// Option configures a Runner.
type Option func(*Runner)

// WithClassifier replaces ClassifyStatus.
func WithClassifier(c Classifier) Option {
	return func(r *Runner) { r.classify = c }
}

// WithLimiter paces every attempt, retries included, through limiter.
func WithLimiter(limiter *rate.Limiter) Option {
	return func(r *Runner) { r.limiter = limiter }
}

// WithObserver registers a callback for submission events.
func WithObserver(fn func(Event)) Option {
	return func(r *Runner) { r.observe = fn }
}

// Runner executes the submission protocol. It holds no per-submission
// state and is safe for concurrent use.
type Runner struct {
	policy   Policy
	classify Classifier
	limiter  *rate.Limiter
	observe  func(Event)
}

// NewRunner returns a runner for policy.
func NewRunner(policy Policy, opts ...Option) (*Runner, error) {
	if err := policy.Validate(); err != nil {
		return nil, fmt.Errorf("invalid retry policy: %w", err)
	}

	r := &Runner{
		policy:   policy,
		classify: ClassifyStatus,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Policy returns the runner's retry policy.
func (r *Runner) Policy() Policy { return r.policy }

// Run sends attempts until one is created, rejected, fails in transport, or
// the policy runs out. Only rate-limited attempts are retried.
func (r *Runner) Run(ctx context.Context, attempt Attempt) (*Result, error) {
	id := uuid.NewString()
	log := logging.Submission(id)
	start := time.Now()
	waits := 0

	for n := 1; ; n++ {
		if r.limiter != nil {
			if err := r.limiter.Wait(ctx); err != nil {
				return nil, r.canceled(ctx, log, n-1, err)
			}
		}

		r.emit(Event{Type: EventAttempt, SubmissionID: id, Attempt: n})
		log.Debug("sending request", "attempt", n)

		reply, err := r.do(ctx, attempt)
		if err != nil {
			if ctx.Err() != nil {
				return nil, r.canceled(ctx, log, n, ctx.Err())
			}
			terr := &TransportError{Err: err}
			log.Error("request failed", "attempt", n, "error", err)
			r.emit(Event{Type: EventFailed, SubmissionID: id, Attempt: n, Err: terr})
			return nil, terr
		}

		switch r.classify(reply.StatusCode) {
		case Created:
			log.Debug("request accepted", "attempt", n, "status_code", reply.StatusCode)
			r.emit(Event{Type: EventSucceeded, SubmissionID: id, Attempt: n, StatusCode: reply.StatusCode})
			return &Result{Reply: reply, Attempts: n, Waits: waits}, nil

		case RateLimited:
			if n >= r.policy.MaxAttempts || r.pastDeadline(start) {
				err := fmt.Errorf("%w after %d attempts: %w", ErrRetriesExhausted, n, ErrRateLimited)
				log.Error("giving up on rate limited request",
					"attempts", n,
					"elapsed", time.Since(start))
				r.emit(Event{Type: EventExhausted, SubmissionID: id, Attempt: n, StatusCode: reply.StatusCode, Err: err})
				return nil, err
			}

			log.Warn("rate limited, waiting before retry",
				"attempt", n,
				"status_code", reply.StatusCode,
				"delay", r.policy.Delay)
			r.emit(Event{Type: EventRetrying, SubmissionID: id, Attempt: n, StatusCode: reply.StatusCode, Delay: r.policy.Delay})

			if err := sleep(ctx, r.policy.Delay); err != nil {
				return nil, r.canceled(ctx, log, n, err)
			}
			waits++

		default:
			err := &RemoteRejectedError{StatusCode: reply.StatusCode, Message: string(reply.Body)}
			log.Error("request rejected",
				"attempt", n,
				"status_code", reply.StatusCode)
			r.emit(Event{Type: EventFailed, SubmissionID: id, Attempt: n, StatusCode: reply.StatusCode, Err: err})
			return nil, err
		}
	}
}

func (r *Runner) do(ctx context.Context, attempt Attempt) (*Reply, error) {
	if r.policy.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.policy.RequestTimeout)
		defer cancel()
	}
	reply, err := attempt(ctx)
	if err == nil && reply == nil {
		err = errors.New("no response received")
	}
	return reply, err
}

// pastDeadline reports whether waiting once more would overrun MaxElapsed.
func (r *Runner) pastDeadline(start time.Time) bool {
	if r.policy.MaxElapsed == 0 {
		return false
	}
	return time.Since(start)+r.policy.Delay > r.policy.MaxElapsed
}

func (r *Runner) canceled(ctx context.Context, log *slog.Logger, attempts int, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		err = ctxErr
	}
	log.Warn("submission canceled", "attempts", attempts, "error", err)
	return fmt.Errorf("submission canceled after %d attempts: %w", attempts, err)
}

func (r *Runner) emit(e Event) {
	if r.observe != nil {
		r.observe(e)
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
