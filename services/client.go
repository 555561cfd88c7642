package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/Farhad7860/TaskFlow/config"
	"github.com/Farhad7860/TaskFlow/logging"
	"github.com/Farhad7860/TaskFlow/session"

	"github.com/eapache/go-resiliency/retrier"
	"github.com/google/uuid"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"
)

// Breaker areas; each backend area trips independently.
const (
	areaProjects    = "projects"
	areaTasks       = "tasks"
	areaUsers       = "users"
	areaInvitations = "invitations"
)

type Options struct {
	BaseURL         string
	// Timeout bounds one call, retries included.
	Timeout         time.Duration
	BreakerFailures uint32
	BreakerTimeout  time.Duration
	RetryAttempts   int
	RetryBackoff    time.Duration
	RateLimit       float64
	HTTPClient      *http.Client
}

func OptionsFromConfig(cfg config.Config) Options {
	return Options{
		BaseURL:         cfg.BaseURL,
		Timeout:         cfg.RequestTimeout,
		BreakerFailures: cfg.BreakerFailures,
		BreakerTimeout:  cfg.BreakerTimeout,
		RetryAttempts:   cfg.RetryAttempts,
		RetryBackoff:    cfg.RetryBackoff,
		RateLimit:       cfg.RateLimit,
	}
}

// Client issues JSON requests against the TaskFlow REST backend.
type Client struct {
	baseURL  string
	http     *http.Client
	breakers map[string]*gobreaker.CircuitBreaker
	timeout  time.Duration
	retries  int
	backoff  time.Duration
	limiter  *rate.Limiter
	tracer   trace.Tracer
	now      func() time.Time
}

func NewClient(opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		// the per-call context deadline bounds requests
		httpClient = &http.Client{}
	}
	if opts.BreakerFailures == 0 {
		opts.BreakerFailures = 3
	}
	if opts.BreakerTimeout <= 0 {
		opts.BreakerTimeout = 5 * time.Second
	}
	if opts.RetryAttempts < 1 {
		opts.RetryAttempts = 1
	}

	c := &Client{
		baseURL:  strings.TrimRight(opts.BaseURL, "/"),
		http:     httpClient,
		breakers: make(map[string]*gobreaker.CircuitBreaker),
		timeout:  opts.Timeout,
		retries:  opts.RetryAttempts - 1,
		backoff:  opts.RetryBackoff,
		tracer:   otel.Tracer("github.com/Farhad7860/TaskFlow/services"),
		now:      time.Now,
	}
	if opts.RateLimit > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
	}
	for _, area := range []string{areaProjects, areaTasks, areaUsers, areaInvitations} {
		c.breakers[area] = newBreaker(area, opts.BreakerFailures, opts.BreakerTimeout)
	}
	return c
}

func newBreaker(area string, failures uint32, timeout time.Duration) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        area + "-cb",
		MaxRequests: 1,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		// Client errors and cancellations say nothing about backend health.
		IsSuccessful: func(err error) bool {
			if err == nil || errors.Is(err, context.Canceled) {
				return true
			}
			var apiErr *APIError
			return errors.As(err, &apiErr) && apiErr.Status < http.StatusInternalServerError
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Logger.Infof("Event ID: CIRCUIT_BREAKER_STATE_CHANGE, Description: Circuit Breaker '%s' changed from '%s' to '%s'", name, from.String(), to.String())
		},
	})
}

type request struct {
	area   string
	op     string
	method string
	path   string
	body   any
	// sess is nil for the unauthenticated auth endpoints.
	sess     *session.Session
	fallback string
}

func (r request) idempotent() bool {
	return r.method == http.MethodGet
}

// do runs the credential pre-flight, then sends the request through the
// area's breaker and decodes a 2xx body into out.
func (c *Client) do(ctx context.Context, req request, out any) error {
	if req.sess != nil {
		if err := req.sess.Check(c.now()); err != nil {
			return err
		}
	}
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	ctx, span := c.tracer.Start(ctx, req.op, trace.WithSpanKind(trace.SpanKindClient), trace.WithAttributes(
		attribute.String("http.method", req.method),
		attribute.String("http.route", req.path),
	))
	defer span.End()

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return c.fail(span, req, translateCtxErr(ctx, err))
		}
	}

	var payload []byte
	if req.body != nil {
		var err error
		if payload, err = json.Marshal(req.body); err != nil {
			return c.fail(span, req, fmt.Errorf("encode %s request: %w", req.op, err))
		}
	}

	_, err := c.breakers[req.area].Execute(func() (interface{}, error) {
		if !req.idempotent() || c.retries == 0 {
			return nil, c.send(ctx, req, payload, out)
		}
		r := retrier.New(retrier.ConstantBackoff(c.retries, c.backoff), retryable{})
		return nil, r.RunCtx(ctx, func(ctx context.Context) error {
			return c.send(ctx, req, payload, out)
		})
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		err = fmt.Errorf("%w: %s", ErrCircuitOpen, req.area)
	}
	if err != nil {
		return c.fail(span, req, err)
	}
	return nil
}

func (c *Client) send(ctx context.Context, req request, payload []byte, out any) error {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.method, c.baseURL+req.path, body)
	if err != nil {
		return fmt.Errorf("build %s request: %w", req.op, err)
	}
	if payload != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("X-Request-ID", uuid.NewString())
	if req.sess != nil {
		httpReq.Header.Set("Authorization", req.sess.Authorization())
	}

	logging.Logger.Debugf("Event ID: API_REQUEST, Description: %s %s (%s)", req.method, req.path, httpReq.Header.Get("X-Request-ID"))

	resp, err := c.http.Do(httpReq)
	if err != nil {
		if ctxErr := translateCtxErr(ctx, err); ctxErr != err {
			return ctxErr
		}
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return ErrRequestTimeout
		}
		return fmt.Errorf("%s: %w", req.fallback, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return readAPIError(resp, req.fallback)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("decode %s response: %w", req.op, err)
	}
	return nil
}

func (c *Client) fail(span trace.Span, req request, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		span.SetAttributes(attribute.Int("http.status_code", apiErr.Status))
	}
	if !errors.Is(err, context.Canceled) {
		logging.Logger.Warnf("Event ID: API_REQUEST_FAILED, Description: %s %s failed: %v", req.method, req.path, err)
	}
	return err
}

// readAPIError prefers the body's message field and falls back to a fixed string.
func readAPIError(resp *http.Response, fallback string) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	var body struct {
		Message string `json:"message"`
	}
	msg := fallback
	if err := json.Unmarshal(raw, &body); err == nil && strings.TrimSpace(body.Message) != "" {
		msg = body.Message
	}
	return &APIError{Status: resp.StatusCode, Message: msg}
}

func translateCtxErr(ctx context.Context, err error) error {
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		return ErrRequestTimeout
	case errors.Is(ctx.Err(), context.Canceled):
		return context.Canceled
	}
	return err
}

// retryable retries transport failures and 5xx answers only.
type retryable struct{}

func (retryable) Classify(err error) retrier.Action {
	if err == nil {
		return retrier.Succeed
	}
	if errors.Is(err, ErrRequestTimeout) || errors.Is(err, context.Canceled) {
		return retrier.Fail
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Status < http.StatusInternalServerError {
		return retrier.Fail
	}
	return retrier.Retry
}
