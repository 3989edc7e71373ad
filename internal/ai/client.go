// Package ai wraps the hosted generative model behind one call contract.
// Every operation builds a prompt, makes exactly one model call and returns
// either the answer or an *Error tagged with a Kind. Nothing is retried or
// cached.
package ai

import (
	"context"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const (
	instrumentationName = "northgate.capital/web/internal/ai"

	DefaultTextModel    = "gemini-2.5-flash"
	DefaultVideoModel   = "veo-3.1-fast-generate-preview"
	DefaultPollInterval = 10 * time.Second
	DefaultVideoTimeout = 10 * time.Minute
)

// Client is the AI facade. It is safe for concurrent use.
type Client struct {
	dial       Dialer
	credential string
	textModel  string
	videoModel string

	pollInterval time.Duration
	videoTimeout time.Duration

	logger          *zap.Logger
	tracer          trace.Tracer
	latency         metric.Float64Histogram
	latencyEnabled  bool
	failures        metric.Int64Counter
	failuresEnabled bool
}

type clientConfig struct {
	dial         Dialer
	credential   string
	textModel    string
	videoModel   string
	pollInterval time.Duration
	videoTimeout time.Duration
	logger       *zap.Logger
	meter        metric.Meter
	tracer       trace.Tracer
}

// Option customises Client construction.
type Option func(*clientConfig)

// WithDialer replaces the genai dialer, mainly for tests.
func WithDialer(d Dialer) Option {
	return func(cfg *clientConfig) { cfg.dial = d }
}

// WithCredential sets the default API key.
func WithCredential(key string) Option {
	return func(cfg *clientConfig) { cfg.credential = strings.TrimSpace(key) }
}

// WithModels overrides the text and video model names. Empty values keep the defaults.
func WithModels(text, video string) Option {
	return func(cfg *clientConfig) {
		if text = strings.TrimSpace(text); text != "" {
			cfg.textModel = text
		}
		if video = strings.TrimSpace(video); video != "" {
			cfg.videoModel = video
		}
	}
}

// WithVideoPolling sets the poll interval and the overall deadline of video watches.
func WithVideoPolling(interval, timeout time.Duration) Option {
	return func(cfg *clientConfig) {
		if interval > 0 {
			cfg.pollInterval = interval
		}
		if timeout > 0 {
			cfg.videoTimeout = timeout
		}
	}
}

// WithLogger sets the logger used for call diagnostics.
func WithLogger(logger *zap.Logger) Option {
	return func(cfg *clientConfig) { cfg.logger = logger }
}

// WithMeter injects a custom OpenTelemetry meter.
func WithMeter(m metric.Meter) Option {
	return func(cfg *clientConfig) { cfg.meter = m }
}

// WithTracer injects a custom OpenTelemetry tracer.
func WithTracer(t trace.Tracer) Option {
	return func(cfg *clientConfig) { cfg.tracer = t }
}

// NewClient builds the facade. Without WithDialer it talks to Gemini.
func NewClient(opts ...Option) *Client {
	cfg := clientConfig{
		textModel:    DefaultTextModel,
		videoModel:   DefaultVideoModel,
		pollInterval: DefaultPollInterval,
		videoTimeout: DefaultVideoTimeout,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = zap.NewNop()
	}
	if cfg.dial == nil {
		cfg.dial = NewGenAIDialer()
	}
	if cfg.meter == nil {
		cfg.meter = otel.GetMeterProvider().Meter(instrumentationName)
	}
	if cfg.tracer == nil {
		cfg.tracer = otel.Tracer(instrumentationName)
	}

	latency, latencyErr := cfg.meter.Float64Histogram(
		"ai.call.latency",
		metric.WithUnit("ms"),
		metric.WithDescription("Latency in milliseconds of model calls"),
	)
	if latencyErr != nil {
		cfg.logger.Warn("ai: unable to register latency metric", zap.Error(latencyErr))
	}
	failures, failuresErr := cfg.meter.Int64Counter(
		"ai.call.failures",
		metric.WithDescription("Count of failed model calls by kind"),
	)
	if failuresErr != nil {
		cfg.logger.Warn("ai: unable to register failure metric", zap.Error(failuresErr))
	}

	return &Client{
		dial:            cfg.dial,
		credential:      cfg.credential,
		textModel:       cfg.textModel,
		videoModel:      cfg.videoModel,
		pollInterval:    cfg.pollInterval,
		videoTimeout:    cfg.videoTimeout,
		logger:          cfg.logger,
		tracer:          cfg.tracer,
		latency:         latency,
		latencyEnabled:  latencyErr == nil,
		failures:        failures,
		failuresEnabled: failuresErr == nil,
	}
}

// HasCredential reports whether a default key is configured.
func (c *Client) HasCredential() bool { return c.credential != "" }

// callText is the single path for free-text operations.
func (c *Client) callText(ctx context.Context, op string, req Request) (string, error) {
	if req.Model == "" {
		req.Model = c.textModel
	}
	ctx, span := c.tracer.Start(ctx, "ai."+op, trace.WithAttributes(
		attribute.String("ai.model", req.Model),
		attribute.Bool("ai.grounded", req.Grounded),
	))
	defer span.End()
	start := time.Now()

	text, err := c.generate(ctx, c.credential, req)
	if err == nil && strings.TrimSpace(text) == "" {
		err = ErrEmptyResponse
	}
	if err != nil {
		return "", c.fail(ctx, span, op, start, classify(op, err))
	}
	c.record(ctx, op, start, "")
	return strings.TrimSpace(text), nil
}

// callJSON runs a schema call and validates the answer before decoding it
// into T.
func callJSON[T any](ctx context.Context, c *Client, op string, req Request) (T, error) {
	var out T
	if req.Grounded && req.Schema != nil {
		req.Prompt += "\n\nRespond with JSON only, no prose, matching this schema: " + describeSchema(req.Schema)
	}
	text, err := c.callText(ctx, op, req)
	if err != nil {
		return out, err
	}
	if err := decodeStrict(text, req.Schema, &out); err != nil {
		aerr := &Error{Kind: KindSchemaMismatch, Op: op, Err: err}
		c.countFailure(ctx, op, aerr.Kind)
		c.logger.Warn("ai: schema mismatch", zap.String("op", op), zap.Error(err))
		return out, aerr
	}
	return out, nil
}

func (c *Client) generate(ctx context.Context, credential string, req Request) (string, error) {
	model, err := c.dial(ctx, credential)
	if err != nil {
		return "", err
	}
	return model.Generate(ctx, req)
}

func (c *Client) fail(ctx context.Context, span trace.Span, op string, start time.Time, err *Error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, string(err.Kind))
	c.record(ctx, op, start, err.Kind)
	c.countFailure(ctx, op, err.Kind)
	c.logger.Warn("ai: call failed",
		zap.String("op", op),
		zap.String("kind", string(err.Kind)),
		zap.Duration("latency", time.Since(start)),
		zap.Error(err.Err),
	)
	return err
}

func (c *Client) record(ctx context.Context, op string, start time.Time, kind Kind) {
	if !c.latencyEnabled {
		return
	}
	attrs := []attribute.KeyValue{attribute.String("op", op)}
	if kind != "" {
		attrs = append(attrs, attribute.String("kind", string(kind)))
	}
	c.latency.Record(ctx, float64(time.Since(start))/float64(time.Millisecond), metric.WithAttributes(attrs...))
}

func (c *Client) countFailure(ctx context.Context, op string, kind Kind) {
	if !c.failuresEnabled {
		return
	}
	c.failures.Add(ctx, 1, metric.WithAttributes(attribute.String("op", op), attribute.String("kind", string(kind))))
}
