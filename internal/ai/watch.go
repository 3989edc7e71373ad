package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
)

// WatchStatus is the lifecycle of a video watch.
type WatchStatus string

const (
	StatusRunning   WatchStatus = "running"
	StatusSucceeded WatchStatus = "succeeded"
	StatusFailed    WatchStatus = "failed"
	StatusCancelled WatchStatus = "cancelled"
)

// WatchState is a snapshot of a watch.
type WatchState struct {
	Status     WatchStatus
	VideoURI   string
	Err        error
	Polls      int
	StartedAt  time.Time
	FinishedAt time.Time
}

// Terminal reports whether polling has stopped.
func (s WatchState) Terminal() bool { return s.Status != StatusRunning }

// VideoInput starts a media-studio render. Credential overrides the
// configured key for this call only.
type VideoInput struct {
	Prompt      string
	AspectRatio string
	Credential  string
}

// Watch polls one video operation until it finishes, fails, times out or
// is cancelled.
type Watch struct {
	ID string

	mu        sync.Mutex
	state     WatchState
	cancel    context.CancelFunc
	cancelled atomic.Bool
	done      chan struct{}
}

// Cancel stops polling. It is safe to call more than once and after the
// watch finished.
func (w *Watch) Cancel() {
	w.cancelled.Store(true)
	w.cancel()
}

// Done is closed once the watch reaches a terminal state.
func (w *Watch) Done() <-chan struct{} { return w.done }

// State returns the latest snapshot.
func (w *Watch) State() WatchState {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Wait blocks until the watch is terminal or ctx ends.
func (w *Watch) Wait(ctx context.Context) (WatchState, error) {
	select {
	case <-w.done:
		return w.State(), nil
	case <-ctx.Done():
		return w.State(), ctx.Err()
	}
}

// StartVideo makes the start call synchronously and then polls in the
// background at the configured interval.
func (c *Client) StartVideo(ctx context.Context, in VideoInput) (*Watch, error) {
	const op = "video_start"
	credential := strings.TrimSpace(in.Credential)
	if credential == "" {
		credential = c.credential
	}
	if strings.TrimSpace(in.Prompt) == "" {
		return nil, ErrPromptRequired
	}
	aspect := in.AspectRatio
	if aspect != "9:16" {
		aspect = "16:9"
	}

	start := time.Now()
	spanCtx, span := c.tracer.Start(ctx, "ai."+op)
	defer span.End()

	model, err := c.dial(spanCtx, credential)
	if err != nil {
		return nil, c.fail(spanCtx, span, op, start, classify(op, err))
	}
	operation, err := model.StartVideo(spanCtx, VideoRequest{Model: c.videoModel, Prompt: in.Prompt, AspectRatio: aspect})
	if err != nil {
		return nil, c.fail(spanCtx, span, op, start, classify(op, err))
	}
	c.record(spanCtx, op, start, "")

	// the watch outlives the request that started it
	watchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.videoTimeout)
	w := &Watch{
		ID:     ulid.Make().String(),
		cancel: cancel,
		done:   make(chan struct{}),
		state:  WatchState{Status: StatusRunning, StartedAt: time.Now().UTC()},
	}
	logger := c.logger.With(zap.String("watch_id", w.ID), zap.String("operation", operation.Name))
	go w.run(watchCtx, model, operation, c.pollInterval, logger)
	return w, nil
}

func (w *Watch) run(ctx context.Context, model Model, op VideoOperation, interval time.Duration, logger *zap.Logger) {
	defer close(w.done)
	defer w.cancel()

	if w.apply(op) {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if w.cancelled.Load() {
				w.finish(WatchState{Status: StatusCancelled})
				logger.Info("ai: video watch cancelled")
				return
			}
			w.finish(WatchState{Status: StatusFailed, Err: &Error{Kind: KindNetworkFailure, Op: "video_poll", Err: ctx.Err()}})
			logger.Warn("ai: video watch timed out")
			return
		case <-ticker.C:
			next, err := model.PollVideo(ctx, op)
			w.mu.Lock()
			w.state.Polls++
			w.mu.Unlock()
			if err != nil {
				if ctx.Err() != nil {
					continue
				}
				aerr := classify("video_poll", err)
				if aerr.Kind == KindInvalidCredential {
					w.finish(WatchState{Status: StatusFailed, Err: aerr})
					logger.Warn("ai: video watch stopped on credential error", zap.Error(err))
					return
				}
				logger.Warn("ai: video poll failed", zap.Error(err))
				continue
			}
			op = next
			if w.apply(op) {
				return
			}
		}
	}
}

// apply records a poll result and reports whether it is terminal.
func (w *Watch) apply(op VideoOperation) bool {
	switch {
	case op.Failure != "":
		w.finish(WatchState{Status: StatusFailed, Err: &Error{Kind: KindNetworkFailure, Op: "video_poll", Err: errors.New(op.Failure)}})
		return true
	case op.Done && op.VideoURI == "":
		w.finish(WatchState{Status: StatusFailed, Err: &Error{Kind: KindSchemaMismatch, Op: "video_poll", Err: errors.New("operation finished without a video")}})
		return true
	case op.Done:
		w.finish(WatchState{Status: StatusSucceeded, VideoURI: op.VideoURI})
		return true
	}
	return false
}

func (w *Watch) finish(s WatchState) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state.Terminal() {
		return
	}
	w.state.Status = s.Status
	w.state.VideoURI = s.VideoURI
	w.state.Err = s.Err
	w.state.FinishedAt = time.Now().UTC()
}

// ErrNotFound is returned for unknown or pruned job ids.
var ErrNotFound = errors.New("ai: job not found")

// Jobs keeps running and recently finished watches by id.
type Jobs struct {
	mu      sync.Mutex
	watches map[string]*Watch
	ttl     time.Duration
	now     func() time.Time
}

// NewJobs returns a registry that forgets finished watches after ttl.
func NewJobs(ttl time.Duration) *Jobs {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Jobs{watches: map[string]*Watch{}, ttl: ttl, now: time.Now}
}

// Add registers w.
func (j *Jobs) Add(w *Watch) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.pruneLocked()
	j.watches[w.ID] = w
}

// Get returns the watch for id.
func (j *Jobs) Get(id string) (*Watch, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.pruneLocked()
	w, ok := j.watches[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return w, nil
}

// Cancel stops the watch for id.
func (j *Jobs) Cancel(id string) (*Watch, error) {
	w, err := j.Get(id)
	if err != nil {
		return nil, err
	}
	w.Cancel()
	return w, nil
}

// Len reports the number of tracked watches.
func (j *Jobs) Len() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return len(j.watches)
}

// Shutdown cancels every watch and waits for their goroutines or ctx.
func (j *Jobs) Shutdown(ctx context.Context) error {
	j.mu.Lock()
	watches := make([]*Watch, 0, len(j.watches))
	for _, w := range j.watches {
		watches = append(watches, w)
	}
	j.mu.Unlock()

	for _, w := range watches {
		w.Cancel()
	}
	for _, w := range watches {
		if _, err := w.Wait(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (j *Jobs) pruneLocked() {
	cutoff := j.now().Add(-j.ttl)
	for id, w := range j.watches {
		s := w.State()
		if s.Terminal() && s.FinishedAt.Before(cutoff) {
			delete(j.watches, id)
		}
	}
}
