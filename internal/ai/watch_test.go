package ai

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"google.golang.org/genai"
)

func newVideoClient(m *fakeModel, interval, timeout time.Duration) *Client {
	return NewClient(
		WithDialer(dialerFor(m, nil)),
		WithCredential("config-key"),
		WithVideoPolling(interval, timeout),
	)
}

func waitDone(t *testing.T, w *Watch) WatchState {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	s, err := w.Wait(ctx)
	require.NoError(t, err)
	return s
}

func TestWatchStopsOnSuccess(t *testing.T) {
	defer goleak.VerifyNone(t)

	m := &fakeModel{
		startOp: VideoOperation{Name: "operations/1"},
		polls: []pollResult{
			{op: VideoOperation{Name: "operations/1"}},
			{op: VideoOperation{Name: "operations/1", Done: true, VideoURI: "https://example.test/v.mp4"}},
		},
	}
	c := newVideoClient(m, 5*time.Millisecond, time.Second)

	w, err := c.StartVideo(context.Background(), VideoInput{Prompt: "Skyline flyover"})
	require.NoError(t, err)
	require.NotEmpty(t, w.ID)

	s := waitDone(t, w)
	require.Equal(t, StatusSucceeded, s.Status)
	require.Equal(t, "https://example.test/v.mp4", s.VideoURI)
	require.Equal(t, 2, s.Polls)
	require.NoError(t, s.Err)

	polls := m.pollCalls
	time.Sleep(20 * time.Millisecond)
	require.Equal(t, polls, m.pollCalls, "polling must stop after a terminal state")
}

func TestWatchCancel(t *testing.T) {
	defer goleak.VerifyNone(t)

	m := &fakeModel{startOp: VideoOperation{Name: "operations/2"}}
	c := newVideoClient(m, 5*time.Millisecond, time.Minute)

	w, err := c.StartVideo(context.Background(), VideoInput{Prompt: "Harbor at dawn"})
	require.NoError(t, err)
	require.False(t, w.State().Terminal())

	w.Cancel()
	s := waitDone(t, w)
	require.Equal(t, StatusCancelled, s.Status)

	w.Cancel()
	require.Equal(t, StatusCancelled, w.State().Status)
}

func TestWatchStopsOnCredentialError(t *testing.T) {
	defer goleak.VerifyNone(t)

	m := &fakeModel{
		startOp: VideoOperation{Name: "operations/3"},
		polls: []pollResult{
			{err: errors.New("temporary glitch")},
			{err: genai.APIError{Code: 404, Message: "Requested entity was not found."}},
		},
	}
	c := newVideoClient(m, 5*time.Millisecond, time.Second)

	w, err := c.StartVideo(context.Background(), VideoInput{Prompt: "Tower crane timelapse"})
	require.NoError(t, err)

	s := waitDone(t, w)
	require.Equal(t, StatusFailed, s.Status)
	require.Equal(t, KindInvalidCredential, KindOf(s.Err))
	require.Equal(t, 2, s.Polls)
}

func TestWatchTimesOut(t *testing.T) {
	defer goleak.VerifyNone(t)

	m := &fakeModel{startOp: VideoOperation{Name: "operations/4"}}
	c := newVideoClient(m, 5*time.Millisecond, 30*time.Millisecond)

	w, err := c.StartVideo(context.Background(), VideoInput{Prompt: "Vineyard drone pass"})
	require.NoError(t, err)

	s := waitDone(t, w)
	require.Equal(t, StatusFailed, s.Status)
	require.Equal(t, KindNetworkFailure, KindOf(s.Err))
	require.True(t, errors.Is(s.Err, context.DeadlineExceeded))
}

func TestWatchProviderFailure(t *testing.T) {
	defer goleak.VerifyNone(t)

	m := &fakeModel{startOp: VideoOperation{Name: "operations/5", Done: true, Failure: "safety filter"}}
	c := newVideoClient(m, 5*time.Millisecond, time.Second)

	w, err := c.StartVideo(context.Background(), VideoInput{Prompt: "x"})
	require.NoError(t, err)
	s := waitDone(t, w)
	require.Equal(t, StatusFailed, s.Status)
	require.Zero(t, s.Polls)
}

func TestStartVideoRejectsEmptyPrompt(t *testing.T) {
	m := &fakeModel{startOp: VideoOperation{Name: "operations/6"}}
	c := newVideoClient(m, 5*time.Millisecond, time.Second)

	w, err := c.StartVideo(context.Background(), VideoInput{Prompt: "  "})
	require.Nil(t, w)
	require.ErrorIs(t, err, ErrPromptRequired)
	require.Equal(t, Kind(""), KindOf(err))
}

func TestStartVideoCredential(t *testing.T) {
	defer goleak.VerifyNone(t)

	m := &fakeModel{startOp: VideoOperation{Name: "operations/6", Done: true, VideoURI: "u"}}
	var creds []string
	c := NewClient(WithDialer(dialerFor(m, &creds)), WithVideoPolling(5*time.Millisecond, time.Second))

	_, err := c.StartVideo(context.Background(), VideoInput{Prompt: "x"})
	require.Equal(t, KindInvalidCredential, KindOf(err))

	w, err := c.StartVideo(context.Background(), VideoInput{Prompt: "x", Credential: " visitor-key "})
	require.NoError(t, err)
	waitDone(t, w)
	require.Equal(t, []string{"", "visitor-key"}, creds)

	m.startErr = genai.APIError{Code: 400, Message: "API key not valid"}
	_, err = c.StartVideo(context.Background(), VideoInput{Prompt: "x", Credential: "bad"})
	require.Equal(t, KindInvalidCredential, KindOf(err))
}

func TestJobsRegistry(t *testing.T) {
	defer goleak.VerifyNone(t)

	m := &fakeModel{startOp: VideoOperation{Name: "operations/7"}}
	c := newVideoClient(m, 5*time.Millisecond, time.Minute)
	jobs := NewJobs(time.Minute)

	w, err := c.StartVideo(context.Background(), VideoInput{Prompt: "x"})
	require.NoError(t, err)
	jobs.Add(w)

	got, err := jobs.Get(w.ID)
	require.NoError(t, err)
	require.Same(t, w, got)

	_, err = jobs.Get("missing")
	require.ErrorIs(t, err, ErrNotFound)

	_, err = jobs.Cancel(w.ID)
	require.NoError(t, err)
	require.Equal(t, StatusCancelled, waitDone(t, w).Status)

	// finished watches are forgotten after the ttl
	jobs.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	_, err = jobs.Get(w.ID)
	require.ErrorIs(t, err, ErrNotFound)
	require.Zero(t, jobs.Len())
}

func TestJobsShutdown(t *testing.T) {
	defer goleak.VerifyNone(t)

	m := &fakeModel{startOp: VideoOperation{Name: "operations/8"}}
	c := newVideoClient(m, 5*time.Millisecond, time.Minute)
	jobs := NewJobs(0)
	for i := 0; i < 3; i++ {
		w, err := c.StartVideo(context.Background(), VideoInput{Prompt: "x"})
		require.NoError(t, err)
		jobs.Add(w)
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, jobs.Shutdown(ctx))
}
