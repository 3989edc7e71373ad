package ai

import (
	"context"
	"sync"
)

// fakeModel scripts Generate answers and video poll results.
type fakeModel struct {
	mu        sync.Mutex
	text      string
	err       error
	requests  []Request
	startOp   VideoOperation
	startErr  error
	polls     []pollResult
	pollCalls int
}

type pollResult struct {
	op  VideoOperation
	err error
}

func (f *fakeModel) Generate(_ context.Context, req Request) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	return f.text, f.err
}

func (f *fakeModel) StartVideo(context.Context, VideoRequest) (VideoOperation, error) {
	return f.startOp, f.startErr
}

// PollVideo replays polls in order and repeats the last one.
func (f *fakeModel) PollVideo(_ context.Context, op VideoOperation) (VideoOperation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pollCalls++
	if len(f.polls) == 0 {
		return op, nil
	}
	i := f.pollCalls - 1
	if i >= len(f.polls) {
		i = len(f.polls) - 1
	}
	return f.polls[i].op, f.polls[i].err
}

func (f *fakeModel) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

// dialerFor returns a Dialer that hands out m and records credentials.
func dialerFor(m *fakeModel, creds *[]string) Dialer {
	var mu sync.Mutex
	return func(_ context.Context, credential string) (Model, error) {
		if creds != nil {
			mu.Lock()
			*creds = append(*creds, credential)
			mu.Unlock()
		}
		if credential == "" {
			return nil, ErrNoCredential
		}
		return m, nil
	}
}
