package service

import (
	"context"
	"sync"

	"github.com/dpshade/promptlib/internal/errors"
	"github.com/dpshade/promptlib/internal/models"
)

type fakeLocal struct {
	mu         sync.Mutex
	prompts    []models.Prompt
	writes     [][]models.Prompt
	clears     int
	getErr     error
	replaceErr error
}

func (f *fakeLocal) GetAll(context.Context) ([]models.Prompt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	return models.CloneAll(f.prompts), nil
}

func (f *fakeLocal) ReplaceAll(_ context.Context, prompts []models.Prompt) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writes = append(f.writes, models.CloneAll(prompts))
	if f.replaceErr != nil {
		return f.replaceErr
	}
	f.prompts = models.CloneAll(prompts)
	return nil
}

func (f *fakeLocal) Clear(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clears++
	f.prompts = nil
	return nil
}

func (f *fakeLocal) writeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.writes)
}

func (f *fakeLocal) stored() []models.Prompt {
	f.mu.Lock()
	defer f.mu.Unlock()
	return models.CloneAll(f.prompts)
}

type fakeRemote struct {
	mu         sync.Mutex
	configured bool
	prompts    []models.Prompt
	upserts    [][]models.Prompt
	fetchErr   error
	upsertErr  error
}

func (f *fakeRemote) Configured() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.configured
}

func (f *fakeRemote) Endpoint() string { return "postgres://fake" }

func (f *fakeRemote) Configure(_ context.Context, endpoint, credential string) error {
	if endpoint == "" || credential == "" {
		return errors.ValidationError("endpoint and credential are required")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.configured = true
	return nil
}

func (f *fakeRemote) Disconnect() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.configured = false
	return nil
}

func (f *fakeRemote) FetchAll(context.Context) ([]models.Prompt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return models.CloneAll(f.prompts), nil
}

func (f *fakeRemote) UpsertAll(_ context.Context, prompts []models.Prompt) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upserts = append(f.upserts, models.CloneAll(prompts))
	return f.upsertErr
}

func (f *fakeRemote) upsertCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.upserts)
}

func (f *fakeRemote) lastUpsert() []models.Prompt {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.upserts) == 0 {
		return nil
	}
	return f.upserts[len(f.upserts)-1]
}

type noticeRecorder struct {
	mu      sync.Mutex
	notices []Notice
}

func (r *noticeRecorder) notify(n Notice) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, n)
}

func (r *noticeRecorder) ops() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	ops := make([]string, len(r.notices))
	for i, n := range r.notices {
		ops[i] = n.Op
	}
	return ops
}
