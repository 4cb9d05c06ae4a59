package service

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/dpshade/promptlib/internal/errors"
	"github.com/dpshade/promptlib/internal/models"
)

// LocalStore is the embedded store the service always writes to
type LocalStore interface {
	GetAll(ctx context.Context) ([]models.Prompt, error)
	ReplaceAll(ctx context.Context, prompts []models.Prompt) error
	Clear(ctx context.Context) error
}

// RemoteStore is the optional hosted mirror
type RemoteStore interface {
	Configured() bool
	Endpoint() string
	Configure(ctx context.Context, endpoint, credential string) error
	Disconnect() error
	FetchAll(ctx context.Context) ([]models.Prompt, error)
	UpsertAll(ctx context.Context, prompts []models.Prompt) error
}

// State is the lifecycle state of the service
type State int

const (
	StateUninitialized State = iota
	StateLoading
	StateReady
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Notice is a non-fatal failure reported after start-up
type Notice struct {
	Level slog.Level
	Op    string
	Err   error
	Time  time.Time
}

// Status summarizes the service for status indicators
type Status struct {
	State            State
	Persistent       bool
	Source           string
	Count            int
	RemoteConfigured bool
	RemoteEndpoint   string
	Err              error
}

// Options configures a Service
type Options struct {
	// Debounce is the coalescing window for saves
	Debounce time.Duration
	// DataDir is probed for durable storage at start-up
	DataDir string
	Logger  *slog.Logger
	Notify  func(Notice)
}

const DefaultDebounce = 300 * time.Millisecond

// maxWaitWindows bounds how many debounce windows a stream of saves can delay a write
const maxWaitWindows = 10

// Service is the single entry point for reading and persisting the prompt collection.
// The in-memory collection is authoritative for the running process; the local store is
// always kept current and the remote, when configured, trails it.
type Service struct {
	local  LocalStore
	remote RemoteStore
	opts   Options
	logger *slog.Logger

	mu         sync.RWMutex
	state      State
	prompts    []models.Prompt
	source     string
	persistent bool
	fatal      error

	localWriter  *writer
	remoteWriter *writer
}

// New creates a service. remote may be nil when no mirror is available.
func New(local LocalStore, remote RemoteStore, opts Options) *Service {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	s := &Service{
		local:  local,
		remote: remote,
		opts:   opts,
		logger: opts.Logger.With("component", "service"),
	}
	s.localWriter = newWriter(opts.Debounce, maxWaitWindows*opts.Debounce, s.persistLocal, s.afterLocal)
	s.remoteWriter = newWriter(0, 0, s.persistRemote, s.afterRemote)
	return s
}

// Start requests durable storage and loads the collection. A failure leaves the
// service in StateFailed for the rest of the process.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StateUninitialized {
		state, fatal := s.state, s.fatal
		s.mu.Unlock()
		if state == StateFailed {
			return fatal
		}
		return nil
	}
	s.mu.Unlock()

	persistent := probeDurable(s.opts.DataDir)
	if !persistent {
		s.logger.Warn("durable storage not available; data may not survive", "dir", s.opts.DataDir)
	}

	s.mu.Lock()
	s.persistent = persistent
	s.state = StateLoading
	s.mu.Unlock()

	return s.load(ctx)
}

func (s *Service) load(ctx context.Context) error {
	sources := []Source{
		remoteSource{remote: s.remote},
		localSource{local: s.local},
		seedSource{},
	}

	res, err := loadChain(ctx, sources)
	for _, skipped := range res.Skipped {
		s.notice(slog.LevelWarn, "load remote", skipped)
	}
	if err != nil {
		s.mu.Lock()
		s.state = StateFailed
		s.fatal = err
		s.mu.Unlock()
		s.logger.Error("failed to load prompts", "error", err)
		return err
	}

	if res.Source == "remote" {
		if err := s.local.ReplaceAll(ctx, res.Prompts); err != nil {
			s.notice(slog.LevelWarn, "refresh local cache", err)
		}
	}

	s.mu.Lock()
	s.prompts = res.Prompts
	s.source = res.Source
	s.state = StateReady
	s.mu.Unlock()

	s.logger.Info("prompts loaded", "source", res.Source, "count", len(res.Prompts))
	return nil
}

// Status returns a snapshot of the service state
func (s *Service) Status() Status {
	s.mu.RLock()
	st := Status{
		State:      s.state,
		Persistent: s.persistent,
		Source:     s.source,
		Count:      len(s.prompts),
		Err:        s.fatal,
	}
	s.mu.RUnlock()

	if s.remote != nil {
		st.RemoteConfigured = s.remote.Configured()
		st.RemoteEndpoint = s.remote.Endpoint()
	}
	return st
}

// Prompts returns a copy of the current collection
func (s *Service) Prompts() []models.Prompt {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return models.CloneAll(s.prompts)
}

// Get returns the prompt with the given id
func (s *Service) Get(id string) (models.Prompt, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.prompts {
		if p.ID == id {
			return p.Clone(), true
		}
	}
	return models.Prompt{}, false
}

// Save makes prompts the current collection and schedules it for persistence.
// Saves inside the debounce window are coalesced; only the latest one is written.
func (s *Service) Save(prompts []models.Prompt) error {
	if err := s.requireReady(); err != nil {
		return err
	}

	s.mu.Lock()
	s.prompts = models.CloneAll(prompts)
	s.mu.Unlock()

	s.localWriter.Schedule(models.CloneAll(prompts))
	return nil
}

// Upsert replaces the prompt with the same id or adds it to the front of the collection
func (s *Service) Upsert(p models.Prompt) error {
	if p.ID == "" {
		return errors.ValidationError("prompt id is required")
	}

	prompts := s.Prompts()
	replaced := false
	for i := range prompts {
		if prompts[i].ID == p.ID {
			prompts[i] = p.Clone()
			replaced = true
			break
		}
	}
	if !replaced {
		prompts = append([]models.Prompt{p.Clone()}, prompts...)
	}
	return s.Save(prompts)
}

// Merge adds prompts to the front of the collection, keeping their order. Existing
// records with the same id are replaced.
func (s *Service) Merge(added []models.Prompt) error {
	ids := make(map[string]bool, len(added))
	for _, p := range added {
		ids[p.ID] = true
	}

	prompts := models.CloneAll(added)
	for _, p := range s.Prompts() {
		if !ids[p.ID] {
			prompts = append(prompts, p)
		}
	}
	return s.Save(prompts)
}

// Delete removes the prompt with the given id
func (s *Service) Delete(id string) error {
	prompts := s.Prompts()
	kept := prompts[:0]
	for _, p := range prompts {
		if p.ID != id {
			kept = append(kept, p)
		}
	}
	if len(kept) == len(prompts) {
		return errors.NotFoundError(fmt.Sprintf("prompt %q", id))
	}
	return s.Save(kept)
}

// Restore replaces the whole collection with an already validated backup
func (s *Service) Restore(prompts []models.Prompt) error {
	if err := s.Save(prompts); err != nil {
		return err
	}
	s.logger.Info("collection restored", "count", len(prompts))
	return nil
}

// Flush writes any pending save now. The returned error is the local write's; remote
// failures are reported as notices.
func (s *Service) Flush(ctx context.Context) error {
	err := s.localWriter.Flush(ctx)
	_ = s.remoteWriter.Flush(ctx)
	return err
}

// Close flushes pending saves and stops the background writers
func (s *Service) Close(ctx context.Context) error {
	err := s.localWriter.Close(ctx)
	_ = s.remoteWriter.Close(ctx)
	return err
}

// SyncLocalToCloud pushes the current collection to the remote in one upsert. Nothing is
// rolled back locally when it fails.
func (s *Service) SyncLocalToCloud(ctx context.Context) error {
	if err := s.requireReady(); err != nil {
		return err
	}
	if s.remote == nil || !s.remote.Configured() {
		return errors.RemoteNotConfiguredError()
	}

	prompts := s.Prompts()
	if err := s.remote.UpsertAll(ctx, prompts); err != nil {
		s.logger.Error("sync to remote failed", "error", err)
		return err
	}
	s.logger.Info("synced to remote", "count", len(prompts))
	return nil
}

// FactoryReset clears the local store and restores the built-in starter set.
// Remote data is left untouched.
func (s *Service) FactoryReset(ctx context.Context) error {
	if err := s.requireReady(); err != nil {
		return err
	}

	// an in-flight save must not land after the reset
	s.localWriter.running.Lock()
	defer s.localWriter.running.Unlock()
	s.localWriter.Discard()
	s.remoteWriter.Discard()

	if err := s.local.Clear(ctx); err != nil {
		return err
	}
	seed := models.Seed()
	if err := s.local.ReplaceAll(ctx, seed); err != nil {
		return err
	}

	s.mu.Lock()
	s.prompts = seed
	s.source = "seed"
	s.mu.Unlock()

	s.logger.Info("factory reset complete")
	return nil
}

// ConnectRemote configures the remote mirror
func (s *Service) ConnectRemote(ctx context.Context, endpoint, credential string) error {
	if s.remote == nil {
		return errors.RemoteNotConfiguredError()
	}
	return s.remote.Configure(ctx, endpoint, credential)
}

// DisconnectRemote forgets the remote mirror. Remote data is kept.
func (s *Service) DisconnectRemote() error {
	if s.remote == nil {
		return nil
	}
	s.remoteWriter.Discard()
	return s.remote.Disconnect()
}

// RemoteStatus reports whether a mirror is configured and its redacted endpoint
func (s *Service) RemoteStatus() (configured bool, endpoint string) {
	if s.remote == nil || !s.remote.Configured() {
		return false, ""
	}
	return true, s.remote.Endpoint()
}

func (s *Service) requireReady() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	switch s.state {
	case StateReady:
		return nil
	case StateFailed:
		return errors.NewAppError(errors.ErrCodeNotReady, "Prompt library failed to load; restart to retry").
			WithDetails(fmt.Sprint(s.fatal))
	default:
		return errors.NewAppError(errors.ErrCodeNotReady, "Prompt library is not loaded yet")
	}
}

func (s *Service) persistLocal(ctx context.Context, prompts []models.Prompt) error {
	return s.local.ReplaceAll(ctx, prompts)
}

func (s *Service) afterLocal(prompts []models.Prompt, err error) {
	if err != nil {
		s.notice(slog.LevelError, "save", err)
		return
	}
	if s.remote != nil && s.remote.Configured() {
		s.remoteWriter.Schedule(prompts)
	}
}

func (s *Service) persistRemote(ctx context.Context, prompts []models.Prompt) error {
	if s.remote == nil || !s.remote.Configured() {
		return nil
	}
	return s.remote.UpsertAll(ctx, prompts)
}

func (s *Service) afterRemote(_ []models.Prompt, err error) {
	if err != nil {
		s.notice(slog.LevelWarn, "mirror to remote", err)
	}
}

func (s *Service) notice(level slog.Level, op string, err error) {
	s.logger.Log(context.Background(), level, "storage notice", "op", op, "error", err)
	if s.opts.Notify != nil {
		s.opts.Notify(Notice{Level: level, Op: op, Err: err, Time: time.Now()})
	}
}

// probeDurable checks that dir accepts a synced write. An empty dir is not durable.
func probeDurable(dir string) bool {
	if dir == "" {
		return false
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return false
	}

	f, err := os.CreateTemp(dir, ".probe-*")
	if err != nil {
		return false
	}
	name := f.Name()
	defer os.Remove(name)

	if _, err := f.WriteString("ok"); err != nil {
		f.Close()
		return false
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return false
	}
	if err := f.Close(); err != nil {
		return false
	}
	_, err = os.Stat(filepath.Clean(name))
	return err == nil
}
