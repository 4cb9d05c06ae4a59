package service

import (
	"context"
	stderrors "errors"

	"github.com/dpshade/promptlib/internal/errors"
	"github.com/dpshade/promptlib/internal/models"
)

// errSkip tells the loader to move on to the next source without treating it as a failure
var errSkip = stderrors.New("source skipped")

// Source is one provider in the read chain
type Source interface {
	Name() string
	Load(ctx context.Context) ([]models.Prompt, error)
}

// Fatal sources end the chain when they fail instead of falling through
type fatalSource interface {
	Source
	Fatal() bool
}

type remoteSource struct {
	remote RemoteStore
}

func (s remoteSource) Name() string { return "remote" }

func (s remoteSource) Load(ctx context.Context) ([]models.Prompt, error) {
	if s.remote == nil || !s.remote.Configured() {
		return nil, errSkip
	}
	prompts, err := s.remote.FetchAll(ctx)
	if err != nil {
		return nil, err
	}
	// An empty remote table falls through to local data
	if len(prompts) == 0 {
		return nil, errSkip
	}
	return prompts, nil
}

type localSource struct {
	local LocalStore
}

func (s localSource) Name() string { return "local" }

func (s localSource) Fatal() bool { return true }

func (s localSource) Load(ctx context.Context) ([]models.Prompt, error) {
	prompts, err := s.local.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	if len(prompts) == 0 {
		return nil, errSkip
	}
	return prompts, nil
}

type seedSource struct{}

func (seedSource) Name() string { return "seed" }

func (seedSource) Load(context.Context) ([]models.Prompt, error) {
	return models.Seed(), nil
}

// loadResult records which source produced the collection and what failed on the way
type loadResult struct {
	Prompts []models.Prompt
	Source  string
	Skipped []error
}

// loadChain tries each source in order. A failing source falls through to the next one
// unless it is fatal, in which case its error ends the load.
func loadChain(ctx context.Context, sources []Source) (*loadResult, error) {
	res := &loadResult{}
	for _, src := range sources {
		prompts, err := src.Load(ctx)
		if err == nil {
			res.Prompts = prompts
			res.Source = src.Name()
			return res, nil
		}
		if stderrors.Is(err, errSkip) {
			continue
		}
		if f, ok := src.(fatalSource); ok && f.Fatal() {
			return res, err
		}
		res.Skipped = append(res.Skipped, err)
	}
	return res, errors.InternalError("no source produced a prompt collection")
}
