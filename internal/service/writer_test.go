package service

import (
	"context"
	stderrors "errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dpshade/promptlib/internal/models"
)

type recordingPersist struct {
	mu      sync.Mutex
	batches [][]models.Prompt
	err     error
}

func (r *recordingPersist) persist(_ context.Context, prompts []models.Prompt) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.batches = append(r.batches, prompts)
	return r.err
}

func (r *recordingPersist) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.batches)
}

func TestWriterImmediateWindowWritesEachKick(t *testing.T) {
	rec := &recordingPersist{}
	w := newWriter(0, 0, rec.persist, nil)
	defer w.Close(context.Background())

	w.Schedule([]models.Prompt{{ID: "a"}})
	require.Eventually(t, func() bool { return rec.count() == 1 }, time.Second, time.Millisecond)
	assert.False(t, w.Pending())
}

func TestWriterFlushWithNothingPending(t *testing.T) {
	rec := &recordingPersist{}
	w := newWriter(time.Hour, 0, rec.persist, nil)
	defer w.Close(context.Background())

	require.NoError(t, w.Flush(context.Background()))
	assert.Equal(t, 0, rec.count())
}

func TestWriterCloseFlushesPending(t *testing.T) {
	rec := &recordingPersist{}
	w := newWriter(time.Hour, 0, rec.persist, nil)

	w.Schedule([]models.Prompt{{ID: "a"}})
	w.Schedule([]models.Prompt{{ID: "b"}})
	assert.True(t, w.Pending())

	require.NoError(t, w.Close(context.Background()))
	require.Equal(t, 1, rec.count())
	assert.Equal(t, "b", rec.batches[0][0].ID)

	// closing twice is harmless
	require.NoError(t, w.Close(context.Background()))
}

func TestWriterDiscard(t *testing.T) {
	rec := &recordingPersist{}
	w := newWriter(time.Hour, 0, rec.persist, nil)

	w.Schedule([]models.Prompt{{ID: "a"}})
	w.Discard()
	require.NoError(t, w.Close(context.Background()))
	assert.Equal(t, 0, rec.count())
}

func TestWriterReportsOutcome(t *testing.T) {
	boom := stderrors.New("boom")
	rec := &recordingPersist{err: boom}

	var (
		mu  sync.Mutex
		got error
	)
	w := newWriter(time.Hour, 0, rec.persist, func(_ []models.Prompt, err error) {
		mu.Lock()
		got = err
		mu.Unlock()
	})
	defer w.Close(context.Background())

	w.Schedule(nil)
	assert.ErrorIs(t, w.Flush(context.Background()), boom)

	mu.Lock()
	defer mu.Unlock()
	assert.ErrorIs(t, got, boom)
}

func TestWriterMaxWaitBoundsSteadySaves(t *testing.T) {
	rec := &recordingPersist{}
	w := newWriter(50*time.Millisecond, 150*time.Millisecond, rec.persist, nil)
	defer w.Close(context.Background())

	// saves arrive well inside the window and never pause
	start := time.Now()
	for rec.count() == 0 && time.Since(start) < 2*time.Second {
		w.Schedule([]models.Prompt{{ID: "busy"}})
		time.Sleep(5 * time.Millisecond)
	}

	require.NotZero(t, rec.count(), "steady saves must not postpone the write forever")
	assert.Less(t, time.Since(start), time.Second)
}

func TestWriterNeverRunsConcurrently(t *testing.T) {
	var (
		mu       sync.Mutex
		inFlight int
		maxSeen  int
	)
	persist := func(context.Context, []models.Prompt) error {
		mu.Lock()
		inFlight++
		if inFlight > maxSeen {
			maxSeen = inFlight
		}
		mu.Unlock()

		time.Sleep(2 * time.Millisecond)

		mu.Lock()
		inFlight--
		mu.Unlock()
		return nil
	}

	w := newWriter(0, 0, persist, nil)
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.Schedule([]models.Prompt{{ID: "x"}})
			_ = w.Flush(context.Background())
		}()
	}
	wg.Wait()
	require.NoError(t, w.Close(context.Background()))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, maxSeen)
}
