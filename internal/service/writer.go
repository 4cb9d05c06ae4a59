package service

import (
	"context"
	"sync"
	"time"

	"github.com/dpshade/promptlib/internal/models"
)

// persistFunc writes one full collection
type persistFunc func(ctx context.Context, prompts []models.Prompt) error

// writer coalesces persistence intents. Every Schedule replaces the pending collection;
// once the window passes without a newer intent the pending collection is written. At most
// one write runs at a time and a write always uses the latest collection available when
// it starts, so superseded intents are never written. maxWait caps how long intents can
// keep postponing the write, counted from the first intent after the last write.
type writer struct {
	window  time.Duration
	maxWait time.Duration
	persist persistFunc
	onDone  func(prompts []models.Prompt, err error)

	mu      sync.Mutex
	pending []models.Prompt
	dirty   bool

	// running serializes persist calls between the loop and Flush
	running sync.Mutex

	kick chan struct{}
	stop chan struct{}
	done chan struct{}
}

func newWriter(window, maxWait time.Duration, persist persistFunc, onDone func([]models.Prompt, error)) *writer {
	w := &writer{
		window:  window,
		maxWait: maxWait,
		persist: persist,
		onDone:  onDone,
		kick:    make(chan struct{}, 1),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	go w.loop()
	return w
}

// Schedule records prompts as the collection to persist next. It never blocks on I/O.
func (w *writer) Schedule(prompts []models.Prompt) {
	w.mu.Lock()
	w.pending = prompts
	w.dirty = true
	w.mu.Unlock()

	select {
	case w.kick <- struct{}{}:
	default:
	}
}

// Pending reports whether an intent is waiting to be written
func (w *writer) Pending() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.dirty
}

// Discard drops the pending intent, if any
func (w *writer) Discard() {
	w.mu.Lock()
	w.pending = nil
	w.dirty = false
	w.mu.Unlock()
}

// Flush writes the pending collection now, waiting for any in-flight write first.
func (w *writer) Flush(ctx context.Context) error {
	w.running.Lock()
	defer w.running.Unlock()
	return w.runLocked(ctx)
}

// Close flushes what is pending and stops the background loop
func (w *writer) Close(ctx context.Context) error {
	select {
	case <-w.stop:
	default:
		close(w.stop)
	}
	<-w.done
	return w.Flush(ctx)
}

func (w *writer) loop() {
	defer close(w.done)

	var (
		timer    *time.Timer
		expire   <-chan time.Time
		deadline time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-w.stop:
			return

		case <-w.kick:
			if w.window <= 0 {
				w.running.Lock()
				_ = w.runLocked(context.Background())
				w.running.Unlock()
				continue
			}
			now := time.Now()
			if deadline.IsZero() && w.maxWait > 0 {
				deadline = now.Add(w.maxWait)
			}
			wait := w.window
			if !deadline.IsZero() {
				wait = min(wait, max(deadline.Sub(now), 0))
			}

			if timer == nil {
				timer = time.NewTimer(wait)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(wait)
			}
			expire = timer.C

		case <-expire:
			expire = nil
			deadline = time.Time{}
			w.running.Lock()
			_ = w.runLocked(context.Background())
			w.running.Unlock()
		}
	}
}

// runLocked performs one write of the pending collection. Callers hold w.running.
func (w *writer) runLocked(ctx context.Context) error {
	w.mu.Lock()
	if !w.dirty {
		w.mu.Unlock()
		return nil
	}
	prompts := w.pending
	w.pending = nil
	w.dirty = false
	w.mu.Unlock()

	err := w.persist(ctx, prompts)
	if w.onDone != nil {
		w.onDone(prompts, err)
	}
	return err
}
