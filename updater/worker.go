package updater

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/juju/clock"
	"github.com/juju/errors"
	"github.com/juju/worker/v4/catacomb"

	"github.com/theoremus-urban-solutions/gtfsrt-stoptime-updater/gtfs"
	"github.com/theoremus-urban-solutions/gtfsrt-stoptime-updater/gtfsrt"
)

// Rejection reasons decided by the worker itself. Reasons from the buffer
// are reported under timetable.Reason names.
const (
	rejectIncoherent = "incoherent"
	rejectEmpty      = "empty"
	rejectUnresolved = "unresolved_pattern"
)

// Config defines the operation of the Worker.
type Config struct {
	Streamer  gtfsrt.Streamer
	Resolver  gtfs.PatternResolver
	Publisher *Publisher
	Filter    gtfsrt.FilterOptions

	// Clock and Logger default to the wall clock and slog.Default().
	Clock  clock.Clock
	Logger *slog.Logger

	// ProgressLogInterval is the number of applied trip updates between two
	// progress log lines. Zero disables them.
	ProgressLogInterval int
	EmptyRetryDelay     time.Duration
	ErrorRetryDelay     time.Duration
}

// Validate returns an error if config cannot drive the Worker.
func (config Config) Validate() error {
	if config.Streamer == nil {
		return errors.NotValidf("nil Streamer")
	}
	if config.Resolver == nil {
		return errors.NotValidf("nil Resolver")
	}
	if config.Publisher == nil {
		return errors.NotValidf("nil Publisher")
	}
	if config.ProgressLogInterval < 0 {
		return errors.NotValidf("negative ProgressLogInterval")
	}
	if config.EmptyRetryDelay < 0 || config.ErrorRetryDelay < 0 {
		return errors.NotValidf("negative retry delay")
	}
	return nil
}

// Worker pulls batches from the streamer and applies their trip updates to
// the publisher's buffer. It is the only writer of that buffer.
type Worker struct {
	catacomb catacomb.Catacomb
	config   Config
	logger   *slog.Logger

	mu        sync.Mutex
	batches   int64
	applied   int64
	empty     int64
	errs      int64
	rejected  map[string]int64
	lastBatch uint64
}

// NewWorker starts the ingestion loop. It returns an error without starting
// anything when config is invalid.
func NewWorker(config Config) (*Worker, error) {
	if err := config.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	if config.Clock == nil {
		config.Clock = clock.WallClock
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	w := &Worker{
		config:   config,
		logger:   config.Logger.With("worker", "stoptime-updater"),
		rejected: map[string]int64{},
	}
	if err := catacomb.Invoke(catacomb.Plan{
		Site: &w.catacomb,
		Work: w.loop,
	}); err != nil {
		return nil, errors.Trace(err)
	}
	return w, nil
}

// Kill is part of the worker.Worker interface.
func (w *Worker) Kill() {
	w.catacomb.Kill(nil)
}

// Wait is part of the worker.Worker interface.
func (w *Worker) Wait() error {
	return w.catacomb.Wait()
}

func (w *Worker) String() string {
	return fmt.Sprintf("streaming stoptime updater (streamer: %v)", w.config.Streamer)
}

// Report returns the worker's counters.
func (w *Worker) Report() map[string]any {
	w.mu.Lock()
	defer w.mu.Unlock()
	rejected := make(map[string]int64, len(w.rejected))
	for k, v := range w.rejected {
		rejected[k] = v
	}
	return map[string]any{
		"streamer":         fmt.Sprint(w.config.Streamer),
		"batches":          w.batches,
		"applied":          w.applied,
		"empty-batches":    w.empty,
		"transport-errors": w.errs,
		"rejected":         rejected,
		"last-batch-time":  w.lastBatch,
	}
}

func (w *Worker) loop() error {
	ctx, cancel := w.scopedContext()
	defer cancel()

	w.logger.Info("starting", "streamer", fmt.Sprint(w.config.Streamer))
	for {
		select {
		case <-w.catacomb.Dying():
			return w.catacomb.ErrDying()
		default:
		}

		batch, err := w.config.Streamer.GetUpdates(ctx)
		switch {
		case errors.Is(err, gtfsrt.ErrStreamClosed):
			w.logger.Info("update stream closed")
			return nil
		case err != nil:
			if ctx.Err() != nil {
				return w.catacomb.ErrDying()
			}
			w.mu.Lock()
			w.errs++
			w.mu.Unlock()
			w.logger.Warn("fetching trip updates failed", "error", err, "retry_in", w.config.ErrorRetryDelay)
			if err := w.sleep(w.config.ErrorRetryDelay); err != nil {
				return err
			}
			continue
		case batch.Len() == 0:
			w.mu.Lock()
			w.empty++
			w.mu.Unlock()
			if err := w.sleep(w.config.EmptyRetryDelay); err != nil {
				return err
			}
			continue
		}

		w.mu.Lock()
		w.batches++
		w.lastBatch = batch.Timestamp
		w.mu.Unlock()
		for _, tu := range batch.TripUpdates {
			w.handle(tu)
		}
	}
}

// handle runs one trip update through filtering, validation, pattern lookup
// and the buffer. Every failure is local to the trip update.
func (w *Worker) handle(tu *gtfsrt.TripUpdate) {
	if tu == nil {
		w.logger.Warn("nil trip update in batch")
		w.reject(rejectIncoherent)
		return
	}
	tu.Filter(w.config.Filter)
	if !tu.IsCoherent() {
		w.logger.Warn("incoherent trip update", "trip_id", tu.TripID)
		w.reject(rejectIncoherent)
		return
	}
	if tu.IsEmpty() {
		w.logger.Debug("empty trip update", "trip_id", tu.TripID)
		w.reject(rejectEmpty)
		return
	}
	pattern, ok := w.config.Resolver.PatternForTrip(tu.TripID)
	if !ok {
		w.logger.Debug("no pattern for trip", "trip_id", tu.TripID)
		w.reject(rejectUnresolved)
		return
	}
	res := w.config.Publisher.buffer.Update(pattern, tu)
	if !res.Applied() {
		w.logger.Debug("trip update not applied", "trip_id", tu.TripID, "pattern", res.PatternID, "reason", res.Reason)
		w.reject(res.Reason.String())
		return
	}

	w.mu.Lock()
	w.applied++
	applied := w.applied
	w.mu.Unlock()
	if n := int64(w.config.ProgressLogInterval); n > 0 && applied%n == 0 {
		w.logger.Info("applied trip updates", "count", applied)
	}
	w.config.Publisher.GetSnapshot()
}

func (w *Worker) reject(reason string) {
	w.mu.Lock()
	w.rejected[reason]++
	w.mu.Unlock()
}

// sleep waits for d unless the worker is dying.
func (w *Worker) sleep(d time.Duration) error {
	if d <= 0 {
		return nil
	}
	select {
	case <-w.catacomb.Dying():
		return w.catacomb.ErrDying()
	case <-w.config.Clock.After(d):
		return nil
	}
}

func (w *Worker) scopedContext() (context.Context, context.CancelFunc) {
	return context.WithCancel(w.catacomb.Context(context.Background()))
}
