package updater

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/juju/clock"
	"github.com/juju/errors"

	"github.com/theoremus-urban-solutions/gtfsrt-stoptime-updater/timetable"
)

// PublisherConfig defines the operation of a Publisher.
type PublisherConfig struct {
	Buffer      *timetable.Buffer
	Clock       clock.Clock
	MinInterval time.Duration
}

// Validate returns an error if config cannot drive a Publisher.
func (config PublisherConfig) Validate() error {
	if config.Buffer == nil {
		return errors.NotValidf("nil Buffer")
	}
	if config.Clock == nil {
		return errors.NotValidf("nil Clock")
	}
	if config.MinInterval < 0 {
		return errors.NotValidf("negative MinInterval")
	}
	return nil
}

// Publisher hands snapshots of a Buffer to readers, committing the buffer at
// most once per MinInterval. It is shared by the ingestion worker and every
// reader.
type Publisher struct {
	buffer      *timetable.Buffer
	clock       clock.Clock
	minInterval time.Duration

	mu         sync.Mutex
	lastCommit time.Time

	current atomic.Pointer[timetable.Snapshot]
}

func NewPublisher(config PublisherConfig) (*Publisher, error) {
	if err := config.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	p := &Publisher{
		buffer:      config.Buffer,
		clock:       config.Clock,
		minInterval: config.MinInterval,
	}
	p.current.Store(timetable.EmptySnapshot())
	return p, nil
}

// GetSnapshot returns the latest snapshot. When more than MinInterval has
// passed since the last check that got past the throttle, a dirty buffer is
// committed first. The window restarts after the commit, whether or not one
// was needed.
func (p *Publisher) GetSnapshot() *timetable.Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.lastCommit.IsZero() || p.clock.Now().Sub(p.lastCommit) > p.minInterval {
		if p.buffer.IsDirty() {
			p.current.Store(p.buffer.Commit())
		}
		p.lastCommit = p.clock.Now()
	}
	return p.current.Load()
}

// Current returns the last published snapshot without ever committing.
func (p *Publisher) Current() *timetable.Snapshot {
	return p.current.Load()
}
