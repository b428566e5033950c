package gtfsrt

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/juju/clock"
)

// ErrStreamClosed is returned by a Streamer that will never produce another batch.
var ErrStreamClosed = errors.New("update stream closed")

// Streamer is the update transport. GetUpdates blocks until a batch is
// available, ctx is done, or the transport fails. A nil batch with a nil
// error means "nothing new"; callers simply ask again.
type Streamer interface {
	GetUpdates(ctx context.Context) (*Batch, error)
}

// PollingStreamer turns a periodically refreshed GTFS-RT TripUpdates feed into
// a blocking stream. The first call fetches immediately; later calls wait for
// the read interval first. A feed whose header timestamp has not advanced
// since the previous poll yields nil.
type PollingStreamer struct {
	client   *Client
	source   string
	interval time.Duration
	clock    clock.Clock

	polled        bool
	lastTimestamp uint64
}

// NewPollingStreamer creates a streamer for a URL or local file path.
func NewPollingStreamer(client *Client, source string, interval time.Duration, clk clock.Clock) *PollingStreamer {
	if clk == nil {
		clk = clock.WallClock
	}
	return &PollingStreamer{client: client, source: source, interval: interval, clock: clk}
}

// GetUpdates is part of the Streamer interface. It must not be called
// concurrently.
func (s *PollingStreamer) GetUpdates(ctx context.Context) (*Batch, error) {
	if s.polled && s.interval > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-s.clock.After(s.interval):
		}
	}
	s.polled = true

	data, err := s.client.Fetch(ctx, s.source)
	if err != nil {
		return nil, err
	}
	batch, err := DecodeFeed(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.source, err)
	}
	if batch.Timestamp != 0 && batch.Timestamp <= s.lastTimestamp {
		return nil, nil
	}
	s.lastTimestamp = batch.Timestamp
	return batch, nil
}

func (s *PollingStreamer) String() string {
	return fmt.Sprintf("polling %s every %s", s.source, s.interval)
}

// ChanStreamer delivers batches pushed onto a channel by some other producer.
type ChanStreamer struct {
	batches <-chan *Batch
}

// NewChanStreamer wraps ch; closing ch ends the stream.
func NewChanStreamer(ch <-chan *Batch) *ChanStreamer {
	return &ChanStreamer{batches: ch}
}

// GetUpdates is part of the Streamer interface.
func (s *ChanStreamer) GetUpdates(ctx context.Context) (*Batch, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case b, ok := <-s.batches:
		if !ok {
			return nil, ErrStreamClosed
		}
		return b, nil
	}
}

func (s *ChanStreamer) String() string { return "channel" }
