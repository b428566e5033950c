package updater

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/juju/clock/testclock"
	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theoremus-urban-solutions/gtfsrt-stoptime-updater/gtfs"
	"github.com/theoremus-urban-solutions/gtfsrt-stoptime-updater/gtfsrt"
)

type mapResolver map[string]*gtfs.Pattern

func (m mapResolver) PatternForTrip(tripID string) (*gtfs.Pattern, bool) {
	p, ok := m[tripID]
	return p, ok
}

func resolverFor(p *gtfs.Pattern) mapResolver {
	m := mapResolver{}
	for id := range p.Trips {
		m[id] = p
	}
	return m
}

// scriptedStreamer returns its results in order, then ErrStreamClosed.
type scriptedStreamer struct {
	mu      sync.Mutex
	results []error
}

func (s *scriptedStreamer) GetUpdates(ctx context.Context) (*gtfsrt.Batch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.results) == 0 {
		return nil, gtfsrt.ErrStreamClosed
	}
	err := s.results[0]
	s.results = s.results[1:]
	return nil, err
}

func (s *scriptedStreamer) String() string { return "scripted" }

func counter(t *testing.T, w *Worker, key string) int64 {
	t.Helper()
	return w.Report()[key].(int64)
}

func rejected(w *Worker) map[string]int64 {
	return w.Report()["rejected"].(map[string]int64)
}

func TestNewWorker_Validate(t *testing.T) {
	pub, _ := newTestPublisher(t, testclock.NewClock(epoch), time.Second)
	streamer := gtfsrt.NewChanStreamer(make(chan *gtfsrt.Batch))
	resolver := resolverFor(testPattern())

	tests := []struct {
		name   string
		config Config
	}{
		{"nil streamer", Config{Resolver: resolver, Publisher: pub}},
		{"nil resolver", Config{Streamer: streamer, Publisher: pub}},
		{"nil publisher", Config{Streamer: streamer, Resolver: resolver}},
		{"negative progress interval", Config{Streamer: streamer, Resolver: resolver, Publisher: pub, ProgressLogInterval: -1}},
		{"negative retry delay", Config{Streamer: streamer, Resolver: resolver, Publisher: pub, ErrorRetryDelay: -time.Second}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, err := NewWorker(tt.config)
			assert.Nil(t, w)
			assert.True(t, errors.Is(err, errors.NotValid), "%v", err)
		})
	}
}

func TestWorker_RejectionIsolation(t *testing.T) {
	pub, buf := newTestPublisher(t, testclock.NewClock(epoch), time.Second)
	p := testPattern()
	ch := make(chan *gtfsrt.Batch, 1)

	incoherent := &gtfsrt.TripUpdate{
		TripID:    "T1",
		StartDate: "20261019",
		Timestamp: 5,
		Updates: []gtfsrt.StopTimeUpdate{
			{StopSequence: u32(3), Arrival: delayed(60)},
			{StopSequence: u32(2), Arrival: delayed(60)},
		},
	}
	ch <- &gtfsrt.Batch{Timestamp: 5, TripUpdates: []*gtfsrt.TripUpdate{incoherent, tripUpdate("T2", 5, 90)}}
	close(ch)

	w, err := NewWorker(Config{
		Streamer:  gtfsrt.NewChanStreamer(ch),
		Resolver:  resolverFor(p),
		Publisher: pub,
		Filter:    gtfsrt.DefaultFilterOptions(),
	})
	require.NoError(t, err)
	require.NoError(t, w.Wait())

	assert.Equal(t, int64(1), counter(t, w, "applied"))
	assert.Equal(t, int64(1), counter(t, w, "batches"))
	assert.Equal(t, int64(1), rejected(w)[rejectIncoherent])
	assert.False(t, buf.IsDirty(), "the applied update was published right away")

	s := pub.Current()
	_, ok := s.TripTimes(p.ID, "T1")
	assert.False(t, ok)
	tt, ok := s.TripTimes(p.ID, "T2")
	require.True(t, ok)
	assert.Equal(t, 90, tt.ArrivalDelay(1))
}

func TestWorker_NilTripUpdateIsSkipped(t *testing.T) {
	pub, _ := newTestPublisher(t, testclock.NewClock(epoch), time.Second)
	p := testPattern()
	ch := make(chan *gtfsrt.Batch, 1)
	ch <- &gtfsrt.Batch{Timestamp: 1, TripUpdates: []*gtfsrt.TripUpdate{nil, tripUpdate("T1", 1, 60)}}
	close(ch)

	w, err := NewWorker(Config{
		Streamer:  gtfsrt.NewChanStreamer(ch),
		Resolver:  resolverFor(p),
		Publisher: pub,
		Filter:    gtfsrt.DefaultFilterOptions(),
	})
	require.NoError(t, err)
	require.NoError(t, w.Wait())

	assert.Equal(t, int64(1), counter(t, w, "applied"))
	assert.Equal(t, int64(1), rejected(w)[rejectIncoherent])
	tt, ok := pub.Current().TripTimes(p.ID, "T1")
	require.True(t, ok)
	assert.Equal(t, 60, tt.ArrivalDelay(1))
}

func TestWorker_SkipsAndCounts(t *testing.T) {
	pub, _ := newTestPublisher(t, testclock.NewClock(epoch), time.Second)
	p := testPattern()
	ch := make(chan *gtfsrt.Batch, 4)

	noData := &gtfsrt.TripUpdate{
		TripID:  "T1",
		Updates: []gtfsrt.StopTimeUpdate{{StopSequence: u32(2)}},
	}
	ch <- nil
	ch <- &gtfsrt.Batch{Timestamp: 1}
	ch <- &gtfsrt.Batch{Timestamp: 2, TripUpdates: []*gtfsrt.TripUpdate{
		noData,
		tripUpdate("T9", 2, 60),
		tripUpdate("T1", 2, 60),
		tripUpdate("T1", 2, 60),
		{TripID: "T2", StartDate: "20261019", Timestamp: 2, Relationship: gtfsrt.TripCanceled},
	}}
	close(ch)

	w, err := NewWorker(Config{
		Streamer:            gtfsrt.NewChanStreamer(ch),
		Resolver:            resolverFor(p),
		Publisher:           pub,
		Filter:              gtfsrt.DefaultFilterOptions(),
		ProgressLogInterval: 1,
	})
	require.NoError(t, err)
	require.NoError(t, w.Wait())

	assert.Equal(t, int64(2), counter(t, w, "empty-batches"))
	assert.Equal(t, int64(2), counter(t, w, "applied"))
	assert.Equal(t, map[string]int64{
		rejectEmpty:      1,
		rejectUnresolved: 1,
		"stale":          1,
	}, rejected(w))
	assert.Equal(t, uint64(2), w.Report()["last-batch-time"])

	tt, ok := pub.GetSnapshot().TripTimes(p.ID, "T1")
	require.True(t, ok)
	assert.Equal(t, 60, tt.ArrivalDelay(2))
}

func TestWorker_KillStopsBlockedLoop(t *testing.T) {
	pub, _ := newTestPublisher(t, testclock.NewClock(epoch), time.Second)
	w, err := NewWorker(Config{
		Streamer:  gtfsrt.NewChanStreamer(make(chan *gtfsrt.Batch)),
		Resolver:  mapResolver{},
		Publisher: pub,
	})
	require.NoError(t, err)

	w.Kill()
	assert.NoError(t, w.Wait())
	assert.Equal(t, "streaming stoptime updater (streamer: channel)", w.String())
}

func TestWorker_BacksOffAfterTransportErrors(t *testing.T) {
	clk := testclock.NewClock(epoch)
	pub, _ := newTestPublisher(t, clk, time.Second)
	streamer := &scriptedStreamer{results: []error{fmt.Errorf("connection refused")}}

	w, err := NewWorker(Config{
		Streamer:        streamer,
		Resolver:        mapResolver{},
		Publisher:       pub,
		Clock:           clk,
		ErrorRetryDelay: 5 * time.Second,
	})
	require.NoError(t, err)

	require.NoError(t, clk.WaitAdvance(5*time.Second, time.Second, 1))
	require.NoError(t, w.Wait())
	assert.Equal(t, int64(1), counter(t, w, "transport-errors"))
}

func TestWorker_KillDuringBackoff(t *testing.T) {
	clk := testclock.NewClock(epoch)
	pub, _ := newTestPublisher(t, clk, time.Second)
	streamer := &scriptedStreamer{results: []error{fmt.Errorf("timeout")}}

	w, err := NewWorker(Config{
		Streamer:        streamer,
		Resolver:        mapResolver{},
		Publisher:       pub,
		Clock:           clk,
		ErrorRetryDelay: time.Minute,
	})
	require.NoError(t, err)

	require.NoError(t, clk.WaitAdvance(0, time.Second, 1), "worker waits on the clock")
	w.Kill()
	assert.NoError(t, w.Wait())
}

// A batch applied at t=0 is published at once; a second one at t=500ms
// stays invisible until the throttle window has passed.
func TestWorker_PublishesThroughThrottle(t *testing.T) {
	clk := testclock.NewClock(epoch)
	pub, _ := newTestPublisher(t, clk, time.Second)
	p := testPattern()
	ch := make(chan *gtfsrt.Batch)

	w, err := NewWorker(Config{
		Streamer:  gtfsrt.NewChanStreamer(ch),
		Resolver:  resolverFor(p),
		Publisher: pub,
		Filter:    gtfsrt.DefaultFilterOptions(),
		Clock:     clk,
	})
	require.NoError(t, err)
	defer func() {
		w.Kill()
		assert.NoError(t, w.Wait())
	}()
	applied := func(n int64) func() bool {
		return func() bool { return counter(t, w, "applied") == n }
	}

	ch <- &gtfsrt.Batch{Timestamp: 1, TripUpdates: []*gtfsrt.TripUpdate{tripUpdate("T1", 1, 60)}}
	require.Eventually(t, applied(1), time.Second, time.Millisecond)
	s1 := pub.GetSnapshot()
	_, ok := s1.TripTimes(p.ID, "T1")
	require.True(t, ok)

	clk.Advance(500 * time.Millisecond)
	ch <- &gtfsrt.Batch{Timestamp: 2, TripUpdates: []*gtfsrt.TripUpdate{tripUpdate("T2", 2, 30)}}
	require.Eventually(t, applied(2), time.Second, time.Millisecond)

	clk.Advance(100 * time.Millisecond)
	assert.Same(t, s1, pub.GetSnapshot())
	_, ok = s1.TripTimes(p.ID, "T2")
	assert.False(t, ok)

	clk.Advance(500 * time.Millisecond)
	s2 := pub.GetSnapshot()
	assert.NotSame(t, s1, s2)
	assert.Greater(t, s2.Seq(), s1.Seq())
	assert.Equal(t, 2, s2.TripCount())
}
