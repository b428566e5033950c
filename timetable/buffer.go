package timetable

import (
	"maps"
	"sync"
	"time"

	"github.com/juju/clock"

	"github.com/theoremus-urban-solutions/gtfsrt-stoptime-updater/gtfs"
	"github.com/theoremus-urban-solutions/gtfsrt-stoptime-updater/gtfsrt"
)

// Reason tells why Update did or did not change the buffer.
type Reason int

const (
	Applied Reason = iota
	UnknownTrip
	Stale
	StopMismatch
	InvalidTimes
	BadServiceDate
)

func (r Reason) String() string {
	switch r {
	case Applied:
		return "applied"
	case UnknownTrip:
		return "unknown_trip"
	case Stale:
		return "stale"
	case StopMismatch:
		return "stop_mismatch"
	case InvalidTimes:
		return "invalid_times"
	case BadServiceDate:
		return "bad_service_date"
	}
	return "unknown"
}

// UpdateResult is returned by Buffer.Update.
type UpdateResult struct {
	Reason    Reason
	TripID    string
	PatternID string
}

// Applied reports whether the update changed the buffer.
func (r UpdateResult) Applied() bool { return r.Reason == Applied }

// Buffer is the working set of realtime timetables. Update and Commit may be
// called from different goroutines; Update is meant to have a single caller.
//
// Timetables referenced by a committed Snapshot are never written again: the
// first Update of a pattern after a commit clones its timetable.
//
// A trip holds realtime times for a single service day. An update for another
// service date replaces the stored day whatever its timestamp; the stale check
// only compares updates of the same day.
type Buffer struct {
	clock clock.Clock
	loc   *time.Location

	mu      sync.Mutex
	working map[string]*Timetable
	owned   map[string]bool // patterns cloned since the last commit
	dirty   bool
	seq     uint64
}

type BufferOption func(*Buffer)

// WithLocation sets the timezone service dates are interpreted in. Defaults to UTC.
func WithLocation(loc *time.Location) BufferOption {
	return func(b *Buffer) {
		if loc != nil {
			b.loc = loc
		}
	}
}

func WithClock(c clock.Clock) BufferOption {
	return func(b *Buffer) {
		if c != nil {
			b.clock = c
		}
	}
}

func NewBuffer(opts ...BufferOption) *Buffer {
	b := &Buffer{
		clock:   clock.WallClock,
		loc:     time.UTC,
		working: map[string]*Timetable{},
		owned:   map[string]bool{},
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// IsDirty reports whether an update has been applied since the last commit.
func (b *Buffer) IsDirty() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.dirty
}

// Update applies tu to the timetable of pattern. A trip update without a
// start date is taken to run on today's service day.
func (b *Buffer) Update(pattern *gtfs.Pattern, tu *gtfsrt.TripUpdate) UpdateResult {
	res := UpdateResult{TripID: tu.TripID, Reason: UnknownTrip}
	if pattern == nil {
		return res
	}
	res.PatternID = pattern.ID
	trip, ok := pattern.Trips[tu.TripID]
	if !ok {
		return res
	}

	date := tu.StartDate
	if date == "" {
		date = b.clock.Now().In(b.loc).Format("20060102")
	}
	day, err := serviceDay(date, b.loc)
	if err != nil {
		res.Reason = BadServiceDate
		return res
	}

	tt, reason := newTripTimes(pattern, trip, tu, date, day)
	if reason != Applied {
		res.Reason = reason
		return res
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if prev, ok := b.lookup(pattern.ID, tu.TripID); ok && prev.serviceDate == date &&
		tu.Timestamp != 0 && tu.Timestamp <= prev.timestamp {
		res.Reason = Stale
		return res
	}
	b.writable(pattern).trips[tu.TripID] = tt
	b.dirty = true
	res.Reason = Applied
	return res
}

// Commit freezes the applied updates into a new Snapshot and clears the dirty flag.
func (b *Buffer) Commit() *Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.seq++
	s := &Snapshot{
		seq:         b.seq,
		committedAt: b.clock.Now(),
		timetables:  maps.Clone(b.working),
	}
	clear(b.owned)
	b.dirty = false
	return s
}

func (b *Buffer) lookup(patternID, tripID string) (*TripTimes, bool) {
	t, ok := b.working[patternID]
	if !ok {
		return nil, false
	}
	return t.TripTimes(tripID)
}

// writable returns a timetable for pattern that no snapshot references.
// Callers hold b.mu.
func (b *Buffer) writable(pattern *gtfs.Pattern) *Timetable {
	if b.owned[pattern.ID] {
		return b.working[pattern.ID]
	}
	t, ok := b.working[pattern.ID]
	if ok {
		t = t.clone()
	} else {
		t = newTimetable(pattern)
	}
	b.working[pattern.ID] = t
	b.owned[pattern.ID] = true
	return t
}
