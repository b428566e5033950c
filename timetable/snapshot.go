package timetable

import (
	"maps"
	"slices"
	"time"
)

// Snapshot is an immutable view of a Buffer at a commit point. It is safe
// for use by any number of goroutines.
type Snapshot struct {
	seq         uint64
	committedAt time.Time
	timetables  map[string]*Timetable
}

// EmptySnapshot is the view published before anything has been committed.
func EmptySnapshot() *Snapshot {
	return &Snapshot{}
}

// Seq is the commit sequence number. It strictly increases per Buffer; the
// empty snapshot has sequence zero.
func (s *Snapshot) Seq() uint64 { return s.seq }

func (s *Snapshot) CommittedAt() time.Time { return s.committedAt }

func (s *Snapshot) Timetable(patternID string) (*Timetable, bool) {
	t, ok := s.timetables[patternID]
	return t, ok
}

func (s *Snapshot) TripTimes(patternID, tripID string) (*TripTimes, bool) {
	t, ok := s.timetables[patternID]
	if !ok {
		return nil, false
	}
	return t.TripTimes(tripID)
}

// Patterns returns the ids of the patterns holding realtime data, sorted.
func (s *Snapshot) Patterns() []string {
	return slices.Sorted(maps.Keys(s.timetables))
}

// TripCount is the number of trips with realtime data across all patterns.
func (s *Snapshot) TripCount() int {
	n := 0
	for _, t := range s.timetables {
		n += t.Len()
	}
	return n
}
