package gtfsrt

// TripRelationship mirrors TripDescriptor.ScheduleRelationship.
type TripRelationship int32

const (
	TripScheduled   TripRelationship = 0
	TripAdded       TripRelationship = 1
	TripUnscheduled TripRelationship = 2
	TripCanceled    TripRelationship = 3
)

func (r TripRelationship) String() string {
	switch r {
	case TripScheduled:
		return "SCHEDULED"
	case TripAdded:
		return "ADDED"
	case TripUnscheduled:
		return "UNSCHEDULED"
	case TripCanceled:
		return "CANCELED"
	}
	return "UNKNOWN"
}

// StopRelationship mirrors StopTimeUpdate.ScheduleRelationship (0=SCHEDULED, 1=SKIPPED, 2=NO_DATA).
type StopRelationship int32

const (
	StopScheduled StopRelationship = 0
	StopSkipped   StopRelationship = 1
	StopNoData    StopRelationship = 2
)

// Batch is one message taken from the update transport.
type Batch struct {
	// Timestamp is the feed header timestamp (POSIX seconds), 0 when absent.
	Timestamp   uint64
	TripUpdates []*TripUpdate
}

// Len returns the number of trip updates in the batch; a nil batch is empty.
func (b *Batch) Len() int {
	if b == nil {
		return 0
	}
	return len(b.TripUpdates)
}

// TripUpdate is the set of stop-time changes for a single scheduled trip.
type TripUpdate struct {
	TripID       string
	RouteID      string
	StartDate    string // YYYYMMDD
	Relationship TripRelationship
	// Timestamp is the moment the producer measured this update (POSIX seconds).
	// Falls back to the feed header timestamp during decoding.
	Timestamp uint64
	Updates   []StopTimeUpdate
}

// StopTimeUpdate is one stop of a trip update.
type StopTimeUpdate struct {
	StopSequence *uint32
	StopID       string
	Arrival      *StopTimeEvent
	Departure    *StopTimeEvent
	Relationship StopRelationship
}

// StopTimeEvent carries either a delay relative to the schedule, an absolute time, or both.
type StopTimeEvent struct {
	Delay *int32 // seconds
	Time  *int64 // POSIX seconds
}

func (e *StopTimeEvent) hasData() bool {
	return e != nil && (e.Delay != nil || e.Time != nil)
}

// HasData reports whether the entry carries any arrival or departure information.
func (u StopTimeUpdate) HasData() bool {
	return u.Arrival.hasData() || u.Departure.hasData()
}

// Canceled reports whether the whole trip is canceled.
func (tu *TripUpdate) Canceled() bool { return tu.Relationship == TripCanceled }
