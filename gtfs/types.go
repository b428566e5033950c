package gtfs

// Pattern is the canonical stop sequence shared by every trip of one route and
// direction that visits exactly the same stops. Realtime timetables are indexed
// by pattern.
type Pattern struct {
	ID          string
	RouteID     string
	DirectionID string
	Stops       []string                  // ordered stop_ids
	Trips       map[string]*ScheduledTrip // trip_id -> scheduled times
}

// ScheduledTrip holds the static stop times of one trip, aligned with Pattern.Stops.
type ScheduledTrip struct {
	TripID        string
	ServiceID     string
	Headsign      string
	StopSequences []uint32 // GTFS stop_sequence per stop
	Arrivals      []int    // seconds after service-day midnight
	Departures    []int    // seconds after service-day midnight
}

// StopIndex finds the position of a realtime stop reference in the trip,
// searching from position `from` onwards. A stop sequence wins over a stop id
// when both are given. Returns -1 when the stop is not part of the trip.
func (p *Pattern) StopIndex(trip *ScheduledTrip, seq *uint32, stopID string, from int) int {
	for i := from; i < len(p.Stops); i++ {
		if seq != nil {
			if trip.StopSequences[i] == *seq {
				return i
			}
			continue
		}
		if p.Stops[i] == stopID {
			return i
		}
	}
	return -1
}

// Route holds the routes.txt fields the updater and its readers need.
type Route struct {
	ShortName string
	Type      int
}

// Stop holds the stops.txt fields the updater and its readers need.
type Stop struct {
	Name string
	Lat  float64
	Lon  float64
}
