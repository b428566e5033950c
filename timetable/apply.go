package timetable

import (
	"slices"
	"time"

	"github.com/theoremus-urban-solutions/gtfsrt-stoptime-updater/gtfs"
	"github.com/theoremus-urban-solutions/gtfsrt-stoptime-updater/gtfsrt"
)

// newTripTimes applies tu on top of the schedule of trip. Stops before the
// first updated stop keep their schedule; the last known delay is carried to
// the stops after each update. A NO_DATA stop resets the delay to zero.
func newTripTimes(pattern *gtfs.Pattern, trip *gtfs.ScheduledTrip, tu *gtfsrt.TripUpdate, date string, day time.Time) (*TripTimes, Reason) {
	n := len(trip.Arrivals)
	tt := &TripTimes{
		tripID:      trip.TripID,
		serviceDate: date,
		serviceDay:  day,
		timestamp:   tu.Timestamp,
		scheduled:   trip,
		arrivals:    slices.Clone(trip.Arrivals),
		departures:  slices.Clone(trip.Departures),
		skipped:     make([]bool, n),
	}
	if tu.Canceled() {
		tt.canceled = true
		return tt, Applied
	}

	base := day.Unix()
	shift := func(i, delay int) {
		tt.arrivals[i] = trip.Arrivals[i] + delay
		tt.departures[i] = trip.Departures[i] + delay
	}

	next, delay := 0, 0
	for _, u := range tu.Updates {
		idx := pattern.StopIndex(trip, u.StopSequence, u.StopID, next)
		if idx < 0 {
			return nil, StopMismatch
		}
		for ; next < idx; next++ {
			shift(next, delay)
		}

		switch u.Relationship {
		case gtfsrt.StopSkipped:
			tt.skipped[idx] = true
			shift(idx, delay)
		case gtfsrt.StopNoData:
			delay = 0
			shift(idx, 0)
		default:
			arrDelay, hasArr := eventDelay(u.Arrival, trip.Arrivals[idx], base)
			depDelay, hasDep := eventDelay(u.Departure, trip.Departures[idx], base)
			switch {
			case !hasArr && hasDep:
				arrDelay = depDelay
			case !hasArr:
				arrDelay = delay
			}
			if !hasDep {
				depDelay = arrDelay
			}
			tt.arrivals[idx] = trip.Arrivals[idx] + arrDelay
			tt.departures[idx] = trip.Departures[idx] + depDelay
			delay = depDelay
		}
		next = idx + 1
	}
	for ; next < n; next++ {
		shift(next, delay)
	}

	if !tt.valid() {
		return nil, InvalidTimes
	}
	return tt, Applied
}

// eventDelay converts a stop time event into a delay against sched. An
// absolute time wins over a relative delay.
func eventDelay(ev *gtfsrt.StopTimeEvent, sched int, base int64) (int, bool) {
	switch {
	case ev == nil:
		return 0, false
	case ev.Time != nil:
		return int(*ev.Time-base) - sched, true
	case ev.Delay != nil:
		return int(*ev.Delay), true
	}
	return 0, false
}
