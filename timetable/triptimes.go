package timetable

import (
	"time"

	"github.com/theoremus-urban-solutions/gtfsrt-stoptime-updater/gtfs"
)

// TripTimes holds the realtime times of one trip on one service day.
// Values are never modified after they have been stored in a Timetable.
type TripTimes struct {
	tripID      string
	serviceDate string
	serviceDay  time.Time // midnight of the service day, GTFS style (noon minus 12h)
	timestamp   uint64
	canceled    bool
	scheduled   *gtfs.ScheduledTrip

	arrivals   []int
	departures []int
	skipped    []bool
}

func (tt *TripTimes) TripID() string { return tt.tripID }

// ServiceDate is the GTFS service date, YYYYMMDD.
func (tt *TripTimes) ServiceDate() string { return tt.serviceDate }

// Timestamp is the producer timestamp of the trip update that built these times.
func (tt *TripTimes) Timestamp() uint64 { return tt.timestamp }

func (tt *TripTimes) Canceled() bool { return tt.canceled }

func (tt *TripTimes) NumStops() int { return len(tt.arrivals) }

// Arrival returns the realtime arrival at stop i in seconds after service-day midnight.
func (tt *TripTimes) Arrival(i int) int { return tt.arrivals[i] }

// Departure returns the realtime departure at stop i in seconds after service-day midnight.
func (tt *TripTimes) Departure(i int) int { return tt.departures[i] }

func (tt *TripTimes) Skipped(i int) bool { return tt.skipped[i] }

// ArrivalDelay is the difference between realtime and scheduled arrival at stop i, in seconds.
func (tt *TripTimes) ArrivalDelay(i int) int { return tt.arrivals[i] - tt.scheduled.Arrivals[i] }

func (tt *TripTimes) DepartureDelay(i int) int {
	return tt.departures[i] - tt.scheduled.Departures[i]
}

// ScheduledArrivalTime is the aimed arrival at stop i as an absolute time.
func (tt *TripTimes) ScheduledArrivalTime(i int) time.Time {
	return tt.at(tt.scheduled.Arrivals[i])
}

func (tt *TripTimes) ScheduledDepartureTime(i int) time.Time {
	return tt.at(tt.scheduled.Departures[i])
}

// ArrivalTime is the expected arrival at stop i as an absolute time.
func (tt *TripTimes) ArrivalTime(i int) time.Time { return tt.at(tt.arrivals[i]) }

func (tt *TripTimes) DepartureTime(i int) time.Time { return tt.at(tt.departures[i]) }

func (tt *TripTimes) at(secs int) time.Time {
	return tt.serviceDay.Add(time.Duration(secs) * time.Second)
}

// valid reports whether times never go backwards along the trip. Skipped stops
// are ignored.
func (tt *TripTimes) valid() bool {
	last := -1 << 31
	for i := range tt.arrivals {
		if tt.skipped[i] {
			continue
		}
		if tt.arrivals[i] < last || tt.departures[i] < tt.arrivals[i] {
			return false
		}
		last = tt.departures[i]
	}
	return true
}

// serviceDay returns the reference midnight of date in loc: noon minus twelve
// hours, which stays correct across daylight saving changes.
func serviceDay(date string, loc *time.Location) (time.Time, error) {
	d, err := time.ParseInLocation("20060102", date, loc)
	if err != nil {
		return time.Time{}, err
	}
	noon := time.Date(d.Year(), d.Month(), d.Day(), 12, 0, 0, 0, loc)
	return noon.Add(-12 * time.Hour), nil
}
