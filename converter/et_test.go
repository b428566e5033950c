package converter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theoremus-urban-solutions/gtfsrt-stoptime-updater/gtfs"
	"github.com/theoremus-urban-solutions/gtfsrt-stoptime-updater/gtfsrt"
	"github.com/theoremus-urban-solutions/gtfsrt-stoptime-updater/timetable"
)

func testIndex() (*gtfs.Index, *gtfs.Pattern) {
	idx := gtfs.NewIndex("SOFIA")
	idx.AgencyName = "Sofia Urban Mobility"
	idx.Timezone = "UTC"
	idx.Routes["TM5"] = gtfs.Route{ShortName: "5", Type: 0}
	idx.Stops["S1"] = gtfs.Stop{Name: "Central Station"}
	idx.Stops["S2"] = gtfs.Stop{Name: "Lions Bridge"}
	idx.Stops["S3"] = gtfs.Stop{Name: "Serdika"}

	trip := func(id string, start int) *gtfs.ScheduledTrip {
		return &gtfs.ScheduledTrip{
			TripID:        id,
			StopSequences: []uint32{1, 2, 3},
			Arrivals:      []int{start, start + 300, start + 600},
			Departures:    []int{start, start + 360, start + 660},
		}
	}
	p := &gtfs.Pattern{
		ID:          "TM5:0:01",
		RouteID:     "TM5",
		DirectionID: "0",
		Stops:       []string{"S1", "S2", "S3"},
		Trips:       map[string]*gtfs.ScheduledTrip{"T1": trip("T1", 28800), "T2": trip("T2", 30600)},
	}
	idx.Patterns[p.ID] = p
	idx.TripPattern["T1"] = p.ID
	idx.TripPattern["T2"] = p.ID
	return idx, p
}

func testSnapshot(t *testing.T, p *gtfs.Pattern, ts time.Time) *timetable.Snapshot {
	t.Helper()
	buf := timetable.NewBuffer()
	seq, delay := uint32(2), int32(120)
	require.True(t, buf.Update(p, &gtfsrt.TripUpdate{
		TripID:    "T1",
		StartDate: "20261019",
		Timestamp: uint64(ts.Unix()),
		Updates: []gtfsrt.StopTimeUpdate{
			{StopSequence: &seq, Arrival: &gtfsrt.StopTimeEvent{Delay: &delay}},
		},
	}).Applied())
	require.True(t, buf.Update(p, &gtfsrt.TripUpdate{
		TripID:       "T2",
		StartDate:    "20261019",
		Timestamp:    uint64(ts.Unix()),
		Relationship: gtfsrt.TripCanceled,
	}).Applied())
	return buf.Commit()
}

func TestBuildEstimatedTimetable(t *testing.T) {
	idx, p := testIndex()
	ts := time.Date(2026, 10, 19, 8, 5, 30, 0, time.UTC)
	snap := testSnapshot(t, p, ts)
	now := time.Date(2026, 10, 19, 8, 6, 0, 0, time.UTC)

	conv := NewConverter(idx, ConverterOptions{
		FieldMutators: FieldMutators{StopPointRef: []string{"SOFIA:Quay:S3", "SOFIA:Quay:9003"}},
	})
	assert.Equal(t, "SOFIA", conv.Codespace())

	et := conv.BuildEstimatedTimetable(snap, now)
	assert.Equal(t, "2.0", et.Version)
	assert.Equal(t, "2026-10-19T08:06:00Z", et.ResponseTimestamp)
	require.Len(t, et.EstimatedJourneyVersionFrame, 1)
	journeys := et.EstimatedJourneyVersionFrame[0].EstimatedVehicleJourney
	require.Len(t, journeys, 2)

	j := journeys[0]
	assert.Equal(t, "2026-10-19T08:05:30Z", j.RecordedAtTime)
	assert.Equal(t, "SOFIA:Line:TM5", j.LineRef)
	assert.Equal(t, "0", j.DirectionRef)
	assert.Equal(t, "2026-10-19", j.FramedVehicleJourneyRef.DataFrameRef)
	assert.Equal(t, "SOFIA:ServiceJourney:T1", j.FramedVehicleJourneyRef.DatedVehicleJourneyRef)
	assert.Equal(t, "tram", j.VehicleMode)
	assert.Equal(t, "5", j.PublishedLineName)
	assert.Equal(t, "Central Station", j.OriginName)
	assert.Equal(t, "Serdika", j.DestinationName)
	assert.Equal(t, "SOFIA:Operator:Sofia Urban Mobility", j.OperatorRef)
	assert.True(t, j.Monitored)
	assert.False(t, j.Cancellation)

	require.Len(t, j.RecordedCalls, 1)
	assert.Equal(t, "SOFIA:Quay:S1", j.RecordedCalls[0].StopPointRef)
	assert.Equal(t, "2026-10-19T08:00:00Z", j.RecordedCalls[0].ActualDepartureTime)

	require.Len(t, j.EstimatedCalls, 2)
	s2 := j.EstimatedCalls[0]
	assert.Equal(t, 2, s2.Order)
	assert.Equal(t, "Lions Bridge", s2.StopPointName)
	assert.Equal(t, "2026-10-19T08:05:00Z", s2.AimedArrivalTime)
	assert.Equal(t, "2026-10-19T08:07:00Z", s2.ExpectedArrivalTime)
	assert.Equal(t, "delayed", s2.ArrivalStatus)
	assert.Equal(t, "SOFIA:Quay:9003", j.EstimatedCalls[1].StopPointRef)
}

func TestBuildEstimatedTimetable_CanceledTrip(t *testing.T) {
	idx, p := testIndex()
	snap := testSnapshot(t, p, time.Date(2026, 10, 19, 8, 5, 30, 0, time.UTC))
	conv := NewConverter(idx, ConverterOptions{})

	et := conv.BuildEstimatedTimetable(snap, time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC))
	j := et.EstimatedJourneyVersionFrame[0].EstimatedVehicleJourney[1]
	assert.Equal(t, "SOFIA:ServiceJourney:T2", j.FramedVehicleJourneyRef.DatedVehicleJourneyRef)
	assert.True(t, j.Cancellation)
	assert.False(t, j.Monitored)
	assert.Empty(t, j.RecordedCalls)
	require.Len(t, j.EstimatedCalls, 3)
	for _, call := range j.EstimatedCalls {
		assert.True(t, call.Cancellation)
		assert.Equal(t, "cancelled", call.ArrivalStatus)
		assert.Empty(t, call.ExpectedArrivalTime)
	}
}

func TestBuildEstimatedTimetable_EmptySnapshot(t *testing.T) {
	idx, _ := testIndex()
	now := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)

	et := NewConverter(idx, ConverterOptions{AgencyID: "SUM"}).BuildEstimatedTimetable(timetable.EmptySnapshot(), now)
	require.Len(t, et.EstimatedJourneyVersionFrame, 1)
	assert.Empty(t, et.EstimatedJourneyVersionFrame[0].EstimatedVehicleJourney)
	assert.Equal(t, "2026-10-19T09:00:00Z", et.EstimatedJourneyVersionFrame[0].RecordedAtTime)
}

func TestCalculateStatus(t *testing.T) {
	assert.Equal(t, "early", calculateStatus(-60))
	assert.Equal(t, "onTime", calculateStatus(-59))
	assert.Equal(t, "onTime", calculateStatus(59))
	assert.Equal(t, "delayed", calculateStatus(60))
}
