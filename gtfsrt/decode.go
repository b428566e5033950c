package gtfsrt

import (
	"fmt"

	gtfsrtpb "github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"
	"google.golang.org/protobuf/proto"
)

// DecodeFeed parses a GTFS-Realtime FeedMessage and keeps its trip updates in
// feed order. Entities that are deleted, carry no trip update, or carry no
// trip_id are dropped.
func DecodeFeed(data []byte) (*Batch, error) {
	var fm gtfsrtpb.FeedMessage
	if err := proto.Unmarshal(data, &fm); err != nil {
		return nil, fmt.Errorf("failed to decode feed message: %w", err)
	}
	return FromFeedMessage(&fm), nil
}

// FromFeedMessage converts an already decoded FeedMessage.
func FromFeedMessage(fm *gtfsrtpb.FeedMessage) *Batch {
	b := &Batch{Timestamp: fm.GetHeader().GetTimestamp()}
	for _, e := range fm.GetEntity() {
		if e.GetIsDeleted() || e.TripUpdate == nil {
			continue
		}
		tu := fromTripUpdate(e.TripUpdate, b.Timestamp)
		if tu.TripID == "" {
			continue
		}
		b.TripUpdates = append(b.TripUpdates, tu)
	}
	return b
}

func fromTripUpdate(pb *gtfsrtpb.TripUpdate, headerTS uint64) *TripUpdate {
	trip := pb.GetTrip()
	tu := &TripUpdate{
		TripID:       trip.GetTripId(),
		RouteID:      trip.GetRouteId(),
		StartDate:    trip.GetStartDate(),
		Relationship: TripRelationship(trip.GetScheduleRelationship()),
		Timestamp:    pb.GetTimestamp(),
	}
	if tu.Timestamp == 0 {
		tu.Timestamp = headerTS
	}
	if len(pb.GetStopTimeUpdate()) > 0 {
		tu.Updates = make([]StopTimeUpdate, 0, len(pb.GetStopTimeUpdate()))
	}
	for _, stu := range pb.GetStopTimeUpdate() {
		u := StopTimeUpdate{
			StopID:       stu.GetStopId(),
			Arrival:      fromEvent(stu.GetArrival()),
			Departure:    fromEvent(stu.GetDeparture()),
			Relationship: StopRelationship(stu.GetScheduleRelationship()),
		}
		if stu.StopSequence != nil {
			seq := stu.GetStopSequence()
			u.StopSequence = &seq
		}
		tu.Updates = append(tu.Updates, u)
	}
	return tu
}

func fromEvent(pb *gtfsrtpb.TripUpdate_StopTimeEvent) *StopTimeEvent {
	if pb == nil {
		return nil
	}
	e := &StopTimeEvent{}
	if pb.Delay != nil {
		d := pb.GetDelay()
		e.Delay = &d
	}
	if pb.Time != nil {
		t := pb.GetTime()
		e.Time = &t
	}
	return e
}
