package converter

import (
	"time"

	"github.com/theoremus-urban-solutions/gtfsrt-stoptime-updater/siri"
	"github.com/theoremus-urban-solutions/gtfsrt-stoptime-updater/timetable"
	"github.com/theoremus-urban-solutions/gtfsrt-stoptime-updater/utils"
)

// A stop counts as visited once its expected arrival is this far in the past.
const arrivalGrace = 60 * time.Second

// BuildEstimatedTimetable converts a snapshot to SIRI ET format. Only trips
// with realtime data appear; they are ordered by pattern, then trip id.
func (c *Converter) BuildEstimatedTimetable(snap *timetable.Snapshot, now time.Time) siri.EstimatedTimetable {
	loc := c.gtfs.Location()
	now = now.In(loc)
	recordedAt := snap.CommittedAt()
	if recordedAt.IsZero() {
		recordedAt = now
	}

	journeys := make([]siri.EstimatedVehicleJourney, 0, snap.TripCount())
	for _, patternID := range snap.Patterns() {
		tl, _ := snap.Timetable(patternID)
		for _, tripID := range tl.TripIDs() {
			tt, _ := tl.TripTimes(tripID)
			journeys = append(journeys, c.buildEstimatedVehicleJourney(tl, tt, now, recordedAt.In(loc)))
		}
	}

	frame := siri.EstimatedJourneyVersionFrame{
		RecordedAtTime:          utils.Iso8601(recordedAt.In(loc)),
		EstimatedVehicleJourney: journeys,
	}
	return siri.EstimatedTimetable{
		Version:                      "2.0",
		ResponseTimestamp:            utils.Iso8601(now),
		EstimatedJourneyVersionFrame: []siri.EstimatedJourneyVersionFrame{frame},
	}
}

func (c *Converter) buildEstimatedVehicleJourney(tl *timetable.Timetable, tt *timetable.TripTimes, now, committed time.Time) siri.EstimatedVehicleJourney {
	agencyID := c.opts.AgencyID
	pattern := tl.Pattern()
	routeID := pattern.RouteID

	recordedAt := committed
	if ts := tt.Timestamp(); ts > 0 {
		recordedAt = time.Unix(int64(ts), 0).In(now.Location())
	}

	directionID := pattern.DirectionID
	if directionID == "" {
		directionID = "0"
	}

	operatorRef := agencyID
	if name := c.gtfs.AgencyName; name != "" {
		operatorRef = agencyID + ":Operator:" + name
	}

	recordedCalls, estimatedCalls := c.buildCallSequence(tl, tt, now)

	var originName, destinationName string
	if n := len(pattern.Stops); n > 0 {
		originName = c.gtfs.GetStopName(pattern.Stops[0])
		destinationName = c.gtfs.GetStopName(pattern.Stops[n-1])
	}

	return siri.EstimatedVehicleJourney{
		RecordedAtTime: utils.Iso8601(recordedAt),
		LineRef:        agencyID + ":Line:" + routeID,
		DirectionRef:   directionID,
		FramedVehicleJourneyRef: siri.FramedVehicleJourneyRef{
			DataFrameRef:           utils.ServiceDateToIso8601(tt.ServiceDate()),
			DatedVehicleJourneyRef: agencyID + ":ServiceJourney:" + tt.TripID(),
		},
		VehicleMode:            mapGTFSRouteTypeToSIRIVehicleMode(c.gtfs.GetRouteType(routeID)),
		PublishedLineName:      c.gtfs.GetRouteShortName(routeID),
		OriginName:             originName,
		DestinationName:        destinationName,
		Cancellation:           tt.Canceled(),
		Monitored:              !tt.Canceled() && len(recordedCalls) > 0 && len(estimatedCalls) > 0,
		DataSource:             agencyID,
		OperatorRef:            operatorRef,
		RecordedCalls:          recordedCalls,
		EstimatedCalls:         estimatedCalls,
		IsCompleteStopSequence: true,
	}
}

// buildCallSequence splits the stops of a trip into visited (recorded) and
// upcoming (estimated) calls. Every call of a canceled trip is estimated.
func (c *Converter) buildCallSequence(tl *timetable.Timetable, tt *timetable.TripTimes, now time.Time) ([]siri.RecordedCall, []siri.EstimatedCall) {
	recordedCalls := []siri.RecordedCall{}
	estimatedCalls := []siri.EstimatedCall{}

	for i, stopID := range tl.Pattern().Stops {
		stopPointRef := applyFieldMutators(c.opts.AgencyID+":Quay:"+stopID, c.opts.FieldMutators.StopPointRef)
		cancelled := tt.Canceled() || tt.Skipped(i)

		arrival, departure := tt.ArrivalTime(i), tt.DepartureTime(i)
		isPast := !tt.Canceled() && (departure.Before(now) || arrival.Before(now.Add(-arrivalGrace)))

		if isPast {
			recordedCalls = append(recordedCalls, siri.RecordedCall{
				StopPointRef:        stopPointRef,
				Order:               i + 1,
				StopPointName:       c.gtfs.GetStopName(stopID),
				Cancellation:        cancelled,
				AimedArrivalTime:    utils.Iso8601(tt.ScheduledArrivalTime(i)),
				ActualArrivalTime:   utils.Iso8601(arrival),
				AimedDepartureTime:  utils.Iso8601(tt.ScheduledDepartureTime(i)),
				ActualDepartureTime: utils.Iso8601(departure),
			})
			continue
		}

		call := siri.EstimatedCall{
			StopPointRef:       stopPointRef,
			Order:              i + 1,
			StopPointName:      c.gtfs.GetStopName(stopID),
			Cancellation:       cancelled,
			AimedArrivalTime:   utils.Iso8601(tt.ScheduledArrivalTime(i)),
			AimedDepartureTime: utils.Iso8601(tt.ScheduledDepartureTime(i)),
		}
		if cancelled {
			call.ArrivalStatus = "cancelled"
			call.DepartureStatus = "cancelled"
		} else {
			call.ExpectedArrivalTime = utils.Iso8601(arrival)
			call.ExpectedDepartureTime = utils.Iso8601(departure)
			call.ArrivalStatus = calculateStatus(tt.ArrivalDelay(i))
			call.DepartureStatus = calculateStatus(tt.DepartureDelay(i))
		}
		estimatedCalls = append(estimatedCalls, call)
	}

	return recordedCalls, estimatedCalls
}

// calculateStatus determines the status based on delay in seconds
func calculateStatus(delay int) string {
	switch {
	case delay <= -60:
		return "early"
	case delay < 60:
		return "onTime"
	default:
		return "delayed"
	}
}

// mapGTFSRouteTypeToSIRIVehicleMode maps GTFS route_type to SIRI VehicleMode
// See: https://gtfs.org/schedule/reference/#routestxt
func mapGTFSRouteTypeToSIRIVehicleMode(routeType int) string {
	switch routeType {
	case 0:
		return "tram"
	case 1:
		return "metro"
	case 2:
		return "rail"
	case 3:
		return "bus"
	case 4:
		return "ferry"
	case 5:
		return "cableTram"
	case 6:
		return "aerialLift"
	case 7:
		return "funicular"
	case 11:
		return "trolleybus"
	case 12:
		return "monorail"
	default:
		return "bus"
	}
}
