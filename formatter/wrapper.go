package formatter

import (
	"strings"

	"github.com/theoremus-urban-solutions/gtfsrt-stoptime-updater/siri"
)

// WrapEstimatedTimetableResponse wraps an ET delivery in a complete SIRI response
func WrapEstimatedTimetableResponse(et siri.EstimatedTimetable, codespace string) *siri.SiriResponse {
	if codespace == "" {
		codespace = "UNKNOWN"
	}
	return &siri.SiriResponse{
		Siri: siri.SiriServiceDelivery{
			ServiceDelivery: siri.ServiceDelivery{
				ResponseTimestamp:          et.ResponseTimestamp,
				ProducerRef:                codespace,
				EstimatedTimetableDelivery: []siri.EstimatedTimetable{et},
			},
		},
	}
}

// FilterEstimatedTimetable keeps the journeys matching every non-empty filter.
// lineRef and monitoringRef match substrings, directionRef must match exactly;
// all comparisons ignore case. Frames left without journeys are dropped.
func FilterEstimatedTimetable(et siri.EstimatedTimetable, monitoringRef, lineRef, directionRef string) siri.EstimatedTimetable {
	monitoringRef = strings.ToLower(strings.TrimSpace(monitoringRef))
	lineRef = strings.ToLower(strings.TrimSpace(lineRef))
	directionRef = strings.ToLower(strings.TrimSpace(directionRef))

	filtered := et
	filtered.EstimatedJourneyVersionFrame = []siri.EstimatedJourneyVersionFrame{}

	for _, frame := range et.EstimatedJourneyVersionFrame {
		var journeys []siri.EstimatedVehicleJourney
		for _, journey := range frame.EstimatedVehicleJourney {
			if lineRef != "" && !strings.Contains(strings.ToLower(journey.LineRef), lineRef) {
				continue
			}
			if directionRef != "" && strings.ToLower(journey.DirectionRef) != directionRef {
				continue
			}
			if monitoringRef != "" && !callsStop(journey, monitoringRef) {
				continue
			}
			journeys = append(journeys, journey)
		}
		if len(journeys) > 0 {
			filtered.EstimatedJourneyVersionFrame = append(filtered.EstimatedJourneyVersionFrame, siri.EstimatedJourneyVersionFrame{
				RecordedAtTime:          frame.RecordedAtTime,
				EstimatedVehicleJourney: journeys,
			})
		}
	}
	return filtered
}

func callsStop(journey siri.EstimatedVehicleJourney, ref string) bool {
	for _, call := range journey.RecordedCalls {
		if strings.Contains(strings.ToLower(call.StopPointRef), ref) {
			return true
		}
	}
	for _, call := range journey.EstimatedCalls {
		if strings.Contains(strings.ToLower(call.StopPointRef), ref) {
			return true
		}
	}
	return false
}
