// Package converter builds SIRI Estimated Timetable deliveries from published
// timetable snapshots.
//
// # Usage
//
//	conv := converter.NewConverter(index, converter.ConverterOptions{})
//	snap := publisher.GetSnapshot()
//	et := conv.BuildEstimatedTimetable(snap, time.Now())
//	resp := formatter.WrapEstimatedTimetableResponse(et, conv.Codespace())
//	xmlBytes := formatter.NewResponseBuilder().BuildXML(resp)
//
// # References
//
// SIRI references are formatted with the agency id as codespace:
//
//   - LineRef: {codespace}:Line:{route_id}
//   - DatedVehicleJourneyRef: {codespace}:ServiceJourney:{trip_id}
//   - StopPointRef: {codespace}:Quay:{stop_id}, after FieldMutators
//
// # Calls
//
// A stop whose expected departure is in the past, or whose expected arrival
// is more than a minute in the past, becomes a RecordedCall with actual times.
// Every other stop is an EstimatedCall with expected times and an arrival and
// departure status (early, onTime, delayed, or cancelled for skipped stops and
// canceled trips).
package converter
