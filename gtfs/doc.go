/*
Package gtfs loads a GTFS static feed and groups its trips into patterns.

A pattern is the ordered stop list shared by the trips of one route and
direction. The realtime updater resolves every incoming trip update to its
pattern through the PatternResolver interface, which *Index implements.

# Basic Usage

	index, err := gtfs.NewIndexFromZip("gtfs.zip", "AGENCY_ID")
	if err != nil {
	    log.Fatal(err)
	}
	pattern, ok := index.PatternForTrip("trip_123")

NewIndexFromBytes and NewIndexFromURL accept a zip held in memory or
served over HTTP. NewIndexFromConfig picks the right loader from the
configured source and maintains an optional gob cache (see cache.go).

# Stop Times

Scheduled arrival and departure times are stored as seconds after the
service-day midnight, so times past 24:00:00 are kept as-is. Stops with no
time in stop_times.txt are interpolated between their timed neighbours.

# Pattern IDs

Pattern ids look like {route_id}:{direction_id}:{NN} and are stable for a
given feed because trips are grouped in trip_id order.
*/
package gtfs
