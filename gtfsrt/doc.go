// Package gtfsrt handles the realtime side of the updater: decoding
// GTFS-Realtime TripUpdates feeds into trip updates, filtering and
// validating those updates, and the Streamer transport that hands batches to
// the ingestion worker.
//
// A Streamer blocks until a batch is available:
//   - PollingStreamer: re-reads a feed URL or file every read interval
//   - ChanStreamer: batches pushed by an embedding program
//
// Trip updates are filtered with Filter, then checked with IsCoherent and
// IsEmpty before they reach a timetable buffer.
package gtfsrt
