/*
Package timetable holds realtime timetables and publishes them as immutable
snapshots.

A Buffer is the working set written by the ingestion worker. Every trip
update becomes a new TripTimes for its trip, stored in the Timetable of the
trip's pattern. Commit turns the buffer into a Snapshot that readers may keep
for as long as they like; later updates never show through it.

	buf := timetable.NewBuffer(timetable.WithLocation(index.Location()))
	if res := buf.Update(pattern, tu); !res.Applied() {
	    log.Printf("rejected %s: %s", res.TripID, res.Reason)
	}
	snap := buf.Commit()
	tt, ok := snap.TripTimes(pattern.ID, tu.TripID)
*/
package timetable
