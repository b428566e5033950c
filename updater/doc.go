/*
Package updater ingests GTFS-Realtime trip updates and publishes them to
readers.

A Worker is the single writer: it takes batches from a gtfsrt.Streamer,
filters and validates each trip update, resolves its pattern and applies it
to the timetable.Buffer owned by a Publisher. Readers call
Publisher.GetSnapshot, which commits the buffer at most once per minimum
publish interval and otherwise hands back the snapshot already published.

	pub, err := updater.NewPublisher(updater.PublisherConfig{
	    Buffer:      timetable.NewBuffer(),
	    Clock:       clock.WallClock,
	    MinInterval: time.Second,
	})
	w, err := updater.NewWorker(updater.Config{
	    Streamer:  streamer,
	    Resolver:  index,
	    Publisher: pub,
	    Filter:    gtfsrt.DefaultFilterOptions(),
	})
	defer func() { w.Kill(); _ = w.Wait() }()
*/
package updater
