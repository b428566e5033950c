package gtfsrt

// FilterOptions selects which stop-time entries Filter removes.
type FilterOptions struct {
	// DuplicateStops drops an entry addressing the same stop as the entry kept before it.
	DuplicateStops bool `yaml:"duplicateStops"`
	// NegativeDwells drops entries whose absolute arrival is after their absolute departure.
	NegativeDwells bool `yaml:"negativeDwells"`
	// UnmodifiedStops drops SCHEDULED entries that carry neither arrival nor departure data.
	UnmodifiedStops bool `yaml:"unmodifiedStops"`
}

// DefaultFilterOptions enables every filter.
func DefaultFilterOptions() FilterOptions {
	return FilterOptions{DuplicateStops: true, NegativeDwells: true, UnmodifiedStops: true}
}

// Filter removes unusable stop-time entries in place. It never reorders the
// remaining entries and never touches trip-level fields.
func (tu *TripUpdate) Filter(opts FilterOptions) {
	kept := tu.Updates[:0]
	var prev StopTimeUpdate
	hasPrev := false
	for _, u := range tu.Updates {
		if opts.UnmodifiedStops && u.Relationship == StopScheduled && !u.HasData() {
			continue
		}
		if opts.NegativeDwells && negativeDwell(u) {
			continue
		}
		if opts.DuplicateStops && hasPrev && sameStop(prev, u) {
			continue
		}
		kept = append(kept, u)
		prev, hasPrev = u, true
	}
	tu.Updates = kept
}

// IsCoherent reports whether the update can be applied to a timetable: the
// trip is identified, every entry identifies its stop, stop sequences strictly
// increase, no stop repeats, no entry dwells negatively, SCHEDULED entries
// carry data, and absolute times never go backwards along the trip.
func (tu *TripUpdate) IsCoherent() bool {
	if tu == nil || tu.TripID == "" {
		return false
	}
	var prev StopTimeUpdate
	hasPrev := false
	var lastTime int64
	hasTime := false
	for _, u := range tu.Updates {
		if u.StopSequence == nil && u.StopID == "" {
			return false
		}
		if u.Relationship == StopScheduled && !u.HasData() {
			return false
		}
		if negativeDwell(u) {
			return false
		}
		if hasPrev {
			if sameStop(prev, u) {
				return false
			}
			if prev.StopSequence != nil && u.StopSequence != nil && *u.StopSequence <= *prev.StopSequence {
				return false
			}
		}
		for _, e := range []*StopTimeEvent{u.Arrival, u.Departure} {
			if e == nil || e.Time == nil {
				continue
			}
			if hasTime && *e.Time < lastTime {
				return false
			}
			lastTime, hasTime = *e.Time, true
		}
		prev, hasPrev = u, true
	}
	return true
}

// IsEmpty reports whether nothing is left to apply: no stop-time entries and
// no trip cancellation.
func (tu *TripUpdate) IsEmpty() bool {
	return len(tu.Updates) == 0 && !tu.Canceled()
}

func negativeDwell(u StopTimeUpdate) bool {
	if u.Arrival == nil || u.Departure == nil || u.Arrival.Time == nil || u.Departure.Time == nil {
		return false
	}
	return *u.Arrival.Time > *u.Departure.Time
}

func sameStop(a, b StopTimeUpdate) bool {
	if a.StopSequence != nil && b.StopSequence != nil {
		return *a.StopSequence == *b.StopSequence
	}
	return a.StopID != "" && a.StopID == b.StopID
}
