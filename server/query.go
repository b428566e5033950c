package server

import (
	"net/url"
	"strings"

	"github.com/theoremus-urban-solutions/gtfsrt-stoptime-updater/gtfs"
)

type QueryError struct{ Msg string }

func (e *QueryError) Error() string { return e.Msg }

// etQuery holds the Estimated Timetable filters of a request.
type etQuery struct {
	LineRef       string
	DirectionRef  string
	MonitoringRef string
}

// param reads a SIRI query parameter, accepting both LineRef and lineRef.
func param(q url.Values, name string) string {
	if v := q.Get(name); v != "" {
		return strings.TrimSpace(v)
	}
	return strings.TrimSpace(q.Get(strings.ToLower(name[:1]) + name[1:]))
}

func parseAndValidateEstimatedTimetable(q url.Values, index *gtfs.Index) (etQuery, error) {
	query := etQuery{
		LineRef:       param(q, "LineRef"),
		DirectionRef:  param(q, "DirectionRef"),
		MonitoringRef: param(q, "MonitoringRef"),
	}
	if err := ensureRouteExists(query.LineRef, index); err != nil {
		return query, err
	}
	if err := ensureStopExists(query.MonitoringRef, index); err != nil {
		return query, err
	}
	if d := query.DirectionRef; d != "" && d != "0" && d != "1" {
		return query, &QueryError{Msg: "DirectionRef must be 0 or 1."}
	}
	return query, nil
}

// lastRefPart strips a codespace prefix: "SOFIA:Line:TM5" and "SOFIA_TM5" both give "TM5".
func lastRefPart(ref string) string {
	if i := strings.LastIndex(ref, ":"); i >= 0 {
		return ref[i+1:]
	}
	if _, after, ok := strings.Cut(ref, "_"); ok {
		return after
	}
	return ref
}

func ensureRouteExists(lineRef string, index *gtfs.Index) error {
	if lineRef == "" {
		return nil
	}
	if _, ok := index.Routes[lineRef]; ok {
		return nil
	}
	if _, ok := index.Routes[lastRefPart(lineRef)]; ok {
		return nil
	}
	return &QueryError{Msg: "No such route: " + lineRef}
}

func ensureStopExists(stopRef string, index *gtfs.Index) error {
	if stopRef == "" {
		return nil
	}
	if _, ok := index.Stops[stopRef]; ok {
		return nil
	}
	if _, ok := index.Stops[lastRefPart(stopRef)]; ok {
		return nil
	}
	return &QueryError{Msg: "No such stop: " + stopRef + "."}
}
