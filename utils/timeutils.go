package utils

import (
	"time"
)

// Iso8601 formats t in its own location, second precision.
func Iso8601(t time.Time) string {
	return t.Format(time.RFC3339)
}

// Iso8601FromUnixSeconds converts Unix timestamp to ISO8601 format
func Iso8601FromUnixSeconds(sec int64) string {
	return time.Unix(sec, 0).UTC().Format(time.RFC3339)
}

// Iso8601Date returns just the date portion in YYYY-MM-DD format
func Iso8601Date(t time.Time) string {
	return t.Format("2006-01-02")
}

// ServiceDateToIso8601 turns a GTFS service date (YYYYMMDD) into YYYY-MM-DD.
// Malformed input is returned unchanged.
func ServiceDateToIso8601(date string) string {
	d, err := time.Parse("20060102", date)
	if err != nil {
		return date
	}
	return d.Format("2006-01-02")
}
