// Package server exposes the published realtime timetable over HTTP.
//
// Estimated Timetable requests read through the publisher, so a request may
// commit pending updates once the publish interval has passed. The health
// endpoint only reads the snapshot already published.
package server
