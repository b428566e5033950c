// Package siri defines the SIRI (Service Interface for Real-time Information)
// Estimated Timetable types served to readers of the published snapshots.
//
// Types carry JSON tags; XML is written by the formatter package.
package siri
