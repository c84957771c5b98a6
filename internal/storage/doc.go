// Package storage persists swim-times data.
//
// The storage package itself holds the dashboard cache: a single JSON file with
// the scraped profile results and the time they were fetched. The default
// location is ~/.local/share/swim-times/dashboard.json. Relational storage lives
// in the postgres subpackage; memory is an in-process stand-in for it.
package storage
