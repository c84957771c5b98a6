// Package cli implements the command-line interface for swim-times.
//
// The cli package provides the Cobra-based CLI: ingest scrapes meet results
// into PostgreSQL, times lists profile-page results with filters and sorting,
// meets lists stored meets or exports them as iCalendar, serve runs the
// dashboard, and migrate and swimmers manage the schema and the ingested
// swimmers. Configuration comes from the config package with flag overrides.
package cli
