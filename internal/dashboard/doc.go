// Package dashboard turns swimmer profile results into the views the dashboard
// serves: a personal-best grid with one column per swimmer, an event list and
// per-event progression series.
package dashboard
