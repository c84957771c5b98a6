package postgres

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/pfrederiksen/swim-times/internal/ingest"
	"github.com/pfrederiksen/swim-times/internal/swim"
)

// insertChunk keeps batched inserts well under the 65535 bind parameter limit
const insertChunk = 1000

// Open connects to PostgreSQL and verifies the connection
func Open(ctx context.Context, dbURL string) (*sqlx.DB, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", dbURL)
	if err != nil {
		return nil, errors.Wrap(err, "connect to postgres")
	}
	return db, nil
}

type Repository struct {
	db *sqlx.DB
}

var _ ingest.Repository = (*Repository)(nil)

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) ListActiveSwimmerIDs(ctx context.Context) ([]int64, error) {
	const query = `SELECT swimmer_id FROM swimmers WHERE active ORDER BY swimmer_id`

	var ids []int64
	if err := r.db.SelectContext(ctx, &ids, query); err != nil {
		return nil, errors.Wrap(err, "select active swimmers")
	}
	return ids, nil
}

func (r *Repository) KnownMeetSwimmers(ctx context.Context) ([]swim.MeetSwimmer, error) {
	const query = `SELECT DISTINCT meet_id, swimmer_id FROM times`

	var rows []struct {
		MeetID    int64 `db:"meet_id"`
		SwimmerID int64 `db:"swimmer_id"`
	}
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, errors.Wrap(err, "select known meet swimmers")
	}

	out := make([]swim.MeetSwimmer, 0, len(rows))
	for _, row := range rows {
		out = append(out, swim.MeetSwimmer{MeetID: row.MeetID, SwimmerID: row.SwimmerID})
	}
	return out, nil
}

func (r *Repository) Snapshot(ctx context.Context) (*ingest.Snapshot, error) {
	var snap ingest.Snapshot
	var err error

	if snap.Meets, err = r.ListMeets(ctx); err != nil {
		return nil, err
	}
	if snap.Swimmers, err = r.ListSwimmers(ctx); err != nil {
		return nil, err
	}
	if snap.Teams, err = r.ListTeams(ctx); err != nil {
		return nil, err
	}
	if snap.Events, err = r.ListEvents(ctx); err != nil {
		return nil, err
	}
	if snap.Times, err = r.ListTimeKeys(ctx); err != nil {
		return nil, err
	}
	return &snap, nil
}

func (r *Repository) ListMeets(ctx context.Context) ([]swim.Meet, error) {
	const query = `
SELECT meet_id, meet_name, location, start_date, end_date
FROM meets
ORDER BY start_date NULLS LAST, meet_id`

	var rows []meetTableModel
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, errors.Wrap(err, "select meets")
	}

	out := make([]swim.Meet, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (r *Repository) ListSwimmers(ctx context.Context) ([]swim.Swimmer, error) {
	const query = `
SELECT swimmer_id, full_name, first_name, last_name, active
FROM swimmers
ORDER BY swimmer_id`

	var rows []swimmerTableModel
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, errors.Wrap(err, "select swimmers")
	}

	out := make([]swim.Swimmer, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (r *Repository) ListTeams(ctx context.Context) ([]swim.Team, error) {
	const query = `SELECT team_name, team_code FROM teams ORDER BY team_name`

	var rows []teamTableModel
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, errors.Wrap(err, "select teams")
	}

	out := make([]swim.Team, 0, len(rows))
	for _, row := range rows {
		out = append(out, swim.Team{Name: row.TeamName, Code: row.TeamCode.String})
	}
	return out, nil
}

func (r *Repository) ListEvents(ctx context.Context) ([]swim.Event, error) {
	const query = `SELECT event_id, event_name FROM events ORDER BY event_id`

	var rows []eventTableModel
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, errors.Wrap(err, "select events")
	}

	out := make([]swim.Event, 0, len(rows))
	for _, row := range rows {
		out = append(out, swim.Event{ID: row.EventID, Name: row.EventName})
	}
	return out, nil
}

func (r *Repository) ListTimeKeys(ctx context.Context) ([]swim.Key, error) {
	const query = `SELECT meet_id, swimmer_id, event_id FROM times`

	var rows []struct {
		MeetID    int64 `db:"meet_id"`
		SwimmerID int64 `db:"swimmer_id"`
		EventID   int64 `db:"event_id"`
	}
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, errors.Wrap(err, "select time keys")
	}

	out := make([]swim.Key, 0, len(rows))
	for _, row := range rows {
		out = append(out, swim.Key{MeetID: row.MeetID, SwimmerID: row.SwimmerID, EventID: row.EventID})
	}
	return out, nil
}

// ListTimes returns the stored times of one swimmer
func (r *Repository) ListTimes(ctx context.Context, swimmerID int64) ([]swim.TimeRecord, error) {
	const query = `
SELECT meet_id, swimmer_id, event_id, heat, lane, event_time, points, notes
FROM times
WHERE swimmer_id = $1
ORDER BY meet_id, event_id`

	var rows []timeTableModel
	if err := r.db.SelectContext(ctx, &rows, query, swimmerID); err != nil {
		return nil, errors.Wrap(err, "select times")
	}

	out := make([]swim.TimeRecord, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (r *Repository) InsertMeets(ctx context.Context, meets []swim.Meet) error {
	const query = `
INSERT INTO meets (meet_id, meet_name, location, start_date, end_date)
VALUES (:meet_id, :meet_name, :location, :start_date, :end_date)`

	rows := make([]meetTableModel, 0, len(meets))
	for _, m := range meets {
		rows = append(rows, toMeetModel(m))
	}
	return errors.Wrap(insertAll(ctx, r.db, query, rows), "insert meets")
}

func (r *Repository) InsertSwimmers(ctx context.Context, swimmers []swim.Swimmer) error {
	const query = `
INSERT INTO swimmers (swimmer_id, full_name, first_name, last_name, active)
VALUES (:swimmer_id, :full_name, :first_name, :last_name, :active)`

	rows := make([]swimmerTableModel, 0, len(swimmers))
	for _, s := range swimmers {
		rows = append(rows, toSwimmerModel(s))
	}
	return errors.Wrap(insertAll(ctx, r.db, query, rows), "insert swimmers")
}

func (r *Repository) InsertTeams(ctx context.Context, teams []swim.Team) error {
	const query = `INSERT INTO teams (team_name, team_code) VALUES (:team_name, :team_code)`

	rows := make([]teamTableModel, 0, len(teams))
	for _, t := range teams {
		rows = append(rows, teamTableModel{TeamName: t.Name, TeamCode: nullString(t.Code)})
	}
	return errors.Wrap(insertAll(ctx, r.db, query, rows), "insert teams")
}

func (r *Repository) InsertTimes(ctx context.Context, times []swim.TimeRecord) error {
	const query = `
INSERT INTO times (meet_id, swimmer_id, event_id, heat, lane, event_time, points, notes)
VALUES (:meet_id, :swimmer_id, :event_id, :heat, :lane, :event_time, :points, :notes)`

	rows := make([]timeTableModel, 0, len(times))
	for _, t := range times {
		rows = append(rows, toTimeModel(t))
	}
	return errors.Wrap(insertAll(ctx, r.db, query, rows), "insert times")
}

// UpsertSwimmer registers a swimmer, or reactivates one already stored
func (r *Repository) UpsertSwimmer(ctx context.Context, s swim.Swimmer) error {
	const query = `
INSERT INTO swimmers (swimmer_id, full_name, first_name, last_name, active)
VALUES (:swimmer_id, :full_name, :first_name, :last_name, :active)
ON CONFLICT (swimmer_id) DO UPDATE SET active = EXCLUDED.active`

	if _, err := r.db.NamedExecContext(ctx, query, toSwimmerModel(s)); err != nil {
		return errors.Wrapf(err, "upsert swimmer %d", s.ID)
	}
	return nil
}

// SetSwimmerActive toggles whether a swimmer's meets are ingested
func (r *Repository) SetSwimmerActive(ctx context.Context, swimmerID int64, active bool) error {
	const query = `UPDATE swimmers SET active = $2 WHERE swimmer_id = $1`

	res, err := r.db.ExecContext(ctx, query, swimmerID, active)
	if err != nil {
		return errors.Wrapf(err, "update swimmer %d", swimmerID)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return errors.Wrapf(ingest.ErrSwimmerNotFound, "swimmer %d", swimmerID)
	}
	return nil
}

// insertAll runs a named batch insert in chunks. An empty slice is a no-op.
func insertAll[T any](ctx context.Context, db *sqlx.DB, query string, rows []T) error {
	for start := 0; start < len(rows); start += insertChunk {
		end := min(start+insertChunk, len(rows))
		if _, err := db.NamedExecContext(ctx, query, rows[start:end]); err != nil {
			return err
		}
	}
	return nil
}
