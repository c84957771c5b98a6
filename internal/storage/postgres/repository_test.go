package postgres

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/pfrederiksen/swim-times/internal/ingest"
	"github.com/pfrederiksen/swim-times/internal/swim"
)

func newMockRepository(t *testing.T) (*Repository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	return NewRepository(sqlx.NewDb(db, "postgres")), mock
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func sqlText(s string) string {
	return regexp.QuoteMeta(s)
}

func TestRepository_ListActiveSwimmerIDs(t *testing.T) {
	repo, mock := newMockRepository(t)
	mock.ExpectQuery(sqlText("SELECT swimmer_id FROM swimmers WHERE active ORDER BY swimmer_id")).
		WillReturnRows(sqlmock.NewRows([]string{"swimmer_id"}).AddRow(int64(77)).AddRow(int64(1822492)))

	ids, err := repo.ListActiveSwimmerIDs(context.Background())
	require.NoError(t, err)
	require.Equal(t, []int64{77, 1822492}, ids)
}

func TestRepository_KnownMeetSwimmers(t *testing.T) {
	repo, mock := newMockRepository(t)
	mock.ExpectQuery(sqlText("SELECT DISTINCT meet_id, swimmer_id FROM times")).
		WillReturnRows(sqlmock.NewRows([]string{"meet_id", "swimmer_id"}).AddRow(int64(300), int64(77)))

	pairs, err := repo.KnownMeetSwimmers(context.Background())
	require.NoError(t, err)
	require.Equal(t, []swim.MeetSwimmer{{MeetID: 300, SwimmerID: 77}}, pairs)
}

func TestRepository_Snapshot(t *testing.T) {
	repo, mock := newMockRepository(t)
	start := day(2023, 9, 9)

	mock.ExpectQuery(sqlText("SELECT meet_id, meet_name, location, start_date, end_date FROM meets ORDER BY start_date NULLS LAST, meet_id")).
		WillReturnRows(sqlmock.NewRows([]string{"meet_id", "meet_name", "location", "start_date", "end_date"}).
			AddRow(int64(300), "Fall Classic", "Riverside", start, nil))
	mock.ExpectQuery(sqlText("SELECT swimmer_id, full_name, first_name, last_name, active FROM swimmers ORDER BY swimmer_id")).
		WillReturnRows(sqlmock.NewRows([]string{"swimmer_id", "full_name", "first_name", "last_name", "active"}).
			AddRow(int64(77), "Grace Hopper", "Grace", "Hopper", true))
	mock.ExpectQuery(sqlText("SELECT team_name, team_code FROM teams ORDER BY team_name")).
		WillReturnRows(sqlmock.NewRows([]string{"team_name", "team_code"}).
			AddRow("Riverside Aquatics", "RSA").
			AddRow("Unattached", nil))
	mock.ExpectQuery(sqlText("SELECT event_id, event_name FROM events ORDER BY event_id")).
		WillReturnRows(sqlmock.NewRows([]string{"event_id", "event_name"}).AddRow(int64(1), "50 Yd Freestyle"))
	mock.ExpectQuery(sqlText("SELECT meet_id, swimmer_id, event_id FROM times")).
		WillReturnRows(sqlmock.NewRows([]string{"meet_id", "swimmer_id", "event_id"}).AddRow(int64(300), int64(77), int64(1)))

	snap, err := repo.Snapshot(context.Background())
	require.NoError(t, err)

	require.Equal(t, []swim.Meet{{ID: 300, Name: "Fall Classic", Location: "Riverside", StartDate: start}}, snap.Meets)
	require.Equal(t, "Grace", snap.Swimmers[0].FirstName)
	require.True(t, snap.Swimmers[0].Active)
	require.Equal(t, []swim.Team{{Name: "Riverside Aquatics", Code: "RSA"}, {Name: "Unattached"}}, snap.Teams)
	require.Equal(t, []swim.Event{{ID: 1, Name: "50 Yd Freestyle"}}, snap.Events)
	require.Equal(t, []swim.Key{{MeetID: 300, SwimmerID: 77, EventID: 1}}, snap.Times)
}

func TestRepository_SnapshotStopsOnError(t *testing.T) {
	repo, mock := newMockRepository(t)
	mock.ExpectQuery(sqlText("FROM meets")).WillReturnRows(sqlmock.NewRows([]string{"meet_id"}))
	mock.ExpectQuery(sqlText("FROM swimmers")).WillReturnError(context.DeadlineExceeded)

	_, err := repo.Snapshot(context.Background())
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.Contains(t, err.Error(), "select swimmers")
}

func TestRepository_ListTimes(t *testing.T) {
	repo, mock := newMockRepository(t)
	mock.ExpectQuery(sqlText("SELECT meet_id, swimmer_id, event_id, heat, lane, event_time, points, notes FROM times WHERE swimmer_id = $1 ORDER BY meet_id, event_id")).
		WithArgs(int64(1822492)).
		WillReturnRows(sqlmock.NewRows([]string{"meet_id", "swimmer_id", "event_id", "heat", "lane", "event_time", "points", "notes"}).
			AddRow(int64(300), int64(1822492), int64(1), "3", "4", 29.8, "", "").
			AddRow(int64(300), int64(1822492), int64(2), "", "", nil, "", "DQ"))

	times, err := repo.ListTimes(context.Background(), 1822492)
	require.NoError(t, err)
	require.Len(t, times, 2)
	require.InDelta(t, 29.8, *times[0].Seconds, 1e-9)
	require.Equal(t, "3", times[0].Heat)
	require.Nil(t, times[1].Seconds)
	require.Equal(t, "DQ", times[1].Notes)
}

func TestRepository_InsertMeets(t *testing.T) {
	repo, mock := newMockRepository(t)
	start, end := day(2023, 9, 9), day(2023, 9, 10)

	mock.ExpectExec(sqlText("INSERT INTO meets (meet_id, meet_name, location, start_date, end_date) VALUES")).
		WithArgs(
			int64(300), "Fall Classic", "Riverside", start, end,
			int64(301), "Time Trial", "", nil, nil,
		).
		WillReturnResult(sqlmock.NewResult(0, 2))

	err := repo.InsertMeets(context.Background(), []swim.Meet{
		{ID: 300, Name: "Fall Classic", Location: "Riverside", StartDate: start, EndDate: end},
		{ID: 301, Name: "Time Trial"},
	})
	require.NoError(t, err)
}

func TestRepository_InsertTimesAndTeams(t *testing.T) {
	repo, mock := newMockRepository(t)
	free := 29.8

	mock.ExpectExec(sqlText("INSERT INTO teams (team_name, team_code) VALUES")).
		WithArgs("Unattached", nil).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(sqlText("INSERT INTO times (meet_id, swimmer_id, event_id, heat, lane, event_time, points, notes) VALUES")).
		WithArgs(
			int64(300), int64(77), int64(1), "3", "4", free, "12", "",
			int64(300), int64(77), int64(2), "", "", nil, "", "DQ",
		).
		WillReturnResult(sqlmock.NewResult(0, 2))

	ctx := context.Background()
	require.NoError(t, repo.InsertTeams(ctx, []swim.Team{{Name: "Unattached"}}))
	require.NoError(t, repo.InsertTimes(ctx, []swim.TimeRecord{
		{MeetID: 300, SwimmerID: 77, EventID: 1, Heat: "3", Lane: "4", Seconds: &free, Points: "12"},
		{MeetID: 300, SwimmerID: 77, EventID: 2, Notes: "DQ"},
	}))

	// nothing to insert, no statement
	require.NoError(t, repo.InsertSwimmers(ctx, nil))
}

func TestRepository_InsertError(t *testing.T) {
	repo, mock := newMockRepository(t)
	mock.ExpectExec(sqlText("INSERT INTO swimmers")).WillReturnError(context.Canceled)

	err := repo.InsertSwimmers(context.Background(), []swim.Swimmer{swim.NewSwimmer(77, "Grace Hopper")})
	require.ErrorIs(t, err, context.Canceled)
	require.Contains(t, err.Error(), "insert swimmers")
}

func TestRepository_UpsertSwimmer(t *testing.T) {
	repo, mock := newMockRepository(t)
	sw := swim.NewSwimmer(1822492, "Ada King Lovelace")

	mock.ExpectExec(sqlText("ON CONFLICT (swimmer_id) DO UPDATE SET active = EXCLUDED.active")).
		WithArgs(int64(1822492), "Ada King Lovelace", sw.FirstName, sw.LastName, sw.Active).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpsertSwimmer(context.Background(), sw))
}

func TestRepository_SetSwimmerActive(t *testing.T) {
	repo, mock := newMockRepository(t)
	const update = "UPDATE swimmers SET active = $2 WHERE swimmer_id = $1"

	mock.ExpectExec(sqlText(update)).WithArgs(int64(77), false).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(sqlText(update)).WithArgs(int64(5), true).WillReturnResult(sqlmock.NewResult(0, 0))

	ctx := context.Background()
	require.NoError(t, repo.SetSwimmerActive(ctx, 77, false))
	require.ErrorIs(t, repo.SetSwimmerActive(ctx, 5, true), ingest.ErrSwimmerNotFound)
}
