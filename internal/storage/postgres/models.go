package postgres

import (
	"database/sql"
	"time"

	"github.com/pfrederiksen/swim-times/internal/swim"
)

type meetTableModel struct {
	MeetID    int64        `db:"meet_id"`
	MeetName  string       `db:"meet_name"`
	Location  string       `db:"location"`
	StartDate sql.NullTime `db:"start_date"`
	EndDate   sql.NullTime `db:"end_date"`
}

type swimmerTableModel struct {
	SwimmerID int64  `db:"swimmer_id"`
	FullName  string `db:"full_name"`
	FirstName string `db:"first_name"`
	LastName  string `db:"last_name"`
	Active    bool   `db:"active"`
}

type teamTableModel struct {
	TeamName string         `db:"team_name"`
	TeamCode sql.NullString `db:"team_code"`
}

type eventTableModel struct {
	EventID   int64  `db:"event_id"`
	EventName string `db:"event_name"`
}

type timeTableModel struct {
	MeetID    int64           `db:"meet_id"`
	SwimmerID int64           `db:"swimmer_id"`
	EventID   int64           `db:"event_id"`
	Heat      string          `db:"heat"`
	Lane      string          `db:"lane"`
	EventTime sql.NullFloat64 `db:"event_time"`
	Points    string          `db:"points"`
	Notes     string          `db:"notes"`
}

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}

func nullTimeToTime(t sql.NullTime) time.Time {
	if !t.Valid {
		return time.Time{}
	}
	return t.Time
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func nullFloatToPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func toMeetModel(m swim.Meet) meetTableModel {
	return meetTableModel{
		MeetID:    m.ID,
		MeetName:  m.Name,
		Location:  m.Location,
		StartDate: nullTime(m.StartDate),
		EndDate:   nullTime(m.EndDate),
	}
}

func (row meetTableModel) toDomain() swim.Meet {
	return swim.Meet{
		ID:        row.MeetID,
		Name:      row.MeetName,
		Location:  row.Location,
		StartDate: nullTimeToTime(row.StartDate),
		EndDate:   nullTimeToTime(row.EndDate),
	}
}

func toSwimmerModel(s swim.Swimmer) swimmerTableModel {
	return swimmerTableModel{
		SwimmerID: s.ID,
		FullName:  s.FullName,
		FirstName: s.FirstName,
		LastName:  s.LastName,
		Active:    s.Active,
	}
}

func (row swimmerTableModel) toDomain() swim.Swimmer {
	return swim.Swimmer{
		ID:        row.SwimmerID,
		FullName:  row.FullName,
		FirstName: row.FirstName,
		LastName:  row.LastName,
		Active:    row.Active,
	}
}

func toTimeModel(r swim.TimeRecord) timeTableModel {
	return timeTableModel{
		MeetID:    r.MeetID,
		SwimmerID: r.SwimmerID,
		EventID:   r.EventID,
		Heat:      r.Heat,
		Lane:      r.Lane,
		EventTime: nullFloat(r.Seconds),
		Points:    r.Points,
		Notes:     r.Notes,
	}
}

func (row timeTableModel) toDomain() swim.TimeRecord {
	return swim.TimeRecord{
		MeetID:    row.MeetID,
		SwimmerID: row.SwimmerID,
		EventID:   row.EventID,
		Heat:      row.Heat,
		Lane:      row.Lane,
		Seconds:   nullFloatToPtr(row.EventTime),
		Points:    row.Points,
		Notes:     row.Notes,
	}
}
