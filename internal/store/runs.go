package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/blackwell-systems/studiowatch/internal/suggest"
)

const runColumns = `id, created_at, command, version, window_from, window_to, schedule_size,
	session_count, rule_count, advice_count, attendance_delta, fill_rate_delta,
	advisor_code, advisor_message`

func formatTime(t time.Time) sql.NullString {
	if t.IsZero() {
		return sql.NullString{}
	}
	return sql.NullString{String: t.UTC().Format(time.RFC3339), Valid: true}
}

func parseTime(s sql.NullString) time.Time {
	if !s.Valid {
		return time.Time{}
	}
	t, _ := time.Parse(time.RFC3339, s.String)
	return t
}

// SaveRun records a run and its ranked suggestions in one transaction. Every
// suggestion starts out open.
func (db *DB) SaveRun(run *Run, suggestions []suggest.Suggestion) error {
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}

	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		`INSERT INTO runs (`+runColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.CreatedAt.UTC().Format(time.RFC3339), run.Command, run.Version,
		formatTime(run.WindowFrom), formatTime(run.WindowTo), run.ScheduleSize,
		run.SessionCount, run.RuleCount, run.AdviceCount, run.AttendanceDelta,
		run.FillRateDelta, run.AdvisorCode, run.AdvisorMessage,
	); err != nil {
		return fmt.Errorf("inserting run: %w", err)
	}

	for i, s := range suggestions {
		payload, err := json.Marshal(s)
		if err != nil {
			return fmt.Errorf("encoding suggestion %s: %w", s.ID, err)
		}
		var classID string
		if s.Original != nil {
			classID = s.Original.ClassID
		}
		if _, err := tx.Exec(
			`INSERT INTO suggestions
			(run_id, suggestion_id, ordinal, type, priority, confidence, source,
			 class_id, location, trainer, payload, status)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			run.ID, s.ID, i+1, string(s.Type), int(s.Priority), s.Confidence, s.Source,
			classID, s.Suggested.Location, s.Suggested.Trainer, string(payload), StatusOpen,
		); err != nil {
			return fmt.Errorf("inserting suggestion %s: %w", s.ID, err)
		}
	}

	run.SuggestionCount = len(suggestions)
	return tx.Commit()
}

// GetRun returns a run by ID, or nil if it does not exist.
func (db *DB) GetRun(id string) (*Run, error) {
	row := db.conn.QueryRow("SELECT "+runColumns+" FROM runs WHERE id = ?", id)
	return scanRun(row)
}

// GetLatestRun returns the most recent run, or nil if none exist.
func (db *DB) GetLatestRun() (*Run, error) {
	row := db.conn.QueryRow("SELECT " + runColumns + " FROM runs ORDER BY created_at DESC, rowid DESC LIMIT 1")
	return scanRun(row)
}

// ResolveRunID expands a unique run ID prefix to the full ID. It returns ""
// when nothing matches and an error when the prefix is ambiguous.
func (db *DB) ResolveRunID(prefix string) (string, error) {
	rows, err := db.conn.Query("SELECT id FROM runs WHERE substr(id, 1, ?) = ? LIMIT 2", len(prefix), prefix)
	if err != nil {
		return "", err
	}
	defer func() { _ = rows.Close() }()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return "", err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return "", err
	}
	switch len(ids) {
	case 0:
		return "", nil
	case 1:
		return ids[0], nil
	default:
		return "", fmt.Errorf("run prefix %q is ambiguous", prefix)
	}
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(row scanner) (*Run, error) {
	var r Run
	var createdAt string
	var from, to, code, msg sql.NullString
	err := row.Scan(&r.ID, &createdAt, &r.Command, &r.Version, &from, &to,
		&r.ScheduleSize, &r.SessionCount, &r.RuleCount, &r.AdviceCount,
		&r.AttendanceDelta, &r.FillRateDelta, &code, &msg)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	r.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	r.WindowFrom = parseTime(from)
	r.WindowTo = parseTime(to)
	r.AdvisorCode = code.String
	r.AdvisorMessage = msg.String
	return &r, nil
}

// ListRuns returns up to limit runs, newest first, with their suggestion
// counts. limit <= 0 returns every run.
func (db *DB) ListRuns(limit int) ([]Run, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := db.conn.Query(
		`SELECT `+runColumns+`,
		 (SELECT COUNT(*) FROM suggestions s WHERE s.run_id = runs.id)
		 FROM runs ORDER BY created_at DESC, rowid DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var runs []Run
	for rows.Next() {
		var count int
		r, err := scanRun(countingRow{rows, &count})
		if err != nil {
			return nil, err
		}
		r.SuggestionCount = count
		runs = append(runs, *r)
	}
	return runs, rows.Err()
}

// countingRow appends a trailing count column to a run scan.
type countingRow struct {
	rows  *sql.Rows
	count *int
}

func (c countingRow) Scan(dest ...interface{}) error {
	return c.rows.Scan(append(dest, c.count)...)
}

// GetSuggestions returns the suggestions recorded for a run in rank order.
func (db *DB) GetSuggestions(runID string) ([]StoredSuggestion, error) {
	return db.querySuggestions(
		`SELECT id, run_id, ordinal, status, reviewed_at, payload
		 FROM suggestions WHERE run_id = ? ORDER BY ordinal`, runID)
}

// GetSuggestionsByStatus returns suggestions with the given status across
// all runs, newest run first.
func (db *DB) GetSuggestionsByStatus(status string) ([]StoredSuggestion, error) {
	return db.querySuggestions(
		`SELECT s.id, s.run_id, s.ordinal, s.status, s.reviewed_at, s.payload
		 FROM suggestions s JOIN runs r ON r.id = s.run_id
		 WHERE s.status = ? ORDER BY r.created_at DESC, s.ordinal`, status)
}

func (db *DB) querySuggestions(query string, args ...interface{}) ([]StoredSuggestion, error) {
	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []StoredSuggestion
	for rows.Next() {
		var s StoredSuggestion
		var reviewed sql.NullString
		var payload string
		if err := rows.Scan(&s.RowID, &s.RunID, &s.Ordinal, &s.Status, &reviewed, &payload); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(payload), &s.Suggestion); err != nil {
			return nil, fmt.Errorf("decoding suggestion %d: %w", s.RowID, err)
		}
		s.ReviewedAt = parseTime(reviewed)
		out = append(out, s)
	}
	return out, rows.Err()
}

// SetSuggestionStatus records a review decision for one stored suggestion.
func (db *DB) SetSuggestionStatus(rowID int64, status string) error {
	if !ValidStatus(status) {
		return fmt.Errorf("invalid status %q", status)
	}
	reviewed := formatTime(time.Now())
	if status == StatusOpen {
		reviewed = sql.NullString{}
	}
	res, err := db.conn.Exec("UPDATE suggestions SET status = ?, reviewed_at = ? WHERE id = ?", status, reviewed, rowID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("suggestion %d not found", rowID)
	}
	return nil
}

// ReviewedStatuses maps suggestion IDs to their most recent review decision.
// Suggestions that were never reviewed are absent.
func (db *DB) ReviewedStatuses() (map[string]string, error) {
	rows, err := db.conn.Query(
		`SELECT suggestion_id, status FROM suggestions
		 WHERE status != 'open' ORDER BY reviewed_at`,
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	out := make(map[string]string)
	for rows.Next() {
		var id, status string
		if err := rows.Scan(&id, &status); err != nil {
			return nil, err
		}
		out[id] = status
	}
	return out, rows.Err()
}

// DeleteRunsBefore removes runs created before cutoff along with their
// suggestions and returns how many runs were removed.
func (db *DB) DeleteRunsBefore(cutoff time.Time) (int64, error) {
	ts := cutoff.UTC().Format(time.RFC3339)

	tx, err := db.conn.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		"DELETE FROM suggestions WHERE run_id IN (SELECT id FROM runs WHERE created_at < ?)", ts,
	); err != nil {
		return 0, err
	}
	res, err := tx.Exec("DELETE FROM runs WHERE created_at < ?", ts)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return n, tx.Commit()
}
