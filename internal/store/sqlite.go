// internal/store/sqlite.go
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/studyloop/engine/internal/domain/mastery"
)

const schema = `
CREATE TABLE IF NOT EXISTS mastery_records (
    user_id TEXT NOT NULL,
    concept_id TEXT NOT NULL,
    concept_type TEXT NOT NULL,
    easiness_factor REAL NOT NULL,
    interval_days INTEGER NOT NULL,
    repetition INTEGER NOT NULL,
    next_review_date TEXT NOT NULL,
    total_attempts INTEGER NOT NULL,
    correct_attempts INTEGER NOT NULL,
    last_attempt_date TEXT,
    average_response_time_ms REAL NOT NULL,
    mastery_level TEXT NOT NULL,
    current_difficulty REAL NOT NULL,
    optimal_difficulty REAL NOT NULL,
    adjustment_history TEXT NOT NULL DEFAULT '[]',
    provider TEXT,
    exam TEXT,
    topic TEXT,
    version INTEGER NOT NULL,
    PRIMARY KEY (user_id, concept_id)
);

CREATE INDEX IF NOT EXISTS idx_records_user_review
    ON mastery_records (user_id, next_review_date);

CREATE TABLE IF NOT EXISTS processed_events (
    event_id TEXT PRIMARY KEY,
    user_id TEXT NOT NULL,
    concept_id TEXT NOT NULL,
    processed_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS account_stats (
    user_id TEXT PRIMARY KEY,
    overall_accuracy REAL NOT NULL,
    average_response_time_ms REAL NOT NULL,
    preferred_difficulty REAL NOT NULL,
    study_velocity REAL NOT NULL,
    updated_at TEXT NOT NULL
);
`

// SQLiteStore persists mastery records, the answer-event dedupe ledger,
// and per-user aggregates in a single SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

var _ Store = (*SQLiteStore)(nil)

func NewSQLite(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(schema); err != nil {
		return nil, err
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// ============================================================================
// Mastery records
// ============================================================================

const recordColumns = `user_id, concept_id, concept_type, easiness_factor, interval_days,
    repetition, next_review_date, total_attempts, correct_attempts, last_attempt_date,
    average_response_time_ms, mastery_level, current_difficulty, optimal_difficulty,
    adjustment_history, provider, exam, topic, version`

func (s *SQLiteStore) GetRecord(ctx context.Context, userID, conceptID string) (*mastery.Record, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+recordColumns+" FROM mastery_records WHERE user_id = ? AND concept_id = ?",
		userID, conceptID)

	rec, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *SQLiteStore) QueryRecords(ctx context.Context, userID string, limit int) ([]*mastery.Record, error) {
	query := "SELECT " + recordColumns + " FROM mastery_records WHERE user_id = ? ORDER BY next_review_date ASC"
	args := []any{userID}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*mastery.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// CommitAnswer writes the mutated record, the event ledger entry, and the
// refreshed account aggregates in one transaction. The record write is
// conditional on rec.Version so a concurrent update for the same
// (user, concept) surfaces as ErrVersionConflict instead of a lost update.
func (s *SQLiteStore) CommitAnswer(ctx context.Context, rec *mastery.Record, eventID string, now time.Time) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if eventID != "" {
		var existing string
		err := tx.QueryRowContext(ctx,
			"SELECT event_id FROM processed_events WHERE event_id = ?", eventID).Scan(&existing)
		if err == nil {
			return ErrDuplicateEvent
		}
		if err != sql.ErrNoRows {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO processed_events (event_id, user_id, concept_id, processed_at) VALUES (?, ?, ?, ?)",
			eventID, rec.UserID, rec.ConceptID, now.UTC().Format(time.RFC3339Nano)); err != nil {
			return err
		}
	}

	if err := upsertRecord(ctx, tx, rec); err != nil {
		return err
	}
	if err := refreshAccountStats(ctx, tx, rec.UserID, now); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	rec.Version++
	return nil
}

func upsertRecord(ctx context.Context, tx *sql.Tx, rec *mastery.Record) error {
	history, err := json.Marshal(rec.AdjustmentHistory)
	if err != nil {
		return fmt.Errorf("marshal adjustment history: %w", err)
	}

	var lastAttempt any
	if !rec.LastAttemptDate.IsZero() {
		lastAttempt = rec.LastAttemptDate.UTC().Format(time.RFC3339Nano)
	}

	if rec.Version == 0 {
		// First write for this (user, concept). A concurrent first write
		// loses on the primary key and reports a conflict.
		_, err := tx.ExecContext(ctx, `
			INSERT INTO mastery_records (`+recordColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1)`,
			rec.UserID, rec.ConceptID, rec.ConceptType, rec.EasinessFactor, rec.IntervalDays,
			rec.Repetition, rec.NextReviewDate.UTC().Format(time.RFC3339Nano),
			rec.TotalAttempts, rec.CorrectAttempts, lastAttempt,
			rec.AverageResponseTimeMs, string(rec.MasteryLevel), rec.CurrentDifficulty,
			rec.OptimalDifficulty, string(history), nullable(rec.Provider), nullable(rec.Exam), nullable(rec.Topic))
		if err != nil {
			// Unique violation on the primary key: someone created it first.
			return ErrVersionConflict
		}
		return nil
	}

	res, err := tx.ExecContext(ctx, `
		UPDATE mastery_records SET
			concept_type = ?, easiness_factor = ?, interval_days = ?, repetition = ?,
			next_review_date = ?, total_attempts = ?, correct_attempts = ?,
			last_attempt_date = ?, average_response_time_ms = ?, mastery_level = ?,
			current_difficulty = ?, optimal_difficulty = ?, adjustment_history = ?,
			provider = ?, exam = ?, topic = ?, version = version + 1
		WHERE user_id = ? AND concept_id = ? AND version = ?`,
		rec.ConceptType, rec.EasinessFactor, rec.IntervalDays, rec.Repetition,
		rec.NextReviewDate.UTC().Format(time.RFC3339Nano),
		rec.TotalAttempts, rec.CorrectAttempts, lastAttempt,
		rec.AverageResponseTimeMs, string(rec.MasteryLevel),
		rec.CurrentDifficulty, rec.OptimalDifficulty, string(history),
		nullable(rec.Provider), nullable(rec.Exam), nullable(rec.Topic),
		rec.UserID, rec.ConceptID, rec.Version)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrVersionConflict
	}
	return nil
}

// refreshAccountStats recomputes the user's rollup from the mastery table
// inside the same transaction as the record write.
func refreshAccountStats(ctx context.Context, tx *sql.Tx, userID string, now time.Time) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO account_stats (user_id, overall_accuracy, average_response_time_ms,
			preferred_difficulty, study_velocity, updated_at)
		SELECT
			user_id,
			CASE WHEN SUM(total_attempts) > 0
				THEN CAST(SUM(correct_attempts) AS REAL) / SUM(total_attempts)
				ELSE 0 END,
			CASE WHEN SUM(total_attempts) > 0
				THEN SUM(average_response_time_ms * total_attempts) / SUM(total_attempts)
				ELSE 0 END,
			AVG(current_difficulty),
			CASE WHEN SUM(average_response_time_ms * total_attempts) > 0
				THEN 60000.0 * SUM(total_attempts) / SUM(average_response_time_ms * total_attempts)
				ELSE 0 END,
			?
		FROM mastery_records WHERE user_id = ?
		GROUP BY user_id
		ON CONFLICT (user_id) DO UPDATE SET
			overall_accuracy = excluded.overall_accuracy,
			average_response_time_ms = excluded.average_response_time_ms,
			preferred_difficulty = excluded.preferred_difficulty,
			study_velocity = excluded.study_velocity,
			updated_at = excluded.updated_at`,
		now.UTC().Format(time.RFC3339Nano), userID)
	return err
}

// ============================================================================
// Events & aggregates
// ============================================================================

func (s *SQLiteStore) EventProcessed(ctx context.Context, eventID string) (bool, error) {
	var id string
	err := s.db.QueryRowContext(ctx,
		"SELECT event_id FROM processed_events WHERE event_id = ?", eventID).Scan(&id)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *SQLiteStore) AccountStats(ctx context.Context, userID string) (*AccountStats, error) {
	stats := &AccountStats{UserID: userID}
	err := s.db.QueryRowContext(ctx, `
		SELECT overall_accuracy, average_response_time_ms, preferred_difficulty, study_velocity
		FROM account_stats WHERE user_id = ?`, userID).
		Scan(&stats.OverallAccuracy, &stats.AverageResponseTimeMs,
			&stats.PreferredDifficulty, &stats.StudyVelocity)
	if err == sql.ErrNoRows {
		// No history yet: zero-valued stats, not an error.
		return stats, nil
	}
	if err != nil {
		return nil, err
	}
	return stats, nil
}

// ============================================================================
// Scan helpers
// ============================================================================

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*mastery.Record, error) {
	var (
		rec         mastery.Record
		nextReview  string
		lastAttempt sql.NullString
		level       string
		history     string
		provider    sql.NullString
		exam        sql.NullString
		topic       sql.NullString
	)

	err := row.Scan(&rec.UserID, &rec.ConceptID, &rec.ConceptType, &rec.EasinessFactor,
		&rec.IntervalDays, &rec.Repetition, &nextReview, &rec.TotalAttempts,
		&rec.CorrectAttempts, &lastAttempt, &rec.AverageResponseTimeMs, &level,
		&rec.CurrentDifficulty, &rec.OptimalDifficulty, &history,
		&provider, &exam, &topic, &rec.Version)
	if err != nil {
		return nil, err
	}

	rec.NextReviewDate, err = time.Parse(time.RFC3339Nano, nextReview)
	if err != nil {
		return nil, fmt.Errorf("parse next_review_date: %w", err)
	}
	if lastAttempt.Valid {
		rec.LastAttemptDate, err = time.Parse(time.RFC3339Nano, lastAttempt.String)
		if err != nil {
			return nil, fmt.Errorf("parse last_attempt_date: %w", err)
		}
	}
	if err := json.Unmarshal([]byte(history), &rec.AdjustmentHistory); err != nil {
		return nil, fmt.Errorf("unmarshal adjustment history: %w", err)
	}

	rec.MasteryLevel = mastery.Level(level)
	rec.Provider = provider.String
	rec.Exam = exam.String
	rec.Topic = topic.String
	return &rec, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
