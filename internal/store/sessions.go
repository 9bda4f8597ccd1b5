package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/verte-zerg/nback/internal/model"
)

const sessionColumns = `id, level_id, n_back, mode, trial_count, trial_duration_ms, started_at, ended_at,
	completed, combined_accuracy, combined_dprime, position_stats, audio_stats, trials`

// SaveSession inserts or replaces a session result.
func (s *Store) SaveSession(ctx context.Context, r model.SessionResult) error {
	posJSON, err := json.Marshal(r.Position)
	if err != nil {
		return fmt.Errorf("encode position stats: %w", err)
	}
	audJSON, err := json.Marshal(r.Audio)
	if err != nil {
		return fmt.Errorf("encode audio stats: %w", err)
	}
	trialsJSON, err := json.Marshal(r.Trials)
	if err != nil {
		return fmt.Errorf("encode trials: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO sessions (`+sessionColumns+`, started_unix_ms)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID,
		r.Config.LevelID,
		r.Config.NBack.Int(),
		string(r.Config.Mode),
		r.Config.TrialCount,
		r.Config.TrialDuration.Milliseconds(),
		formatTime(r.StartedAt),
		formatTime(r.EndedAt),
		r.Completed,
		r.CombinedAccuracy,
		r.CombinedDPrime,
		string(posJSON),
		string(audJSON),
		string(trialsJSON),
		r.StartedAt.UnixMilli(),
	)
	return err
}

// GetSession returns the session with the given id or ErrNotFound.
func (s *Store) GetSession(ctx context.Context, id string) (model.SessionResult, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+sessionColumns+` FROM sessions WHERE id = ?`, id)
	if err != nil {
		return model.SessionResult{}, err
	}
	sessions, err := scanSessions(rows)
	if err != nil {
		return model.SessionResult{}, err
	}
	if len(sessions) == 0 {
		return model.SessionResult{}, fmt.Errorf("session %q: %w", id, ErrNotFound)
	}
	return sessions[0], nil
}

// SessionFilter narrows ListSessions.
type SessionFilter struct {
	LevelID string
	Since   *time.Time
	Until   *time.Time
}

// ListSessions returns sessions matching filter, oldest first.
func (s *Store) ListSessions(ctx context.Context, filter SessionFilter) ([]model.SessionResult, error) {
	clauses := []string{"1=1"}
	args := []any{}
	if filter.LevelID != "" {
		clauses = append(clauses, "level_id = ?")
		args = append(args, filter.LevelID)
	}
	if filter.Since != nil {
		clauses = append(clauses, "started_unix_ms >= ?")
		args = append(args, filter.Since.UnixMilli())
	}
	if filter.Until != nil {
		clauses = append(clauses, "started_unix_ms < ?")
		args = append(args, filter.Until.UnixMilli())
	}
	query := fmt.Sprintf(`SELECT %s FROM sessions WHERE %s ORDER BY started_unix_ms ASC, id ASC`,
		sessionColumns, strings.Join(clauses, " AND "))
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return scanSessions(rows)
}

// ListSessionsByLevel returns every session played on levelID, oldest first.
func (s *Store) ListSessionsByLevel(ctx context.Context, levelID string) ([]model.SessionResult, error) {
	return s.ListSessions(ctx, SessionFilter{LevelID: levelID})
}

// ListSessionsBetween returns sessions started in [from, to), oldest first.
func (s *Store) ListSessionsBetween(ctx context.Context, from, to time.Time) ([]model.SessionResult, error) {
	return s.ListSessions(ctx, SessionFilter{Since: &from, Until: &to})
}

// RecentSessions returns the n most recent sessions, oldest first.
func (s *Store) RecentSessions(ctx context.Context, n int) ([]model.SessionResult, error) {
	if n <= 0 {
		return nil, nil
	}
	query := `SELECT ` + sessionColumns + ` FROM (
		SELECT * FROM sessions ORDER BY started_unix_ms DESC, id DESC LIMIT ?
	) ORDER BY started_unix_ms ASC, id ASC`
	rows, err := s.db.QueryContext(ctx, query, n)
	if err != nil {
		return nil, err
	}
	return scanSessions(rows)
}

func scanSessions(rows *sql.Rows) ([]model.SessionResult, error) {
	defer closeRows(rows)

	var sessions []model.SessionResult
	for rows.Next() {
		var (
			r                        model.SessionResult
			nBack                    int
			mode                     string
			durationMs               int64
			startedAt, endedAt       string
			posJSON, audJSON, trJSON string
		)
		if err := rows.Scan(&r.ID, &r.Config.LevelID, &nBack, &mode, &r.Config.TrialCount, &durationMs,
			&startedAt, &endedAt, &r.Completed, &r.CombinedAccuracy, &r.CombinedDPrime,
			&posJSON, &audJSON, &trJSON); err != nil {
			return nil, err
		}
		r.Config.NBack = model.NBackLevel(nBack)
		r.Config.Mode = model.TrainingMode(mode)
		r.Config.TrialDuration = time.Duration(durationMs) * time.Millisecond
		var err error
		if r.StartedAt, err = parseTime(startedAt); err != nil {
			return nil, err
		}
		if r.EndedAt, err = parseTime(endedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(posJSON), &r.Position); err != nil {
			return nil, fmt.Errorf("decode position stats: %w", err)
		}
		if err := json.Unmarshal([]byte(audJSON), &r.Audio); err != nil {
			return nil, fmt.Errorf("decode audio stats: %w", err)
		}
		if err := json.Unmarshal([]byte(trJSON), &r.Trials); err != nil {
			return nil, fmt.Errorf("decode trials: %w", err)
		}
		sessions = append(sessions, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return sessions, nil
}
