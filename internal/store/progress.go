package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/verte-zerg/nback/internal/model"
)

// GetProgress loads the progress record. found is false when nothing has
// been saved yet.
func (s *Store) GetProgress(ctx context.Context) (p model.UserProgress, found bool, err error) {
	return loadProgress(ctx, s.db)
}

// SaveProgress writes the progress record, its per-level bests, and any newly
// unlocked levels, stamping those with at. Unlocked levels are never removed.
func (s *Store) SaveProgress(ctx context.Context, p model.UserProgress, at time.Time) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer rollback(tx)

	if err := writeProgressRow(ctx, tx, p); err != nil {
		return err
	}
	for _, lp := range p.Levels {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO level_progress (level_id, best_accuracy, best_dprime, sessions_played, last_played_at)
			 VALUES (?, ?, ?, ?, ?)
			 ON CONFLICT(level_id) DO UPDATE SET
				best_accuracy = excluded.best_accuracy,
				best_dprime = excluded.best_dprime,
				sessions_played = excluded.sessions_played,
				last_played_at = excluded.last_played_at`,
			lp.LevelID, lp.BestAccuracy, lp.BestDPrime, lp.SessionsPlayed, formatTime(lp.LastPlayedAt),
		); err != nil {
			return err
		}
	}
	stamp := formatTime(at)
	for _, id := range p.UnlockedLevelIDs {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO unlocked_levels (level_id, unlocked_at) VALUES (?, ?)`, id, stamp); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// UnlockLevel marks levelID unlocked. It reports false when the level was
// already unlocked.
func (s *Store) UnlockLevel(ctx context.Context, levelID string, at time.Time) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO unlocked_levels (level_id, unlocked_at) VALUES (?, ?)`,
		levelID, formatTime(at))
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// UpdateStreak applies a session played on day to the day streak in a single
// transaction and returns the updated progress.
func (s *Store) UpdateStreak(ctx context.Context, day time.Time) (model.UserProgress, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return model.UserProgress{}, err
	}
	defer rollback(tx)

	p, _, err := loadProgress(ctx, tx)
	if err != nil {
		return model.UserProgress{}, err
	}
	p = p.RecordSessionDay(day)
	if err := writeProgressRow(ctx, tx, p); err != nil {
		return model.UserProgress{}, err
	}
	if err := tx.Commit(); err != nil {
		return model.UserProgress{}, err
	}
	return p, nil
}

func writeProgressRow(ctx context.Context, q querier, p model.UserProgress) error {
	var last sql.NullString
	if p.LastSessionDate != nil {
		last = sql.NullString{String: formatTime(*p.LastSessionDate), Valid: true}
	}
	_, err := q.ExecContext(ctx,
		`INSERT INTO progress (id, current_level_id, total_sessions, total_training_ms, current_streak, longest_streak, last_session_date)
		 VALUES (1, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			current_level_id = excluded.current_level_id,
			total_sessions = excluded.total_sessions,
			total_training_ms = excluded.total_training_ms,
			current_streak = excluded.current_streak,
			longest_streak = excluded.longest_streak,
			last_session_date = excluded.last_session_date`,
		p.CurrentLevelID, p.TotalSessions, p.TotalTrainingMs, p.CurrentStreak, p.LongestStreak, last,
	)
	return err
}

func loadProgress(ctx context.Context, q querier) (model.UserProgress, bool, error) {
	var (
		p     model.UserProgress
		last  sql.NullString
		found = true
	)
	err := q.QueryRowContext(ctx,
		`SELECT current_level_id, total_sessions, total_training_ms, current_streak, longest_streak, last_session_date
		 FROM progress WHERE id = 1`,
	).Scan(&p.CurrentLevelID, &p.TotalSessions, &p.TotalTrainingMs, &p.CurrentStreak, &p.LongestStreak, &last)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		found = false
	case err != nil:
		return model.UserProgress{}, false, err
	}
	if last.Valid {
		t, err := parseTime(last.String)
		if err != nil {
			return model.UserProgress{}, false, err
		}
		p.LastSessionDate = &t
	}

	ids, err := loadUnlocked(ctx, q)
	if err != nil {
		return model.UserProgress{}, false, err
	}
	p.UnlockedLevelIDs = ids
	if p.Levels, err = loadLevelProgress(ctx, q); err != nil {
		return model.UserProgress{}, false, err
	}
	return p, found || len(ids) > 0, nil
}

func loadUnlocked(ctx context.Context, q querier) ([]string, error) {
	rows, err := q.QueryContext(ctx, `SELECT level_id FROM unlocked_levels ORDER BY unlocked_at ASC, rowid ASC`)
	if err != nil {
		return nil, err
	}
	defer closeRows(rows)
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func loadLevelProgress(ctx context.Context, q querier) (map[string]model.LevelProgress, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT level_id, best_accuracy, best_dprime, sessions_played, last_played_at FROM level_progress`)
	if err != nil {
		return nil, err
	}
	defer closeRows(rows)
	out := map[string]model.LevelProgress{}
	for rows.Next() {
		var lp model.LevelProgress
		var lastPlayed string
		if err := rows.Scan(&lp.LevelID, &lp.BestAccuracy, &lp.BestDPrime, &lp.SessionsPlayed, &lastPlayed); err != nil {
			return nil, err
		}
		t, err := parseTime(lastPlayed)
		if err != nil {
			return nil, err
		}
		lp.LastPlayedAt = t
		out[lp.LevelID] = lp
	}
	return out, rows.Err()
}
