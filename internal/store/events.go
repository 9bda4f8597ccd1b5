package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/verte-zerg/nback/internal/model"
)

// EventFilter narrows QueryEvents. Zero fields match everything.
type EventFilter struct {
	Category  model.EventCategory
	Type      model.EventType
	SessionID string
	Since     *time.Time
	Until     *time.Time
}

// AppendEvent stores an analytics event and returns its id. A missing
// category is derived from the event type.
func (s *Store) AppendEvent(ctx context.Context, e model.AnalyticsEvent) (int64, error) {
	if e.Category == "" {
		e.Category = model.CategoryFor(e.Type)
	}
	payload := e.Payload
	if payload == nil {
		payload = map[string]any{}
	}
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return 0, fmt.Errorf("encode event payload: %w", err)
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO analytics_events (type, category, session_id, ts, ts_unix_ms, payload)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		string(e.Type), string(e.Category), e.SessionID, formatTime(e.Timestamp), e.Timestamp.UnixMilli(), string(payloadJSON),
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// QueryEvents returns events matching filter, oldest first.
func (s *Store) QueryEvents(ctx context.Context, filter EventFilter) ([]model.AnalyticsEvent, error) {
	clauses := []string{"1=1"}
	args := []any{}
	if filter.Category != "" {
		clauses = append(clauses, "category = ?")
		args = append(args, string(filter.Category))
	}
	if filter.Type != "" {
		clauses = append(clauses, "type = ?")
		args = append(args, string(filter.Type))
	}
	if filter.SessionID != "" {
		clauses = append(clauses, "session_id = ?")
		args = append(args, filter.SessionID)
	}
	if filter.Since != nil {
		clauses = append(clauses, "ts_unix_ms >= ?")
		args = append(args, filter.Since.UnixMilli())
	}
	if filter.Until != nil {
		clauses = append(clauses, "ts_unix_ms < ?")
		args = append(args, filter.Until.UnixMilli())
	}
	query := fmt.Sprintf(`SELECT id, type, category, session_id, ts, payload
		FROM analytics_events
		WHERE %s
		ORDER BY ts_unix_ms ASC, id ASC`, strings.Join(clauses, " AND "))
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer closeRows(rows)

	var events []model.AnalyticsEvent
	for rows.Next() {
		var (
			e                 model.AnalyticsEvent
			typ, cat, ts, raw string
		)
		if err := rows.Scan(&e.ID, &typ, &cat, &e.SessionID, &ts, &raw); err != nil {
			return nil, err
		}
		e.Type = model.EventType(typ)
		e.Category = model.EventCategory(cat)
		if e.Timestamp, err = parseTime(ts); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(raw), &e.Payload); err != nil {
			return nil, fmt.Errorf("decode event payload: %w", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return events, nil
}
