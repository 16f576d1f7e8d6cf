package store

import (
	"context"
	"fmt"

	"github.com/narrata/loom/internal/content"
)

// ArchiveEvent appends a generated event to the archive.
// Uses ON CONFLICT(id) DO NOTHING for idempotency - archiving the same event
// twice is a no-op, not an error.
func (s *Store) ArchiveEvent(ctx context.Context, ev content.Event) error {
	if ev.ID == "" {
		return fmt.Errorf("archive event: id is required")
	}
	body, err := marshalBody(ev)
	if err != nil {
		return fmt.Errorf("archive event %s: %w", ev.ID, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO events (id, template_id, body) VALUES (?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, ev.ID, ev.TemplateID, body)
	if err != nil {
		return fmt.Errorf("archive event %s: %w", ev.ID, err)
	}
	return nil
}

// EventsForTemplate reads archived events for one template, ordered by id.
// UUIDv7 event ids are time-sortable, so id order is creation order.
func (s *Store) EventsForTemplate(ctx context.Context, templateID string) ([]content.Event, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, body FROM events
		WHERE template_id = ?
		ORDER BY id ASC
	`, templateID)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var events []content.Event
	for rows.Next() {
		var id, body string
		if err := rows.Scan(&id, &body); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		var ev content.Event
		if err := unmarshalBody(body, &ev); err != nil {
			return nil, fmt.Errorf("decode event %s: %w", id, err)
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

// EventCount returns the number of archived events.
func (s *Store) EventCount(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM events`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count events: %w", err)
	}
	return n, nil
}
