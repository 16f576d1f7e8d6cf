package store

import (
	"context"
	"fmt"

	"github.com/narrata/loom/internal/content"
)

// SaveTemplate upserts a template body keyed by its id.
func (s *Store) SaveTemplate(ctx context.Context, tpl content.Template) error {
	if tpl.ID == "" {
		return fmt.Errorf("save template: id is required")
	}
	body, err := marshalBody(tpl)
	if err != nil {
		return fmt.Errorf("save template %s: %w", tpl.ID, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO templates (id, body) VALUES (?, ?)
		ON CONFLICT(id) DO UPDATE SET body = excluded.body
	`, tpl.ID, body)
	if err != nil {
		return fmt.Errorf("save template %s: %w", tpl.ID, err)
	}
	return nil
}

// LoadTemplates reads the whole catalog, ordered by id for deterministic
// registration order.
func (s *Store) LoadTemplates(ctx context.Context) ([]content.Template, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, body FROM templates ORDER BY id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query templates: %w", err)
	}
	defer rows.Close()

	var templates []content.Template
	for rows.Next() {
		var id, body string
		if err := rows.Scan(&id, &body); err != nil {
			return nil, fmt.Errorf("scan template: %w", err)
		}
		var tpl content.Template
		if err := unmarshalBody(body, &tpl); err != nil {
			return nil, fmt.Errorf("decode template %s: %w", id, err)
		}
		tpl.ID = id
		templates = append(templates, tpl)
	}
	return templates, rows.Err()
}

// DeleteTemplate removes a template from the catalog. Returns false if the
// id was not present.
func (s *Store) DeleteTemplate(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM templates WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete template %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete template %s: %w", id, err)
	}
	return n > 0, nil
}

// SaveRule upserts a rule body keyed by name.
func (s *Store) SaveRule(ctx context.Context, name string, rule content.Rule) error {
	if name == "" {
		return fmt.Errorf("save rule: name is required")
	}
	body, err := marshalBody(rule)
	if err != nil {
		return fmt.Errorf("save rule %s: %w", name, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO rules (name, body) VALUES (?, ?)
		ON CONFLICT(name) DO UPDATE SET body = excluded.body
	`, name, body)
	if err != nil {
		return fmt.Errorf("save rule %s: %w", name, err)
	}
	return nil
}

// LoadRules reads every rule, ordered by name so AddRule insertion order
// (the priority tie-break) is reproducible across process restarts.
func (s *Store) LoadRules(ctx context.Context) (map[string]content.Rule, []string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, body FROM rules ORDER BY name ASC
	`)
	if err != nil {
		return nil, nil, fmt.Errorf("query rules: %w", err)
	}
	defer rows.Close()

	out := make(map[string]content.Rule)
	var order []string
	for rows.Next() {
		var name, body string
		if err := rows.Scan(&name, &body); err != nil {
			return nil, nil, fmt.Errorf("scan rule: %w", err)
		}
		var rule content.Rule
		if err := unmarshalBody(body, &rule); err != nil {
			return nil, nil, fmt.Errorf("decode rule %s: %w", name, err)
		}
		rule.Name = name
		out[name] = rule
		order = append(order, name)
	}
	return out, order, rows.Err()
}
