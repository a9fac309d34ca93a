package store

import (
	"database/sql"
	"errors"
	"time"

	"github.com/goccy/go-json"
)

// Binding maps a gesture event to a plugin action. A nil Trigger matches any trigger.
type Binding struct {
	ID         string          `json:"id"`
	Gesture    string          `json:"gesture"`
	EventType  string          `json:"event_type"`
	Trigger    *int            `json:"trigger,omitempty"`
	PluginName string          `json:"plugin_name"`
	ActionName string          `json:"action_name"`
	Config     json.RawMessage `json:"config"`
	Enabled    bool            `json:"enabled"`
	CreatedAt  time.Time       `json:"created_at"`
}

// BindingRepository provides CRUD operations for bindings.
type BindingRepository struct {
	db *sql.DB
}

// Bindings returns the binding repository for this store.
func (s *Store) Bindings() *BindingRepository {
	return &BindingRepository{db: s.db}
}

const bindingColumns = `id, gesture, event_type, trigger_code, plugin_name, action_name, config, enabled, created_at`

func scanBinding(row rowScanner) (*Binding, error) {
	b := &Binding{}
	var trigger sql.NullInt64
	var config string
	var enabled int

	if err := row.Scan(&b.ID, &b.Gesture, &b.EventType, &trigger, &b.PluginName, &b.ActionName, &config, &enabled, &b.CreatedAt); err != nil {
		return nil, err
	}

	if trigger.Valid {
		v := int(trigger.Int64)
		b.Trigger = &v
	}
	b.Config = json.RawMessage(config)
	b.Enabled = enabled != 0
	return b, nil
}

func bindingArgs(b *Binding) (sql.NullInt64, string, int) {
	var trigger sql.NullInt64
	if b.Trigger != nil {
		trigger = sql.NullInt64{Int64: int64(*b.Trigger), Valid: true}
	}
	config := string(b.Config)
	if config == "" {
		config = "{}"
	}
	enabled := 0
	if b.Enabled {
		enabled = 1
	}
	return trigger, config, enabled
}

// Create inserts a new binding into the database.
func (r *BindingRepository) Create(b *Binding) error {
	b.CreatedAt = time.Now()
	trigger, config, enabled := bindingArgs(b)

	_, err := r.db.Exec(
		`INSERT INTO bindings (`+bindingColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ID, b.Gesture, b.EventType, trigger, b.PluginName, b.ActionName, config, enabled, b.CreatedAt,
	)
	return err
}

// GetByID retrieves a binding by its ID.
func (r *BindingRepository) GetByID(id string) (*Binding, error) {
	b, err := scanBinding(r.db.QueryRow(`SELECT `+bindingColumns+` FROM bindings WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return b, nil
}

func (r *BindingRepository) query(q string, args ...any) ([]*Binding, error) {
	rows, err := r.db.Query(q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bindings []*Binding
	for rows.Next() {
		b, err := scanBinding(rows)
		if err != nil {
			return nil, err
		}
		bindings = append(bindings, b)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return bindings, nil
}

// List retrieves all bindings from the database.
func (r *BindingRepository) List() ([]*Binding, error) {
	return r.query(`SELECT ` + bindingColumns + ` FROM bindings ORDER BY created_at DESC`)
}

// Match retrieves the enabled bindings for a gesture event.
func (r *BindingRepository) Match(gesture, eventType string, trigger int) ([]*Binding, error) {
	return r.query(
		`SELECT `+bindingColumns+` FROM bindings
		 WHERE enabled = 1 AND gesture = ? AND event_type = ?
		   AND (trigger_code IS NULL OR trigger_code = ?)
		 ORDER BY created_at`,
		gesture, eventType, trigger,
	)
}

// Update updates an existing binding in the database.
func (r *BindingRepository) Update(b *Binding) error {
	trigger, config, enabled := bindingArgs(b)

	result, err := r.db.Exec(
		`UPDATE bindings SET gesture = ?, event_type = ?, trigger_code = ?, plugin_name = ?, action_name = ?, config = ?, enabled = ?
		 WHERE id = ?`,
		b.Gesture, b.EventType, trigger, b.PluginName, b.ActionName, config, enabled, b.ID,
	)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// Delete removes a binding from the database by its ID.
func (r *BindingRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM bindings WHERE id = ?`, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}
