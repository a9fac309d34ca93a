package store

import (
	"database/sql"
	"time"

	"github.com/goccy/go-json"

	"github.com/ayusman/mudra/internal/gesture"
)

// Event is a gesture event recorded in a session.
type Event struct {
	ID        int64           `json:"id"`
	SessionID string          `json:"session_id"`
	EventID   uint64          `json:"event_id"`
	Gesture   string          `json:"gesture"`
	Type      string          `json:"type"`
	Trigger   int             `json:"trigger"`
	Location  json.RawMessage `json:"location,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// EventRepository provides access to recorded gesture events.
type EventRepository struct {
	db *sql.DB
}

// Events returns the event repository for this store.
func (s *Store) Events() *EventRepository {
	return &EventRepository{db: s.db}
}

// NewEvent converts a gesture event into its stored form.
func NewEvent(sessionID string, e gesture.Event) (*Event, error) {
	loc, err := e.LocationJSON()
	if err != nil {
		return nil, err
	}
	return &Event{
		SessionID: sessionID,
		EventID:   e.ID,
		Gesture:   string(e.Gesture),
		Type:      e.Type.String(),
		Trigger:   e.Trigger,
		Location:  loc,
		CreatedAt: e.Time,
	}, nil
}

// Append inserts an event. CreatedAt defaults to now.
func (r *EventRepository) Append(e *Event) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}

	var loc sql.NullString
	if len(e.Location) > 0 {
		loc = sql.NullString{String: string(e.Location), Valid: true}
	}

	result, err := r.db.Exec(
		`INSERT INTO events (session_id, event_id, gesture, type, trigger_code, location, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.SessionID, int64(e.EventID), e.Gesture, e.Type, e.Trigger, loc, e.CreatedAt,
	)
	if err != nil {
		return err
	}
	e.ID, err = result.LastInsertId()
	return err
}

// ListBySession retrieves a session's events in emission order.
func (r *EventRepository) ListBySession(sessionID string) ([]Event, error) {
	rows, err := r.db.Query(
		`SELECT id, session_id, event_id, gesture, type, trigger_code, location, created_at
		 FROM events
		 WHERE session_id = ?
		 ORDER BY id`,
		sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var e Event
		var eventID int64
		var loc sql.NullString
		if err := rows.Scan(&e.ID, &e.SessionID, &eventID, &e.Gesture, &e.Type, &e.Trigger, &loc, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.EventID = uint64(eventID)
		if loc.Valid {
			e.Location = json.RawMessage(loc.String)
		}
		events = append(events, e)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return events, nil
}
