package store

import (
	"database/sql"
	"time"
)

// Frame is one raw wire message recorded in a session.
type Frame struct {
	ID         int64     `json:"id"`
	SessionID  string    `json:"session_id"`
	Seq        int       `json:"seq"`
	Payload    string    `json:"payload"`
	ZDepth     float64   `json:"z_depth"`
	ReceivedAt time.Time `json:"received_at"`
}

// FrameRepository provides access to recorded frames.
type FrameRepository struct {
	db *sql.DB
}

// Frames returns the frame repository for this store.
func (s *Store) Frames() *FrameRepository {
	return &FrameRepository{db: s.db}
}

// Append inserts a frame. ReceivedAt defaults to now.
func (r *FrameRepository) Append(f *Frame) error {
	if f.ReceivedAt.IsZero() {
		f.ReceivedAt = time.Now()
	}
	result, err := r.db.Exec(
		`INSERT INTO frames (session_id, seq, payload, z_depth, received_at) VALUES (?, ?, ?, ?, ?)`,
		f.SessionID, f.Seq, f.Payload, f.ZDepth, f.ReceivedAt,
	)
	if err != nil {
		return err
	}
	f.ID, err = result.LastInsertId()
	return err
}

// AppendBatch inserts several frames for a session in a single transaction,
// numbering them from firstSeq.
func (r *FrameRepository) AppendBatch(sessionID string, firstSeq int, payloads []string) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT INTO frames (session_id, seq, payload, received_at) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	now := time.Now()
	for i, payload := range payloads {
		if _, err := stmt.Exec(sessionID, firstSeq+i, payload, now); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// ListBySession retrieves a session's frames in sequence order. A limit of
// zero or less returns every frame.
func (r *FrameRepository) ListBySession(sessionID string, limit int) ([]Frame, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := r.db.Query(
		`SELECT id, session_id, seq, payload, z_depth, received_at
		 FROM frames
		 WHERE session_id = ?
		 ORDER BY seq
		 LIMIT ?`,
		sessionID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var frames []Frame
	for rows.Next() {
		var f Frame
		if err := rows.Scan(&f.ID, &f.SessionID, &f.Seq, &f.Payload, &f.ZDepth, &f.ReceivedAt); err != nil {
			return nil, err
		}
		frames = append(frames, f)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return frames, nil
}
