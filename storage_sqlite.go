package weatherpod

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"
)

var _ SessionService = &SQLiteSessionService{}

// SQLiteSessionService implements SessionService on a SQLite database file.
// Events are stored as JSON documents in append order.
type SQLiteSessionService struct {
	db *sql.DB
}

// NewSQLiteSessionService opens the database at dbPath and creates the schema
// if it doesn't exist.
func NewSQLiteSessionService(dbPath string) (*SQLiteSessionService, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// sqlite allows a single writer
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	s := &SQLiteSessionService{db: db}
	if err := s.initDB(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	return s, nil
}

// initDB creates the necessary tables if they don't exist.
func (s *SQLiteSessionService) initDB() error {
	createTablesSQL := `
	CREATE TABLE IF NOT EXISTS sessions (
		app_name TEXT NOT NULL,
		user_id TEXT NOT NULL,
		session_id TEXT NOT NULL,
		state TEXT NOT NULL DEFAULT '{}',
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL,
		PRIMARY KEY (app_name, user_id, session_id)
	);
	CREATE TABLE IF NOT EXISTS events (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		event_id TEXT NOT NULL,
		app_name TEXT NOT NULL,
		user_id TEXT NOT NULL,
		session_id TEXT NOT NULL,
		data TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS events_session ON events (app_name, user_id, session_id, seq);`

	if _, err := s.db.Exec(createTablesSQL); err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteSessionService) Close() error {
	return s.db.Close()
}

func (s *SQLiteSessionService) Create(ctx context.Context, key Key, state map[string]any) (*Session, error) {
	if err := key.validateOwner(); err != nil {
		return nil, err
	}
	key, err := key.withID()
	if err != nil {
		return nil, err
	}
	if state == nil {
		state = map[string]any{}
	}
	stateJSON, err := json.Marshal(state)
	if err != nil {
		return nil, fmt.Errorf("failed to encode state: %w", err)
	}

	now := time.Now()
	_, err = s.db.ExecContext(ctx, `
	INSERT INTO sessions (app_name, user_id, session_id, state, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?)`,
		key.AppName, key.UserID, key.SessionID, string(stateJSON), now.UnixNano(), now.UnixNano())
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
			return nil, ErrSessionExists
		}
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	sess := &Session{
		AppName:   key.AppName,
		UserID:    key.UserID,
		ID:        key.SessionID,
		State:     map[string]any{},
		CreatedAt: time.Unix(0, now.UnixNano()),
		UpdatedAt: time.Unix(0, now.UnixNano()),
	}
	if err := json.Unmarshal(stateJSON, &sess.State); err != nil {
		return nil, fmt.Errorf("failed to decode state: %w", err)
	}
	return sess, nil
}

func (s *SQLiteSessionService) Get(ctx context.Context, key Key) (*Session, error) {
	if err := key.Validate(); err != nil {
		return nil, err
	}
	sess, err := s.getSession(ctx, key)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
	SELECT data FROM events
	WHERE app_name = ? AND user_id = ? AND session_id = ?
	ORDER BY seq`, key.AppName, key.UserID, key.SessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		evt := &Event{}
		if err := json.Unmarshal([]byte(data), evt); err != nil {
			return nil, fmt.Errorf("failed to decode event: %w", err)
		}
		sess.Events = append(sess.Events, evt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return sess, nil
}

func (s *SQLiteSessionService) getSession(ctx context.Context, key Key) (*Session, error) {
	var (
		stateJSON            string
		createdAt, updatedAt int64
	)
	err := s.db.QueryRowContext(ctx, `
	SELECT state, created_at, updated_at FROM sessions
	WHERE app_name = ? AND user_id = ? AND session_id = ?`,
		key.AppName, key.UserID, key.SessionID).Scan(&stateJSON, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query session: %w", err)
	}
	sess := &Session{
		AppName:   key.AppName,
		UserID:    key.UserID,
		ID:        key.SessionID,
		CreatedAt: time.Unix(0, createdAt),
		UpdatedAt: time.Unix(0, updatedAt),
	}
	if err := json.Unmarshal([]byte(stateJSON), &sess.State); err != nil {
		return nil, fmt.Errorf("failed to decode state: %w", err)
	}
	if sess.State == nil {
		sess.State = map[string]any{}
	}
	return sess, nil
}

func (s *SQLiteSessionService) List(ctx context.Context, appName, userID string) ([]*Session, error) {
	if err := (Key{AppName: appName, UserID: userID}).validateOwner(); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `
	SELECT session_id FROM sessions
	WHERE app_name = ? AND user_id = ?
	ORDER BY created_at`, appName, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	out := make([]*Session, 0, len(ids))
	for _, id := range ids {
		sess, err := s.getSession(ctx, Key{AppName: appName, UserID: userID, SessionID: id})
		if err != nil {
			return nil, err
		}
		out = append(out, sess)
	}
	return out, nil
}

func (s *SQLiteSessionService) Delete(ctx context.Context, key Key) error {
	if err := key.Validate(); err != nil {
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
	DELETE FROM sessions WHERE app_name = ? AND user_id = ? AND session_id = ?`,
		key.AppName, key.UserID, key.SessionID)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrSessionNotFound
	}
	if _, err := tx.ExecContext(ctx, `
	DELETE FROM events WHERE app_name = ? AND user_id = ? AND session_id = ?`,
		key.AppName, key.UserID, key.SessionID); err != nil {
		return fmt.Errorf("failed to delete events: %w", err)
	}
	return tx.Commit()
}

// AppendEvent stores evt and the merged session state in one transaction and
// mirrors the change on sess.
func (s *SQLiteSessionService) AppendEvent(ctx context.Context, sess *Session, evt *Event) error {
	if evt == nil || evt.Partial {
		return nil
	}
	key := sess.Key()
	if err := key.Validate(); err != nil {
		return err
	}
	data, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var stateJSON string
	err = tx.QueryRowContext(ctx, `
	SELECT state FROM sessions WHERE app_name = ? AND user_id = ? AND session_id = ?`,
		key.AppName, key.UserID, key.SessionID).Scan(&stateJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrSessionNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to query session: %w", err)
	}

	stored := &Session{}
	if err := json.Unmarshal([]byte(stateJSON), &stored.State); err != nil {
		return fmt.Errorf("failed to decode state: %w", err)
	}
	stored.apply(evt)
	newState, err := json.Marshal(stored.State)
	if err != nil {
		return fmt.Errorf("failed to encode state: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
	INSERT INTO events (event_id, app_name, user_id, session_id, data, created_at)
	VALUES (?, ?, ?, ?, ?, ?)`,
		evt.ID, key.AppName, key.UserID, key.SessionID, string(data), evt.Timestamp.UnixNano()); err != nil {
		return fmt.Errorf("failed to insert event: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `
	UPDATE sessions SET state = ?, updated_at = ?
	WHERE app_name = ? AND user_id = ? AND session_id = ?`,
		string(newState), evt.Timestamp.UnixNano(), key.AppName, key.UserID, key.SessionID); err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit event: %w", err)
	}

	sess.apply(evt)
	return nil
}
