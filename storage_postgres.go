package weatherpod

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var _ SessionService = &PostgresSessionService{}

type sessionRow struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement"`
	AppName   string    `gorm:"type:varchar(255);not null;uniqueIndex:idx_app_user_session,priority:1"`
	UserID    string    `gorm:"type:varchar(255);not null;uniqueIndex:idx_app_user_session,priority:2"`
	SessionID string    `gorm:"type:varchar(255);not null;uniqueIndex:idx_app_user_session,priority:3"`
	State     []byte    `gorm:"type:bytea"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (sessionRow) TableName() string {
	return "weather_sessions"
}

type eventRow struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement"`
	AppName   string    `gorm:"type:varchar(255);not null;index:idx_app_user_session_event,priority:1"`
	UserID    string    `gorm:"type:varchar(255);not null;index:idx_app_user_session_event,priority:2"`
	SessionID string    `gorm:"type:varchar(255);not null;index:idx_app_user_session_event,priority:3"`
	EventID   string    `gorm:"type:varchar(64);not null"`
	EventData []byte    `gorm:"type:bytea;not null"`
	Timestamp time.Time `gorm:"not null"`
}

func (eventRow) TableName() string {
	return "weather_session_events"
}

// PostgresSessionService implements SessionService with gorm on PostgreSQL.
type PostgresSessionService struct {
	db *gorm.DB
}

// NewPostgresSessionService connects to dsn and migrates the schema.
func NewPostgresSessionService(dsn string) (*PostgresSessionService, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return NewPostgresSessionServiceFromDB(db)
}

// NewPostgresSessionServiceFromDB uses an existing gorm connection.
func NewPostgresSessionServiceFromDB(db *gorm.DB) (*PostgresSessionService, error) {
	if err := db.AutoMigrate(&sessionRow{}, &eventRow{}); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}
	return &PostgresSessionService{db: db}, nil
}

func (s *PostgresSessionService) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *PostgresSessionService) Create(ctx context.Context, key Key, state map[string]any) (*Session, error) {
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
	row := &sessionRow{
		AppName:   key.AppName,
		UserID:    key.UserID,
		SessionID: key.SessionID,
		State:     stateJSON,
		CreatedAt: now,
		UpdatedAt: now,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&sessionRow{}).
			Where("app_name = ? AND user_id = ? AND session_id = ?", key.AppName, key.UserID, key.SessionID).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrSessionExists
		}
		return tx.Create(row).Error
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, ErrSessionExists
	}
	if err != nil {
		if errors.Is(err, ErrSessionExists) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return row.toSession()
}

func (s *PostgresSessionService) Get(ctx context.Context, key Key) (*Session, error) {
	if err := key.Validate(); err != nil {
		return nil, err
	}
	db := s.db.WithContext(ctx)
	var row sessionRow
	err := db.Where("app_name = ? AND user_id = ? AND session_id = ?", key.AppName, key.UserID, key.SessionID).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query session: %w", err)
	}
	sess, err := row.toSession()
	if err != nil {
		return nil, err
	}

	var events []eventRow
	if err := db.Where("app_name = ? AND user_id = ? AND session_id = ?", key.AppName, key.UserID, key.SessionID).
		Order("id").Find(&events).Error; err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	for _, e := range events {
		evt := &Event{}
		if err := json.Unmarshal(e.EventData, evt); err != nil {
			return nil, fmt.Errorf("failed to decode event: %w", err)
		}
		sess.Events = append(sess.Events, evt)
	}
	return sess, nil
}

func (s *PostgresSessionService) List(ctx context.Context, appName, userID string) ([]*Session, error) {
	if err := (Key{AppName: appName, UserID: userID}).validateOwner(); err != nil {
		return nil, err
	}
	var rows []sessionRow
	if err := s.db.WithContext(ctx).Where("app_name = ? AND user_id = ?", appName, userID).
		Order("created_at").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	out := make([]*Session, 0, len(rows))
	for _, row := range rows {
		sess, err := row.toSession()
		if err != nil {
			return nil, err
		}
		out = append(out, sess)
	}
	return out, nil
}

func (s *PostgresSessionService) Delete(ctx context.Context, key Key) error {
	if err := key.Validate(); err != nil {
		return err
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("app_name = ? AND user_id = ? AND session_id = ?", key.AppName, key.UserID, key.SessionID).
			Delete(&sessionRow{})
		if res.Error != nil {
			return fmt.Errorf("failed to delete session: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrSessionNotFound
		}
		if err := tx.Where("app_name = ? AND user_id = ? AND session_id = ?", key.AppName, key.UserID, key.SessionID).
			Delete(&eventRow{}).Error; err != nil {
			return fmt.Errorf("failed to delete events: %w", err)
		}
		return nil
	})
}

func (s *PostgresSessionService) AppendEvent(ctx context.Context, sess *Session, evt *Event) error {
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

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row sessionRow
		err := tx.Where("app_name = ? AND user_id = ? AND session_id = ?", key.AppName, key.UserID, key.SessionID).
			First(&row).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrSessionNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to query session: %w", err)
		}

		stored := &Session{}
		if len(row.State) > 0 {
			if err := json.Unmarshal(row.State, &stored.State); err != nil {
				return fmt.Errorf("failed to decode state: %w", err)
			}
		}
		stored.apply(evt)
		newState, err := json.Marshal(stored.State)
		if err != nil {
			return fmt.Errorf("failed to encode state: %w", err)
		}

		if err := tx.Create(&eventRow{
			AppName:   key.AppName,
			UserID:    key.UserID,
			SessionID: key.SessionID,
			EventID:   evt.ID,
			EventData: data,
			Timestamp: evt.Timestamp,
		}).Error; err != nil {
			return fmt.Errorf("failed to insert event: %w", err)
		}
		return tx.Model(&row).Updates(map[string]any{
			"state":      newState,
			"updated_at": evt.Timestamp,
		}).Error
	})
	if err != nil {
		return err
	}
	sess.apply(evt)
	return nil
}

func (r *sessionRow) toSession() (*Session, error) {
	sess := &Session{
		AppName:   r.AppName,
		UserID:    r.UserID,
		ID:        r.SessionID,
		State:     map[string]any{},
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
	if len(r.State) > 0 {
		if err := json.Unmarshal(r.State, &sess.State); err != nil {
			return nil, fmt.Errorf("failed to decode state: %w", err)
		}
	}
	return sess, nil
}
