package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/nhle/workhub/internal/model"
)

// SQLiteStore implements the Store interface using a local SQLite database.
type SQLiteStore struct {
	db *sqlx.DB
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath,
// enables WAL mode, and runs any pending schema migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	// A single connection keeps ":memory:" databases shared.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// runMigrations checks the current schema version and applies any
// outstanding migrations in order.
func (s *SQLiteStore) runMigrations() error {
	currentVersion := 0

	var tableCount int
	err := s.db.Get(
		&tableCount,
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	)
	if err != nil {
		return fmt.Errorf("checking schema_version table: %w", err)
	}

	if tableCount > 0 {
		err = s.db.Get(&currentVersion, "SELECT COALESCE(MAX(version), 0) FROM schema_version")
		if err != nil {
			return fmt.Errorf("reading schema version: %w", err)
		}
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}
		if _, err := s.db.Exec(m.sql); err != nil {
			return fmt.Errorf("applying migration v%d: %w", m.version, err)
		}
	}

	return nil
}

type groupRow struct {
	UserID         int64         `db:"user_id"`
	ID             int64         `db:"id"`
	Name           string        `db:"name"`
	Description    string        `db:"description"`
	LeaderID       sql.NullInt64 `db:"leader_id"`
	LeaderName     string        `db:"leader_name"`
	MemberCount    int           `db:"member_count"`
	TotalTasks     int           `db:"total_tasks"`
	CompletedTasks int           `db:"completed_tasks"`
	CompletionRate string        `db:"completion_rate"`
	CreatedAt      string        `db:"created_at"`
	Position       int           `db:"position"`
}

// SaveGroups replaces the cached group list for userID.
func (s *SQLiteStore) SaveGroups(ctx context.Context, userID int64, groups []model.Group) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM groups_snapshot WHERE user_id = ?", userID); err != nil {
		return fmt.Errorf("clearing cached groups: %w", err)
	}

	const query = `
		INSERT INTO groups_snapshot (
			user_id, id, name, description, leader_id, leader_name,
			member_count, total_tasks, completed_tasks, completion_rate,
			created_at, position
		) VALUES (
			:user_id, :id, :name, :description, :leader_id, :leader_name,
			:member_count, :total_tasks, :completed_tasks, :completion_rate,
			:created_at, :position
		)`

	for i, g := range groups {
		row := groupRow{
			UserID:         userID,
			ID:             g.ID,
			Name:           g.Name,
			Description:    g.Description,
			LeaderID:       nullInt(g.LeaderID),
			LeaderName:     g.LeaderName,
			MemberCount:    g.MemberCount,
			TotalTasks:     g.TotalTasks,
			CompletedTasks: g.CompletedTasks,
			CompletionRate: g.CompletionRate,
			CreatedAt:      g.CreatedAt.ServerString(),
			Position:       i,
		}
		if _, err := tx.NamedExecContext(ctx, query, row); err != nil {
			return fmt.Errorf("caching group %d: %w", g.ID, err)
		}
	}

	return tx.Commit()
}

// LoadGroups returns the cached group list for userID in the order it was
// saved. An empty cache yields a nil slice.
func (s *SQLiteStore) LoadGroups(ctx context.Context, userID int64) ([]model.Group, error) {
	var rows []groupRow
	err := s.db.SelectContext(ctx, &rows,
		"SELECT * FROM groups_snapshot WHERE user_id = ? ORDER BY position", userID)
	if err != nil {
		return nil, fmt.Errorf("querying cached groups: %w", err)
	}

	var groups []model.Group
	for _, r := range rows {
		createdAt, err := model.ParseTimestamp(r.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("parsing cached group %d: %w", r.ID, err)
		}
		groups = append(groups, model.Group{
			ID:             r.ID,
			Name:           r.Name,
			Description:    r.Description,
			LeaderID:       intPtr(r.LeaderID),
			LeaderName:     r.LeaderName,
			MemberCount:    r.MemberCount,
			TotalTasks:     r.TotalTasks,
			CompletedTasks: r.CompletedTasks,
			CompletionRate: r.CompletionRate,
			CreatedAt:      createdAt,
		})
	}
	return groups, nil
}

type notificationRow struct {
	UserID      int64          `db:"user_id"`
	ID          int64          `db:"id"`
	Title       string         `db:"title"`
	Message     string         `db:"message"`
	Type        string         `db:"type"`
	IsRead      bool           `db:"is_read"`
	IsImportant bool           `db:"is_important"`
	CreatedAt   string         `db:"created_at"`
	ReadAt      sql.NullString `db:"read_at"`
	TaskID      sql.NullInt64  `db:"task_id"`
	GroupID     sql.NullInt64  `db:"group_id"`
	ReportID    sql.NullInt64  `db:"report_id"`
	Position    int            `db:"position"`
}

// SaveNotifications replaces the cached feed page for userID.
func (s *SQLiteStore) SaveNotifications(ctx context.Context, userID int64, page *model.NotificationPage) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM notifications_snapshot WHERE user_id = ?", userID); err != nil {
		return fmt.Errorf("clearing cached notifications: %w", err)
	}

	const query = `
		INSERT INTO notifications_snapshot (
			user_id, id, title, message, type, is_read, is_important,
			created_at, read_at, task_id, group_id, report_id, position
		) VALUES (
			:user_id, :id, :title, :message, :type, :is_read, :is_important,
			:created_at, :read_at, :task_id, :group_id, :report_id, :position
		)`

	for i, n := range page.Notifications {
		row := notificationRow{
			UserID:      userID,
			ID:          n.ID,
			Title:       n.Title,
			Message:     n.Message,
			Type:        string(n.Type),
			IsRead:      n.IsRead,
			IsImportant: n.IsImportant,
			CreatedAt:   n.CreatedAt.ServerString(),
			TaskID:      nullInt(n.TaskID),
			GroupID:     nullInt(n.GroupID),
			ReportID:    nullInt(n.ReportID),
			Position:    i,
		}
		if n.ReadAt != nil && !n.ReadAt.IsZero() {
			row.ReadAt = sql.NullString{String: n.ReadAt.ServerString(), Valid: true}
		}
		if _, err := tx.NamedExecContext(ctx, query, row); err != nil {
			return fmt.Errorf("caching notification %d: %w", n.ID, err)
		}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT OR REPLACE INTO feed_meta (user_id, total, unread_count, fetched_at)
		VALUES (?, ?, ?, ?)`,
		userID, page.Total, page.UnreadCount, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("caching feed metadata: %w", err)
	}

	return tx.Commit()
}

// LoadNotifications returns the cached feed page for userID, or nil when
// nothing has been cached.
func (s *SQLiteStore) LoadNotifications(ctx context.Context, userID int64) (*model.NotificationPage, error) {
	var meta struct {
		Total       int `db:"total"`
		UnreadCount int `db:"unread_count"`
	}
	err := s.db.GetContext(ctx, &meta,
		"SELECT total, unread_count FROM feed_meta WHERE user_id = ?", userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying feed metadata: %w", err)
	}

	var rows []notificationRow
	err = s.db.SelectContext(ctx, &rows,
		"SELECT * FROM notifications_snapshot WHERE user_id = ? ORDER BY position", userID)
	if err != nil {
		return nil, fmt.Errorf("querying cached notifications: %w", err)
	}

	page := &model.NotificationPage{
		Notifications: make([]model.Notification, 0, len(rows)),
		Total:         meta.Total,
		UnreadCount:   meta.UnreadCount,
	}
	for _, r := range rows {
		n, err := r.toModel()
		if err != nil {
			return nil, err
		}
		page.Notifications = append(page.Notifications, n)
	}
	return page, nil
}

func (r notificationRow) toModel() (model.Notification, error) {
	createdAt, err := model.ParseTimestamp(r.CreatedAt)
	if err != nil {
		return model.Notification{}, fmt.Errorf("parsing cached notification %d: %w", r.ID, err)
	}

	n := model.Notification{
		ID:          r.ID,
		Title:       r.Title,
		Message:     r.Message,
		Type:        model.NotificationType(r.Type),
		IsRead:      r.IsRead,
		IsImportant: r.IsImportant,
		CreatedAt:   createdAt,
		TaskID:      intPtr(r.TaskID),
		GroupID:     intPtr(r.GroupID),
		ReportID:    intPtr(r.ReportID),
	}
	if r.ReadAt.Valid {
		readAt, err := model.ParseTimestamp(r.ReadAt.String)
		if err != nil {
			return model.Notification{}, fmt.Errorf("parsing cached notification %d: %w", r.ID, err)
		}
		n.ReadAt = &readAt
	}
	return n, nil
}

// Purge drops everything cached for userID.
func (s *SQLiteStore) Purge(ctx context.Context, userID int64) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"groups_snapshot", "notifications_snapshot", "feed_meta"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE user_id = ?", userID); err != nil {
			return fmt.Errorf("purging %s: %w", table, err)
		}
	}
	return tx.Commit()
}

func nullInt(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

func intPtr(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	n := v.Int64
	return &n
}
