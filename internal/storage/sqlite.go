package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // SQLite driver registration.

	"github.com/hidarfaqeeh/v0-hidarforward-uz/internal/model"
	"github.com/hidarfaqeeh/v0-hidarforward-uz/migrations"
)

const timeLayout = "2006-01-02T15:04:05Z"

// SQLite implements Storage backed by a SQLite database.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at dsn and runs pending migrations.
func NewSQLite(dsn string) (*SQLite, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=OFF"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("disable foreign keys: %w", err)
	}

	if err := migrations.Run(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLite{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// CreateTask inserts a new task and populates its ID and timestamps.
func (s *SQLite) CreateTask(ctx context.Context, task *model.Task) error {
	targets, err := json.Marshal(task.TargetChatIDs)
	if err != nil {
		return fmt.Errorf("marshal targets: %w", err)
	}
	filters, err := json.Marshal(task.Filters)
	if err != nil {
		return fmt.Errorf("marshal filters: %w", err)
	}
	settings, err := json.Marshal(task.Settings)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	now := time.Now().UTC().Format(timeLayout)
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO tasks (user_id, name, source_chat_id, target_chat_ids, forward_type, is_active, filters, settings, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		task.UserID, task.Name, task.SourceChatID, string(targets), string(task.Mode),
		boolToInt(task.IsActive), string(filters), string(settings), now, now,
	)
	if err != nil {
		return fmt.Errorf("insert task: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}
	task.ID = id
	task.CreatedAt, _ = time.Parse(timeLayout, now)
	task.UpdatedAt = task.CreatedAt
	return nil
}

// GetTask returns a single task by its ID.
func (s *SQLite) GetTask(ctx context.Context, id int64) (*model.Task, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, name, source_chat_id, target_chat_ids, forward_type, is_active, filters, settings, created_at, updated_at
		 FROM tasks WHERE id = ?`, id,
	)
	return scanTask(row)
}

// ListUserTasks returns all tasks belonging to the given user.
func (s *SQLite) ListUserTasks(ctx context.Context, userID int64) ([]model.Task, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, name, source_chat_id, target_chat_ids, forward_type, is_active, filters, settings, created_at, updated_at
		 FROM tasks WHERE user_id = ? ORDER BY id`, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("query tasks: %w", err)
	}
	defer func() { _ = rows.Close() }()
	return scanTasks(rows)
}

// ListActiveTasks returns every active task, ordered by id.
func (s *SQLite) ListActiveTasks(ctx context.Context) ([]model.Task, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, name, source_chat_id, target_chat_ids, forward_type, is_active, filters, settings, created_at, updated_at
		 FROM tasks WHERE is_active = 1 ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("query active tasks: %w", err)
	}
	defer func() { _ = rows.Close() }()
	return scanTasks(rows)
}

// UpdateTask persists changes to an existing task.
func (s *SQLite) UpdateTask(ctx context.Context, task *model.Task) error {
	targets, err := json.Marshal(task.TargetChatIDs)
	if err != nil {
		return fmt.Errorf("marshal targets: %w", err)
	}
	filters, err := json.Marshal(task.Filters)
	if err != nil {
		return fmt.Errorf("marshal filters: %w", err)
	}
	settings, err := json.Marshal(task.Settings)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	now := time.Now().UTC().Format(timeLayout)
	_, err = s.db.ExecContext(ctx,
		`UPDATE tasks SET name = ?, source_chat_id = ?, target_chat_ids = ?, forward_type = ?, is_active = ?, filters = ?, settings = ?, updated_at = ?
		 WHERE id = ?`,
		task.Name, task.SourceChatID, string(targets), string(task.Mode),
		boolToInt(task.IsActive), string(filters), string(settings), now, task.ID,
	)
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	task.UpdatedAt, _ = time.Parse(timeLayout, now)
	return nil
}

// SetTaskActive flips a task's active flag.
func (s *SQLite) SetTaskActive(ctx context.Context, id int64, active bool) error {
	now := time.Now().UTC().Format(timeLayout)
	_, err := s.db.ExecContext(ctx,
		`UPDATE tasks SET is_active = ?, updated_at = ? WHERE id = ?`,
		boolToInt(active), now, id,
	)
	if err != nil {
		return fmt.Errorf("set task active: %w", err)
	}
	return nil
}

// DeleteTask removes a task owned by the given user. Delivery history
// is kept for the retention job to purge.
func (s *SQLite) DeleteTask(ctx context.Context, id, userID int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	return nil
}

// RecordDelivery appends one delivery record and populates its ID and
// ForwardedAt.
func (s *SQLite) RecordDelivery(ctx context.Context, rec *model.DeliveryRecord) error {
	delivered, err := json.Marshal(rec.Delivered)
	if err != nil {
		return fmt.Errorf("marshal delivered map: %w", err)
	}

	now := time.Now().UTC().Format(timeLayout)
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO deliveries (task_id, source_message_id, target_message_ids, forwarded_at)
		 VALUES (?, ?, ?, ?)`,
		rec.TaskID, rec.SourceMessageID, string(delivered), now,
	)
	if err != nil {
		return fmt.Errorf("insert delivery: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}
	rec.ID = id
	rec.ForwardedAt, _ = time.Parse(timeLayout, now)
	return nil
}

// ListRecentDeliveries returns the newest delivery records for a task.
func (s *SQLite) ListRecentDeliveries(ctx context.Context, taskID int64, limit int) ([]model.DeliveryRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, task_id, source_message_id, target_message_ids, forwarded_at
		 FROM deliveries WHERE task_id = ? ORDER BY id DESC LIMIT ?`,
		taskID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query deliveries: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var recs []model.DeliveryRecord
	for rows.Next() {
		var rec model.DeliveryRecord
		var delivered, forwardedStr string
		if err := rows.Scan(&rec.ID, &rec.TaskID, &rec.SourceMessageID, &delivered, &forwardedStr); err != nil {
			return nil, fmt.Errorf("scan delivery: %w", err)
		}
		if err := json.Unmarshal([]byte(delivered), &rec.Delivered); err != nil {
			return nil, fmt.Errorf("unmarshal delivered map: %w", err)
		}
		rec.ForwardedAt, _ = time.Parse(timeLayout, forwardedStr)
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

// PurgeDeliveriesBefore deletes delivery records older than the cutoff
// and returns the number of rows removed.
func (s *SQLite) PurgeDeliveriesBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM deliveries WHERE forwarded_at < ?`,
		cutoff.UTC().Format(timeLayout),
	)
	if err != nil {
		return 0, fmt.Errorf("purge deliveries: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}

// UpsertUser inserts or refreshes a user row, updating last_active.
func (s *SQLite) UpsertUser(ctx context.Context, user *model.User) error {
	now := time.Now().UTC().Format(timeLayout)
	var expires *string
	if user.PremiumExpires != nil {
		v := user.PremiumExpires.UTC().Format(timeLayout)
		expires = &v
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (user_id, username, first_name, is_premium, premium_expires, is_banned, ban_reason, created_at, last_active)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET username = excluded.username, first_name = excluded.first_name, last_active = excluded.last_active`,
		user.ID, user.Username, user.FirstName, boolToInt(user.IsPremium), expires,
		boolToInt(user.IsBanned), user.BanReason, now, now,
	)
	if err != nil {
		return fmt.Errorf("upsert user: %w", err)
	}
	return nil
}

// GetUser returns a user by ID, or (nil, nil) when unknown.
func (s *SQLite) GetUser(ctx context.Context, userID int64) (*model.User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT user_id, username, first_name, is_premium, premium_expires, is_banned, ban_reason, created_at, last_active
		 FROM users WHERE user_id = ?`, userID,
	)

	var u model.User
	var isPremium, isBanned int
	var expires, banReason, created, lastActive sql.NullString
	err := row.Scan(&u.ID, &u.Username, &u.FirstName, &isPremium, &expires, &isBanned, &banReason, &created, &lastActive)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan user: %w", err)
	}
	u.IsPremium = isPremium == 1
	u.IsBanned = isBanned == 1
	u.BanReason = banReason.String
	if expires.Valid {
		t, _ := time.Parse(timeLayout, expires.String)
		u.PremiumExpires = &t
	}
	if created.Valid {
		u.CreatedAt, _ = time.Parse(timeLayout, created.String)
	}
	if lastActive.Valid {
		u.LastActive, _ = time.Parse(timeLayout, lastActive.String)
	}
	return &u, nil
}

// SetUserBanned sets a user's ban flag and reason. The row is created
// if needed: banned senders are usually seen only in monitored chats
// and never interact with the bot themselves.
func (s *SQLite) SetUserBanned(ctx context.Context, userID int64, banned bool, reason string) error {
	now := time.Now().UTC().Format(timeLayout)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (user_id, is_banned, ban_reason, created_at, last_active)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET is_banned = excluded.is_banned, ban_reason = excluded.ban_reason`,
		userID, boolToInt(banned), reason, now, now,
	)
	if err != nil {
		return fmt.Errorf("set user banned: %w", err)
	}
	return nil
}

// SetUserPremium updates a user's premium flag and expiry.
func (s *SQLite) SetUserPremium(ctx context.Context, userID int64, premium bool, expires *time.Time) error {
	var expStr *string
	if expires != nil {
		v := expires.UTC().Format(timeLayout)
		expStr = &v
	}
	_, err := s.db.ExecContext(ctx,
		`UPDATE users SET is_premium = ?, premium_expires = ? WHERE user_id = ?`,
		boolToInt(premium), expStr, userID,
	)
	if err != nil {
		return fmt.Errorf("set user premium: %w", err)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

type scannable interface {
	Scan(dest ...any) error
}

func scanTask(row scannable) (*model.Task, error) {
	var t model.Task
	var isActive int
	var targets, mode string
	var filters, settings sql.NullString
	var created, updated sql.NullString
	err := row.Scan(&t.ID, &t.UserID, &t.Name, &t.SourceChatID, &targets, &mode,
		&isActive, &filters, &settings, &created, &updated)
	if err != nil {
		return nil, fmt.Errorf("scan task: %w", err)
	}
	t.Mode = model.ForwardMode(mode)
	t.IsActive = isActive == 1
	if err := json.Unmarshal([]byte(targets), &t.TargetChatIDs); err != nil {
		return nil, fmt.Errorf("unmarshal targets: %w", err)
	}
	if filters.Valid && filters.String != "" {
		if err := json.Unmarshal([]byte(filters.String), &t.Filters); err != nil {
			return nil, fmt.Errorf("unmarshal filters: %w", err)
		}
	}
	if settings.Valid && settings.String != "" {
		if err := json.Unmarshal([]byte(settings.String), &t.Settings); err != nil {
			return nil, fmt.Errorf("unmarshal settings: %w", err)
		}
	}
	if created.Valid {
		t.CreatedAt, _ = time.Parse(timeLayout, created.String)
	}
	if updated.Valid {
		t.UpdatedAt, _ = time.Parse(timeLayout, updated.String)
	}
	return &t, nil
}

func scanTasks(rows *sql.Rows) ([]model.Task, error) {
	var tasks []model.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *t)
	}
	return tasks, rows.Err()
}
