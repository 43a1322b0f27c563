package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"socratic-coach/backend/internal/model"
)

type sqliteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(db *sql.DB) Repository {
	return &sqliteRepository{db: db}
}

const threadColumns = `id, user_id, title, problem, questions, summary, action_plan, coaching_messages, status, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanThread(row rowScanner) (*model.Thread, error) {
	var (
		t                  model.Thread
		userID             sql.NullString
		summary, plan      sql.NullString
		questions, coached string
	)
	if err := row.Scan(&t.ID, &userID, &t.Title, &t.Problem, &questions, &summary, &plan, &coached, &t.Status, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	if userID.Valid {
		t.UserID = &userID.String
	}
	if summary.Valid {
		t.Summary = &summary.String
	}
	if plan.Valid {
		t.ActionPlan = &plan.String
	}
	if err := json.Unmarshal([]byte(questions), &t.Questions); err != nil {
		return nil, fmt.Errorf("could not decode questions of thread %s: %w", t.ID, err)
	}
	if err := json.Unmarshal([]byte(coached), &t.CoachingMessages); err != nil {
		return nil, fmt.Errorf("could not decode coaching messages of thread %s: %w", t.ID, err)
	}
	return &t, nil
}

// encodeLists serializes the append-only lists to their TEXT columns.
func encodeLists(t *model.Thread) (string, string, error) {
	questions := t.Questions
	if questions == nil {
		questions = []model.QuestionAnswer{}
	}
	coached := t.CoachingMessages
	if coached == nil {
		coached = []model.CoachingMessage{}
	}
	q, err := json.Marshal(questions)
	if err != nil {
		return "", "", fmt.Errorf("could not encode questions: %w", err)
	}
	c, err := json.Marshal(coached)
	if err != nil {
		return "", "", fmt.Errorf("could not encode coaching messages: %w", err)
	}
	return string(q), string(c), nil
}

func (r *sqliteRepository) CreateThread(ctx context.Context, thread *model.Thread, messages []model.Message) error {
	questions, coached, err := encodeLists(thread)
	if err != nil {
		return err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", err)
	}
	// Ensure transaction is rolled back on error
	defer func() { _ = tx.Rollback() }()

	query := `INSERT INTO conversation_threads (` + threadColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = tx.ExecContext(ctx, query,
		thread.ID, thread.UserID, thread.Title, thread.Problem, questions,
		thread.Summary, thread.ActionPlan, coached, thread.Status,
		thread.CreatedAt, thread.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("could not insert thread: %w", err)
	}

	if err := insertMessages(ctx, tx, thread.ID, messages); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *sqliteRepository) GetThread(ctx context.Context, threadID string) (*model.Thread, error) {
	query := `SELECT ` + threadColumns + ` FROM conversation_threads WHERE id = ?`
	thread, err := scanThread(r.db.QueryRowContext(ctx, query, threadID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return thread, nil
}

func (r *sqliteRepository) ListThreads(ctx context.Context, userID *string) ([]*model.Thread, error) {
	query := `SELECT ` + threadColumns + ` FROM conversation_threads WHERE user_id IS NULL ORDER BY updated_at DESC`
	var args []any
	if userID != nil {
		query = `SELECT ` + threadColumns + ` FROM conversation_threads WHERE user_id = ? ORDER BY updated_at DESC`
		args = append(args, *userID)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	threads := []*model.Thread{}
	for rows.Next() {
		thread, err := scanThread(rows)
		if err != nil {
			return nil, err
		}
		threads = append(threads, thread)
	}
	return threads, rows.Err()
}

func (r *sqliteRepository) UpdateThread(ctx context.Context, thread *model.Thread, messages []model.Message) error {
	questions, coached, err := encodeLists(thread)
	if err != nil {
		return err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query := `
		UPDATE conversation_threads
		SET title = ?, problem = ?, questions = ?, summary = ?, action_plan = ?,
		    coaching_messages = ?, status = ?, updated_at = ?
		WHERE id = ?
	`
	res, err := tx.ExecContext(ctx, query,
		thread.Title, thread.Problem, questions, thread.Summary, thread.ActionPlan,
		coached, thread.Status, thread.UpdatedAt, thread.ID,
	)
	if err != nil {
		return fmt.Errorf("could not update thread: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}

	if err := insertMessages(ctx, tx, thread.ID, messages); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *sqliteRepository) UpdateThreadStatus(ctx context.Context, threadID string, status model.ThreadStatus) error {
	query := "UPDATE conversation_threads SET status = ?, updated_at = ? WHERE id = ?"
	res, err := r.db.ExecContext(ctx, query, status, time.Now().UTC(), threadID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *sqliteRepository) DeleteThread(ctx context.Context, threadID string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	// Messages go first so the delete also holds on databases without
	// ON DELETE CASCADE enforcement.
	if _, err := tx.ExecContext(ctx, "DELETE FROM conversation_messages WHERE thread_id = ?", threadID); err != nil {
		return fmt.Errorf("could not delete messages: %w", err)
	}
	res, err := tx.ExecContext(ctx, "DELETE FROM conversation_threads WHERE id = ?", threadID)
	if err != nil {
		return fmt.Errorf("could not delete thread: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return tx.Commit()
}

func (r *sqliteRepository) GetMessages(ctx context.Context, threadID string) ([]model.Message, error) {
	query := `
		SELECT id, thread_id, type, content, metadata, created_at
		FROM conversation_messages
		WHERE thread_id = ?
		ORDER BY created_at ASC, rowid ASC
	`
	rows, err := r.db.QueryContext(ctx, query, threadID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	messages := []model.Message{}
	for rows.Next() {
		var msg model.Message
		var metadata sql.NullString
		if err := rows.Scan(&msg.ID, &msg.ThreadID, &msg.Type, &msg.Content, &metadata, &msg.CreatedAt); err != nil {
			return nil, err
		}
		if metadata.Valid {
			msg.Metadata = json.RawMessage(metadata.String)
		}
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}

func (r *sqliteRepository) UpsertUser(ctx context.Context, user *model.User) error {
	query := `
		INSERT INTO users (id, email, first_name, last_name, profile_image_url, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			email = excluded.email,
			first_name = excluded.first_name,
			last_name = excluded.last_name,
			profile_image_url = excluded.profile_image_url,
			updated_at = excluded.updated_at
	`
	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx, query, user.ID, user.Email, user.FirstName, user.LastName, user.ProfileImageURL, now, now)
	if err != nil {
		return fmt.Errorf("could not upsert user: %w", err)
	}
	return nil
}

func (r *sqliteRepository) GetUser(ctx context.Context, userID string) (*model.User, error) {
	query := `SELECT id, email, first_name, last_name, profile_image_url, created_at, updated_at FROM users WHERE id = ?`
	var (
		u                          model.User
		email, first, last, avatar sql.NullString
	)
	err := r.db.QueryRowContext(ctx, query, userID).Scan(&u.ID, &email, &first, &last, &avatar, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	u.Email, u.FirstName, u.LastName, u.ProfileImageURL = email.String, first.String, last.String, avatar.String
	return &u, nil
}

func insertMessages(ctx context.Context, tx *sql.Tx, threadID string, messages []model.Message) error {
	if len(messages) == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO conversation_messages (id, thread_id, type, content, metadata, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("could not prepare message insert: %w", err)
	}
	defer stmt.Close()

	for _, msg := range messages {
		var metadata sql.NullString
		if len(msg.Metadata) > 0 && string(msg.Metadata) != "null" {
			metadata.String = string(msg.Metadata)
			metadata.Valid = true
		}
		if _, err := stmt.ExecContext(ctx, msg.ID, threadID, msg.Type, msg.Content, metadata, msg.CreatedAt); err != nil {
			return fmt.Errorf("could not insert %s message: %w", msg.Type, err)
		}
	}
	return nil
}
