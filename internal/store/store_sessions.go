package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"pollkit/internal/deck"
	"pollkit/internal/services"
)

// CreateSession inserts a new session in the generated state.
func (s *Store) CreateSession(ctx context.Context, title, templatePath string) (*Session, error) {
	if title == "" {
		return nil, services.Wrap(services.ErrValidation, "store", "create session", "session title is required", nil)
	}
	timestamp := time.Now().UTC().Format(time.RFC3339Nano)

	res, err := s.execWithRetry(
		ctx,
		`INSERT INTO sessions (title, status, template_path, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?)`,
		title,
		StatusGenerated,
		nullableString(templatePath),
		timestamp,
		timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("insert session: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetSession(ctx, id)
}

// GetSession fetches one session by identifier.
func (s *Store) GetSession(ctx context.Context, id int64) (*Session, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, title, status, template_path, output_path, template_guids_json, created_at, updated_at
         FROM sessions WHERE id = ?`, id)
	session, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, services.Wrap(services.ErrNotFound, "store", "get session", fmt.Sprintf("session %d does not exist", id), nil)
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	return session, nil
}

// ListSessions returns all sessions, newest first.
func (s *Store) ListSessions(ctx context.Context) ([]*Session, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, status, template_path, output_path, template_guids_json, created_at, updated_at
         FROM sessions ORDER BY id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*Session
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, session)
	}
	return sessions, rows.Err()
}

// SetSessionOutput records the generated archive path and the template's
// pre-existing slide identifiers.
func (s *Store) SetSessionOutput(ctx context.Context, id int64, outputPath string, templateGUIDs []string) error {
	guidsJSON, err := json.Marshal(templateGUIDs)
	if err != nil {
		return fmt.Errorf("marshal template identifiers: %w", err)
	}
	_, err = s.execWithRetry(ctx,
		`UPDATE sessions SET output_path = ?, template_guids_json = ?, updated_at = ? WHERE id = ?`,
		nullableString(outputPath),
		string(guidsJSON),
		time.Now().UTC().Format(time.RFC3339Nano),
		id,
	)
	if err != nil {
		return fmt.Errorf("set session output: %w", err)
	}
	return nil
}

// SetSessionStatus advances the session lifecycle state.
func (s *Store) SetSessionStatus(ctx context.Context, id int64, status Status) error {
	res, err := s.execWithRetry(ctx,
		`UPDATE sessions SET status = ?, updated_at = ? WHERE id = ?`,
		status,
		time.Now().UTC().Format(time.RFC3339Nano),
		id,
	)
	if err != nil {
		return fmt.Errorf("set session status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return services.Wrap(services.ErrNotFound, "store", "set session status", fmt.Sprintf("session %d does not exist", id), nil)
	}
	return nil
}

// SaveQuestions snapshots the question set a session was generated from.
func (s *Store) SaveQuestions(ctx context.Context, sessionID int64, questions []deck.Question) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin questions tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM session_questions WHERE session_id = ?`, sessionID); err != nil {
		return fmt.Errorf("clear questions: %w", err)
	}
	for _, q := range questions {
		optionsJSON, err := json.Marshal(q.Options)
		if err != nil {
			return fmt.Errorf("marshal options: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO session_questions (
                session_id, question_id, prompt, options_json, correct_index,
                duration_seconds, image_url, theme, block_letter
            ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			sessionID,
			q.ID,
			q.Prompt,
			string(optionsJSON),
			nullableInt(q.Correct),
			nullableInt(q.DurationSeconds),
			nullableString(q.ImageURL),
			nullableString(q.Theme),
			nullableString(q.BlockLetter),
		); err != nil {
			return fmt.Errorf("insert question %d: %w", q.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit questions: %w", err)
	}
	return nil
}

// QuestionsBySession returns the question snapshot in identifier order.
func (s *Store) QuestionsBySession(ctx context.Context, sessionID int64) ([]deck.Question, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT question_id, prompt, options_json, correct_index, duration_seconds, image_url, theme, block_letter
         FROM session_questions WHERE session_id = ? ORDER BY question_id`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query questions: %w", err)
	}
	defer rows.Close()

	var questions []deck.Question
	for rows.Next() {
		var (
			q           deck.Question
			optionsJSON string
			correct     sql.NullInt64
			duration    sql.NullInt64
			imageURL    sql.NullString
			theme       sql.NullString
			blockLetter sql.NullString
		)
		if err := rows.Scan(&q.ID, &q.Prompt, &optionsJSON, &correct, &duration, &imageURL, &theme, &blockLetter); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		if err := json.Unmarshal([]byte(optionsJSON), &q.Options); err != nil {
			return nil, fmt.Errorf("unmarshal options: %w", err)
		}
		if correct.Valid {
			v := int(correct.Int64)
			q.Correct = &v
		}
		if duration.Valid {
			v := int(duration.Int64)
			q.DurationSeconds = &v
		}
		q.ImageURL = imageURL.String
		q.Theme = theme.String
		q.BlockLetter = blockLetter.String
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

func scanSession(scanner interface{ Scan(dest ...any) error }) (*Session, error) {
	var (
		session      Session
		statusStr    string
		templatePath sql.NullString
		outputPath   sql.NullString
		guidsJSON    sql.NullString
		createdRaw   string
		updatedRaw   string
	)
	if err := scanner.Scan(
		&session.ID,
		&session.Title,
		&statusStr,
		&templatePath,
		&outputPath,
		&guidsJSON,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}
	session.Status = Status(statusStr)
	session.TemplatePath = templatePath.String
	session.OutputPath = outputPath.String
	if guidsJSON.Valid && guidsJSON.String != "" {
		if err := json.Unmarshal([]byte(guidsJSON.String), &session.TemplateGUIDs); err != nil {
			return nil, fmt.Errorf("unmarshal template identifiers: %w", err)
		}
	}
	if created, err := parseTimeString(createdRaw); err == nil {
		session.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw); err == nil {
		session.UpdatedAt = updated
	}
	return &session, nil
}
