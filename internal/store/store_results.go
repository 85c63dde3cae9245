package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// SaveResults replaces the graded result set for a session. Imports are
// idempotent at this level: re-running an import rewrites the same rows.
func (s *Store) SaveResults(ctx context.Context, sessionID int64, results []GradedResult) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin results tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM graded_results WHERE session_id = ?`, sessionID); err != nil {
		return fmt.Errorf("clear results: %w", err)
	}
	for _, r := range results {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO graded_results (session_id, question_id, device_id, option_index, correct, points, answered_at, origin)
             VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			sessionID,
			r.QuestionID,
			r.DeviceID,
			r.OptionIndex,
			r.Correct,
			r.Points,
			nullableTime(r.AnsweredAt),
			r.Origin,
		); err != nil {
			return fmt.Errorf("insert result for question %d device %s: %w", r.QuestionID, r.DeviceID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit results: %w", err)
	}
	return nil
}

// ResultsBySession returns graded results ordered by question then device.
func (s *Store) ResultsBySession(ctx context.Context, sessionID int64) ([]GradedResult, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT session_id, question_id, device_id, option_index, correct, points, answered_at, origin
         FROM graded_results WHERE session_id = ? ORDER BY question_id, device_id`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query results: %w", err)
	}
	defer rows.Close()

	var results []GradedResult
	for rows.Next() {
		var (
			r          GradedResult
			answeredAt sql.NullString
		)
		if err := rows.Scan(&r.SessionID, &r.QuestionID, &r.DeviceID, &r.OptionIndex, &r.Correct, &r.Points, &answeredAt, &r.Origin); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		if answeredAt.Valid {
			if ts, err := parseTimeString(answeredAt.String); err == nil {
				r.AnsweredAt = &ts
			}
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

// DeviceTotals sums points per device for a session.
func (s *Store) DeviceTotals(ctx context.Context, sessionID int64) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT device_id, SUM(points) FROM graded_results WHERE session_id = ? GROUP BY device_id`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query totals: %w", err)
	}
	defer rows.Close()

	totals := make(map[string]int)
	for rows.Next() {
		var (
			device string
			points int
		)
		if err := rows.Scan(&device, &points); err != nil {
			return nil, fmt.Errorf("scan total: %w", err)
		}
		totals[device] = points
	}
	return totals, rows.Err()
}

// SaveImportReport appends the summary of one import run.
func (s *Store) SaveImportReport(ctx context.Context, report ImportReport) (int64, error) {
	res, err := s.execWithRetry(ctx,
		`INSERT INTO import_reports (
            session_id, created_at, source_count, response_count,
            duplicate_count, anomaly_count, resolved_count, details_json
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		report.SessionID,
		time.Now().UTC().Format(time.RFC3339Nano),
		report.SourceCount,
		report.ResponseCount,
		report.DuplicateCount,
		report.AnomalyCount,
		report.ResolvedCount,
		nullableString(report.DetailsJSON),
	)
	if err != nil {
		return 0, fmt.Errorf("insert import report: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	return id, nil
}

// ImportReportsBySession returns import summaries, newest first.
func (s *Store) ImportReportsBySession(ctx context.Context, sessionID int64) ([]ImportReport, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, session_id, created_at, source_count, response_count, duplicate_count, anomaly_count, resolved_count, details_json
         FROM import_reports WHERE session_id = ? ORDER BY id DESC`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query import reports: %w", err)
	}
	defer rows.Close()

	var reports []ImportReport
	for rows.Next() {
		var (
			report     ImportReport
			createdRaw string
			details    sql.NullString
		)
		if err := rows.Scan(
			&report.ID,
			&report.SessionID,
			&createdRaw,
			&report.SourceCount,
			&report.ResponseCount,
			&report.DuplicateCount,
			&report.AnomalyCount,
			&report.ResolvedCount,
			&details,
		); err != nil {
			return nil, fmt.Errorf("scan import report: %w", err)
		}
		if created, err := parseTimeString(createdRaw); err == nil {
			report.CreatedAt = created
		}
		report.DetailsJSON = details.String
		reports = append(reports, report)
	}
	return reports, rows.Err()
}
