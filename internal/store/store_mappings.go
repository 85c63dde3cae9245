package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"pollkit/internal/deck"
	"pollkit/internal/guid"
	"pollkit/internal/services"
	"pollkit/internal/sessiondoc"
)

// SaveMappings replaces the question-to-slide mapping set for a session.
func (s *Store) SaveMappings(ctx context.Context, sessionID int64, mappings []deck.Mapping) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin mappings tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM question_mappings WHERE session_id = ?`, sessionID); err != nil {
		return fmt.Errorf("clear mappings: %w", err)
	}
	for _, m := range mappings {
		if !guid.Valid(m.SlideGUID) {
			return services.Wrap(services.ErrValidation, "store", "save mappings",
				fmt.Sprintf("question %d carries invalid slide identifier %q", m.QuestionID, m.SlideGUID), nil)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO question_mappings (session_id, question_id, slide_guid, ordinal, theme, block_letter)
             VALUES (?, ?, ?, ?, ?, ?)`,
			sessionID,
			m.QuestionID,
			guid.Normalize(m.SlideGUID),
			m.Ordinal,
			nullableString(m.Theme),
			nullableString(m.BlockLetter),
		); err != nil {
			return fmt.Errorf("insert mapping for question %d: %w", m.QuestionID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit mappings: %w", err)
	}
	return nil
}

// MappingsBySession returns the mapping set in ordinal order.
func (s *Store) MappingsBySession(ctx context.Context, sessionID int64) ([]Mapping, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT session_id, question_id, slide_guid, ordinal, theme, block_letter
         FROM question_mappings WHERE session_id = ? ORDER BY ordinal`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query mappings: %w", err)
	}
	defer rows.Close()

	var mappings []Mapping
	for rows.Next() {
		m, err := scanMapping(rows)
		if err != nil {
			return nil, fmt.Errorf("scan mapping: %w", err)
		}
		mappings = append(mappings, m)
	}
	return mappings, rows.Err()
}

// MappingByGUID resolves a slide identifier to its mapping within a session.
func (s *Store) MappingByGUID(ctx context.Context, sessionID int64, slideGUID string) (*Mapping, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT session_id, question_id, slide_guid, ordinal, theme, block_letter
         FROM question_mappings WHERE session_id = ? AND slide_guid = ?`,
		sessionID, guid.Normalize(slideGUID))
	m, err := scanMapping(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, services.Wrap(services.ErrNotFound, "store", "mapping by identifier",
			fmt.Sprintf("no mapping for slide %s in session %d", slideGUID, sessionID), nil)
	}
	if err != nil {
		return nil, fmt.Errorf("mapping by identifier: %w", err)
	}
	return &m, nil
}

// SaveRoster replaces the roster for a session, preserving input order.
func (s *Store) SaveRoster(ctx context.Context, sessionID int64, roster []sessiondoc.RosterEntry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin roster tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM roster_entries WHERE session_id = ?`, sessionID); err != nil {
		return fmt.Errorf("clear roster: %w", err)
	}
	for i, entry := range roster {
		if entry.DeviceID == "" {
			return services.Wrap(services.ErrValidation, "store", "save roster",
				fmt.Sprintf("roster entry %d has no device identifier", i+1), nil)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO roster_entries (session_id, position, device_id, given_name, family_name, organization)
             VALUES (?, ?, ?, ?, ?, ?)`,
			sessionID,
			i+1,
			entry.DeviceID,
			nullableString(entry.GivenName),
			nullableString(entry.FamilyName),
			nullableString(entry.Organization),
		); err != nil {
			return fmt.Errorf("insert roster entry %d: %w", i+1, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit roster: %w", err)
	}
	return nil
}

// RosterBySession returns the roster in its original order.
func (s *Store) RosterBySession(ctx context.Context, sessionID int64) ([]sessiondoc.RosterEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT device_id, given_name, family_name, organization
         FROM roster_entries WHERE session_id = ? ORDER BY position`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query roster: %w", err)
	}
	defer rows.Close()

	var roster []sessiondoc.RosterEntry
	for rows.Next() {
		var (
			entry  sessiondoc.RosterEntry
			given  sql.NullString
			family sql.NullString
			org    sql.NullString
		)
		if err := rows.Scan(&entry.DeviceID, &given, &family, &org); err != nil {
			return nil, fmt.Errorf("scan roster entry: %w", err)
		}
		entry.GivenName = given.String
		entry.FamilyName = family.String
		entry.Organization = org.String
		roster = append(roster, entry)
	}
	return roster, rows.Err()
}

// AddRosterEntry appends one participant after the current roster tail. Used
// when an import resolution registers an unknown device as a participant.
func (s *Store) AddRosterEntry(ctx context.Context, sessionID int64, entry sessiondoc.RosterEntry) error {
	if entry.DeviceID == "" {
		return services.Wrap(services.ErrValidation, "store", "add roster entry", "device identifier is required", nil)
	}
	var maxPos sql.NullInt64
	if err := s.db.QueryRowContext(ctx,
		`SELECT MAX(position) FROM roster_entries WHERE session_id = ?`, sessionID).Scan(&maxPos); err != nil {
		return fmt.Errorf("roster tail: %w", err)
	}
	_, err := s.execWithRetry(ctx,
		`INSERT INTO roster_entries (session_id, position, device_id, given_name, family_name, organization)
         VALUES (?, ?, ?, ?, ?, ?)`,
		sessionID,
		maxPos.Int64+1,
		entry.DeviceID,
		nullableString(entry.GivenName),
		nullableString(entry.FamilyName),
		nullableString(entry.Organization),
	)
	if err != nil {
		return fmt.Errorf("insert roster entry: %w", err)
	}
	return nil
}

// MarkAbsentDevices flags roster entries whose owners were resolved as absent
// during import. Devices not in the list are reset.
func (s *Store) MarkAbsentDevices(ctx context.Context, sessionID int64, devices []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin absent tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `UPDATE roster_entries SET absent = 0 WHERE session_id = ?`, sessionID); err != nil {
		return fmt.Errorf("reset absent flags: %w", err)
	}
	for _, device := range devices {
		if _, err := tx.ExecContext(ctx,
			`UPDATE roster_entries SET absent = 1 WHERE session_id = ? AND device_id = ?`,
			sessionID, device); err != nil {
			return fmt.Errorf("mark %s absent: %w", device, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit absent flags: %w", err)
	}
	return nil
}

// AbsentDevices lists device identifiers flagged absent, in roster order.
func (s *Store) AbsentDevices(ctx context.Context, sessionID int64) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT device_id FROM roster_entries WHERE session_id = ? AND absent = 1 ORDER BY position`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query absent devices: %w", err)
	}
	defer rows.Close()

	var devices []string
	for rows.Next() {
		var device string
		if err := rows.Scan(&device); err != nil {
			return nil, fmt.Errorf("scan absent device: %w", err)
		}
		devices = append(devices, device)
	}
	return devices, rows.Err()
}

func scanMapping(scanner interface{ Scan(dest ...any) error }) (Mapping, error) {
	var (
		m           Mapping
		theme       sql.NullString
		blockLetter sql.NullString
	)
	if err := scanner.Scan(&m.SessionID, &m.QuestionID, &m.SlideGUID, &m.Ordinal, &theme, &blockLetter); err != nil {
		return Mapping{}, err
	}
	m.Theme = theme.String
	m.BlockLetter = blockLetter.String
	return m, nil
}
