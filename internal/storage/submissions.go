package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/Veraticus/aidledger/internal/common"
	"github.com/Veraticus/aidledger/internal/model"
	"github.com/Veraticus/aidledger/internal/service"
)

// SaveSubmission inserts a submission or updates it as its lifecycle progresses.
func (s *SQLiteStorage) SaveSubmission(ctx context.Context, record *model.SubmissionRecord) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateSubmission(record); err != nil {
		return err
	}

	var finished sql.NullTime
	if record.FinishedAt != nil {
		finished = sql.NullTime{Time: record.FinishedAt.UTC(), Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO submissions (id, label, status, signature, error_kind, error_title, duplicate, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status = excluded.status,
			signature = excluded.signature,
			error_kind = excluded.error_kind,
			error_title = excluded.error_title,
			duplicate = excluded.duplicate,
			finished_at = excluded.finished_at
	`, record.ID, record.Label, string(record.Status), record.Signature, record.ErrorKind,
		record.ErrorTitle, record.Duplicate, record.StartedAt.UTC(), finished)
	if err != nil {
		return fmt.Errorf("failed to save submission: %w", err)
	}
	return nil
}

// GetSubmission returns the submission with id or common.ErrNotFound.
func (s *SQLiteStorage) GetSubmission(ctx context.Context, id string) (*model.SubmissionRecord, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, selectSubmissions+` WHERE id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get submission: %w", err)
	}
	records, err := scanSubmissions(rows)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("submission %s: %w", id, common.ErrNotFound)
	}
	return &records[0], nil
}

// ListSubmissions returns submissions newest first.
func (s *SQLiteStorage) ListSubmissions(ctx context.Context, filter service.SubmissionFilter) ([]model.SubmissionRecord, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	var (
		where []string
		args  []any
	)
	if filter.Since != nil {
		where = append(where, "started_at >= ?")
		args = append(args, filter.Since.UTC())
	}
	if filter.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(filter.Status))
	}
	if filter.Label != "" {
		where = append(where, "label = ?")
		args = append(args, filter.Label)
	}

	query := selectSubmissions
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY started_at DESC, id"
	if filter.Limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, filter.Limit, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}
	return scanSubmissions(rows)
}

const selectSubmissions = `
	SELECT id, label, status, signature, error_kind, error_title, duplicate, started_at, finished_at
	FROM submissions`

func scanSubmissions(rows *sql.Rows) ([]model.SubmissionRecord, error) {
	defer func() { _ = rows.Close() }()

	var records []model.SubmissionRecord
	for rows.Next() {
		var (
			r        model.SubmissionRecord
			status   string
			finished sql.NullTime
		)
		if err := rows.Scan(&r.ID, &r.Label, &status, &r.Signature, &r.ErrorKind,
			&r.ErrorTitle, &r.Duplicate, &r.StartedAt, &finished); err != nil {
			return nil, fmt.Errorf("failed to scan submission: %w", err)
		}
		r.Status = model.SubmissionStatus(status)
		if finished.Valid {
			t := finished.Time
			r.FinishedAt = &t
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate submissions: %w", err)
	}
	return records, nil
}
