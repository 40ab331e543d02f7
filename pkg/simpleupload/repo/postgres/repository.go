// Package postgres stores the presign audit log in PostgreSQL.
package postgres

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tendant/simple-upload/pkg/simpleupload/repo"
)

// Schema creates the upload_presigns table and its indexes
//
//go:embed schema.sql
var Schema string

// DBTX is an interface that allows us to use either a database connection or a transaction
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// Repository implements repo.Repository using PostgreSQL
type Repository struct {
	db DBTX
}

// New creates a new PostgreSQL repository
func New(db DBTX) *Repository {
	return &Repository{db: db}
}

// NewWithPool creates a new PostgreSQL repository with connection pool
func NewWithPool(pool *pgxpool.Pool) *Repository {
	return &Repository{db: pool}
}

// Migrate applies Schema. It is safe to run repeatedly.
func (r *Repository) Migrate(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, Schema); err != nil {
		return handlePostgresError("migrate", err)
	}
	return nil
}

const selectColumns = `id, endpoint, caller, status, rule, disk, bucket, object_key,
       name, extension, mime_type, size, errors, expires_at, created_at`

func (r *Repository) RecordPresign(ctx context.Context, record *repo.PresignRecord) error {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}

	var errs []byte
	if len(record.Errors) > 0 {
		var err error
		if errs, err = json.Marshal(record.Errors); err != nil {
			return fmt.Errorf("encode errors: %w", err)
		}
	}

	query := `
		INSERT INTO upload_presigns (
			id, endpoint, caller, status, rule, disk, bucket, object_key,
			name, extension, mime_type, size, errors, expires_at, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`

	_, err := r.db.Exec(ctx, query,
		record.ID, record.Endpoint, record.Caller, string(record.Status),
		record.Rule, record.Disk, record.Bucket, record.Key,
		record.Name, record.Extension, record.MimeType, record.Size,
		errs, record.ExpiresAt, record.CreatedAt)
	if err != nil {
		return handlePostgresError("record presign", err)
	}
	return nil
}

func (r *Repository) GetPresign(ctx context.Context, id uuid.UUID) (*repo.PresignRecord, error) {
	query := `SELECT ` + selectColumns + ` FROM upload_presigns WHERE id = $1`

	record, err := scanRecord(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repo.ErrRecordNotFound
		}
		return nil, handlePostgresError("get presign", err)
	}
	return record, nil
}

func (r *Repository) ListPresigns(ctx context.Context, filter repo.ListFilter) ([]*repo.PresignRecord, error) {
	query, args := listQuery(filter)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, handlePostgresError("list presigns", err)
	}
	defer rows.Close()

	var records []*repo.PresignRecord
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, handlePostgresError("scan presign", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, handlePostgresError("list presigns", err)
	}
	return records, nil
}

// listQuery builds the filtered select for ListPresigns
func listQuery(filter repo.ListFilter) (string, []any) {
	var (
		where []string
		args  []any
	)
	add := func(clause string, arg any) {
		args = append(args, arg)
		where = append(where, fmt.Sprintf(clause, len(args)))
	}

	if filter.Endpoint != "" {
		add("endpoint = $%d", filter.Endpoint)
	}
	if filter.Caller != "" {
		add("caller = $%d", filter.Caller)
	}
	if filter.Status != "" {
		add("status = $%d", string(filter.Status))
	}
	if !filter.Since.IsZero() {
		add("created_at >= $%d", filter.Since)
	}

	var b strings.Builder
	b.WriteString(`SELECT ` + selectColumns + ` FROM upload_presigns`)
	if len(where) > 0 {
		b.WriteString(" WHERE " + strings.Join(where, " AND "))
	}
	b.WriteString(" ORDER BY created_at DESC, id")
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		fmt.Fprintf(&b, " LIMIT $%d", len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		fmt.Fprintf(&b, " OFFSET $%d", len(args))
	}
	return b.String(), args
}

func scanRecord(row pgx.Row) (*repo.PresignRecord, error) {
	var (
		record repo.PresignRecord
		status string
		errs   []byte
	)
	err := row.Scan(
		&record.ID, &record.Endpoint, &record.Caller, &status,
		&record.Rule, &record.Disk, &record.Bucket, &record.Key,
		&record.Name, &record.Extension, &record.MimeType, &record.Size,
		&errs, &record.ExpiresAt, &record.CreatedAt)
	if err != nil {
		return nil, err
	}
	record.Status = repo.Status(status)
	if len(errs) > 0 {
		if err := json.Unmarshal(errs, &record.Errors); err != nil {
			return nil, fmt.Errorf("decode errors: %w", err)
		}
	}
	return &record, nil
}

// Error handling helper
func handlePostgresError(operation string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			return fmt.Errorf("presign record already exists: %w", err)
		case "23502": // not_null_violation
			return fmt.Errorf("required field %s is missing: %w", pgErr.ColumnName, err)
		case "42P01": // undefined_table
			return fmt.Errorf("table does not exist - database migration required: %w", err)
		default:
			return fmt.Errorf("database error in %s: %s (code: %s)", operation, pgErr.Message, pgErr.Code)
		}
	}
	return fmt.Errorf("database error in %s: %w", operation, err)
}

var _ repo.Repository = (*Repository)(nil)
