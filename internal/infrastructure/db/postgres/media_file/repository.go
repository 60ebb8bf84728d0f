package media_file

import (
	"context"
	"errors"

	"localdrop/internal/domain/media"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolation = "23505"

// DBTX is satisfied by *pgxpool.Pool and pgxmock pools.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// ContentWriter holds the bytes; the database only indexes them.
type ContentWriter interface {
	WriteContent(identifier string, content []byte) (int64, error)
	Remove(identifier string) error
}

// Repository is a media.BlobStore that keeps file bytes in a ContentWriter
// and the listing in Postgres. A row is inserted only after its content is
// durable, so every listed identifier is readable.
type Repository struct {
	db      DBTX
	content ContentWriter
}

func NewRepository(db DBTX, content ContentWriter) media.BlobStore {
	return &Repository{db: db, content: content}
}

func (r *Repository) Put(ctx context.Context, blob media.Blob) (*media.FileRecord, error) {
	if blob.DisplayName == "" {
		blob.DisplayName = blob.Identifier
	}
	if _, err := r.content.WriteContent(blob.Identifier, blob.Content); err != nil {
		return nil, err
	}

	mf := new(MediaFile)
	err := r.db.QueryRow(
		ctx,
		InsertMediaFile,
		blob.Identifier, blob.DisplayName, int64(len(blob.Content)),
	).Scan(
		&mf.Identifier,
		&mf.DisplayName,
		&mf.SizeBytes,
		&mf.CreatedAt,
	)
	if err != nil {
		_ = r.content.Remove(blob.Identifier)

		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			err = media.ErrAlreadyExists
		}
		return nil, &media.StorageError{Op: "put", Identifier: blob.Identifier, Err: err}
	}

	rec := fromDBModel(mf)
	return &rec, nil
}

func (r *Repository) List(ctx context.Context) (media.Snapshot, error) {
	rows, err := r.db.Query(ctx, SelectMediaFiles)
	if err != nil {
		return nil, &media.StorageError{Op: "list", Err: err}
	}
	defer rows.Close()

	var mfs MediaFiles
	for rows.Next() {
		mf := new(MediaFile)

		if err = rows.Scan(
			&mf.Identifier,
			&mf.DisplayName,
			&mf.SizeBytes,
			&mf.CreatedAt,
		); err != nil {
			return nil, &media.StorageError{Op: "list", Err: err}
		}

		mfs = append(mfs, mf)
	}
	if err = rows.Err(); err != nil {
		return nil, &media.StorageError{Op: "list", Err: err}
	}

	return fromDBModels(mfs), nil
}
