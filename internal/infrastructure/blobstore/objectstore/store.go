// Package objectstore keeps uploaded blobs in an S3-compatible bucket.
package objectstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/url"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"

	"localdrop/config"
	"localdrop/internal/domain/media"
)

const (
	metaDisplayName = "Display-Name"
	codeNoSuchKey   = "NoSuchKey"
)

// ObjectAPI is the part of *minio.Client the store uses.
type ObjectAPI interface {
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	StatObject(ctx context.Context, bucketName, objectName string, opts minio.StatObjectOptions) (minio.ObjectInfo, error)
	GetObject(ctx context.Context, bucketName, objectName string, opts minio.GetObjectOptions) (*minio.Object, error)
	ListObjects(ctx context.Context, bucketName string, opts minio.ListObjectsOptions) <-chan minio.ObjectInfo
}

type Store struct {
	api    ObjectAPI
	bucket string
	log    *zap.Logger
	now    func() time.Time
}

// Dial connects to the configured endpoint and makes sure the bucket exists.
func Dial(ctx context.Context, logger *zap.Logger, cfg config.S3) (*Store, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create object storage client: %w", err)
	}

	s := New(client, cfg.BucketUploads, logger)
	if err = s.EnsureBucket(ctx, cfg.Region); err != nil {
		return nil, err
	}
	logger.Info("object storage connected successfully",
		zap.String("endpoint", cfg.Endpoint),
		zap.String("bucket", cfg.BucketUploads),
	)

	return s, nil
}

func New(api ObjectAPI, bucket string, logger *zap.Logger) *Store {
	return &Store{api: api, bucket: bucket, log: logger, now: time.Now}
}

func (s *Store) EnsureBucket(ctx context.Context, region string) error {
	exists, err := s.api.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket %s: %w", s.bucket, err)
	}
	if exists {
		return nil
	}
	if err = s.api.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{Region: region}); err != nil {
		return fmt.Errorf("failed to create bucket %s: %w", s.bucket, err)
	}
	s.log.Info("bucket created", zap.String("bucket", s.bucket))
	return nil
}

// Put refuses an identifier that already names an object. The check and
// the write are not atomic; identifiers are unique by construction, so the
// check only guards against foreign objects.
func (s *Store) Put(ctx context.Context, blob media.Blob) (*media.FileRecord, error) {
	if err := checkIdentifier(blob.Identifier); err != nil {
		return nil, &media.StorageError{Op: "put", Identifier: blob.Identifier, Err: err}
	}
	if blob.DisplayName == "" {
		blob.DisplayName = blob.Identifier
	}

	_, err := s.api.StatObject(ctx, s.bucket, blob.Identifier, minio.StatObjectOptions{})
	switch {
	case err == nil:
		return nil, &media.StorageError{Op: "put", Identifier: blob.Identifier, Err: media.ErrAlreadyExists}
	case minio.ToErrorResponse(err).Code != codeNoSuchKey:
		return nil, &media.StorageError{Op: "stat", Identifier: blob.Identifier, Err: err}
	}

	info, err := s.api.PutObject(ctx, s.bucket, blob.Identifier,
		bytes.NewReader(blob.Content), int64(len(blob.Content)),
		minio.PutObjectOptions{
			ContentType: contentType(blob.Identifier),
			UserMetadata: map[string]string{
				metaDisplayName: url.QueryEscape(blob.DisplayName),
			},
		},
	)
	if err != nil {
		return nil, &media.StorageError{Op: "put", Identifier: blob.Identifier, Err: err}
	}

	created := info.LastModified
	if created.IsZero() {
		created = s.now()
	}

	return &media.FileRecord{
		Identifier:      blob.Identifier,
		DisplayName:     blob.DisplayName,
		Kind:            media.KindOf(blob.Identifier),
		SizeBytes:       int64(len(blob.Content)),
		CreatedAtMillis: created.UnixMilli(),
	}, nil
}

// List returns every object, newest first. Display names are only known
// when the server returns metadata in listings (MinIO does); otherwise the
// identifier is used.
func (s *Store) List(ctx context.Context) (media.Snapshot, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	snap := media.Snapshot{}
	for obj := range s.api.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{WithMetadata: true}) {
		if obj.Err != nil {
			return nil, &media.StorageError{Op: "list", Err: obj.Err}
		}
		if strings.HasPrefix(obj.Key, ".") || strings.HasSuffix(obj.Key, "/") {
			continue
		}
		snap = append(snap, media.FileRecord{
			Identifier:      obj.Key,
			DisplayName:     displayName(obj),
			Kind:            media.KindOf(obj.Key),
			SizeBytes:       obj.Size,
			CreatedAtMillis: obj.LastModified.UnixMilli(),
		})
	}

	sort.SliceStable(snap, func(i, j int) bool {
		if snap[i].CreatedAtMillis != snap[j].CreatedAtMillis {
			return snap[i].CreatedAtMillis > snap[j].CreatedAtMillis
		}
		return snap[i].Identifier > snap[j].Identifier
	})

	return snap, nil
}

func (s *Store) Open(ctx context.Context, identifier string) (io.ReadSeekCloser, *media.FileRecord, error) {
	if err := checkIdentifier(identifier); err != nil {
		return nil, nil, &media.StorageError{Op: "open", Identifier: identifier, Err: media.ErrNotFound}
	}

	info, err := s.api.StatObject(ctx, s.bucket, identifier, minio.StatObjectOptions{})
	if err != nil {
		if minio.ToErrorResponse(err).Code == codeNoSuchKey {
			err = media.ErrNotFound
		}
		return nil, nil, &media.StorageError{Op: "open", Identifier: identifier, Err: err}
	}
	obj, err := s.api.GetObject(ctx, s.bucket, identifier, minio.GetObjectOptions{})
	if err != nil {
		return nil, nil, &media.StorageError{Op: "open", Identifier: identifier, Err: err}
	}

	return obj, &media.FileRecord{
		Identifier:      identifier,
		DisplayName:     displayName(info),
		Kind:            media.KindOf(identifier),
		SizeBytes:       info.Size,
		CreatedAtMillis: info.LastModified.UnixMilli(),
	}, nil
}

// displayName finds the metadata entry regardless of how the server
// prefixed or cased it.
func displayName(obj minio.ObjectInfo) string {
	for k, v := range obj.UserMetadata {
		if !strings.HasSuffix(strings.ToLower(k), strings.ToLower(metaDisplayName)) || v == "" {
			continue
		}
		if name, err := url.QueryUnescape(v); err == nil {
			return name
		}
		return v
	}
	return obj.Key
}

func contentType(identifier string) string {
	if ct := mime.TypeByExtension(strings.ToLower(path.Ext(identifier))); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

func checkIdentifier(identifier string) error {
	if identifier == "" || strings.HasPrefix(identifier, ".") || strings.ContainsAny(identifier, `/\`) {
		return errors.New("unsafe identifier")
	}
	return nil
}
