package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"docvault/internal/model"
	"docvault/internal/objectkey"
	"docvault/internal/repository"
	"docvault/internal/storage"
	"docvault/internal/validation"
)

const (
	// SignedURLTTL is the lifetime of every URL issued by Retrieve.
	SignedURLTTL = 120 * time.Second
	// MaxListLimit caps List results.
	MaxListLimit = 50
)

// FileInput is an uploaded file as seen by the service.
// A nil Body means no file was supplied.
type FileInput struct {
	OriginalName string
	MimeType     string
	Size         int64
	Body         io.Reader
}

// DocumentService defines the use cases for handling documents.
type DocumentService interface {
	// Ingest validates the file, stores its bytes under a fresh key, then records its metadata.
	// A metadata failure after a successful put leaves the object in place.
	Ingest(ctx context.Context, userID string, file FileInput) (*model.Document, error)

	// Retrieve issues a short-lived download URL for a document owned by userID.
	// Absent and foreign documents are indistinguishable.
	Retrieve(ctx context.Context, documentID, userID string) (*model.SignedURL, error)

	// List returns the owner's newest documents, at most MaxListLimit.
	List(ctx context.Context, userID string) ([]model.Document, error)
}

// documentService is a concrete implementation of DocumentService.
type documentService struct {
	store    storage.Storage
	repo     repository.DocumentRepository
	keys     *objectkey.Builder
	log      *slog.Logger
	tracer   trace.Tracer
	maxBytes int64
}

// Option configures the document service.
type Option func(*documentService)

// WithKeyBuilder replaces the default key builder.
func WithKeyBuilder(b *objectkey.Builder) Option {
	return func(s *documentService) {
		s.keys = b
	}
}

// WithLogger sets the logger used for operational warnings.
func WithLogger(l *slog.Logger) Option {
	return func(s *documentService) {
		s.log = l
	}
}

// WithMaxUploadBytes sets the upload size limit; zero disables the check.
func WithMaxUploadBytes(n int64) Option {
	return func(s *documentService) {
		s.maxBytes = n
	}
}

// NewDocumentService constructs a new DocumentService.
func NewDocumentService(store storage.Storage, repo repository.DocumentRepository, opts ...Option) DocumentService {
	s := &documentService{
		store:  store,
		repo:   repo,
		keys:   objectkey.NewBuilder(),
		log:    slog.Default(),
		tracer: otel.Tracer("docvault/internal/service"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *documentService) Ingest(ctx context.Context, userID string, file FileInput) (doc *model.Document, err error) {
	ctx, span := s.tracer.Start(ctx, "DocumentService.Ingest")
	defer func() { endSpan(span, err) }()

	if userID == "" {
		return nil, ErrUnauthenticated
	}

	if err := validation.ValidateUpload(validation.Upload{
		Present:  file.Body != nil,
		MimeType: file.MimeType,
		Size:     file.Size,
	}, s.maxBytes); err != nil {
		return nil, err
	}

	mimeType := validation.NormalizeMimeType(file.MimeType)
	key := s.keys.Key(userID, file.OriginalName)
	span.SetAttributes(attribute.String("document.storage_key", key))

	obj, err := s.store.Put(ctx, key, file.Body, storage.PutObjectOptions{
		Size:        file.Size,
		ContentType: mimeType,
		Metadata: map[string]string{
			"original-filename": file.OriginalName,
			"user-id":           userID,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: put %q: %w", ErrStorage, key, err)
	}

	stored, err := s.repo.Create(ctx, &model.Document{
		UserID:       userID,
		OriginalName: file.OriginalName,
		MimeType:     mimeType,
		Size:         file.Size,
		Bucket:       s.store.Bucket(),
		StorageKey:   key,
		URL:          obj.URL,
	})
	if err != nil {
		s.log.WarnContext(ctx, "orphaned_object",
			slog.String("storage_key", key),
			slog.String("bucket", s.store.Bucket()),
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("%w: create document: %w", ErrPersistence, err)
	}
	return stored, nil
}

func (s *documentService) Retrieve(ctx context.Context, documentID, userID string) (out *model.SignedURL, err error) {
	ctx, span := s.tracer.Start(ctx, "DocumentService.Retrieve",
		trace.WithAttributes(attribute.String("document.id", documentID)))
	defer func() { endSpan(span, err) }()

	if userID == "" {
		return nil, ErrUnauthenticated
	}
	if _, err := uuid.Parse(documentID); err != nil {
		return nil, ErrNotFound
	}

	doc, err := s.repo.FindByIDAndOwner(ctx, documentID, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: find document: %w", ErrPersistence, err)
	}

	u, err := s.store.PresignGet(ctx, doc.StorageKey, SignedURLTTL)
	if err != nil {
		return nil, fmt.Errorf("%w: presign %q: %w", ErrStorage, doc.StorageKey, err)
	}
	return &model.SignedURL{URL: u, ExpiresIn: int(SignedURLTTL / time.Second)}, nil
}

func (s *documentService) List(ctx context.Context, userID string) (docs []model.Document, err error) {
	ctx, span := s.tracer.Start(ctx, "DocumentService.List")
	defer func() { endSpan(span, err) }()

	if userID == "" {
		return nil, ErrUnauthenticated
	}

	docs, err = s.repo.ListByOwner(ctx, userID, MaxListLimit)
	if err != nil {
		return nil, fmt.Errorf("%w: list documents: %w", ErrPersistence, err)
	}
	if docs == nil {
		docs = []model.Document{}
	}
	span.SetAttributes(attribute.Int("document.count", len(docs)))
	return docs, nil
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
