package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"materialapi/internal/cache"
	"materialapi/internal/model"
	"materialapi/internal/repository"
	"materialapi/internal/storage"
)

var (
	ErrIDRequired    = errors.New("id is required")
	ErrNotFound      = errors.New("material not found")
	ErrReaderNil     = errors.New("attachment reader is nil")
	ErrInvalidStatus = errors.New("invalid status")
	ErrValidation    = errors.New("invalid submission")
)

// PublicFilePrefix is the URL prefix under which attachments are served back.
// The path stored on a Material is this prefix plus the storage key, never a
// storage-internal location, so the serving route stays decoupled from the
// backend layout.
const PublicFilePrefix = "/files/"

const (
	cacheKeyPrefix   = "materials:list:"
	cacheKeyApproved = cacheKeyPrefix + "approved"
	cacheKeyPending  = cacheKeyPrefix + "pending"
)

// SubmitInput is the submitter-provided payload for a new material.
// ExternalURL and the attachment are independent: both, either, or neither
// may be present, and neither is cross-checked against Kind.
type SubmitInput struct {
	Title       string `json:"title" form:"title" validate:"required"`
	Subject     string `json:"subject" form:"subject" validate:"required"`
	Kind        string `json:"kind" form:"kind" validate:"required,material_kind"`
	ExternalURL string `json:"url" form:"url"`
	Author      string `json:"author" form:"author"`
}

// Attachment is the optional binary file accompanying a submission.
type Attachment struct {
	Reader      io.Reader
	Filename    string
	ContentType string
	Size        int64
}

// MaterialService defines the use cases of the submission and review workflow.
type MaterialService interface {
	// Submit validates the payload, stores the attachment (if any) and persists
	// a new material with status pending. The attachment is written before the
	// record; if the record insert then fails, the orphaned object is deleted.
	Submit(ctx context.Context, in SubmitInput, att *Attachment) (*model.Material, error)

	// ListApproved returns every approved material, newest first.
	ListApproved(ctx context.Context) ([]model.Material, error)

	// ListPending returns the moderation queue, newest first.
	ListPending(ctx context.Context) ([]model.Material, error)

	// Get returns a single material by its ID.
	Get(ctx context.Context, id string) (*model.Material, error)

	// SetStatus moves a material to any of the three statuses. The enum is
	// checked before the store is touched; an invalid value leaves the stored
	// status unchanged.
	SetStatus(ctx context.Context, id string, status string) (*model.Material, error)

	// OpenAttachment resolves a public attachment path back to its bytes.
	OpenAttachment(ctx context.Context, publicPath string) (io.ReadCloser, storage.ObjectInfo, error)
}

// materialService is a concrete implementation of MaterialService.
type materialService struct {
	store         storage.Storage
	repo          repository.MaterialRepository
	lists         *cache.ListCache
	validate      *validator.Validate
	logger        *zap.Logger
	defaultAuthor string
}

// NewMaterialService constructs a new MaterialService. lists, validate and
// logger may be nil; defaultAuthor falls back to "Student" when empty.
func NewMaterialService(store storage.Storage, repo repository.MaterialRepository, lists *cache.ListCache, defaultAuthor string, validate *validator.Validate, logger *zap.Logger) MaterialService {
	if lists == nil {
		lists = cache.New(nil, 0, nil)
	}
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if defaultAuthor == "" {
		defaultAuthor = "Student"
	}
	validate.RegisterValidation("material_kind", func(fl validator.FieldLevel) bool {
		return model.Kind(fl.Field().String()).Valid()
	})
	return &materialService{
		store:         store,
		repo:          repo,
		lists:         lists,
		validate:      validate,
		logger:        logger,
		defaultAuthor: defaultAuthor,
	}
}

func (s *materialService) Submit(ctx context.Context, in SubmitInput, att *Attachment) (*model.Material, error) {
	if err := s.validate.Struct(in); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	var attachmentPath, storedKey string
	if att != nil {
		if att.Reader == nil {
			return nil, ErrReaderNil
		}
		// Generate storage key using UUID + original extension
		ext := filepath.Ext(att.Filename)
		key := filepath.ToSlash(filepath.Join("materials", uuid.New().String()+ext))

		_, err := s.store.Put(ctx, key, att.Reader, storage.PutObjectOptions{
			Size:        att.Size,
			ContentType: att.ContentType,
			Metadata: map[string]string{
				"original-filename": att.Filename,
			},
		})
		if err != nil {
			return nil, fmt.Errorf("store attachment: %w", err)
		}
		storedKey = key
		attachmentPath = PublicFilePrefix + key
	}

	author := in.Author
	if author == "" {
		author = s.defaultAuthor
	}

	mat := &model.Material{
		ID:             uuid.New().String(),
		Title:          in.Title,
		Subject:        in.Subject,
		Kind:           model.Kind(in.Kind),
		ExternalURL:    in.ExternalURL,
		AttachmentPath: attachmentPath,
		Status:         model.StatusPending,
		Author:         author,
		CreatedAt:      time.Now().UTC(),
	}
	stored, err := s.repo.Create(ctx, mat)
	if err != nil {
		// Compensating action: the attachment was written first, so delete it
		// rather than leaving an orphaned object behind.
		if storedKey != "" {
			if delErr := s.store.Delete(ctx, storedKey); delErr != nil {
				return nil, fmt.Errorf("record save failed: %v; rollback delete failed: %v", err, delErr)
			}
		}
		return nil, fmt.Errorf("record save failed: %w", err)
	}

	s.lists.InvalidateAsync(ctx, cacheKeyPrefix+"*")
	return stored, nil
}

// listByStatus serves the status-filtered read paths through the list cache.
// Cache failures other than a miss degrade to a direct repository read.
func (s *materialService) listByStatus(ctx context.Context, key string, status model.Status) ([]model.Material, error) {
	var cached []model.Material
	if err := s.lists.Get(ctx, key, &cached); err == nil {
		return cached, nil
	} else if !errors.Is(err, cache.ErrMiss) {
		s.logger.Warn("list cache read failed", zap.String("key", key), zap.Error(err))
	}

	items, err := s.repo.FindByStatus(ctx, status)
	if err != nil {
		return nil, err
	}
	if err := s.lists.Set(ctx, key, items); err != nil {
		s.logger.Warn("list cache write failed", zap.String("key", key), zap.Error(err))
	}
	return items, nil
}

func (s *materialService) ListApproved(ctx context.Context) ([]model.Material, error) {
	return s.listByStatus(ctx, cacheKeyApproved, model.StatusApproved)
}

func (s *materialService) ListPending(ctx context.Context) ([]model.Material, error) {
	return s.listByStatus(ctx, cacheKeyPending, model.StatusPending)
}

// Get returns a material by ID.
func (s *materialService) Get(ctx context.Context, id string) (*model.Material, error) {
	if id == "" {
		return nil, ErrIDRequired
	}
	mat, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return mat, nil
}

func (s *materialService) SetStatus(ctx context.Context, id string, status string) (*model.Material, error) {
	if id == "" {
		return nil, ErrIDRequired
	}
	next := model.Status(status)
	if !next.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	mat, err := s.repo.UpdateStatus(ctx, id, next)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	s.lists.InvalidateAsync(ctx, cacheKeyPrefix+"*")
	return mat, nil
}

// OpenAttachment maps a public path back to its storage key and streams it.
func (s *materialService) OpenAttachment(ctx context.Context, publicPath string) (io.ReadCloser, storage.ObjectInfo, error) {
	key := strings.TrimPrefix(publicPath, PublicFilePrefix)
	if key == "" || key == publicPath {
		return nil, storage.ObjectInfo{}, ErrNotFound
	}
	return s.store.Get(ctx, key)
}
