package service

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"strings"
	"testing"

	"materialapi/internal/model"
	repoMocks "materialapi/internal/repository/mocks"
	"materialapi/internal/storage"
	storeMocks "materialapi/internal/storage/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func newTestService(store storage.Storage, repo *repoMocks.MockMaterialRepository) MaterialService {
	return NewMaterialService(store, repo, nil, "", nil, nil)
}

func TestMaterialService_Submit(t *testing.T) {
	ctx := context.Background()

	validInput := SubmitInput{Title: "Unit 1 Notes", Subject: "DSA", Kind: "Notes"}

	tests := []struct {
		name       string
		input      SubmitInput
		attachment func() *Attachment
		setupMocks func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockMaterialRepository)
		wantErr    error
		wantErrMsg string
		check      func(t *testing.T, mat *model.Material)
	}{
		{
			name:       "happy path without attachment",
			input:      SubmitInput{Title: "Unit 1 Notes", Subject: "DSA", Kind: "Notes", Author: "A. Sharma"},
			attachment: func() *Attachment { return nil },
			setupMocks: func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockMaterialRepository) {
				mRepo.On("Create", ctx, mock.MatchedBy(func(mat *model.Material) bool {
					return mat.Status == model.StatusPending &&
						mat.Author == "A. Sharma" &&
						mat.AttachmentPath == "" &&
						mat.ID != ""
				})).Return(func(ctx context.Context, mat *model.Material) *model.Material {
					return mat
				}, nil)
			},
			check: func(t *testing.T, mat *model.Material) {
				assert.Equal(t, model.StatusPending, mat.Status)
				assert.Empty(t, mat.AttachmentPath)
				assert.Equal(t, "A. Sharma", mat.Author)
			},
		},
		{
			name:       "author defaults when absent",
			input:      validInput,
			attachment: func() *Attachment { return nil },
			setupMocks: func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockMaterialRepository) {
				mRepo.On("Create", ctx, mock.MatchedBy(func(mat *model.Material) bool {
					return mat.Author == "Student"
				})).Return(func(ctx context.Context, mat *model.Material) *model.Material {
					return mat
				}, nil)
			},
			check: func(t *testing.T, mat *model.Material) {
				assert.Equal(t, "Student", mat.Author)
			},
		},
		{
			name:  "happy path with attachment",
			input: SubmitInput{Title: "OS Lecture", Subject: "OS", Kind: "Video", ExternalURL: "https://example.com/v"},
			attachment: func() *Attachment {
				return &Attachment{Reader: strings.NewReader("hello world"), Filename: "lecture.mp4", ContentType: "video/mp4", Size: 11}
			},
			setupMocks: func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockMaterialRepository) {
				mStore.On("Put", ctx, mock.MatchedBy(func(key string) bool {
					return strings.HasPrefix(key, "materials/") && strings.HasSuffix(key, ".mp4")
				}), mock.Anything, storage.PutObjectOptions{
					Size:        11,
					ContentType: "video/mp4",
					Metadata:    map[string]string{"original-filename": "lecture.mp4"},
				}).Return(storage.ObjectInfo{Key: "materials/uuid.mp4", Size: 11}, nil)

				mRepo.On("Create", ctx, mock.MatchedBy(func(mat *model.Material) bool {
					return strings.HasPrefix(mat.AttachmentPath, PublicFilePrefix+"materials/") &&
						mat.AttachmentPath != PublicFilePrefix+"lecture.mp4" &&
						mat.ExternalURL == "https://example.com/v"
				})).Return(func(ctx context.Context, mat *model.Material) *model.Material {
					return mat
				}, nil)
			},
			check: func(t *testing.T, mat *model.Material) {
				assert.NotEmpty(t, mat.AttachmentPath)
				assert.NotContains(t, mat.AttachmentPath, "lecture.mp4")
			},
		},
		{
			name:       "validation error - missing title",
			input:      SubmitInput{Subject: "DSA", Kind: "Notes"},
			attachment: func() *Attachment { return nil },
			setupMocks: func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockMaterialRepository) {},
			wantErr:    ErrValidation,
		},
		{
			name:       "validation error - unknown kind",
			input:      SubmitInput{Title: "x", Subject: "y", Kind: "Podcast"},
			attachment: func() *Attachment { return nil },
			setupMocks: func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockMaterialRepository) {},
			wantErr:    ErrValidation,
		},
		{
			name:  "validation error - nil attachment reader",
			input: validInput,
			attachment: func() *Attachment {
				return &Attachment{Filename: "notes.pdf"}
			},
			setupMocks: func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockMaterialRepository) {},
			wantErr:    ErrReaderNil,
		},
		{
			name:  "storage error aborts before any record is created",
			input: validInput,
			attachment: func() *Attachment {
				return &Attachment{Reader: strings.NewReader("hello"), Filename: "notes.pdf", Size: 5}
			},
			setupMocks: func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockMaterialRepository) {
				mStore.On("Put", ctx, mock.Anything, mock.Anything, mock.Anything).
					Return(storage.ObjectInfo{}, errors.New("storage fail"))
			},
			wantErrMsg: "store attachment: storage fail",
		},
		{
			name:  "repository error with successful rollback",
			input: validInput,
			attachment: func() *Attachment {
				return &Attachment{Reader: strings.NewReader("hello"), Filename: "notes.pdf", Size: 5}
			},
			setupMocks: func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockMaterialRepository) {
				mStore.On("Put", ctx, mock.Anything, mock.Anything, mock.Anything).
					Return(func(ctx context.Context, key string, r io.Reader, opt storage.PutObjectOptions) storage.ObjectInfo {
						return storage.ObjectInfo{Key: key}
					}, nil)
				mRepo.On("Create", ctx, mock.Anything).
					Return(nil, errors.New("db fail"))
				mStore.On("Delete", ctx, mock.Anything).Return(nil)
			},
			wantErrMsg: "record save failed: db fail",
		},
		{
			name:  "repository error with failed rollback",
			input: validInput,
			attachment: func() *Attachment {
				return &Attachment{Reader: strings.NewReader("hello"), Filename: "notes.pdf", Size: 5}
			},
			setupMocks: func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockMaterialRepository) {
				mStore.On("Put", ctx, mock.Anything, mock.Anything, mock.Anything).
					Return(func(ctx context.Context, key string, r io.Reader, opt storage.PutObjectOptions) storage.ObjectInfo {
						return storage.ObjectInfo{Key: key}
					}, nil)
				mRepo.On("Create", ctx, mock.Anything).
					Return(nil, errors.New("db fail"))
				mStore.On("Delete", ctx, mock.Anything).Return(errors.New("delete fail"))
			},
			wantErrMsg: "rollback delete failed: delete fail",
		},
		{
			name:       "repository error without attachment triggers no rollback",
			input:      validInput,
			attachment: func() *Attachment { return nil },
			setupMocks: func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockMaterialRepository) {
				mRepo.On("Create", ctx, mock.Anything).Return(nil, errors.New("db fail"))
			},
			wantErrMsg: "record save failed: db fail",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mStore := new(storeMocks.MockStorage)
			mRepo := new(repoMocks.MockMaterialRepository)
			svc := newTestService(mStore, mRepo)

			tt.setupMocks(mStore, mRepo)

			mat, err := svc.Submit(ctx, tt.input, tt.attachment())

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, mat)
			} else if tt.wantErrMsg != "" {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErrMsg)
				assert.Nil(t, mat)
			} else {
				assert.NoError(t, err)
				assert.NotNil(t, mat)
				if tt.check != nil {
					tt.check(t, mat)
				}
			}

			mStore.AssertExpectations(t)
			mRepo.AssertExpectations(t)
		})
	}
}

func TestMaterialService_SubmitAssignsDistinctIDs(t *testing.T) {
	ctx := context.Background()

	mRepo := new(repoMocks.MockMaterialRepository)
	mRepo.On("Create", ctx, mock.Anything).Return(func(ctx context.Context, mat *model.Material) *model.Material {
		return mat
	}, nil)

	svc := newTestService(nil, mRepo)

	seen := map[string]bool{}
	for i := 0; i < 5; i++ {
		mat, err := svc.Submit(ctx, SubmitInput{Title: "t", Subject: "s", Kind: "PDF"}, nil)
		assert.NoError(t, err)
		assert.False(t, seen[mat.ID], "id %q assigned twice", mat.ID)
		seen[mat.ID] = true
	}
}

func TestMaterialService_Lists(t *testing.T) {
	ctx := context.Background()

	t.Run("approved delegates to repository", func(t *testing.T) {
		mRepo := new(repoMocks.MockMaterialRepository)
		mRepo.On("FindByStatus", ctx, model.StatusApproved).
			Return([]model.Material{{ID: "2", Status: model.StatusApproved}, {ID: "1", Status: model.StatusApproved}}, nil)

		svc := newTestService(nil, mRepo)

		items, err := svc.ListApproved(ctx)

		assert.NoError(t, err)
		assert.Len(t, items, 2)
		for _, it := range items {
			assert.Equal(t, model.StatusApproved, it.Status)
		}
		mRepo.AssertExpectations(t)
	})

	t.Run("pending delegates to repository", func(t *testing.T) {
		mRepo := new(repoMocks.MockMaterialRepository)
		mRepo.On("FindByStatus", ctx, model.StatusPending).
			Return([]model.Material{{ID: "3", Status: model.StatusPending}}, nil)

		svc := newTestService(nil, mRepo)

		items, err := svc.ListPending(ctx)

		assert.NoError(t, err)
		assert.Len(t, items, 1)
		mRepo.AssertExpectations(t)
	})

	t.Run("repository error", func(t *testing.T) {
		mRepo := new(repoMocks.MockMaterialRepository)
		mRepo.On("FindByStatus", ctx, model.StatusApproved).Return(nil, errors.New("db fail"))

		svc := newTestService(nil, mRepo)

		_, err := svc.ListApproved(ctx)
		assert.Error(t, err)
	})
}

func TestMaterialService_Get(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name       string
		id         string
		setupMocks func(mRepo *repoMocks.MockMaterialRepository)
		wantErr    error
	}{
		{
			name: "happy path",
			id:   "valid-id",
			setupMocks: func(mRepo *repoMocks.MockMaterialRepository) {
				mRepo.On("FindByID", ctx, "valid-id").Return(&model.Material{ID: "valid-id"}, nil)
			},
		},
		{
			name:       "validation - empty id",
			id:         "",
			setupMocks: func(mRepo *repoMocks.MockMaterialRepository) {},
			wantErr:    ErrIDRequired,
		},
		{
			name: "not found - mapping sql.ErrNoRows",
			id:   "missing-id",
			setupMocks: func(mRepo *repoMocks.MockMaterialRepository) {
				mRepo.On("FindByID", ctx, "missing-id").Return(nil, sql.ErrNoRows)
			},
			wantErr: ErrNotFound,
		},
		{
			name: "generic repository error",
			id:   "error-id",
			setupMocks: func(mRepo *repoMocks.MockMaterialRepository) {
				mRepo.On("FindByID", ctx, "error-id").Return(nil, errors.New("db fail"))
			},
			wantErr: errors.New("db fail"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mRepo := new(repoMocks.MockMaterialRepository)
			svc := newTestService(nil, mRepo)

			tt.setupMocks(mRepo)

			mat, err := svc.Get(ctx, tt.id)

			if tt.wantErr != nil {
				if errors.Is(tt.wantErr, ErrIDRequired) || errors.Is(tt.wantErr, ErrNotFound) {
					assert.ErrorIs(t, err, tt.wantErr)
				} else {
					assert.Error(t, err)
				}
				assert.Nil(t, mat)
			} else {
				assert.NoError(t, err)
				assert.NotNil(t, mat)
				assert.Equal(t, tt.id, mat.ID)
			}
			mRepo.AssertExpectations(t)
		})
	}
}

func TestMaterialService_SetStatus(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name       string
		id         string
		status     string
		setupMocks func(mRepo *repoMocks.MockMaterialRepository)
		wantErr    error
	}{
		{
			name:   "approve",
			id:     "valid-id",
			status: "approved",
			setupMocks: func(mRepo *repoMocks.MockMaterialRepository) {
				mRepo.On("UpdateStatus", ctx, "valid-id", model.StatusApproved).
					Return(&model.Material{ID: "valid-id", Status: model.StatusApproved}, nil)
			},
		},
		{
			name:   "reject",
			id:     "valid-id",
			status: "rejected",
			setupMocks: func(mRepo *repoMocks.MockMaterialRepository) {
				mRepo.On("UpdateStatus", ctx, "valid-id", model.StatusRejected).
					Return(&model.Material{ID: "valid-id", Status: model.StatusRejected}, nil)
			},
		},
		{
			name:   "reopen back to pending",
			id:     "valid-id",
			status: "pending",
			setupMocks: func(mRepo *repoMocks.MockMaterialRepository) {
				mRepo.On("UpdateStatus", ctx, "valid-id", model.StatusPending).
					Return(&model.Material{ID: "valid-id", Status: model.StatusPending}, nil)
			},
		},
		{
			name:       "invalid status never reaches the store",
			id:         "valid-id",
			status:     "archived",
			setupMocks: func(mRepo *repoMocks.MockMaterialRepository) {},
			wantErr:    ErrInvalidStatus,
		},
		{
			name:       "empty id",
			id:         "",
			status:     "approved",
			setupMocks: func(mRepo *repoMocks.MockMaterialRepository) {},
			wantErr:    ErrIDRequired,
		},
		{
			name:   "unknown id",
			id:     "missing-id",
			status: "approved",
			setupMocks: func(mRepo *repoMocks.MockMaterialRepository) {
				mRepo.On("UpdateStatus", ctx, "missing-id", model.StatusApproved).
					Return(nil, sql.ErrNoRows)
			},
			wantErr: ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mRepo := new(repoMocks.MockMaterialRepository)
			svc := newTestService(nil, mRepo)

			tt.setupMocks(mRepo)

			mat, err := svc.SetStatus(ctx, tt.id, tt.status)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, mat)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, model.Status(tt.status), mat.Status)
			}
			mRepo.AssertExpectations(t)
		})
	}
}

func TestMaterialService_SetStatusIdempotent(t *testing.T) {
	ctx := context.Background()

	mRepo := new(repoMocks.MockMaterialRepository)
	mRepo.On("UpdateStatus", ctx, "id-1", model.StatusApproved).
		Return(&model.Material{ID: "id-1", Status: model.StatusApproved}, nil).Twice()

	svc := newTestService(nil, mRepo)

	first, err := svc.SetStatus(ctx, "id-1", "approved")
	assert.NoError(t, err)
	second, err := svc.SetStatus(ctx, "id-1", "approved")
	assert.NoError(t, err)

	assert.Equal(t, first.Status, second.Status)
	mRepo.AssertExpectations(t)
}

func TestMaterialService_OpenAttachment(t *testing.T) {
	ctx := context.Background()

	t.Run("resolves public path to storage key", func(t *testing.T) {
		mStore := new(storeMocks.MockStorage)
		mStore.On("Get", ctx, "materials/abc.pdf").
			Return(io.NopCloser(strings.NewReader("bytes")), storage.ObjectInfo{Key: "materials/abc.pdf", Size: 5}, nil)

		svc := newTestService(mStore, new(repoMocks.MockMaterialRepository))

		rc, info, err := svc.OpenAttachment(ctx, PublicFilePrefix+"materials/abc.pdf")

		assert.NoError(t, err)
		assert.Equal(t, int64(5), info.Size)
		b, _ := io.ReadAll(rc)
		assert.Equal(t, "bytes", string(b))
		mStore.AssertExpectations(t)
	})

	t.Run("path outside the public prefix", func(t *testing.T) {
		svc := newTestService(new(storeMocks.MockStorage), new(repoMocks.MockMaterialRepository))

		_, _, err := svc.OpenAttachment(ctx, "/etc/passwd")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}
