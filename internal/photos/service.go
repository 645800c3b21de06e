package photos

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/sibusisodev/campusmart-backend/pkg/db/models"
	pkgerrors "github.com/sibusisodev/campusmart-backend/pkg/errors"
	"github.com/sibusisodev/campusmart-backend/pkg/storage/gcs"
)

type photoRepository interface {
	Create(ctx context.Context, photo *models.ItemPhoto) (*models.ItemPhoto, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.ItemPhoto, error)
	Delete(ctx context.Context, id uuid.UUID) error
	ListForItem(ctx context.Context, itemID uuid.UUID) ([]models.ItemPhoto, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]models.ItemPhoto, error)
	CountForItem(ctx context.Context, itemID uuid.UUID) (int64, error)
	UpdatePosition(ctx context.Context, id uuid.UUID, position int) error
	TouchItem(ctx context.Context, itemID uuid.UUID) error
	SetProfilePictureURL(ctx context.Context, userID uuid.UUID, url *string) error
	StatsForUser(ctx context.Context, userID uuid.UUID) (*UserPhotoStats, error)
}

type objectRemover interface {
	Delete(ctx context.Context, objectURL string) error
}

// Service owns photo metadata rows and keeps them in sync with the
// objects behind them.
type Service interface {
	CreateRecord(ctx context.Context, input CreateRecordInput) (*models.ItemPhoto, error)
	Reorder(ctx context.Context, updates []PositionUpdate) error
	DeleteRecord(ctx context.Context, recordID uuid.UUID) error
	ListForItem(ctx context.Context, itemID uuid.UUID) ([]models.ItemPhoto, error)
	CountForItem(ctx context.Context, itemID uuid.UUID) (int64, error)
	CompleteItemUpload(ctx context.Context, itemID uuid.UUID) error
	CompleteProfileUpload(ctx context.Context, userID uuid.UUID, url string) error
	Stats(ctx context.Context, userID uuid.UUID) (*UserPhotoStats, error)
}

type service struct {
	repo    photoRepository
	storage objectRemover
}

// NewService constructs a photo record service over the provided repository
// and object storage.
func NewService(repo photoRepository, storage objectRemover) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("photo repository required")
	}
	if storage == nil {
		return nil, fmt.Errorf("object storage required")
	}
	return &service{repo: repo, storage: storage}, nil
}

// CreateRecordInput models the metadata persisted after a storage upload.
// Exactly one of ItemID/UserID must be set.
type CreateRecordInput struct {
	ItemID           *uuid.UUID
	UserID           *uuid.UUID
	URL              string
	FileName         string
	OriginalFileName string
	SizeBytes        int64
	Position         int
}

// PositionUpdate assigns a new ordinal position to one record.
type PositionUpdate struct {
	RecordID uuid.UUID `json:"record_id"`
	Position int       `json:"position"`
}

func (s *service) CreateRecord(ctx context.Context, input CreateRecordInput) (*models.ItemPhoto, error) {
	if (input.ItemID == nil) == (input.UserID == nil) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "exactly one of item_id/user_id must be set")
	}
	if strings.TrimSpace(input.URL) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "url is required")
	}
	if strings.TrimSpace(input.FileName) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "file_name is required")
	}
	if input.SizeBytes < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "size_bytes must not be negative")
	}
	if input.Position < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "position must not be negative")
	}

	row := &models.ItemPhoto{
		ID:               uuid.New(),
		ItemID:           input.ItemID,
		UserID:           input.UserID,
		URL:              input.URL,
		FileName:         input.FileName,
		OriginalFileName: input.OriginalFileName,
		SizeBytes:        input.SizeBytes,
		Position:         input.Position,
	}
	created, err := s.repo.Create(ctx, row)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist photo record")
	}
	return created, nil
}

// Reorder applies every (record, position) pair independently. Pairs run
// concurrently against the store; duplicate positions are a caller error and
// are not rejected here.
func (s *service) Reorder(ctx context.Context, updates []PositionUpdate) error {
	for _, update := range updates {
		if update.RecordID == uuid.Nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "record_id is required")
		}
		if update.Position < 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "position must not be negative")
		}
	}

	errs := make([]error, len(updates))
	var wg sync.WaitGroup
	for i, update := range updates {
		wg.Add(1)
		go func(i int, update PositionUpdate) {
			defer wg.Done()
			if err := s.repo.UpdatePosition(ctx, update.RecordID, update.Position); err != nil {
				errs[i] = fmt.Errorf("reorder photo %s: %w", update.RecordID, err)
			}
		}(i, update)
	}
	wg.Wait()

	if combined := multierr.Combine(errs...); combined != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, combined, "apply photo reorder")
	}
	return nil
}

// DeleteRecord removes the stored object first, then the metadata row. If the
// object removal fails the row is kept: an orphaned object is preferable to a
// dangling record.
func (s *service) DeleteRecord(ctx context.Context, recordID uuid.UUID) error {
	if recordID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "record_id is required")
	}

	record, err := s.repo.FindByID(ctx, recordID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "photo record not found")
	}

	if err := s.storage.Delete(ctx, record.URL); err != nil {
		if errors.Is(err, gcs.ErrInvalidObjectURL) {
			return pkgerrors.Wrap(pkgerrors.CodeStateConflict, err, "photo url does not reference managed storage")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove stored object")
	}

	if err := s.repo.Delete(ctx, recordID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete photo record")
	}

	if record.ItemID != nil {
		if err := s.repo.TouchItem(ctx, *record.ItemID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "touch item after photo delete")
		}
	}
	return nil
}

// ListForItem returns the item's photos ordered by position ascending.
func (s *service) ListForItem(ctx context.Context, itemID uuid.UUID) ([]models.ItemPhoto, error) {
	if itemID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "item_id is required")
	}
	rows, err := s.repo.ListForItem(ctx, itemID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list item photos")
	}
	return rows, nil
}

func (s *service) CountForItem(ctx context.Context, itemID uuid.UUID) (int64, error) {
	if itemID == uuid.Nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "item_id is required")
	}
	count, err := s.repo.CountForItem(ctx, itemID)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count item photos")
	}
	return count, nil
}

// CompleteItemUpload marks the parent item as updated after its photo set
// changed.
func (s *service) CompleteItemUpload(ctx context.Context, itemID uuid.UUID) error {
	if itemID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "item_id is required")
	}
	if err := s.repo.TouchItem(ctx, itemID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "touch item after photo upload")
	}
	return nil
}

// CompleteProfileUpload points the user's profile at the freshly uploaded
// picture.
func (s *service) CompleteProfileUpload(ctx context.Context, userID uuid.UUID, url string) error {
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user_id is required")
	}
	if strings.TrimSpace(url) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "url is required")
	}
	if err := s.repo.SetProfilePictureURL(ctx, userID, &url); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "set profile picture url")
	}
	return nil
}

// UserPhotoStats summarizes a user's photo footprint.
type UserPhotoStats struct {
	ItemPhotoCount    int64 `json:"item_photo_count"`
	ProfilePhotoCount int64 `json:"profile_photo_count"`
	TotalBytes        int64 `json:"total_bytes"`
}

func (s *service) Stats(ctx context.Context, userID uuid.UUID) (*UserPhotoStats, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user_id is required")
	}
	stats, err := s.repo.StatsForUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "aggregate photo stats")
	}
	return stats, nil
}
