package items

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/sibusisodev/campusmart-backend/internal/photos/sweeper"
	"github.com/sibusisodev/campusmart-backend/pkg/db/models"
	"github.com/sibusisodev/campusmart-backend/pkg/enums"
	pkgerrors "github.com/sibusisodev/campusmart-backend/pkg/errors"
	"github.com/sibusisodev/campusmart-backend/pkg/logger"
)

// Service exposes listing management and browse operations.
type Service interface {
	Create(ctx context.Context, sellerID uuid.UUID, input CreateItemInput) (*ItemDTO, error)
	Update(ctx context.Context, sellerID, itemID uuid.UUID, input UpdateItemInput) (*ItemDTO, error)
	Delete(ctx context.Context, sellerID, itemID uuid.UUID) error
	Get(ctx context.Context, itemID uuid.UUID, viewerID *uuid.UUID) (*ItemDTO, error)
	Browse(ctx context.Context, input ListInput) (*ListResult, error)
	ChangeStatus(ctx context.Context, sellerID, itemID uuid.UUID, next enums.ItemStatus) (*ItemDTO, error)
	Categories(ctx context.Context) ([]CategoryDTO, error)
}

// CreateItemInput holds the validated payload to create a listing.
type CreateItemInput struct {
	CategoryID             uuid.UUID
	Title                  string
	Description            string
	Price                  decimal.Decimal
	Condition              enums.ItemCondition
	CollectionAddress      string
	CollectionInstructions *string
}

// UpdateItemInput holds optional mutation values for a listing.
type UpdateItemInput struct {
	CategoryID             *uuid.UUID
	Title                  *string
	Description            *string
	Price                  *decimal.Decimal
	Condition              *enums.ItemCondition
	CollectionAddress      *string
	CollectionInstructions *string
}

type itemRepository interface {
	Create(ctx context.Context, item *models.Item) (*models.Item, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Item, error)
	Update(ctx context.Context, item *models.Item) (*models.Item, error)
	Delete(ctx context.Context, id uuid.UUID) error
	IncrementViews(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, input ListInput) (*ListResult, error)
	ListCategories(ctx context.Context) ([]models.Category, error)
	FindCategory(ctx context.Context, id uuid.UUID) (*models.Category, error)
}

type deletionPublisher interface {
	PublishDeletion(ctx context.Context, event sweeper.DeletionEvent) error
}

type service struct {
	repo      itemRepository
	deletions deletionPublisher
	logg      *logger.Logger
}

// NewService constructs a listings service. The deletion publisher may be nil
// when no event transport is configured; photo objects are then left to the
// reconciliation sweep.
func NewService(repo itemRepository, deletions deletionPublisher, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("item repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, deletions: deletions, logg: logg}, nil
}

func (s *service) Create(ctx context.Context, sellerID uuid.UUID, input CreateItemInput) (*ItemDTO, error) {
	if sellerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "seller id is required")
	}
	if err := validateCreateInput(input); err != nil {
		return nil, err
	}
	if _, err := s.repo.FindCategory(ctx, input.CategoryID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown category")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load category")
	}

	item := &models.Item{
		SellerID:               sellerID,
		CategoryID:             input.CategoryID,
		Title:                  strings.TrimSpace(input.Title),
		Description:            strings.TrimSpace(input.Description),
		Price:                  input.Price,
		Condition:              input.Condition,
		Status:                 enums.ItemStatusAvailable,
		CollectionAddress:      strings.TrimSpace(input.CollectionAddress),
		CollectionInstructions: input.CollectionInstructions,
	}
	created, err := s.repo.Create(ctx, item)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert item")
	}
	return FromModel(created), nil
}

func (s *service) Update(ctx context.Context, sellerID, itemID uuid.UUID, input UpdateItemInput) (*ItemDTO, error) {
	item, err := s.loadOwned(ctx, sellerID, itemID)
	if err != nil {
		return nil, err
	}

	if input.CategoryID != nil {
		if _, err := s.repo.FindCategory(ctx, *input.CategoryID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown category")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load category")
		}
		item.CategoryID = *input.CategoryID
	}
	if input.Title != nil {
		if strings.TrimSpace(*input.Title) == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "title is required")
		}
		item.Title = strings.TrimSpace(*input.Title)
	}
	if input.Description != nil {
		item.Description = strings.TrimSpace(*input.Description)
	}
	if input.Price != nil {
		if input.Price.LessThanOrEqual(decimal.Zero) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must be positive")
		}
		item.Price = *input.Price
	}
	if input.Condition != nil {
		if !input.Condition.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid condition")
		}
		item.Condition = *input.Condition
	}
	if input.CollectionAddress != nil {
		item.CollectionAddress = strings.TrimSpace(*input.CollectionAddress)
	}
	if input.CollectionInstructions != nil {
		item.CollectionInstructions = input.CollectionInstructions
	}

	updated, err := s.repo.Update(ctx, item)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update item")
	}
	return FromModel(updated), nil
}

// Delete removes the listing and emits a deletion event per photo so the
// sweep reclaims the stored objects. Photo rows cascade with the listing.
func (s *service) Delete(ctx context.Context, sellerID, itemID uuid.UUID) error {
	item, err := s.loadOwned(ctx, sellerID, itemID)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, itemID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: delete item")
	}

	if s.deletions == nil {
		return nil
	}
	for _, photo := range item.Photos {
		event := sweeper.DeletionEvent{
			ObjectURL: photo.URL,
			RecordID:  photo.ID,
			Reason:    "item_deleted",
		}
		if err := s.deletions.PublishDeletion(ctx, event); err != nil {
			s.logg.Warn(ctx, fmt.Sprintf("publish deletion for photo %s failed: %v", photo.ID, err))
		}
	}
	return nil
}

func (s *service) Get(ctx context.Context, itemID uuid.UUID, viewerID *uuid.UUID) (*ItemDTO, error) {
	item, err := s.repo.FindByID(ctx, itemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load item")
	}

	if viewerID == nil || *viewerID != item.SellerID {
		if err := s.repo.IncrementViews(ctx, itemID); err != nil {
			s.logg.Warn(ctx, fmt.Sprintf("increment views for item %s failed: %v", itemID, err))
		} else {
			item.ViewsCount++
		}
	}
	return FromModel(item), nil
}

func (s *service) Browse(ctx context.Context, input ListInput) (*ListResult, error) {
	if input.Filters.Condition != nil && !input.Filters.Condition.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid condition")
	}
	if input.Filters.Status != nil && !input.Filters.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid status")
	}
	result, err := s.repo.List(ctx, input)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list items")
	}
	return result, nil
}

func (s *service) ChangeStatus(ctx context.Context, sellerID, itemID uuid.UUID, next enums.ItemStatus) (*ItemDTO, error) {
	if !next.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid status")
	}
	item, err := s.loadOwned(ctx, sellerID, itemID)
	if err != nil {
		return nil, err
	}
	if !item.Status.CanTransitionTo(next) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("cannot move item from %s to %s", item.Status, next))
	}
	item.Status = next
	updated, err := s.repo.Update(ctx, item)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update item status")
	}
	return FromModel(updated), nil
}

func (s *service) Categories(ctx context.Context) ([]CategoryDTO, error) {
	rows, err := s.repo.ListCategories(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list categories")
	}
	dtos := make([]CategoryDTO, 0, len(rows))
	for i := range rows {
		dtos = append(dtos, *CategoryFromModel(&rows[i]))
	}
	return dtos, nil
}

func (s *service) loadOwned(ctx context.Context, sellerID, itemID uuid.UUID) (*models.Item, error) {
	item, err := s.repo.FindByID(ctx, itemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load item")
	}
	if item.SellerID != sellerID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "item does not belong to seller")
	}
	return item, nil
}

func validateCreateInput(input CreateItemInput) error {
	if input.CategoryID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "category id is required")
	}
	if strings.TrimSpace(input.Title) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "title is required")
	}
	if input.Price.LessThanOrEqual(decimal.Zero) {
		return pkgerrors.New(pkgerrors.CodeValidation, "price must be positive")
	}
	if !input.Condition.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid condition")
	}
	if strings.TrimSpace(input.CollectionAddress) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "collection address is required")
	}
	return nil
}
