package items

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sibusisodev/campusmart-backend/pkg/db/models"
	"github.com/sibusisodev/campusmart-backend/pkg/enums"
	"github.com/sibusisodev/campusmart-backend/pkg/pagination"
)

// Repository wires together listing persistence helpers.
type Repository struct {
	db *gorm.DB
}

// NewRepository returns a listing repository over the given GORM handle.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx rebases the repository onto a transaction handle.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// Create inserts the listing row.
func (r *Repository) Create(ctx context.Context, item *models.Item) (*models.Item, error) {
	if err := r.db.WithContext(ctx).Create(item).Error; err != nil {
		return nil, err
	}
	return item, nil
}

// FindByID loads the listing with its photos ordered by position.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Item, error) {
	var item models.Item
	err := r.db.WithContext(ctx).
		Preload("Photos", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		First(&item, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// Update persists the mutated listing row.
func (r *Repository) Update(ctx context.Context, item *models.Item) (*models.Item, error) {
	if err := r.db.WithContext(ctx).Save(item).Error; err != nil {
		return nil, err
	}
	return item, nil
}

// Delete removes the listing. Photo rows cascade at the database level.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&models.Item{}).
		Error
}

// IncrementViews bumps the view counter without loading the row.
func (r *Repository) IncrementViews(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.Item{}).
		Where("id = ?", id).
		UpdateColumn("views_count", gorm.Expr("views_count + 1")).
		Error
}

// List returns one keyset page of listings ordered by posted_at descending.
func (r *Repository) List(ctx context.Context, input ListInput) (*ListResult, error) {
	pageSize := pagination.NormalizeLimit(input.Pagination.Limit)
	limitWithBuffer := pagination.LimitWithBuffer(input.Pagination.Limit)

	cursor, err := pagination.ParseCursor(input.Pagination.Cursor)
	if err != nil {
		return nil, err
	}

	qb := r.db.WithContext(ctx).
		Model(&models.Item{}).
		Preload("Photos", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		})

	filter := input.Filters
	if filter.CategoryID != nil {
		qb = qb.Where("category_id = ?", *filter.CategoryID)
	}
	if filter.Condition != nil {
		qb = qb.Where("condition = ?", *filter.Condition)
	}
	if filter.Status != nil {
		qb = qb.Where("status = ?", *filter.Status)
	} else if input.SellerID == nil {
		qb = qb.Where("status = ?", enums.ItemStatusAvailable)
	}
	if filter.PriceMin != nil {
		qb = qb.Where("price >= ?", *filter.PriceMin)
	}
	if filter.PriceMax != nil {
		qb = qb.Where("price <= ?", *filter.PriceMax)
	}
	if search := strings.TrimSpace(filter.Query); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		qb = qb.Where("(LOWER(title) LIKE ? OR LOWER(description) LIKE ?)", pattern, pattern)
	}
	if input.SellerID != nil {
		qb = qb.Where("seller_id = ?", *input.SellerID)
	}

	if cursor != nil {
		qb = qb.Where("(posted_at < ?) OR (posted_at = ? AND id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	var rows []models.Item
	if err := qb.Order("posted_at DESC").Order("id DESC").Limit(limitWithBuffer).Find(&rows).Error; err != nil {
		return nil, err
	}

	nextCursor := ""
	if len(rows) > pageSize {
		rows = rows[:pageSize]
		last := rows[len(rows)-1]
		nextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.PostedAt, ID: last.ID})
	}

	dtos := make([]ItemDTO, 0, len(rows))
	for i := range rows {
		dtos = append(dtos, *FromModel(&rows[i]))
	}
	return &ListResult{
		Items:      dtos,
		NextCursor: nextCursor,
	}, nil
}

// ListCategories returns the active browse categories ordered by name.
func (r *Repository) ListCategories(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("name ASC").
		Find(&categories).Error
	return categories, err
}

// FindCategory loads one category row.
func (r *Repository) FindCategory(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	var category models.Category
	if err := r.db.WithContext(ctx).First(&category, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &category, nil
}
