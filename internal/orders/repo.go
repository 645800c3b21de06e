package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sibusisodev/campusmart-backend/pkg/db/models"
)

// Repository persists orders and their lines.
type Repository struct {
	db *gorm.DB
}

// NewRepository returns an order repository over the given GORM handle.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx rebases the repository onto a transaction handle.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// Create inserts the order with its lines in one statement.
func (r *Repository) Create(ctx context.Context, order *models.Order) (*models.Order, error) {
	if err := r.db.WithContext(ctx).Create(order).Error; err != nil {
		return nil, err
	}
	return order, nil
}

// FindByID loads the order with its lines.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		First(&order, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// Update persists the mutated order row.
func (r *Repository) Update(ctx context.Context, order *models.Order) (*models.Order, error) {
	if err := r.db.WithContext(ctx).Save(order).Error; err != nil {
		return nil, err
	}
	return order, nil
}

// ListForBuyer returns the buyer's orders, newest first.
func (r *Repository) ListForBuyer(ctx context.Context, buyerID uuid.UUID) ([]models.Order, error) {
	var rows []models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("buyer_id = ?", buyerID).
		Order("placed_at DESC").
		Find(&rows).Error
	return rows, err
}

// ListForSeller returns the seller's orders, newest first.
func (r *Repository) ListForSeller(ctx context.Context, sellerID uuid.UUID) ([]models.Order, error) {
	var rows []models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("seller_id = ?", sellerID).
		Order("placed_at DESC").
		Find(&rows).Error
	return rows, err
}
