package cart

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sibusisodev/campusmart-backend/pkg/db/models"
)

// Repository exposes persistence operations for buyer carts.
type Repository struct {
	db *gorm.DB
}

// NewRepository returns a cart repository over the given GORM handle.
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

// FindByBuyer loads the buyer's cart with its lines.
func (r *Repository) FindByBuyer(ctx context.Context, buyerID uuid.UUID) (*models.Cart, error) {
	var cart models.Cart
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("added_at ASC")
		}).
		Where("buyer_id = ?", buyerID).
		First(&cart).Error
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

// Create inserts a new cart for the buyer.
func (r *Repository) Create(ctx context.Context, cart *models.Cart) (*models.Cart, error) {
	if err := r.db.WithContext(ctx).Create(cart).Error; err != nil {
		return nil, err
	}
	return cart, nil
}

// AddLine inserts one cart line. The unique (cart_id, item_id) index
// rejects duplicates.
func (r *Repository) AddLine(ctx context.Context, line *models.CartItem) (*models.CartItem, error) {
	if err := r.db.WithContext(ctx).Create(line).Error; err != nil {
		return nil, err
	}
	return line, nil
}

// UpdateLineQuantity sets the quantity on an existing line.
func (r *Repository) UpdateLineQuantity(ctx context.Context, lineID uuid.UUID, quantity int) error {
	return r.db.WithContext(ctx).
		Model(&models.CartItem{}).
		Where("id = ?", lineID).
		Update("quantity", quantity).
		Error
}

// RemoveLine deletes one line from the cart.
func (r *Repository) RemoveLine(ctx context.Context, lineID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("id = ?", lineID).
		Delete(&models.CartItem{}).
		Error
}

// ClearLines removes every line from the cart.
func (r *Repository) ClearLines(ctx context.Context, cartID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("cart_id = ?", cartID).
		Delete(&models.CartItem{}).
		Error
}

// Touch bumps the cart's updated_at timestamp.
func (r *Repository) Touch(ctx context.Context, cartID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.Cart{}).
		Where("id = ?", cartID).
		Update("updated_at", time.Now().UTC()).
		Error
}
