package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sibusisodev/campusmart-backend/pkg/db/models"
	"github.com/sibusisodev/campusmart-backend/pkg/enums"
	pkgerrors "github.com/sibusisodev/campusmart-backend/pkg/errors"
)

// Service exposes the buyer cart operations. Each buyer has at most one
// cart; it is created lazily on first use.
type Service interface {
	Get(ctx context.Context, buyerID uuid.UUID) (*CartDTO, error)
	AddItem(ctx context.Context, buyerID, itemID uuid.UUID, quantity int) (*CartDTO, error)
	UpdateQuantity(ctx context.Context, buyerID, lineID uuid.UUID, quantity int) (*CartDTO, error)
	RemoveItem(ctx context.Context, buyerID, lineID uuid.UUID) (*CartDTO, error)
	Clear(ctx context.Context, buyerID uuid.UUID) error
}

type cartRepository interface {
	FindByBuyer(ctx context.Context, buyerID uuid.UUID) (*models.Cart, error)
	Create(ctx context.Context, cart *models.Cart) (*models.Cart, error)
	AddLine(ctx context.Context, line *models.CartItem) (*models.CartItem, error)
	UpdateLineQuantity(ctx context.Context, lineID uuid.UUID, quantity int) error
	RemoveLine(ctx context.Context, lineID uuid.UUID) error
	ClearLines(ctx context.Context, cartID uuid.UUID) error
	Touch(ctx context.Context, cartID uuid.UUID) error
}

type listingReader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Item, error)
}

type service struct {
	repo     cartRepository
	listings listingReader
}

// NewService constructs the cart service.
func NewService(repo cartRepository, listings listingReader) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if listings == nil {
		return nil, fmt.Errorf("listing reader required")
	}
	return &service{repo: repo, listings: listings}, nil
}

func (s *service) Get(ctx context.Context, buyerID uuid.UUID) (*CartDTO, error) {
	cart, err := s.getOrCreate(ctx, buyerID)
	if err != nil {
		return nil, err
	}
	return s.render(ctx, cart)
}

func (s *service) AddItem(ctx context.Context, buyerID, itemID uuid.UUID, quantity int) (*CartDTO, error) {
	if quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}

	listing, err := s.listings.FindByID(ctx, itemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load item")
	}
	if listing.SellerID == buyerID {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cannot add your own listing")
	}
	if listing.Status != enums.ItemStatusAvailable {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "item is no longer available")
	}

	cart, err := s.getOrCreate(ctx, buyerID)
	if err != nil {
		return nil, err
	}

	for _, line := range cart.Items {
		if line.ItemID == itemID {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "item already in cart")
		}
	}

	if _, err := s.repo.AddLine(ctx, &models.CartItem{
		CartID:   cart.ID,
		ItemID:   itemID,
		Quantity: quantity,
	}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert cart line")
	}
	if err := s.repo.Touch(ctx, cart.ID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: touch cart")
	}
	return s.reload(ctx, buyerID)
}

func (s *service) UpdateQuantity(ctx context.Context, buyerID, lineID uuid.UUID, quantity int) (*CartDTO, error) {
	if quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	cart, line, err := s.findLine(ctx, buyerID, lineID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.UpdateLineQuantity(ctx, line.ID, quantity); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update cart line")
	}
	if err := s.repo.Touch(ctx, cart.ID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: touch cart")
	}
	return s.reload(ctx, buyerID)
}

func (s *service) RemoveItem(ctx context.Context, buyerID, lineID uuid.UUID) (*CartDTO, error) {
	cart, line, err := s.findLine(ctx, buyerID, lineID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.RemoveLine(ctx, line.ID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: remove cart line")
	}
	if err := s.repo.Touch(ctx, cart.ID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: touch cart")
	}
	return s.reload(ctx, buyerID)
}

func (s *service) Clear(ctx context.Context, buyerID uuid.UUID) error {
	cart, err := s.repo.FindByBuyer(ctx, buyerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	if err := s.repo.ClearLines(ctx, cart.ID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: clear cart")
	}
	if err := s.repo.Touch(ctx, cart.ID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: touch cart")
	}
	return nil
}

func (s *service) getOrCreate(ctx context.Context, buyerID uuid.UUID) (*models.Cart, error) {
	if buyerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "buyer id is required")
	}
	cart, err := s.repo.FindByBuyer(ctx, buyerID)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	created, err := s.repo.Create(ctx, &models.Cart{BuyerID: buyerID})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: create cart")
	}
	return created, nil
}

func (s *service) findLine(ctx context.Context, buyerID, lineID uuid.UUID) (*models.Cart, *models.CartItem, error) {
	cart, err := s.repo.FindByBuyer(ctx, buyerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart line not found")
		}
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	for i := range cart.Items {
		if cart.Items[i].ID == lineID {
			return cart, &cart.Items[i], nil
		}
	}
	return nil, nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart line not found")
}

func (s *service) reload(ctx context.Context, buyerID uuid.UUID) (*CartDTO, error) {
	cart, err := s.repo.FindByBuyer(ctx, buyerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload cart")
	}
	return s.render(ctx, cart)
}

func (s *service) render(ctx context.Context, cart *models.Cart) (*CartDTO, error) {
	listings := make(map[uuid.UUID]*models.Item, len(cart.Items))
	for _, line := range cart.Items {
		if _, ok := listings[line.ItemID]; ok {
			continue
		}
		listing, err := s.listings.FindByID(ctx, line.ItemID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				continue
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart item")
		}
		listings[line.ItemID] = listing
	}
	return buildCartDTO(cart, listings), nil
}
