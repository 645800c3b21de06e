package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/sibusisodev/campusmart-backend/internal/cart"
	"github.com/sibusisodev/campusmart-backend/internal/items"
	"github.com/sibusisodev/campusmart-backend/pkg/db/models"
	"github.com/sibusisodev/campusmart-backend/pkg/enums"
	pkgerrors "github.com/sibusisodev/campusmart-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type orderRepository interface {
	Create(ctx context.Context, order *models.Order) (*models.Order, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	Update(ctx context.Context, order *models.Order) (*models.Order, error)
	ListForBuyer(ctx context.Context, buyerID uuid.UUID) ([]models.Order, error)
	ListForSeller(ctx context.Context, sellerID uuid.UUID) ([]models.Order, error)
}

type cartStore interface {
	FindByBuyer(ctx context.Context, buyerID uuid.UUID) (*models.Cart, error)
	ClearLines(ctx context.Context, cartID uuid.UUID) error
}

type itemStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Item, error)
	Update(ctx context.Context, item *models.Item) (*models.Item, error)
}

// Service exposes checkout and order lifecycle operations.
type Service interface {
	PlaceFromCart(ctx context.Context, buyerID uuid.UUID, input PlaceOrderInput) ([]OrderDTO, error)
	Get(ctx context.Context, userID, orderID uuid.UUID) (*OrderDTO, error)
	ListForBuyer(ctx context.Context, buyerID uuid.UUID) ([]OrderDTO, error)
	ListForSeller(ctx context.Context, sellerID uuid.UUID) ([]OrderDTO, error)
	UpdateStatus(ctx context.Context, actorID, orderID uuid.UUID, next enums.OrderStatus) (*OrderDTO, error)
}

// PlaceOrderInput carries the checkout knobs beyond the cart contents.
type PlaceOrderInput struct {
	DeliveryCost decimal.Decimal
	Notes        *string
}

// ServiceParams packages the dependencies for the order service. The repo
// factories receive the checkout transaction so every write commits or
// rolls back together.
type ServiceParams struct {
	TxRunner         txRunner
	OrderRepo        orderRepository
	OrderRepoFactory func(tx *gorm.DB) orderRepository
	CartRepoFactory  func(tx *gorm.DB) cartStore
	ItemRepoFactory  func(tx *gorm.DB) itemStore
}

type service struct {
	tx        txRunner
	repo      orderRepository
	orderRepo func(tx *gorm.DB) orderRepository
	cartRepo  func(tx *gorm.DB) cartStore
	itemRepo  func(tx *gorm.DB) itemStore
}

// NewService constructs the order service.
func NewService(params ServiceParams) (Service, error) {
	if params.TxRunner == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.OrderRepo == nil {
		return nil, fmt.Errorf("order repository required")
	}
	if params.OrderRepoFactory == nil || params.CartRepoFactory == nil || params.ItemRepoFactory == nil {
		return nil, fmt.Errorf("repository factories required")
	}
	return &service{
		tx:        params.TxRunner,
		repo:      params.OrderRepo,
		orderRepo: params.OrderRepoFactory,
		cartRepo:  params.CartRepoFactory,
		itemRepo:  params.ItemRepoFactory,
	}, nil
}

// NewServiceWithDefaults wires the real repositories around the runner.
func NewServiceWithDefaults(runner txRunner, db *gorm.DB) (Service, error) {
	return NewService(ServiceParams{
		TxRunner:  runner,
		OrderRepo: NewRepository(db),
		OrderRepoFactory: func(tx *gorm.DB) orderRepository {
			return NewRepository(tx)
		},
		CartRepoFactory: func(tx *gorm.DB) cartStore {
			return cart.NewRepository(tx)
		},
		ItemRepoFactory: func(tx *gorm.DB) itemStore {
			return items.NewRepository(tx)
		},
	})
}

// PlaceFromCart snapshots the buyer's cart into one order per seller.
// Listing prices are frozen on the order lines and the listings move to
// pending. The cart is cleared on success.
func (s *service) PlaceFromCart(ctx context.Context, buyerID uuid.UUID, input PlaceOrderInput) ([]OrderDTO, error) {
	if buyerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "buyer id is required")
	}
	if input.DeliveryCost.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "delivery cost must not be negative")
	}

	var placed []OrderDTO
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		orderRepo := s.orderRepo(tx)
		cartRepo := s.cartRepo(tx)
		itemRepo := s.itemRepo(tx)

		buyerCart, err := cartRepo.FindByBuyer(ctx, buyerID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
		}
		if len(buyerCart.Items) == 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
		}

		type sellerGroup struct {
			seller   uuid.UUID
			listings []*models.Item
			lines    []models.CartItem
		}
		groups := make(map[uuid.UUID]*sellerGroup)
		order := make([]uuid.UUID, 0)

		for _, line := range buyerCart.Items {
			listing, err := itemRepo.FindByID(ctx, line.ItemID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return pkgerrors.New(pkgerrors.CodeStateConflict, "a cart item no longer exists")
				}
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart item")
			}
			if listing.Status != enums.ItemStatusAvailable {
				return pkgerrors.New(pkgerrors.CodeStateConflict,
					fmt.Sprintf("item %q is no longer available", listing.Title))
			}
			group, ok := groups[listing.SellerID]
			if !ok {
				group = &sellerGroup{seller: listing.SellerID}
				groups[listing.SellerID] = group
				order = append(order, listing.SellerID)
			}
			group.listings = append(group.listings, listing)
			group.lines = append(group.lines, line)
		}

		for _, sellerID := range order {
			group := groups[sellerID]
			orderLines := make([]models.OrderItem, 0, len(group.lines))
			total := input.DeliveryCost
			for i, line := range group.lines {
				listing := group.listings[i]
				lineTotal := listing.Price.Mul(decimal.NewFromInt(int64(line.Quantity)))
				total = total.Add(lineTotal)
				orderLines = append(orderLines, models.OrderItem{
					ItemID:          listing.ID,
					Quantity:        line.Quantity,
					PriceAtPurchase: listing.Price,
					LineTotal:       lineTotal,
				})
			}

			created, err := orderRepo.Create(ctx, &models.Order{
				BuyerID:                buyerID,
				SellerID:               sellerID,
				Status:                 enums.OrderStatusPending,
				Total:                  total,
				DeliveryCost:           input.DeliveryCost,
				CollectionAddress:      group.listings[0].CollectionAddress,
				CollectionInstructions: group.listings[0].CollectionInstructions,
				Notes:                  input.Notes,
				Items:                  orderLines,
			})
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert order")
			}

			for _, listing := range group.listings {
				listing.Status = enums.ItemStatusPending
				if _, err := itemRepo.Update(ctx, listing); err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: mark item pending")
				}
			}
			placed = append(placed, *FromModel(created))
		}

		if err := cartRepo.ClearLines(ctx, buyerCart.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: clear cart")
		}
		return nil
	})
	if err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "place order")
	}
	return placed, nil
}

func (s *service) Get(ctx context.Context, userID, orderID uuid.UUID) (*OrderDTO, error) {
	order, err := s.loadVisible(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}
	return FromModel(order), nil
}

func (s *service) ListForBuyer(ctx context.Context, buyerID uuid.UUID) ([]OrderDTO, error) {
	rows, err := s.repo.ListForBuyer(ctx, buyerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list buyer orders")
	}
	return toDTOs(rows), nil
}

func (s *service) ListForSeller(ctx context.Context, sellerID uuid.UUID) ([]OrderDTO, error) {
	rows, err := s.repo.ListForSeller(ctx, sellerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list seller orders")
	}
	return toDTOs(rows), nil
}

// UpdateStatus applies one lifecycle transition. Sellers confirm and
// complete; either party can cancel while the order is still open.
func (s *service) UpdateStatus(ctx context.Context, actorID, orderID uuid.UUID, next enums.OrderStatus) (*OrderDTO, error) {
	if !next.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid status")
	}

	var updated *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		orderRepo := s.orderRepo(tx)
		itemRepo := s.itemRepo(tx)

		order, err := orderRepo.FindByID(ctx, orderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}
		if order.BuyerID != actorID && order.SellerID != actorID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "order does not belong to user")
		}
		if (next == enums.OrderStatusConfirmed || next == enums.OrderStatusCompleted) && actorID != order.SellerID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "only the seller can confirm or complete")
		}
		if !order.Status.CanTransitionTo(next) {
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("cannot move order from %s to %s", order.Status, next))
		}

		order.Status = next
		if next == enums.OrderStatusCompleted {
			now := time.Now().UTC()
			order.CompletedAt = &now
		}
		if _, err := orderRepo.Update(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update order")
		}

		// Completed orders mark their listings sold; cancelled orders
		// release them back to the marketplace.
		var itemStatus enums.ItemStatus
		switch next {
		case enums.OrderStatusCompleted:
			itemStatus = enums.ItemStatusSold
		case enums.OrderStatusCancelled:
			itemStatus = enums.ItemStatusAvailable
		default:
			updated = order
			return nil
		}
		for _, line := range order.Items {
			listing, err := itemRepo.FindByID(ctx, line.ItemID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					continue
				}
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order item")
			}
			if !listing.Status.CanTransitionTo(itemStatus) {
				continue
			}
			listing.Status = itemStatus
			if _, err := itemRepo.Update(ctx, listing); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update item status")
			}
		}
		updated = order
		return nil
	})
	if err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
	}
	return FromModel(updated), nil
}

func (s *service) loadVisible(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if order.BuyerID != userID && order.SellerID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order does not belong to user")
	}
	return order, nil
}

func toDTOs(rows []models.Order) []OrderDTO {
	dtos := make([]OrderDTO, 0, len(rows))
	for i := range rows {
		dtos = append(dtos, *FromModel(&rows[i]))
	}
	return dtos
}
