package payments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	sq "github.com/square/square-go-sdk"
	"gorm.io/gorm"

	"github.com/sibusisodev/campusmart-backend/pkg/db/models"
	"github.com/sibusisodev/campusmart-backend/pkg/enums"
	pkgerrors "github.com/sibusisodev/campusmart-backend/pkg/errors"
	"github.com/sibusisodev/campusmart-backend/pkg/square"
)

type cardCharger interface {
	CreatePayment(ctx context.Context, params square.PaymentCreateParams) (*sq.Payment, error)
}

type paymentRepository interface {
	Create(ctx context.Context, payment *models.Payment) (*models.Payment, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Payment, error)
	Update(ctx context.Context, payment *models.Payment) (*models.Payment, error)
	ListForOrder(ctx context.Context, orderID uuid.UUID) ([]models.Payment, error)
}

type orderStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	Update(ctx context.Context, order *models.Order) (*models.Order, error)
}

// Service records settlement attempts against orders.
type Service interface {
	PayByCard(ctx context.Context, buyerID, orderID uuid.UUID, input CardPaymentInput) (*PaymentDTO, error)
	RecordRefund(ctx context.Context, sellerID, paymentID uuid.UUID) (*PaymentDTO, error)
	ListForOrder(ctx context.Context, userID, orderID uuid.UUID) ([]PaymentDTO, error)
}

// CardPaymentInput carries the tokenized card source for a charge.
type CardPaymentInput struct {
	Method   enums.PaymentMethod
	SourceID string
}

type service struct {
	repo       paymentRepository
	orders     orderStore
	charger    cardCharger
	locationID string
}

// ServiceParams bundles the payment service dependencies.
type ServiceParams struct {
	Repo       paymentRepository
	Orders     orderStore
	Charger    cardCharger
	LocationID string
}

// NewService constructs the payment service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("payment repository required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("order store required")
	}
	if params.Charger == nil {
		return nil, fmt.Errorf("card charger required")
	}
	return &service{
		repo:       params.Repo,
		orders:     params.Orders,
		charger:    params.Charger,
		locationID: params.LocationID,
	}, nil
}

// PayByCard charges the order total through the gateway and records the
// attempt. A completed charge confirms the order.
func (s *service) PayByCard(ctx context.Context, buyerID, orderID uuid.UUID, input CardPaymentInput) (*PaymentDTO, error) {
	if input.Method != enums.PaymentMethodCreditCard && input.Method != enums.PaymentMethodDebitCard {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "method must be a card payment")
	}
	if input.SourceID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "source id is required")
	}

	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.BuyerID != buyerID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order does not belong to buyer")
	}
	if order.Status != enums.OrderStatusPending {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("order in status %s cannot be paid", order.Status))
	}

	charge, err := s.charger.CreatePayment(ctx, square.PaymentCreateParams{
		AmountCents: amountCents(order.Total),
		Currency:    "ZAR",
		LocationID:  s.locationID,
		SourceID:    input.SourceID,
		ReferenceID: order.ID.String(),
		Note:        fmt.Sprintf("campusmart order %s", order.ID),
	})
	if err != nil {
		return nil, err
	}

	payment := &models.Payment{
		OrderID:              order.ID,
		Method:               input.Method,
		Status:               statusFromGateway(charge.GetStatus()),
		Amount:               order.Total,
		TransactionReference: stringValue(charge.GetID()),
	}
	if raw, marshalErr := json.Marshal(charge); marshalErr == nil {
		encoded := string(raw)
		payment.GatewayResponse = &encoded
	}

	created, err := s.repo.Create(ctx, payment)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert payment")
	}

	if created.Status == enums.PaymentStatusCompleted && order.Status.CanTransitionTo(enums.OrderStatusConfirmed) {
		order.Status = enums.OrderStatusConfirmed
		if _, err := s.orders.Update(ctx, order); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: confirm order")
		}
	}
	return FromModel(created), nil
}

// RecordRefund flips a completed payment to refunded and cancels the
// order when its lifecycle still allows it. Gateway refunds are settled
// out of band.
func (s *service) RecordRefund(ctx context.Context, sellerID, paymentID uuid.UUID) (*PaymentDTO, error) {
	payment, err := s.repo.FindByID(ctx, paymentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payment not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payment")
	}

	order, err := s.loadOrder(ctx, payment.OrderID)
	if err != nil {
		return nil, err
	}
	if order.SellerID != sellerID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "payment does not belong to seller")
	}
	if payment.Status != enums.PaymentStatusCompleted {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("payment in status %s cannot be refunded", payment.Status))
	}

	payment.Status = enums.PaymentStatusRefunded
	updated, err := s.repo.Update(ctx, payment)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update payment")
	}

	if order.Status.CanTransitionTo(enums.OrderStatusCancelled) {
		order.Status = enums.OrderStatusCancelled
		if _, err := s.orders.Update(ctx, order); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: cancel order")
		}
	}
	return FromModel(updated), nil
}

func (s *service) ListForOrder(ctx context.Context, userID, orderID uuid.UUID) ([]PaymentDTO, error) {
	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.BuyerID != userID && order.SellerID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order does not belong to user")
	}

	rows, err := s.repo.ListForOrder(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list payments")
	}
	dtos := make([]PaymentDTO, 0, len(rows))
	for i := range rows {
		dtos = append(dtos, *FromModel(&rows[i]))
	}
	return dtos, nil
}

func (s *service) loadOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}

func amountCents(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

func statusFromGateway(status *string) enums.PaymentStatus {
	switch stringValue(status) {
	case "COMPLETED":
		return enums.PaymentStatusCompleted
	case "FAILED", "CANCELED":
		return enums.PaymentStatusFailed
	default:
		return enums.PaymentStatusPending
	}
}

func stringValue(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
