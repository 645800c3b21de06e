package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/sibusisodev/campusmart-backend/api/responses"
	"github.com/sibusisodev/campusmart-backend/api/validators"
	paymentsvc "github.com/sibusisodev/campusmart-backend/internal/payments"
	"github.com/sibusisodev/campusmart-backend/pkg/enums"
	pkgerrors "github.com/sibusisodev/campusmart-backend/pkg/errors"
	"github.com/sibusisodev/campusmart-backend/pkg/logger"
)

type cardPaymentRequest struct {
	Method   string `json:"method" validate:"required"`
	SourceID string `json:"source_id" validate:"required"`
}

// OrderPay charges the order total with a tokenized card.
func OrderPay(svc paymentsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payment service unavailable"))
			return
		}

		buyerID, err := requireUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orderID, err := parseOrderID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body cardPaymentRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		method := enums.PaymentMethod(body.Method)
		if !method.IsValid() {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment method"))
			return
		}

		payment, err := svc.PayByCard(r.Context(), buyerID, orderID, paymentsvc.CardPaymentInput{
			Method:   method,
			SourceID: body.SourceID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, payment)
	}
}

// PaymentRefund records a refund against a completed payment.
func PaymentRefund(svc paymentsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payment service unavailable"))
			return
		}

		sellerID, err := requireUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rawPaymentID := strings.TrimSpace(chi.URLParam(r, "paymentId"))
		paymentID, err := uuid.Parse(rawPaymentID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment id"))
			return
		}

		payment, err := svc.RecordRefund(r.Context(), sellerID, paymentID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, payment)
	}
}

// OrderPayments lists the settlement attempts on one order.
func OrderPayments(svc paymentsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payment service unavailable"))
			return
		}

		userID, err := requireUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orderID, err := parseOrderID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		payments, err := svc.ListForOrder(r.Context(), userID, orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, payments)
	}
}
