package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sibusisodev/campusmart-backend/api/responses"
	"github.com/sibusisodev/campusmart-backend/api/validators"
	itemsvc "github.com/sibusisodev/campusmart-backend/internal/items"
	"github.com/sibusisodev/campusmart-backend/pkg/enums"
	pkgerrors "github.com/sibusisodev/campusmart-backend/pkg/errors"
	"github.com/sibusisodev/campusmart-backend/pkg/logger"
	"github.com/sibusisodev/campusmart-backend/pkg/pagination"
)

type createItemRequest struct {
	CategoryID             uuid.UUID `json:"category_id" validate:"required"`
	Title                  string    `json:"title" validate:"required,max=120"`
	Description            string    `json:"description"`
	Price                  string    `json:"price" validate:"required"`
	Condition              string    `json:"condition" validate:"required"`
	CollectionAddress      string    `json:"collection_address" validate:"required"`
	CollectionInstructions *string   `json:"collection_instructions"`
}

func (req createItemRequest) toInput() (itemsvc.CreateItemInput, error) {
	price, err := decimal.NewFromString(req.Price)
	if err != nil {
		return itemsvc.CreateItemInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid price")
	}
	condition := enums.ItemCondition(req.Condition)
	return itemsvc.CreateItemInput{
		CategoryID:             req.CategoryID,
		Title:                  req.Title,
		Description:            req.Description,
		Price:                  price,
		Condition:              condition,
		CollectionAddress:      req.CollectionAddress,
		CollectionInstructions: req.CollectionInstructions,
	}, nil
}

// ItemCreate publishes a new listing for the authenticated seller.
func ItemCreate(svc itemsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "item service unavailable"))
			return
		}

		sellerID, err := requireUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body createItemRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := body.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		item, err := svc.Create(r.Context(), sellerID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, item)
	}
}

type updateItemRequest struct {
	CategoryID             *uuid.UUID `json:"category_id"`
	Title                  *string    `json:"title" validate:"omitempty,max=120"`
	Description            *string    `json:"description"`
	Price                  *string    `json:"price"`
	Condition              *string    `json:"condition"`
	CollectionAddress      *string    `json:"collection_address"`
	CollectionInstructions *string    `json:"collection_instructions"`
}

func (req updateItemRequest) toInput() (itemsvc.UpdateItemInput, error) {
	input := itemsvc.UpdateItemInput{
		CategoryID:             req.CategoryID,
		Title:                  req.Title,
		Description:            req.Description,
		CollectionAddress:      req.CollectionAddress,
		CollectionInstructions: req.CollectionInstructions,
	}
	if req.Price != nil {
		price, err := decimal.NewFromString(*req.Price)
		if err != nil {
			return itemsvc.UpdateItemInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid price")
		}
		input.Price = &price
	}
	if req.Condition != nil {
		condition := enums.ItemCondition(*req.Condition)
		input.Condition = &condition
	}
	return input, nil
}

// ItemUpdate mutates a listing owned by the caller.
func ItemUpdate(svc itemsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "item service unavailable"))
			return
		}

		sellerID, err := requireUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		itemID, err := parseItemID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body updateItemRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := body.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		item, err := svc.Update(r.Context(), sellerID, itemID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, item)
	}
}

// ItemDelete removes a listing owned by the caller.
func ItemDelete(svc itemsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "item service unavailable"))
			return
		}

		sellerID, err := requireUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		itemID, err := parseItemID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Delete(r.Context(), sellerID, itemID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

// ItemGet returns one listing and bumps its view counter for non-owners.
// Works with or without an authenticated viewer.
func ItemGet(svc itemsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "item service unavailable"))
			return
		}

		itemID, err := parseItemID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var viewerID *uuid.UUID
		if viewer, err := requireUserID(r); err == nil {
			viewerID = &viewer
		}

		item, err := svc.Get(r.Context(), itemID, viewerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, item)
	}
}

// ItemsBrowse pages through available listings with optional filters.
func ItemsBrowse(svc itemsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "item service unavailable"))
			return
		}

		input, err := parseBrowseInput(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := svc.Browse(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, page)
	}
}

// MyItems lists every listing of the authenticated seller, any status.
func MyItems(svc itemsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "item service unavailable"))
			return
		}

		sellerID, err := requireUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := parseBrowseInput(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input.SellerID = &sellerID

		page, err := svc.Browse(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, page)
	}
}

type itemStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// ItemStatusChange moves a listing through its lifecycle.
func ItemStatusChange(svc itemsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "item service unavailable"))
			return
		}

		sellerID, err := requireUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		itemID, err := parseItemID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body itemStatusRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		next := enums.ItemStatus(body.Status)
		if !next.IsValid() {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid item status"))
			return
		}

		item, err := svc.ChangeStatus(r.Context(), sellerID, itemID, next)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, item)
	}
}

// CategoriesList returns the active category taxonomy.
func CategoriesList(svc itemsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "item service unavailable"))
			return
		}

		categories, err := svc.Categories(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, categories)
	}
}

func parseItemID(r *http.Request) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, "itemId"))
	itemID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid item id")
	}
	return itemID, nil
}

func parseBrowseInput(r *http.Request) (itemsvc.ListInput, error) {
	limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
	if err != nil {
		return itemsvc.ListInput{}, err
	}

	input := itemsvc.ListInput{
		Pagination: pagination.Params{
			Limit:  limit,
			Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
		},
	}

	query := r.URL.Query()
	if raw := strings.TrimSpace(query.Get("category_id")); raw != "" {
		categoryID, err := uuid.Parse(raw)
		if err != nil {
			return itemsvc.ListInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid category id")
		}
		input.Filters.CategoryID = &categoryID
	}
	if raw := strings.TrimSpace(query.Get("condition")); raw != "" {
		condition := enums.ItemCondition(raw)
		input.Filters.Condition = &condition
	}
	if raw := strings.TrimSpace(query.Get("status")); raw != "" {
		status := enums.ItemStatus(raw)
		input.Filters.Status = &status
	}
	if raw := strings.TrimSpace(query.Get("price_min")); raw != "" {
		price, err := decimal.NewFromString(raw)
		if err != nil {
			return itemsvc.ListInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid price_min")
		}
		input.Filters.PriceMin = &price
	}
	if raw := strings.TrimSpace(query.Get("price_max")); raw != "" {
		price, err := decimal.NewFromString(raw)
		if err != nil {
			return itemsvc.ListInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid price_max")
		}
		input.Filters.PriceMax = &price
	}
	input.Filters.Query = strings.TrimSpace(query.Get("q"))

	return input, nil
}
