package admin

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/shopcore-backend/api/responses"
	"github.com/angelmondragon/shopcore-backend/api/validators"
	"github.com/angelmondragon/shopcore-backend/internal/discounts"
	pkgerrors "github.com/angelmondragon/shopcore-backend/pkg/errors"
	"github.com/angelmondragon/shopcore-backend/pkg/logger"
)

type createDiscountRequest struct {
	Description string          `json:"description" validate:"required,max=255"`
	Percentage  decimal.Decimal `json:"percentage"`
	ValidFrom   time.Time       `json:"valid_from" validate:"required"`
	ValidTo     time.Time       `json:"valid_to" validate:"required,gtefield=ValidFrom"`
	Active      *bool           `json:"active"`
	VariantIDs  []uuid.UUID     `json:"variant_ids"`
	CategoryIDs []uuid.UUID     `json:"category_ids"`
}

func DiscountCreate(svc discounts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "discount service unavailable"))
			return
		}

		var payload createDiscountRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		active := true
		if payload.Active != nil {
			active = *payload.Active
		}

		discount, err := svc.Create(r.Context(), discounts.CreateInput{
			Description: payload.Description,
			Percentage:  payload.Percentage,
			ValidFrom:   payload.ValidFrom,
			ValidTo:     payload.ValidTo,
			Active:      active,
			VariantIDs:  payload.VariantIDs,
			CategoryIDs: payload.CategoryIDs,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, discount)
	}
}

func DiscountList(svc discounts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "discount service unavailable"))
			return
		}

		list, err := svc.List(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}
