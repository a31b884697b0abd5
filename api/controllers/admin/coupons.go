package admin

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/shopcore-backend/api/responses"
	"github.com/angelmondragon/shopcore-backend/api/validators"
	"github.com/angelmondragon/shopcore-backend/internal/coupons"
	pkgerrors "github.com/angelmondragon/shopcore-backend/pkg/errors"
	"github.com/angelmondragon/shopcore-backend/pkg/logger"
)

type createCouponRequest struct {
	Code        string      `json:"code" validate:"required,max=64"`
	Percentage  int         `json:"percentage" validate:"gte=0,lte=80"`
	ValidFrom   time.Time   `json:"valid_from" validate:"required"`
	ValidTo     time.Time   `json:"valid_to" validate:"required,gtefield=ValidFrom"`
	Active      *bool       `json:"active"`
	UsageLimit  int         `json:"usage_limit" validate:"gte=1"`
	VariantIDs  []uuid.UUID `json:"variant_ids"`
	CategoryIDs []uuid.UUID `json:"category_ids"`
}

// CouponCreate registers a coupon code. Coupons are active unless the body
// says otherwise.
func CouponCreate(svc coupons.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "coupon service unavailable"))
			return
		}

		var payload createCouponRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		active := true
		if payload.Active != nil {
			active = *payload.Active
		}

		coupon, err := svc.Create(r.Context(), coupons.CreateInput{
			Code:        payload.Code,
			Percentage:  payload.Percentage,
			ValidFrom:   payload.ValidFrom,
			ValidTo:     payload.ValidTo,
			Active:      active,
			UsageLimit:  payload.UsageLimit,
			VariantIDs:  payload.VariantIDs,
			CategoryIDs: payload.CategoryIDs,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, coupon)
	}
}

func CouponList(svc coupons.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "coupon service unavailable"))
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

// CouponDelete removes a coupon that was never redeemed.
func CouponDelete(svc coupons.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "coupon service unavailable"))
			return
		}

		couponID, err := validators.ParseUUIDParam(r, "couponId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Delete(r.Context(), couponID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}
