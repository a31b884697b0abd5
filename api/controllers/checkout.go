package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/shopcore-backend/api/controllers/actor"
	"github.com/angelmondragon/shopcore-backend/api/responses"
	"github.com/angelmondragon/shopcore-backend/api/validators"
	checkoutsvc "github.com/angelmondragon/shopcore-backend/internal/checkout"
	pkgerrors "github.com/angelmondragon/shopcore-backend/pkg/errors"
	"github.com/angelmondragon/shopcore-backend/pkg/logger"
)

type checkoutRequest struct {
	ShippingAddressID uuid.UUID `json:"shipping_address_id"`
}

// Checkout converts the caller's cart into a pending order and returns the
// gateway redirect for paying it.
func Checkout(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		userID, err := actor.UserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload checkoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Checkout(r.Context(), userID, checkoutsvc.Input{ShippingAddressID: payload.ShippingAddressID})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}
