package controllers

import (
	"net/http"
	"strings"

	"github.com/angelmondragon/shopcore-backend/api/responses"
	"github.com/angelmondragon/shopcore-backend/internal/payments"
	pkgerrors "github.com/angelmondragon/shopcore-backend/pkg/errors"
	"github.com/angelmondragon/shopcore-backend/pkg/logger"
)

// PaymentVerify is the gateway callback. The gateway redirects the buyer here
// with the authority it issued and the outcome it observed.
func PaymentVerify(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payments service unavailable"))
			return
		}

		authority := queryValue(r, "authority", "Authority")
		status := queryValue(r, "status", "Status")
		if authority == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "authority is required").
				WithDetails(map[string]any{"field": "authority"}))
			return
		}

		ctx := r.Context()
		if logg != nil {
			ctx = logg.WithField(ctx, "authority", authority)
		}

		outcome, err := svc.Verify(ctx, authority, status)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, outcome)
	}
}

func queryValue(r *http.Request, keys ...string) string {
	query := r.URL.Query()
	for _, key := range keys {
		if value := strings.TrimSpace(query.Get(key)); value != "" {
			return value
		}
	}
	return ""
}
