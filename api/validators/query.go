package validators

import (
	"net/http"
	"strconv"
	"strings"

	pkgerrors "github.com/angelmondragon/shopcore-backend/pkg/errors"
	"github.com/angelmondragon/shopcore-backend/pkg/pagination"
)

// IntRange bounds a numeric query parameter; Default applies when it is absent.
type IntRange struct {
	Default int
	Min     int
	Max     int
}

func ParseQueryInt(r *http.Request, key string, bounds IntRange) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return bounds.Default, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, pkgerrors.NewReason(pkgerrors.CodeValidation, pkgerrors.ReasonInvalidQuery, key+" must be an integer").
			WithDetails(map[string]any{"field": key, "value": raw})
	}
	if value < bounds.Min || value > bounds.Max {
		return 0, pkgerrors.NewReason(pkgerrors.CodeValidation, pkgerrors.ReasonInvalidQuery, key+" is out of range").
			WithDetails(map[string]any{"field": key, "min": bounds.Min, "max": bounds.Max})
	}
	return value, nil
}

// ParsePageParams reads ?limit= and ?cursor= for cursor-paginated listings.
func ParsePageParams(r *http.Request) (pagination.Params, error) {
	limit, err := ParseQueryInt(r, "limit", IntRange{Default: pagination.DefaultLimit, Min: 1, Max: pagination.MaxLimit})
	if err != nil {
		return pagination.Params{}, err
	}
	return pagination.Params{
		Limit:  limit,
		Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
	}, nil
}
