package actor

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/shopcore-backend/api/middleware"
	pkgerrors "github.com/angelmondragon/shopcore-backend/pkg/errors"
	"github.com/angelmondragon/shopcore-backend/pkg/outbox"
)

// UserID returns the authenticated user seeded by the auth middleware.
func UserID(r *http.Request) (uuid.UUID, error) {
	if r == nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing")
	}
	raw := middleware.UserIDFromContext(r.Context())
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid user id")
	}
	return id, nil
}

// Ref builds the outbox actor for the authenticated caller.
func Ref(r *http.Request) (outbox.ActorRef, error) {
	id, err := UserID(r)
	if err != nil {
		return outbox.ActorRef{}, err
	}
	return outbox.ActorRef{UserID: id, Role: middleware.RoleFromContext(r.Context())}, nil
}
