package payments

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/angelmondragon/shopcore-backend/pkg/config"
)

type sessionStore interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	GatewaySessionKey(authority string) string
}

// SandboxGateway is a self-contained gateway for development and tests. Each
// session stores the expected amount in Redis under its authority; Verify
// succeeds only for a live session with a matching amount.
type SandboxGateway struct {
	store       sessionStore
	redirectURL string
	ttl         time.Duration
}

func NewSandboxGateway(store sessionStore, cfg config.GatewayConfig) (*SandboxGateway, error) {
	if store == nil {
		return nil, errors.New("session store required")
	}
	if _, err := url.ParseRequestURI(cfg.RedirectBaseURL); err != nil {
		return nil, fmt.Errorf("invalid gateway redirect url: %w", err)
	}
	ttl := cfg.SessionTTL
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &SandboxGateway{store: store, redirectURL: cfg.RedirectBaseURL, ttl: ttl}, nil
}

func (g *SandboxGateway) Initiate(ctx context.Context, req InitiateRequest) (InitiateResult, error) {
	if req.Amount <= 0 {
		return InitiateResult{Message: "amount must be positive"}, nil
	}
	authority := "A" + strings.ReplaceAll(uuid.NewString(), "-", "")
	if err := g.store.Set(ctx, g.store.GatewaySessionKey(authority), strconv.FormatInt(req.Amount, 10), g.ttl); err != nil {
		return InitiateResult{}, fmt.Errorf("store gateway session: %w", err)
	}

	redirect, err := url.Parse(g.redirectURL)
	if err != nil {
		return InitiateResult{}, err
	}
	redirect = redirect.JoinPath(authority)
	if req.CallbackURL != "" {
		query := redirect.Query()
		query.Set("callback", req.CallbackURL)
		redirect.RawQuery = query.Encode()
	}

	return InitiateResult{
		Accepted:    true,
		Authority:   authority,
		RedirectURL: redirect.String(),
	}, nil
}

func (g *SandboxGateway) Verify(ctx context.Context, authority string, amount int64) (VerifyResult, error) {
	raw, err := g.store.Get(ctx, g.store.GatewaySessionKey(authority))
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return VerifyResult{}, nil
		}
		return VerifyResult{}, fmt.Errorf("load gateway session: %w", err)
	}
	expected, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || expected != amount {
		return VerifyResult{}, nil
	}
	return VerifyResult{Accepted: true, ReferenceID: "REF-" + authority}, nil
}
