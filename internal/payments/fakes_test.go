package payments

import (
	"context"
	"errors"
	"sync"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

type memoryStore struct {
	mu     sync.Mutex
	values map[string]string
}

func newMemoryStore() *memoryStore {
	return &memoryStore{values: map[string]string{}}
}

func (m *memoryStore) Set(_ context.Context, key string, value any, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value.(string)
	return nil
}

func (m *memoryStore) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	if !ok {
		return "", goredis.Nil
	}
	return v, nil
}

func (m *memoryStore) GatewaySessionKey(authority string) string {
	return "test:gateway:" + authority
}

type stubGateway struct {
	verify    VerifyResult
	verifyErr error
	calls     int
}

func (g *stubGateway) Initiate(context.Context, InitiateRequest) (InitiateResult, error) {
	return InitiateResult{}, errors.New("not used")
}

func (g *stubGateway) Verify(context.Context, string, int64) (VerifyResult, error) {
	g.calls++
	return g.verify, g.verifyErr
}

type verificationCounter struct {
	outcomes []string
}

func (c *verificationCounter) IncVerification(outcome string) {
	c.outcomes = append(c.outcomes, outcome)
}
