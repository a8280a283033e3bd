package testutil

import (
	"encoding/json"
	"sync"
	"time"

	"mcpgate/internal/session/models"
	id "mcpgate/pkg/domain"
)

// Fixed instant used as "now" by tests that drive a fake clock.
var Epoch = time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)

// Clock is a manually advanced clock for WithNow options.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

func NewClock(start time.Time) *Clock { return &Clock{now: start} }

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// CreateRequestBuilder provides a fluent interface for building valid session requests.
type CreateRequestBuilder struct {
	req *models.CreateRequest
}

// NewCreateRequest returns a builder seeded with a valid HTTP session request.
func NewCreateRequest(credentialID id.CredentialID) *CreateRequestBuilder {
	return &CreateRequestBuilder{req: &models.CreateRequest{
		CredentialID:   credentialID,
		PrincipalID:    "user-" + id.PrincipalID(credentialID),
		ClientInfo:     json.RawMessage(`{"name":"test-client","version":"1.0.0"}`),
		Capabilities:   json.RawMessage(`{"roots":{"listChanged":true}}`),
		ConnectionType: models.ConnectionTypeHTTP,
		ClientIP:       "192.168.1.10",
		UserAgent:      "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Safari/605.1.15",
	}}
}

func (b *CreateRequestBuilder) WithClientInfo(raw string) *CreateRequestBuilder {
	b.req.ClientInfo = json.RawMessage(raw)
	return b
}

func (b *CreateRequestBuilder) WithCapabilities(raw string) *CreateRequestBuilder {
	b.req.Capabilities = json.RawMessage(raw)
	return b
}

func (b *CreateRequestBuilder) WithConnectionType(ct models.ConnectionType) *CreateRequestBuilder {
	b.req.ConnectionType = ct
	return b
}

func (b *CreateRequestBuilder) Build() *models.CreateRequest {
	req := *b.req
	return &req
}
