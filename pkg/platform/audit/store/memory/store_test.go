package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	audit "mcpgate/pkg/platform/audit"
)

func TestInMemoryStore(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryStore()

	require.NoError(t, s.Append(ctx, audit.Record{Action: audit.EventSessionCreated, SessionID: "mcp_1"}))
	require.NoError(t, s.Emit(ctx, audit.Record{Action: audit.EventSessionClosed, SessionID: "mcp_1"}))
	require.NoError(t, s.Append(ctx, audit.Record{Action: audit.EventSessionCreated, SessionID: "mcp_2"}))

	bySession, err := s.ListBySession(ctx, "mcp_1")
	require.NoError(t, err)
	assert.Len(t, bySession, 2)

	recent, err := s.ListRecent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "mcp_2", recent[0].SessionID.String())

	assert.Len(t, s.ListByAction(audit.EventSessionCreated), 2)
	assert.Equal(t, 3, s.Len())
}
