package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/Additional-Code/storefront/internal/auth"
	"github.com/Additional-Code/storefront/internal/config"
)

const testKey = "707172737475767778797a7b7c7d7e7f808182838485868788898a8b8c8d8e8f"

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestTokenIssue(t *testing.T) {
	t.Setenv("AUTH_TOKEN_KEY", testKey)
	t.Setenv("OBS_LOG_LEVEL", "error")
	sellerID := uuid.New()

	out, err := run(t, "token", "issue", "--seller", sellerID.String())
	require.NoError(t, err)

	cfg, err := config.New()
	require.NoError(t, err)
	tokens, err := auth.NewTokenService(cfg, zaptest.NewLogger(t))
	require.NoError(t, err)

	got, err := tokens.Verify(strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Equal(t, sellerID, got)
}

func TestTokenIssue_RejectsBadSeller(t *testing.T) {
	_, err := run(t, "token", "issue", "--seller", "nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid --seller")
}

func TestRootCommand_ListsSubcommands(t *testing.T) {
	names := map[string]bool{}
	for _, c := range NewRootCommand().Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"start", "migrate", "seed", "worker", "token"} {
		assert.True(t, names[want], want)
	}
}
