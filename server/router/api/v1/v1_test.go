package v1

import (
	"context"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/elevatehq/elevate/ai/agent"
	"github.com/elevatehq/elevate/internal/profile"
	"github.com/elevatehq/elevate/store"
	"github.com/elevatehq/elevate/store/db/sqlite"
)

// scriptedAgent returns a canned turn result, or an error.
type scriptedAgent struct {
	result *agent.TurnResult
	err    error

	lastUserID  string
	lastMessage string
}

func (a *scriptedAgent) RunTurn(ctx context.Context, userID, userMessage string) (*agent.TurnResult, error) {
	a.lastUserID = userID
	a.lastMessage = userMessage
	if a.err != nil {
		return nil, a.err
	}
	if a.result != nil {
		return a.result, nil
	}
	return &agent.TurnResult{Message: "ok", Persisted: true}, nil
}

func newAPITestStore(t *testing.T) *store.Store {
	t.Helper()
	p := &profile.Profile{
		Mode:   "prod",
		Driver: "sqlite",
		DSN:    filepath.Join(t.TempDir(), "elevate_test.db"),
	}
	driver, err := sqlite.NewDB(p)
	require.NoError(t, err)
	st := store.New(driver, p)
	require.NoError(t, st.Migrate(context.Background()))
	t.Cleanup(func() {
		_ = st.Close()
	})
	return st
}

func newAPITestServer(t *testing.T, chatAgent ChatAgent) (*httptest.Server, *store.Store) {
	t.Helper()
	st := newAPITestStore(t)
	service := NewAPIV1Service(&profile.Profile{Mode: "prod"}, st, chatAgent)

	e := echo.New()
	e.HideBanner = true
	service.Register(e)

	ts := httptest.NewServer(e)
	t.Cleanup(ts.Close)
	return ts, st
}
