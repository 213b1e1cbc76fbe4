package main

import (
	"bytes"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jrsteele09/go-bizcard-client/api"
	"github.com/jrsteele09/go-bizcard-client/internal/config"
	"github.com/jrsteele09/go-bizcard-client/internal/errors"
	"github.com/jrsteele09/go-bizcard-client/server"
	"github.com/jrsteele09/go-bizcard-client/session"
	"github.com/stretchr/testify/require"
)

type testFixture struct {
	dir string
}

// setupTestFixture points the CLI at a seeded dev server and a session file in a temp dir
func setupTestFixture(t *testing.T) *testFixture {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("ENV", "TEST")
	t.Setenv("JWT_SECRET", "cli-secret")
	t.Setenv("BIZCARD_STORE", "file")
	t.Setenv("BIZCARD_STORE_PATH", filepath.Join(dir, "session.yaml"))
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")

	cfg, err := config.New()
	require.NoError(t, err)
	s, err := server.New(cfg, server.NewInMemoryRepos())
	require.NoError(t, err)
	srv := httptest.NewServer(s)
	t.Cleanup(srv.Close)

	t.Setenv("BIZCARD_API_URL", srv.URL+server.RouteAPIPrefix)
	return &testFixture{dir: dir}
}

// run executes one CLI invocation and returns what it printed on stdout and stderr
func (f *testFixture) run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	c := &cli{}
	root := newRootCommand(c)
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetIn(strings.NewReader(""))
	root.SetArgs(args)

	err := root.Execute()
	c.close()
	return out.String(), errOut.String(), err
}

func TestLoginFlow(t *testing.T) {
	f := setupTestFixture(t)

	_, nav, err := f.run(t, "open", "/feed")
	require.NoError(t, err)
	require.Contains(t, nav, "-> /login")

	_, _, err = f.run(t, "login", "--id", "alice", "--password", "wrong")
	require.ErrorIs(t, err, errors.ErrInvalidCredentials)

	out, nav, err := f.run(t, "login", "--id", "alice", "--password", server.DemoPassword)
	require.NoError(t, err)
	require.Contains(t, out, "Welcome, Alice")
	require.Contains(t, out, "Great talks at the cloud expo today")
	require.Contains(t, nav, "-> /feed")

	out, _, err = f.run(t, "whoami")
	require.NoError(t, err)
	require.Contains(t, out, "Alice")
	require.Contains(t, out, "expires in")

	t.Run("open without a route reopens the last page", func(t *testing.T) {
		_, _, err := f.run(t, "open", "/friends")
		require.NoError(t, err)

		out, _, err := f.run(t, "open")
		require.NoError(t, err)
		require.Contains(t, out, "Bob")
		require.Contains(t, out, "Carol")
		require.NotContains(t, out, "Dave")
	})

	t.Run("public pages redirect once logged in", func(t *testing.T) {
		out, nav, err := f.run(t, "open", "/login")
		require.NoError(t, err)
		require.Contains(t, nav, "-> /friends")
		require.Empty(t, out)
	})

	_, nav, err = f.run(t, "logout")
	require.NoError(t, err)
	require.Contains(t, nav, "-> /login")

	out, _, err = f.run(t, "whoami")
	require.NoError(t, err)
	require.Contains(t, out, "Not logged in")

	_, _, err = f.run(t, "posts", "get", "1")
	require.ErrorIs(t, err, errors.ErrNotAuthenticated)
}

func TestPostsAndNotifications(t *testing.T) {
	f := setupTestFixture(t)

	_, _, err := f.run(t, "login", "--id", "bob", "--password", server.DemoPassword)
	require.NoError(t, err)

	out, _, err := f.run(t, "posts", "get", "1")
	require.NoError(t, err)
	require.Contains(t, out, "Nice meeting you there!")

	out, _, err = f.run(t, "posts", "like", "1")
	require.NoError(t, err)
	require.Contains(t, out, "liked (2 likes)")

	image := filepath.Join(f.dir, "card.jpg")
	require.NoError(t, os.WriteFile(image, []byte("jpeg"), 0o600))
	out, _, err = f.run(t, "posts", "create", "--content", "Trade show booth", "--image", image)
	require.NoError(t, err)
	require.Contains(t, out, "Created post")

	out, _, err = f.run(t, "feed", "--user", "2")
	require.NoError(t, err)
	require.Contains(t, out, "Trade show booth")
	require.NotContains(t, out, "Great talks")

	_, _, err = f.run(t, "logout")
	require.NoError(t, err)
	_, _, err = f.run(t, "login", "--id", "alice", "--password", server.DemoPassword)
	require.NoError(t, err)

	out, _, err = f.run(t, "notifications", "list")
	require.NoError(t, err)
	require.Contains(t, out, "Bob liked your post")
	require.Contains(t, out, "3 unread")

	out, _, err = f.run(t, "notifications", "clear")
	require.NoError(t, err)
	require.Contains(t, out, "Deleted 3 notifications")

	out, _, err = f.run(t, "notifications", "list")
	require.NoError(t, err)
	require.Contains(t, out, "No notifications")
}

func TestContacts(t *testing.T) {
	f := setupTestFixture(t)

	_, _, err := f.run(t, "login", "--id", "alice", "--password", server.DemoPassword)
	require.NoError(t, err)

	out, _, err := f.run(t, "contacts", "2")
	require.NoError(t, err)
	require.Contains(t, out, "Globex")

	_, _, err = f.run(t, "contacts", "4")
	var apiErr *api.Error
	require.ErrorAs(t, err, &apiErr)
	require.ErrorIs(t, err, errors.ErrNotFound)
}

func TestSignupAndPassword(t *testing.T) {
	f := setupTestFixture(t)

	_, _, err := f.run(t, "signup", "--id", "alice", "--name", "Other Alice", "--password", "Secret123")
	require.Error(t, err)
	require.Contains(t, err.Error(), "already taken")

	out, _, err := f.run(t, "signup", "--id", "erin", "--name", "Erin", "--password", "Secret123", "--company", "Hooli")
	require.NoError(t, err)
	require.Contains(t, out, "Registered Erin")

	_, _, err = f.run(t, "login", "--id", "erin", "--password", "Secret123")
	require.NoError(t, err)

	_, nav, err := f.run(t, "password", "--current", "Secret123", "--new", "Secret456")
	require.NoError(t, err)
	require.Contains(t, nav, "-> /login")

	_, _, err = f.run(t, "login", "--id", "erin", "--password", "Secret456")
	require.NoError(t, err)
}

func TestVersionNeedsNoSession(t *testing.T) {
	c := &cli{}
	root := newRootCommand(c)
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"version"})

	require.NoError(t, root.Execute())
	require.Nil(t, c.app)
	require.Contains(t, out.String(), "version dev")
}

func TestPrintWhoami(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	var out bytes.Buffer
	printWhoami(&out, session.Snapshot{
		IsAuthenticated: true,
		UserInfo:        &session.UserInfo{UserID: 7, Token: "opaque-token", Name: "Grace"},
	}, now)
	require.Contains(t, out.String(), "Grace")
	require.Contains(t, out.String(), "opaque")

	out.Reset()
	printWhoami(&out, session.Snapshot{IsLoading: true}, now)
	require.Contains(t, out.String(), "Not logged in")
}

func TestPreview(t *testing.T) {
	require.Equal(t, "short text", preview("short\n  text"))

	long := strings.Repeat("x", 100)
	got := preview(long)
	require.Len(t, []rune(got), contentPreview)
	require.True(t, strings.HasSuffix(got, "..."))
}
