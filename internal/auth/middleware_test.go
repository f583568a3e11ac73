package auth

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func echoIdentity(c *fiber.Ctx) error {
	userID, _ := c.Locals("userID").(int64)
	username, _ := c.Locals("username").(string)
	return c.SendString(fmt.Sprintf("%d:%s", userID, username))
}

func TestTokenFromRequestPrecedence(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString(TokenFromRequest(c))
	})

	do := func(build func(*http.Request)) string {
		req := httptest.NewRequest("GET", "/", nil)
		build(req)
		req.RequestURI = req.URL.RequestURI()
		resp, err := app.Test(req)
		require.NoError(t, err)
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		return string(body)
	}

	assert.Equal(t, "hdr", do(func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer hdr")
	}))
	assert.Equal(t, "ck", do(func(r *http.Request) {
		r.AddCookie(&http.Cookie{Name: "access_token", Value: "ck"})
	}))
	assert.Equal(t, "qp", do(func(r *http.Request) {
		r.URL.RawQuery = "token=qp"
	}))

	// Header wins over cookie and query.
	assert.Equal(t, "hdr", do(func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer hdr")
		r.AddCookie(&http.Cookie{Name: "access_token", Value: "ck"})
		r.URL.RawQuery = "token=qp"
	}))

	// A malformed header does not fall back to the cookie.
	assert.Equal(t, "", do(func(r *http.Request) {
		r.Header.Set("Authorization", "Basic abc")
		r.AddCookie(&http.Cookie{Name: "access_token", Value: "ck"})
	}))
}

func TestRequireAuth(t *testing.T) {
	m := NewJWTManager("test-secret", 15*time.Minute, 24*time.Hour)
	app := fiber.New()
	app.Get("/", RequireAuth(m), echoIdentity)

	// Missing token.
	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	// Invalid token.
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	// Valid token passes through with claims stamped.
	token, err := m.GenerateAccessToken(7, "a@b.c", "alice")
	require.NoError(t, err)
	req = httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestWebSocketAuthStampsIdentity(t *testing.T) {
	m := NewJWTManager("test-secret", 15*time.Minute, 24*time.Hour)

	app := fiber.New()
	app.Get("/ws", WebSocketAuth(m, false), echoIdentity)

	token, err := m.GenerateAccessToken(7, "a@b.c", "alice")
	require.NoError(t, err)

	// Token via query parameter, the only channel a browser WebSocket has.
	req := httptest.NewRequest("GET", "/ws?token="+token, nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "7:alice", string(body))

	// No token, guests disallowed: the gate still lets the connection
	// through so the handler can refuse with a close code.
	resp, err = app.Test(httptest.NewRequest("GET", "/ws", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	body, err = io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "0:", string(body))
}

func TestWebSocketAuthGuestMode(t *testing.T) {
	m := NewJWTManager("test-secret", 15*time.Minute, 24*time.Hour)

	app := fiber.New()
	app.Get("/ws", WebSocketAuth(m, true), echoIdentity)

	resp, err := app.Test(httptest.NewRequest("GET", "/ws", nil))
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "0:guest", string(body))
}
