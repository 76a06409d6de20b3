package auth

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	tm := NewTokenManager("secret", "erp")
	token, exp, err := tm.GenerateToken("op-1", "Maria", time.Hour)
	require.NoError(t, err)
	assert.True(t, exp.After(time.Now()))

	claims, err := tm.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "op-1", claims.Subject)
	assert.Equal(t, "Maria", claims.Name)

	_, err = NewTokenManager("other", "erp").ParseToken(token)
	assert.Error(t, err)

	_, err = NewTokenManager("secret", "someone-else").ParseToken(token)
	assert.Error(t, err)

	expired, _, err := tm.GenerateToken("op-1", "", -time.Minute)
	require.NoError(t, err)
	_, err = tm.ParseToken(expired)
	assert.Error(t, err)
}

func newApp(required bool, tm *TokenManager) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return c.Status(fiber.StatusUnauthorized).SendString(err.Error())
		},
	})
	app.Get("/", NewAuthMiddleware(tm, required).Handle, func(c *fiber.Ctx) error {
		return c.SendString("operator=" + OperatorFromContext(c))
	})
	return app
}

func TestMiddleware(t *testing.T) {
	tm := NewTokenManager("secret", "")
	token, _, err := tm.GenerateToken("op-7", "", time.Hour)
	require.NoError(t, err)

	cases := []struct {
		name     string
		required bool
		header   string
		status   int
		body     string
	}{
		{name: "anonymous allowed", required: false, status: 200, body: "operator="},
		{name: "anonymous rejected", required: true, status: 401},
		{name: "valid token", required: true, header: "Bearer " + token, status: 200, body: "operator=op-7"},
		{name: "bad scheme", required: false, header: "Basic abc", status: 401},
		{name: "bad token even when optional", required: false, header: "Bearer nope", status: 401},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			resp, err := newApp(tc.required, tm).Test(req)
			require.NoError(t, err)
			assert.Equal(t, tc.status, resp.StatusCode)
			if tc.body != "" {
				body, _ := io.ReadAll(resp.Body)
				assert.Equal(t, tc.body, string(body))
			}
		})
	}
}
