package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/chatkeeper/internal/client/models"
	"github.com/dmitrijs2005/chatkeeper/internal/common"
)

func signedToken(t *testing.T, userID string, exp time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(exp)},
		UserID:           userID,
	})
	s, err := token.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return s
}

func loginClient(t *testing.T, srv *httptest.Server) *HTTPClient {
	t.Helper()
	c := NewHTTPClient(srv.URL)
	_, err := c.Login(context.Background(), "a@b.c", []byte("pw"))
	require.NoError(t, err)
	return c
}

func TestHTTPClient_LoginStoresToken(t *testing.T) {
	tok := signedToken(t, "user-1", time.Now().Add(time.Hour))
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/auth/login", r.URL.Path)

		var req map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "a@b.c", req["email"])
		require.Equal(t, "pw", req["password"])

		json.NewEncoder(w).Encode(map[string]any{
			"token": tok,
			"user":  models.Profile{ID: "user-1", Name: "Test"},
		})
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL)
	p, err := c.Login(context.Background(), "a@b.c", []byte("pw"))
	require.NoError(t, err)
	require.Equal(t, "user-1", p.ID)
	require.Equal(t, tok, c.Token())
	require.Equal(t, "user-1", c.UserID())
}

func TestHTTPClient_BearerHeaderAttached(t *testing.T) {
	tok := signedToken(t, "user-1", time.Now().Add(time.Hour))
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/login":
			json.NewEncoder(w).Encode(map[string]any{"token": tok, "user": models.Profile{ID: "user-1"}})
		case "/Users/me":
			gotAuth = r.Header.Get(common.AuthHeaderName)
			json.NewEncoder(w).Encode(models.Profile{ID: "user-1"})
		}
	}))
	defer srv.Close()

	c := loginClient(t, srv)
	_, err := c.Me(context.Background())
	require.NoError(t, err)
	require.Equal(t, "Bearer "+tok, gotAuth)
}

func TestHTTPClient_ExpiredTokenFailsFast(t *testing.T) {
	tok := signedToken(t, "user-1", time.Now().Add(-time.Minute))
	requests := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/auth/login" {
			json.NewEncoder(w).Encode(map[string]any{"token": tok, "user": models.Profile{ID: "user-1"}})
			return
		}
		requests++
	}))
	defer srv.Close()

	c := loginClient(t, srv)
	_, err := c.Me(context.Background())
	require.ErrorIs(t, err, common.ErrTokenExpired)
	require.Equal(t, 0, requests)
}

func TestHTTPClient_StatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   error
	}{
		{"unauthorized", http.StatusUnauthorized, common.ErrUnauthorized},
		{"not found", http.StatusNotFound, common.ErrNotFound},
		{"server error", http.StatusInternalServerError, common.ErrTransport},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			c := NewHTTPClient(srv.URL)
			_, err := c.ListConversations(context.Background())
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestHTTPClient_NetworkErrorIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	c := NewHTTPClient(srv.URL)
	_, err := c.ListConversations(context.Background())
	require.ErrorIs(t, err, ErrUnavailable)
	require.ErrorIs(t, err, common.ErrTransport)
}

func TestHTTPClient_FetchMessagesQuery(t *testing.T) {
	var gotPath, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		json.NewEncoder(w).Encode([]models.EncryptedMessage{{ID: "m1", ConversationID: "c1"}})
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL)
	ms, err := c.FetchMessages(context.Background(), "c1", 20, 40)
	require.NoError(t, err)
	require.Len(t, ms, 1)
	require.Equal(t, "/Messages/conversation/c1", gotPath)
	require.Equal(t, "limit=20&offset=40", gotQuery)
}

func TestHTTPClient_SendAndDeleteMessage(t *testing.T) {
	var sentBody map[string]string
	var deleteMethod, deletePath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/Messages" && r.Method == http.MethodPost:
			require.NoError(t, json.NewDecoder(r.Body).Decode(&sentBody))
			json.NewEncoder(w).Encode(models.EncryptedMessage{ID: "m1", ConversationID: "c1"})
		default:
			deleteMethod = r.Method
			deletePath = r.URL.Path
		}
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL)

	m, err := c.SendMessage(context.Background(), "c1", "ZW52ZWxvcGU=")
	require.NoError(t, err)
	require.Equal(t, "m1", m.ID)
	require.Equal(t, "c1", sentBody["conversationId"])
	require.Equal(t, "ZW52ZWxvcGU=", sentBody["content"])

	require.NoError(t, c.DeleteMessage(context.Background(), "m1"))
	require.Equal(t, http.MethodPut, deleteMethod)
	require.Equal(t, "/Messages/m1", deletePath)
}

func TestHTTPClient_LogoutDiscardsToken(t *testing.T) {
	tok := signedToken(t, "user-1", time.Now().Add(time.Hour))
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"token": tok, "user": models.Profile{ID: "user-1"}})
	}))
	defer srv.Close()

	c := loginClient(t, srv)
	require.NotEmpty(t, c.Token())

	c.Logout()
	require.Empty(t, c.Token())
	require.Empty(t, c.UserID())
}
