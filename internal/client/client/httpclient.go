package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/dmitrijs2005/chatkeeper/internal/client/models"
	"github.com/dmitrijs2005/chatkeeper/internal/common"
)

// HTTPClient implements Client against the ChatKeeper REST API.
//
// Endpoints mirror the server contract:
//
//	POST /auth/login
//	GET  /Users/me
//	GET  /Conversations
//	GET  /Conversations/{id}/key
//	GET  /Messages/conversation/{id}?limit=&offset=
//	POST /Messages
//	PUT  /Messages/{id}      (soft remove)
type HTTPClient struct {
	baseURL string
	http    *http.Client
	token   string
	userID  string
}

// NewHTTPClient constructs an HTTPClient for the given API base URL
// (e.g. "https://chat.example.com/api").
func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		http:    &http.Client{},
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string         `json:"token"`
	User  models.Profile `json:"user"`
}

type sendMessageRequest struct {
	Content        string `json:"content"`
	ConversationID string `json:"conversationId"`
}

// do executes one JSON request. When out is non-nil the response body is
// decoded into it. Status codes are mapped to the shared sentinel errors.
func (c *HTTPClient) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		// fail fast on a token that the server is guaranteed to reject
		if expired, terr := TokenExpired(c.token, time.Now()); terr == nil && expired {
			return fmt.Errorf("%s %s: %w", method, path, common.ErrTokenExpired)
		}
		req.Header.Set(common.AuthHeaderName, "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, ErrUnavailable)
	}
	defer resp.Body.Close()

	if err := mapStatus(resp.StatusCode); err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", common.ErrTransport)
		}
	}
	return nil
}

func mapStatus(code int) error {
	switch {
	case code >= 200 && code < 300:
		return nil
	case code == http.StatusUnauthorized:
		return common.ErrUnauthorized
	case code == http.StatusNotFound:
		return common.ErrNotFound
	default:
		return fmt.Errorf("status %d: %w", code, common.ErrTransport)
	}
}

// Login authenticates, stores the bearer token and account id, and
// returns the profile. The password leaves this method only inside the
// TLS-protected request body; the caller wipes its own copy.
func (c *HTTPClient) Login(ctx context.Context, email string, password []byte) (*models.Profile, error) {
	var resp loginResponse
	if err := c.do(ctx, http.MethodPost, "/auth/login", loginRequest{Email: email, Password: string(password)}, &resp); err != nil {
		return nil, err
	}

	c.token = resp.Token
	c.userID = resp.User.ID
	if claims, err := IntrospectToken(resp.Token); err == nil && c.userID == "" {
		c.userID = claims.UserID
	}
	return &resp.User, nil
}

func (c *HTTPClient) Me(ctx context.Context) (*models.Profile, error) {
	var p models.Profile
	if err := c.do(ctx, http.MethodGet, "/Users/me", nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *HTTPClient) ListConversations(ctx context.Context) ([]models.Conversation, error) {
	var cs []models.Conversation
	if err := c.do(ctx, http.MethodGet, "/Conversations", nil, &cs); err != nil {
		return nil, err
	}
	return cs, nil
}

func (c *HTTPClient) FetchWrappedKey(ctx context.Context, conversationID string) (*models.WrappedConversationKey, error) {
	var k models.WrappedConversationKey
	path := "/Conversations/" + url.PathEscape(conversationID) + "/key"
	if err := c.do(ctx, http.MethodGet, path, nil, &k); err != nil {
		return nil, err
	}
	return &k, nil
}

func (c *HTTPClient) FetchMessages(ctx context.Context, conversationID string, limit, offset int) ([]models.EncryptedMessage, error) {
	var ms []models.EncryptedMessage
	path := "/Messages/conversation/" + url.PathEscape(conversationID) +
		"?limit=" + strconv.Itoa(limit) + "&offset=" + strconv.Itoa(offset)
	if err := c.do(ctx, http.MethodGet, path, nil, &ms); err != nil {
		return nil, err
	}
	return ms, nil
}

func (c *HTTPClient) SendMessage(ctx context.Context, conversationID string, envelope string) (*models.EncryptedMessage, error) {
	var m models.EncryptedMessage
	if err := c.do(ctx, http.MethodPost, "/Messages", sendMessageRequest{Content: envelope, ConversationID: conversationID}, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

func (c *HTTPClient) DeleteMessage(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodPut, "/Messages/"+url.PathEscape(id), nil, nil)
}

// Logout discards the bearer token and account id.
func (c *HTTPClient) Logout() {
	c.token = ""
	c.userID = ""
}

func (c *HTTPClient) Token() string  { return c.token }
func (c *HTTPClient) UserID() string { return c.userID }

// Close releases transport resources.
func (c *HTTPClient) Close() error {
	c.http.CloseIdleConnections()
	return nil
}
