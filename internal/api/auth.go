package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"decisiondash/internal/models"
)

// Credentials are the login form values
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Registration are the sign-up form values
type Registration struct {
	Email        string `json:"email"`
	Password     string `json:"password"`
	BusinessName string `json:"businessName,omitempty"`
}

// AuthResult is what login and register hand back
type AuthResult struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

// Validate checks the fields required before sending credentials
func (c Credentials) Validate() error {
	if strings.TrimSpace(c.Email) == "" {
		return &ValidationError{Field: "email", Message: "Email is required"}
	}
	if c.Password == "" {
		return &ValidationError{Field: "password", Message: "Password is required"}
	}
	return nil
}

// Validate checks the fields required before registering
func (r Registration) Validate() error {
	return Credentials{Email: r.Email, Password: r.Password}.Validate()
}

// Login exchanges credentials for a session token
func (c *Client) Login(ctx context.Context, creds Credentials) (*AuthResult, error) {
	if err := creds.Validate(); err != nil {
		return nil, err
	}
	return c.authenticate(ctx, "/api/auth/login", creds)
}

// Register creates an account and signs it in
func (c *Client) Register(ctx context.Context, reg Registration) (*AuthResult, error) {
	if err := reg.Validate(); err != nil {
		return nil, err
	}
	return c.authenticate(ctx, "/api/auth/register", reg)
}

func (c *Client) authenticate(ctx context.Context, path string, payload any) (*AuthResult, error) {
	buf, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}

	body, err := c.do(ctx, request{
		method:      http.MethodPost,
		path:        path,
		body:        bytes.NewReader(buf),
		contentType: "application/json",
		public:      true,
	})
	if err != nil {
		return nil, err
	}

	res, err := decodeAuthResult(body)
	if err != nil {
		return nil, err
	}
	if res.Token == "" {
		return nil, &ServerError{StatusCode: http.StatusOK, Message: "malformed response body: missing token"}
	}
	return res, nil
}

// decodeAuthResult accepts the result either bare or wrapped in a data envelope
func decodeAuthResult(body []byte) (*AuthResult, error) {
	var wrapped struct {
		Data *AuthResult `json:"data"`
		AuthResult
	}
	if err := json.Unmarshal(body, &wrapped); err != nil {
		return nil, malformed(err)
	}
	if wrapped.Data != nil {
		return wrapped.Data, nil
	}
	res := wrapped.AuthResult
	return &res, nil
}

// Profile fetches the signed-in user's profile
func (c *Client) Profile(ctx context.Context) (models.User, error) {
	body, err := c.do(ctx, request{
		method: http.MethodGet,
		path:   "/api/auth/profile",
	})
	if err != nil {
		return models.User{}, err
	}

	var resp struct {
		Data *models.User `json:"data"`
		User *models.User `json:"user"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return models.User{}, malformed(err)
	}
	switch {
	case resp.Data != nil:
		return *resp.Data, nil
	case resp.User != nil:
		return *resp.User, nil
	}
	var u models.User
	if err := json.Unmarshal(body, &u); err != nil {
		return models.User{}, malformed(err)
	}
	return u, nil
}
