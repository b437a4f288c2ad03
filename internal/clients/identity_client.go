package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/campus-tuckshop/tuckshop-service/internal/config"
)

// Identity is what the external identity oracle knows about a user. Email is
// the account primary key throughout the service.
type Identity struct {
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	Token       string `json:"token"`
}

// ErrInvalidCredentials is returned when the oracle rejects a sign-in.
var ErrInvalidCredentials = fmt.Errorf("invalid credentials")

// IdentityClient wraps the external authentication provider.
type IdentityClient interface {
	SignUp(ctx context.Context, email, password, displayName string) (*Identity, error)
	SignIn(ctx context.Context, email, password string) (*Identity, error)
}

// HTTPIdentityClient implements IdentityClient over HTTP.
type HTTPIdentityClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *logrus.Entry
}

func NewHTTPIdentityClient(cfg config.ServiceConfig, logger *logrus.Logger) *HTTPIdentityClient {
	return &HTTPIdentityClient{
		baseURL: cfg.BaseURL,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		logger: logger.WithField("component", "identity-client"),
	}
}

var _ IdentityClient = (*HTTPIdentityClient)(nil)

// SignUp registers a new identity with the oracle.
func (c *HTTPIdentityClient) SignUp(ctx context.Context, email, password, displayName string) (*Identity, error) {
	c.logger.WithFields(logrus.Fields{"email": email}).Debug("Signing up identity")
	return c.post(ctx, "/api/v1/signup", map[string]string{
		"email":        email,
		"password":     password,
		"display_name": displayName,
	})
}

// SignIn authenticates an identity with the oracle.
func (c *HTTPIdentityClient) SignIn(ctx context.Context, email, password string) (*Identity, error) {
	c.logger.WithFields(logrus.Fields{"email": email}).Debug("Signing in identity")
	return c.post(ctx, "/api/v1/signin", map[string]string{
		"email":    email,
		"password": password,
	})
}

func (c *HTTPIdentityClient) post(ctx context.Context, path string, body map[string]string) (*Identity, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.WithFields(logrus.Fields{"path": path, "error": err.Error()}).Error("Identity request failed")
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, ErrInvalidCredentials
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("identity service returned status %d", resp.StatusCode)
	}

	var identity Identity
	if err := json.NewDecoder(resp.Body).Decode(&identity); err != nil {
		return nil, err
	}
	if identity.Email == "" {
		return nil, fmt.Errorf("identity service returned no email")
	}
	return &identity, nil
}
