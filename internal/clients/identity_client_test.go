package clients

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/campus-tuckshop/tuckshop-service/internal/config"
)

func newTestClient(baseURL string) *HTTPIdentityClient {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return NewHTTPIdentityClient(config.ServiceConfig{
		BaseURL: baseURL,
		Timeout: 5 * time.Second,
	}, logger)
}

func TestSignUpForwardsPayload(t *testing.T) {
	var gotPath string
	var gotBody map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(Identity{
			Email:       "new@campus.edu",
			DisplayName: "New User",
			Token:       "tok",
		})
	}))
	defer srv.Close()

	identity, err := newTestClient(srv.URL).SignUp(context.Background(), "new@campus.edu", "hunter22", "New User")
	if err != nil {
		t.Fatalf("sign up: %v", err)
	}

	if gotPath != "/api/v1/signup" {
		t.Errorf("expected /api/v1/signup, got %s", gotPath)
	}
	if gotBody["email"] != "new@campus.edu" || gotBody["password"] != "hunter22" || gotBody["display_name"] != "New User" {
		t.Errorf("unexpected payload: %v", gotBody)
	}
	if identity.Token != "tok" {
		t.Errorf("expected token tok, got %s", identity.Token)
	}
}

func TestSignInMapsRejectionToInvalidCredentials(t *testing.T) {
	for _, status := range []int{http.StatusUnauthorized, http.StatusForbidden} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(status)
		}))

		_, err := newTestClient(srv.URL).SignIn(context.Background(), "a@campus.edu", "bad")
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Errorf("status %d: expected ErrInvalidCredentials, got %v", status, err)
		}
		srv.Close()
	}
}

func TestSignInSurfacesUpstreamErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).SignIn(context.Background(), "a@campus.edu", "pw")
	if err == nil || errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("expected upstream error, got %v", err)
	}
}

func TestSignInRejectsEmptyIdentity(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(Identity{})
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).SignIn(context.Background(), "a@campus.edu", "pw")
	if err == nil {
		t.Error("expected error for identity without email")
	}
}
