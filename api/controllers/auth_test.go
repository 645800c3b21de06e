package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/sibusisodev/campusmart-backend/internal/auth"
	"github.com/sibusisodev/campusmart-backend/internal/users"
	pkgerrors "github.com/sibusisodev/campusmart-backend/pkg/errors"
)

type stubAuthService struct {
	resp *auth.LoginResponse
	err  error
	last auth.LoginRequest
}

func (s *stubAuthService) Login(ctx context.Context, req auth.LoginRequest) (*auth.LoginResponse, error) {
	s.last = req
	return s.resp, s.err
}

func testLoginResponse(token string) *auth.LoginResponse {
	return &auth.LoginResponse{
		AccessToken:  token,
		RefreshToken: "refresh-token",
		User: &users.UserDTO{
			ID:    uuid.New(),
			Email: "thando@students.uct.ac.za",
		},
	}
}

func TestAuthLoginSuccess(t *testing.T) {
	token := "access-token"
	svc := &stubAuthService{resp: testLoginResponse(token)}
	handler := AuthLogin(svc, nil)

	body := []byte(`{"email": "thando@students.uct.ac.za", "password": "Secret123!"}`)
	req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if got := rec.Header().Get("X-CM-Token"); got != token {
		t.Fatalf("expected token header %s got %s", token, got)
	}
	if svc.last.Email != "thando@students.uct.ac.za" {
		t.Fatalf("unexpected email forwarded: %s", svc.last.Email)
	}

	var envelope struct {
		Data struct {
			AccessToken  string `json:"access_token"`
			RefreshToken string `json:"refresh_token"`
		} `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.AccessToken != token {
		t.Fatalf("expected access token in body got %s", envelope.Data.AccessToken)
	}
}

func TestAuthLoginRejectsMissingPassword(t *testing.T) {
	handler := AuthLogin(&stubAuthService{}, nil)

	body := []byte(`{"email": "thando@students.uct.ac.za"}`)
	req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
}

func TestAuthLoginPropagatesUnauthorized(t *testing.T) {
	svc := &stubAuthService{err: pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")}
	handler := AuthLogin(svc, nil)

	body := []byte(`{"email": "thando@students.uct.ac.za", "password": "wrong-password"}`)
	req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", rec.Code)
	}
}
