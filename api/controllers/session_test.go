package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/sibusisodev/campusmart-backend/pkg/auth"
	"github.com/sibusisodev/campusmart-backend/pkg/auth/session"
	"github.com/sibusisodev/campusmart-backend/pkg/config"
)

var sessionTestJWT = config.JWTConfig{Secret: "secret", Issuer: "issuer", ExpirationMinutes: 10}

type sessionManagerStub struct {
	revokedID    string
	rotatedID    string
	rotatedToken string
	newAccessID  string
	newToken     string
	rotateErr    error
	revokeErr    error
}

func (s *sessionManagerStub) Rotate(_ context.Context, oldAccessID, provided string) (string, string, error) {
	s.rotatedID = oldAccessID
	s.rotatedToken = provided
	return s.newAccessID, s.newToken, s.rotateErr
}

func (s *sessionManagerStub) Revoke(_ context.Context, accessID string) error {
	s.revokedID = accessID
	return s.revokeErr
}

func mintSessionToken(t *testing.T) (string, string) {
	t.Helper()
	accessID := session.NewAccessID()
	token, err := auth.MintAccessToken(sessionTestJWT, time.Now(), auth.AccessTokenPayload{
		UserID: uuid.New(),
		Email:  "thando@students.uct.ac.za",
		JTI:    accessID,
	})
	if err != nil {
		t.Fatalf("mint access token: %v", err)
	}
	return token, accessID
}

func TestAuthLogoutRevokesSession(t *testing.T) {
	manager := &sessionManagerStub{}
	handler := AuthLogout(manager, sessionTestJWT, nil)

	token, jti := mintSessionToken(t)
	req := httptest.NewRequest(http.MethodPost, "/logout", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if manager.revokedID != jti {
		t.Fatalf("expected session %s revoked, got %s", jti, manager.revokedID)
	}
}

func TestAuthLogoutWithoutToken(t *testing.T) {
	manager := &sessionManagerStub{}
	handler := AuthLogout(manager, sessionTestJWT, nil)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/logout", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", rec.Code)
	}
	if manager.revokedID != "" {
		t.Fatalf("nothing should be revoked without credentials")
	}
}

func postRefresh(t *testing.T, handler http.HandlerFunc, bearer string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/refresh", bytes.NewBufferString(`{"refresh_token":"old-refresh"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+bearer)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestAuthRefreshIssuesNewPair(t *testing.T) {
	manager := &sessionManagerStub{newAccessID: "new-jti", newToken: "new-refresh"}
	handler := AuthRefresh(manager, sessionTestJWT, nil)

	token, jti := mintSessionToken(t)
	rec := postRefresh(t, handler, token)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if manager.rotatedID != jti {
		t.Fatalf("expected rotation of %s, got %s", jti, manager.rotatedID)
	}
	if manager.rotatedToken != "old-refresh" {
		t.Fatalf("expected presented token old-refresh, got %s", manager.rotatedToken)
	}

	var envelope struct {
		Data refreshResponse `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.RefreshToken != "new-refresh" {
		t.Fatalf("expected refresh token new-refresh got %s", envelope.Data.RefreshToken)
	}
	if envelope.Data.AccessToken == "" {
		t.Fatalf("expected access token in body")
	}
	if rec.Header().Get("X-CM-Token") != envelope.Data.AccessToken {
		t.Fatalf("X-CM-Token header must match the body token")
	}

	// The new access token must carry the rotated jti.
	claims, err := auth.ParseAccessToken(sessionTestJWT, envelope.Data.AccessToken)
	if err != nil {
		t.Fatalf("parse minted token: %v", err)
	}
	if claims.ID != "new-jti" {
		t.Fatalf("expected jti new-jti, got %s", claims.ID)
	}
}

func TestAuthRefreshRejectsInvalidRefreshToken(t *testing.T) {
	manager := &sessionManagerStub{rotateErr: session.ErrInvalidRefreshToken}
	handler := AuthRefresh(manager, sessionTestJWT, nil)

	token, _ := mintSessionToken(t)
	rec := postRefresh(t, handler, token)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", rec.Code)
	}
}
