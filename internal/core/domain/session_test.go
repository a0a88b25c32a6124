package domain

import (
	"encoding/json"
	"testing"
	"time"
)

func TestAccountIDFromAccessToken(t *testing.T) {
	tests := []struct {
		name     string
		token    string
		expected string
	}{
		{"numeric prefix", "123.xyz", "123"},
		{"long numeric prefix", "987654321.abc.def", "987654321"},
		{"no dot numeric", "42", "42"},
		{"alpha prefix", "abc.xyz", ""},
		{"mixed prefix", "12a.xyz", ""},
		{"empty prefix", ".xyz", ""},
		{"empty token", "", ""},
		{"negative sign", "-12.xyz", ""},
		{"unicode digits", "١٢.xyz", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AccountIDFromAccessToken(tt.token); got != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestSession_SetTokens(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	sess := NewSession("sess-1", now, 24*time.Hour)

	sess.SetTokens(&TokenResponse{
		AccessToken:  "123.xyz",
		RefreshToken: "r1",
		ExpiresIn:    3600,
		TokenType:    "Bearer",
	}, now)

	rec := sess.TokenRecord
	if rec == nil {
		t.Fatal("expected token record")
	}
	if rec.AccessToken != "123.xyz" {
		t.Errorf("expected access token 123.xyz, got %s", rec.AccessToken)
	}
	if rec.AccountID != "123" {
		t.Errorf("expected account id 123, got %s", rec.AccountID)
	}
	if rec.RefreshToken != "r1" {
		t.Errorf("expected refresh token r1, got %s", rec.RefreshToken)
	}
	if !rec.ObtainedAt.Equal(now) {
		t.Errorf("expected obtained at %v, got %v", now, rec.ObtainedAt)
	}
	if !rec.ExpiresAt().Equal(now.Add(time.Hour)) {
		t.Errorf("expected expiry one hour after obtained, got %v", rec.ExpiresAt())
	}
}

func TestSession_MergeTokens_PreservesRefreshToken(t *testing.T) {
	now := time.Now()
	sess := NewSession("sess-1", now, time.Hour)
	sess.SetTokens(&TokenResponse{AccessToken: "123.old", RefreshToken: "r1", ExpiresIn: 3600, TokenType: "Bearer"}, now)

	later := now.Add(30 * time.Minute)
	sess.MergeTokens(&TokenResponse{AccessToken: "new", ExpiresIn: 3600}, later)

	rec := sess.TokenRecord
	if rec.AccessToken != "new" {
		t.Errorf("expected access token new, got %s", rec.AccessToken)
	}
	if rec.RefreshToken != "r1" {
		t.Errorf("expected refresh token r1 preserved, got %s", rec.RefreshToken)
	}
	if rec.TokenType != "Bearer" {
		t.Errorf("expected token type preserved, got %s", rec.TokenType)
	}
	if rec.AccountID != "" {
		t.Errorf("expected account id re-derived from new token, got %s", rec.AccountID)
	}
	if !rec.ObtainedAt.Equal(later) {
		t.Errorf("expected obtained at to advance")
	}
}

func TestSession_MergeTokens_NewRefreshTokenWins(t *testing.T) {
	now := time.Now()
	sess := NewSession("sess-1", now, time.Hour)
	sess.SetTokens(&TokenResponse{AccessToken: "1.a", RefreshToken: "r1"}, now)

	sess.MergeTokens(&TokenResponse{AccessToken: "1.b", RefreshToken: "r2"}, now)

	if sess.TokenRecord.RefreshToken != "r2" {
		t.Errorf("expected refresh token r2, got %s", sess.TokenRecord.RefreshToken)
	}
	if sess.TokenRecord.AccountID != "1" {
		t.Errorf("expected account id 1, got %s", sess.TokenRecord.AccountID)
	}
}

func TestSession_ClearTokens_Idempotent(t *testing.T) {
	sess := NewSession("sess-1", time.Now(), time.Hour)
	sess.PendingAuthorization = &PendingAuthorization{State: "s", Verifier: "v"}
	sess.SetTokens(&TokenResponse{AccessToken: "1.a"}, time.Now())

	sess.ClearTokens()
	sess.ClearTokens()

	if sess.TokenRecord != nil || sess.PendingAuthorization != nil {
		t.Error("expected both sub-records cleared")
	}
	if sess.HasAccessToken() {
		t.Error("expected no access token after clear")
	}
}

func TestSession_HasAccessToken(t *testing.T) {
	var nilSession *Session
	if nilSession.HasAccessToken() {
		t.Error("nil session must not be authenticated")
	}

	sess := NewSession("sess-1", time.Now(), time.Hour)
	if sess.HasAccessToken() {
		t.Error("empty session must not be authenticated")
	}

	sess.PendingAuthorization = &PendingAuthorization{State: "s", Verifier: "v"}
	if sess.HasAccessToken() {
		t.Error("pending-only session must not be authenticated")
	}

	sess.TokenRecord = &TokenRecord{RefreshToken: "r1"}
	if sess.HasAccessToken() {
		t.Error("record without access token must not be authenticated")
	}

	sess.TokenRecord.AccessToken = "1.a"
	if !sess.HasAccessToken() {
		t.Error("expected authenticated session")
	}
}

func TestSession_IsExpired(t *testing.T) {
	now := time.Now()
	sess := NewSession("sess-1", now, time.Hour)

	if sess.IsExpired(now.Add(59 * time.Minute)) {
		t.Error("expected session to be live before ExpiresAt")
	}
	if !sess.IsExpired(now.Add(time.Hour)) {
		t.Error("expected session to be expired at ExpiresAt")
	}
}

func TestTokenRecord_IsExpired(t *testing.T) {
	now := time.Now()
	rec := &TokenRecord{AccessToken: "a", ExpiresIn: 60, ObtainedAt: now}
	if rec.IsExpired(now.Add(30 * time.Second)) {
		t.Error("expected token to be valid before expiry")
	}
	if !rec.IsExpired(now.Add(2 * time.Minute)) {
		t.Error("expected token to be expired")
	}

	noLifetime := &TokenRecord{AccessToken: "a", ObtainedAt: now}
	if noLifetime.IsExpired(now.Add(24 * time.Hour)) {
		t.Error("tokens without a lifetime never expire locally")
	}
}

func TestSession_JSONLayout(t *testing.T) {
	sess := NewSession("sess-1", time.Now(), time.Hour)
	sess.PendingAuthorization = &PendingAuthorization{State: "s", Verifier: "v"}

	data, err := json.Marshal(sess)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if _, ok := raw["pending_authorization"]; !ok {
		t.Error("expected pending_authorization field")
	}
	if _, ok := raw["token_record"]; ok {
		t.Error("expected token_record to be omitted when absent")
	}
}

func TestSession_Clone(t *testing.T) {
	sess := NewSession("sess-1", time.Now(), time.Hour)
	sess.PendingAuthorization = &PendingAuthorization{State: "s", Verifier: "v"}
	sess.SetTokens(&TokenResponse{AccessToken: "1.a", RefreshToken: "r1"}, time.Now())

	c := sess.Clone()
	c.PendingAuthorization.State = "changed"
	c.TokenRecord.RefreshToken = "changed"

	if sess.PendingAuthorization.State != "s" {
		t.Error("clone must not share pending authorization")
	}
	if sess.TokenRecord.RefreshToken != "r1" {
		t.Error("clone must not share token record")
	}

	var nilSession *Session
	if nilSession.Clone() != nil {
		t.Error("expected nil clone of nil session")
	}
}
