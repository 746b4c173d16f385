package auth

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var testSecret = []byte("test-signing-secret")

func TestTokenRoundTrip(t *testing.T) {
	tok, err := GenerateToken(testSecret, "admin", time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	claims, err := ValidateToken(testSecret, tok)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if claims.Username != "admin" {
		t.Errorf("expected username admin, got %q", claims.Username)
	}
	if claims.ExpiresAt == nil || time.Until(claims.ExpiresAt.Time) < 55*time.Minute {
		t.Errorf("unexpected expiry: %v", claims.ExpiresAt)
	}
}

func TestValidateToken_WrongSecret(t *testing.T) {
	tok, err := GenerateToken(testSecret, "admin", time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	if _, err := ValidateToken([]byte("other-secret"), tok); err == nil {
		t.Error("expected validation failure with a different secret")
	}
}

func TestValidateToken_Expired(t *testing.T) {
	tok, err := GenerateToken(testSecret, "admin", -time.Minute)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	_, err = ValidateToken(testSecret, tok)
	if !errors.Is(err, jwt.ErrTokenExpired) {
		t.Errorf("expected expired-token error, got %v", err)
	}
}

func TestValidateToken_RejectsUnsignedAlg(t *testing.T) {
	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{Username: "admin"})
	tok, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := ValidateToken(testSecret, tok); err == nil {
		t.Error("expected alg=none token to be rejected")
	}
}

func TestGenerateToken_EmptySecret(t *testing.T) {
	if _, err := GenerateToken(nil, "admin", time.Hour); err == nil {
		t.Error("expected error for empty secret")
	}
}

func TestMiddleware(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := Middleware(testSecret, log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims := GetClaims(r.Context())
		if claims == nil {
			t.Error("expected claims in context")
			return
		}
		w.Write([]byte(claims.Username))
	}))

	t.Run("missing header", func(t *testing.T) {
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
		if rr.Code != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", rr.Code)
		}
		if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
			t.Errorf("expected application/json, got %q", ct)
		}
		var body map[string]string
		if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
			t.Fatalf("401 body is not JSON: %v", err)
		}
		if body["error"] != "unauthorized: no token provided" {
			t.Errorf("unexpected error message: %q", body["error"])
		}
	})

	t.Run("malformed header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Basic abc123")
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		if rr.Code != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", rr.Code)
		}
	})

	t.Run("invalid token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer not.a.jwt")
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		if rr.Code != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", rr.Code)
		}
		if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
			t.Errorf("expected application/json, got %q", ct)
		}
		var body map[string]string
		if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
			t.Fatalf("401 body is not JSON: %v", err)
		}
		if body["error"] != "unauthorized: invalid token" {
			t.Errorf("unexpected error message: %q", body["error"])
		}
	})

	t.Run("valid token", func(t *testing.T) {
		tok, err := GenerateToken(testSecret, "admin", time.Hour)
		if err != nil {
			t.Fatalf("GenerateToken: %v", err)
		}
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+tok)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		if rr.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rr.Code)
		}
		if rr.Body.String() != "admin" {
			t.Errorf("expected claims username in body, got %q", rr.Body.String())
		}
	})
}
