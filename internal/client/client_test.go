package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func writeData(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"data": data})
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"data":  nil,
		"error": map[string]string{"code": code, "message": message},
	})
}

// sessionServer simulates the auth surface: login issues an expired
// access token plus a refresh cookie, refresh rotates the cookie and
// hands out a good token.
type sessionServer struct {
	validToken   string
	refreshOK    bool
	refreshCount int
	meCount      int
}

func (s *sessionServer) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/v1/auth/login", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "refresh_token", Value: "refresh-1", Path: "/"})
		writeData(w, http.StatusOK, map[string]any{
			"access_token": "stale-token",
			"account":      map[string]any{"id": 42, "email": "ada@example.com"},
		})
	})

	mux.HandleFunc("/api/v1/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		s.refreshCount++
		cookie, err := r.Cookie("refresh_token")
		if !s.refreshOK || err != nil || cookie.Value == "" {
			writeError(w, http.StatusUnauthorized, "REFRESH_INVALID", "refresh token invalid")
			return
		}
		http.SetCookie(w, &http.Cookie{
			Name:  "refresh_token",
			Value: fmt.Sprintf("refresh-%d", s.refreshCount+1),
			Path:  "/",
		})
		writeData(w, http.StatusOK, map[string]any{
			"access_token": s.validToken,
			"account":      map[string]any{"id": 42, "email": "ada@example.com"},
		})
	})

	mux.HandleFunc("/api/v1/auth/me", func(w http.ResponseWriter, r *http.Request) {
		s.meCount++
		if r.Header.Get("Authorization") != "Bearer "+s.validToken {
			writeError(w, http.StatusUnauthorized, "TOKEN_INVALID", "token invalid")
			return
		}
		writeData(w, http.StatusOK, map[string]any{
			"account": map[string]any{"id": 42, "email": "ada@example.com"},
		})
	})

	return mux
}

func TestAuthedRequestRefreshesOnceAndReplays(t *testing.T) {
	backend := &sessionServer{validToken: "fresh-token", refreshOK: true}
	server := httptest.NewServer(backend.handler())
	defer server.Close()

	c := New(server.URL, nil)
	ctx := context.Background()

	if _, err := c.Login(ctx, "ada@example.com", "password123"); err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	// The login token is stale, so Me must refresh and replay.
	account, err := c.Me(ctx)
	if err != nil {
		t.Fatalf("Me failed: %v", err)
	}
	if account.ID != 42 {
		t.Fatalf("account ID = %d, want 42", account.ID)
	}
	if backend.refreshCount != 1 {
		t.Fatalf("refresh count = %d, want 1", backend.refreshCount)
	}
	if backend.meCount != 2 {
		t.Fatalf("me count = %d, want 2 (original + replay)", backend.meCount)
	}

	// The refreshed token is reused without another refresh.
	if _, err := c.Me(ctx); err != nil {
		t.Fatalf("second Me failed: %v", err)
	}
	if backend.refreshCount != 1 {
		t.Fatalf("refresh count after reuse = %d, want 1", backend.refreshCount)
	}
}

func TestRefreshFailureSurfacesOriginalUnauthorized(t *testing.T) {
	backend := &sessionServer{validToken: "fresh-token", refreshOK: false}
	server := httptest.NewServer(backend.handler())
	defer server.Close()

	c := New(server.URL, nil)
	ctx := context.Background()

	if _, err := c.Login(ctx, "ada@example.com", "password123"); err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	_, err := c.Me(ctx)
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", apiErr.StatusCode)
	}
	if apiErr.Code != "TOKEN_INVALID" {
		t.Fatalf("code = %q, want the original TOKEN_INVALID", apiErr.Code)
	}
	if backend.refreshCount != 1 {
		t.Fatalf("refresh count = %d, want 1", backend.refreshCount)
	}
}

func TestRetryBudgetIsOnePerRequest(t *testing.T) {
	// Refresh succeeds but hands back a token the API still rejects. The
	// client must not loop: one refresh, one replay, then the error.
	backend := &sessionServer{validToken: "never-issued", refreshOK: true}
	mux := backend.handler()

	// /me rejects every token, including the freshly refreshed one.
	wrapped := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/v1/auth/me" {
			backend.meCount++
			writeError(w, http.StatusUnauthorized, "TOKEN_INVALID", "token invalid")
			return
		}
		mux.ServeHTTP(w, r)
	})

	server := httptest.NewServer(wrapped)
	defer server.Close()

	c := New(server.URL, nil)
	ctx := context.Background()

	if _, err := c.Login(ctx, "ada@example.com", "password123"); err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	_, err := c.Me(ctx)
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 APIError, got %v", err)
	}
	if backend.refreshCount != 1 {
		t.Fatalf("refresh count = %d, want exactly 1", backend.refreshCount)
	}
	if backend.meCount != 2 {
		t.Fatalf("me count = %d, want 2 (no retry loop)", backend.meCount)
	}
}

func TestListCoursesDecodesEnvelope(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/courses" {
			writeError(w, http.StatusNotFound, "NOT_FOUND", "not found")
			return
		}
		writeData(w, http.StatusOK, map[string]any{
			"courses": []map[string]any{
				{"title": "Go Basics", "price": 0},
				{"title": "Distributed Systems", "price": 49.99},
			},
		})
	}))
	defer server.Close()

	c := New(server.URL, nil)

	courses, err := c.ListCourses(context.Background(), 1, 10)
	if err != nil {
		t.Fatalf("ListCourses failed: %v", err)
	}
	if len(courses) != 2 {
		t.Fatalf("len = %d, want 2", len(courses))
	}
	if courses[1].Title != "Distributed Systems" {
		t.Fatalf("title = %q", courses[1].Title)
	}
}

func TestAPIErrorMessageFallback(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	c := New(server.URL, nil)

	_, err := c.ListCourses(context.Background(), 1, 10)
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", apiErr.StatusCode)
	}
	if apiErr.Error() == "" {
		t.Fatalf("error message empty")
	}
}
