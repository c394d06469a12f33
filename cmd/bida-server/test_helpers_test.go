package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"bida-server/internal/app/room"
	"bida-server/internal/config"
	"bida-server/internal/store"
	"bida-server/internal/ws"

	"github.com/go-chi/chi/v5"
)

const testTokenSecret = "test-secret"

func newTestRouter(st *store.Store) *chi.Mux {
	hub := ws.NewHub()
	svc := room.NewService(st, hub)
	verifier := newVerifier(config.ServerConfig{TokenKeyID: "k1", TokenSecret: testTokenSecret})
	return newRouter(st, svc, hub, verifier)
}

func doJSON(t *testing.T, router *chi.Mux, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, out any) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp map[string]string
	decodeBody(t, w, &resp)
	return resp["error"]
}

func mintGuestToken(t *testing.T, router *chi.Mux) string {
	t.Helper()
	w := doJSON(t, router, http.MethodPost, "/api/guest-token", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("guest token: expected 200, got %d", w.Code)
	}
	var resp struct {
		GuestToken string `json:"guest_token"`
	}
	decodeBody(t, w, &resp)
	if resp.GuestToken == "" {
		t.Fatal("empty guest token")
	}
	return resp.GuestToken
}
