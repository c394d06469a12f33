package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"bida-server/internal/app/room"
	"bida-server/internal/logging"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httplog/v3"
	"github.com/rs/zerolog/log"
)

func apiLogMiddleware() func(http.Handler) http.Handler {
	return httplog.RequestLogger(
		slog.New(slog.NewJSONHandler(logging.Writer(), &slog.HandlerOptions{})),
		&httplog.Options{
			Level:              slog.LevelInfo,
			Schema:             httplog.Schema{ResponseStatus: "status", ResponseDuration: "duration_ms"},
			LogRequestBody:     func(*http.Request) bool { return false },
			LogResponseBody:    func(*http.Request) bool { return false },
			LogRequestHeaders:  []string{},
			LogResponseHeaders: []string{},
			LogExtraAttrs: func(req *http.Request, _ string, _ int) []slog.Attr {
				rc := chi.RouteContext(req.Context())
				route := req.URL.Path
				if rc != nil && rc.RoutePattern() != "" {
					route = rc.RoutePattern()
				}
				return []slog.Attr{
					slog.String("request_id", chimw.GetReqID(req.Context())),
					slog.String("method", req.Method),
					slog.String("route", route),
					slog.String("path", req.URL.Path),
				}
			},
		},
	)
}

func bodyCaptureMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isUpgradeRequest(r) {
				next.ServeHTTP(w, r)
				return
			}
			reqBody, err := io.ReadAll(r.Body)
			if err != nil {
				reqBody = nil
			}
			r.Body = io.NopCloser(bytes.NewReader(reqBody))

			cw := &captureWriter{ResponseWriter: w}
			next.ServeHTTP(cw, r)

			if len(reqBody) > 0 {
				httplog.SetAttrs(r.Context(), slog.Any("request_body", redactLogged(parseMaybeJSON(reqBody))))
			} else {
				httplog.SetAttrs(r.Context(), slog.Any("request_body", ""))
			}
			httplog.SetAttrs(r.Context(), slog.Any("response_body", redactLogged(parseMaybeJSON(cw.body.Bytes()))))
		})
	}
}

type captureWriter struct {
	http.ResponseWriter
	body bytes.Buffer
}

func (c *captureWriter) Write(p []byte) (int, error) {
	_, _ = c.body.Write(p)
	return c.ResponseWriter.Write(p)
}

func (c *captureWriter) Flush() {
	if f, ok := c.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// redactLogged blanks credential fields before a body reaches the request
// log: the room PIN and minted guest tokens both travel in bodies here.
func redactLogged(v any) any {
	m, ok := v.(map[string]any)
	if !ok {
		return v
	}
	for _, k := range []string{"pin", "guest_token"} {
		if _, present := m[k]; present {
			m[k] = "[redacted]"
		}
	}
	return m
}

func parseMaybeJSON(b []byte) any {
	if len(b) == 0 {
		return ""
	}
	var out any
	if err := json.Unmarshal(b, &out); err == nil {
		return out
	}
	return string(b)
}

func isUpgradeRequest(r *http.Request) bool {
	return strings.EqualFold(r.Header.Get("Upgrade"), "websocket")
}

func writeHTTPError(w http.ResponseWriter, status int, code string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"error": code})
}

// writeServiceError maps a room service sentinel to its HTTP status. The
// sentinel message doubles as the wire error code. Anything unmapped is a
// server fault and gets logged.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, room.ErrRoomNotFound),
		errors.Is(err, room.ErrPlayerNotFound),
		errors.Is(err, room.ErrHistoryNotFound):
		writeHTTPError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, room.ErrInvalidPIN),
		errors.Is(err, room.ErrNotSlotOwner),
		errors.Is(err, room.ErrPlayerNotInRoom):
		writeHTTPError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, room.ErrSlotTaken),
		errors.Is(err, room.ErrIdentityHasSlot),
		errors.Is(err, room.ErrRoomFinished),
		errors.Is(err, room.ErrOutOfCards):
		writeHTTPError(w, http.StatusConflict, err.Error())
	case errors.Is(err, room.ErrInvalidRequest),
		errors.Is(err, room.ErrNotUndoable):
		writeHTTPError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, room.ErrUnauthorized):
		writeHTTPError(w, http.StatusUnauthorized, err.Error())
	default:
		log.Error().Err(err).Msg("room operation failed")
		writeHTTPError(w, http.StatusInternalServerError, "internal_error")
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
