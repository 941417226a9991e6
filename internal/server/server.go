// Package server exposes the game over a JSON HTTP API. Every response uses
// a success envelope; domain errors map to HTTP statuses through their code
// and are rendered in the player's language.
package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/louisbranch/innercity/internal/content"
	"github.com/louisbranch/innercity/internal/game/player"
	"github.com/louisbranch/innercity/internal/game/trajectory"
	"github.com/louisbranch/innercity/internal/i18n"
	platformerrors "github.com/louisbranch/innercity/internal/platform/errors"
	"github.com/louisbranch/innercity/internal/storage"
	"github.com/louisbranch/innercity/internal/telemetry"
)

// DefaultPlayerID is used when a request names no player.
const DefaultPlayerID = "default"

// Config carries the server's progression tunables.
type Config struct {
	SessionCooldown  time.Duration
	PointsPerSession int
	UnlockThreshold  int
}

// Server serves the game API.
type Server struct {
	content *content.Set
	engine  *trajectory.Engine
	players storage.PlayerStore
	journal storage.JournalStore
	emitter *telemetry.Emitter

	cooldown         time.Duration
	pointsPerSession int
	unlockThreshold  int

	tracer trace.Tracer
	clock  func() time.Time
	mux    *http.ServeMux
}

// New builds the server and its routes.
func New(set *content.Set, players storage.PlayerStore, journal storage.JournalStore, emitter *telemetry.Emitter, cfg Config) *Server {
	if cfg.PointsPerSession == 0 {
		cfg.PointsPerSession = player.DefaultPointsPerSession
	}
	if cfg.UnlockThreshold == 0 {
		cfg.UnlockThreshold = player.DefaultUnlockThreshold
	}

	s := &Server{
		content:          set,
		engine:           trajectory.NewEngine(set.Scenarios, set.Trees, set.Cards, set.Bosses, players),
		players:          players,
		journal:          journal,
		emitter:          emitter,
		cooldown:         cfg.SessionCooldown,
		pointsPerSession: cfg.PointsPerSession,
		unlockThreshold:  cfg.UnlockThreshold,
		tracer:           otel.Tracer("innercity/server"),
		clock:            time.Now,
		mux:              http.NewServeMux(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /healthz", s.handleHealth)
	s.mux.HandleFunc("GET /api/progress", s.handleProgress)

	s.mux.HandleFunc("POST /api/session/start", s.handleSessionStart)
	s.mux.HandleFunc("POST /api/session/end", s.handleSessionEnd)
	s.mux.HandleFunc("GET /api/history", s.handleHistory)

	s.mux.HandleFunc("POST /api/trajectory/start", s.handleTrajectoryStart)
	s.mux.HandleFunc("POST /api/trajectory/path", s.handleTrajectoryPath)
	s.mux.HandleFunc("POST /api/trajectory/advance", s.handleTrajectoryAdvance)
	s.mux.HandleFunc("POST /api/task/complete", s.handleTaskComplete)

	s.mux.HandleFunc("GET /api/cards/owned", s.handleCardsOwned)
	s.mux.HandleFunc("GET /api/cards/available", s.handleCardsAvailable)
	s.mux.HandleFunc("POST /api/cards/unlock", s.handleCardUnlock)
	s.mux.HandleFunc("POST /api/cards/equip", s.handleCardEquip)
	s.mux.HandleFunc("POST /api/cards/activate", s.handleCardActivate)

	s.mux.HandleFunc("GET /api/boss/active", s.handleBossActive)
	s.mux.HandleFunc("POST /api/boss/defeat", s.handleBossDefeat)

	s.mux.HandleFunc("POST /api/ritual/add", s.handleRitualAdd)
	s.mux.HandleFunc("POST /api/goal/add", s.handleGoalAdd)

	s.mux.HandleFunc("GET /api/agent/memory", s.handleAgentMemoryList)
	s.mux.HandleFunc("POST /api/agent/memory", s.handleAgentMemoryAppend)
}

// ServeHTTP opens a span per request and dispatches to the route table.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, span := s.tracer.Start(r.Context(), r.Method+" "+r.URL.Path,
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(
			attribute.String("http.method", r.Method),
			attribute.String("http.route", r.URL.Path),
		),
	)
	defer span.End()
	s.mux.ServeHTTP(w, r.WithContext(ctx))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	supported := i18n.Supported()
	locales := make([]string, 0, len(supported))
	for _, tag := range supported {
		locales = append(locales, tag.String())
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"locales": locales,
	})
}

// decodeBody unmarshals a JSON request body into target. Empty bodies are
// allowed: every field has a usable zero value.
func decodeBody(r *http.Request, target any) error {
	if r.Body == nil {
		return nil
	}
	decoder := json.NewDecoder(r.Body)
	decoder.UseNumber()
	if err := decoder.Decode(target); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return platformerrors.Wrap(platformerrors.CodeAnswerInvalid, "malformed request body", err)
	}
	return nil
}

// requestPlayerID resolves the player id from the query or the decoded
// body value, defaulting when absent.
func requestPlayerID(r *http.Request, bodyID string) string {
	if q := strings.TrimSpace(r.URL.Query().Get("player_id")); q != "" {
		return q
	}
	if bodyID = strings.TrimSpace(bodyID); bodyID != "" {
		return bodyID
	}
	return DefaultPlayerID
}

// loadPlayer fetches the player's save, creating a fresh default state for
// unknown ids.
func (s *Server) loadPlayer(r *http.Request, playerID string) (*player.State, error) {
	st, err := s.players.LoadPlayer(r.Context(), playerID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return player.NewState(playerID, s.clock()), nil
		}
		return nil, err
	}
	return st, nil
}

func (s *Server) savePlayer(r *http.Request, st *player.State) bool {
	return s.players.SavePlayer(r.Context(), st) == nil
}

func (s *Server) emit(r *http.Request, playerID, kind string, attributes map[string]string) {
	s.emitter.Emit(r.Context(), playerID, kind, attributes)
}

// writeSuccess renders the success envelope with extra payload fields.
func writeSuccess(w http.ResponseWriter, payload map[string]any) {
	body := map[string]any{"success": true}
	for key, value := range payload {
		body[key] = value
	}
	writeJSON(w, http.StatusOK, body)
}

// writeFailure renders the failure envelope. Domain errors carry their code
// and a localized message; anything else is an internal error.
func writeFailure(w http.ResponseWriter, r *http.Request, err error) {
	code := platformerrors.CodeOf(err)
	status := code.HTTPStatus()
	tag := i18n.ResolveTag(r)

	writeJSON(w, status, map[string]any{
		"success": false,
		"error": map[string]any{
			"code":    string(code),
			"message": i18n.UserMessage(tag, code),
		},
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
