package main

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"royale/internal/bot"
	"royale/internal/config"
	"royale/internal/logging"
	"royale/internal/network"
	"royale/internal/session"
)

// api is the standalone server's REST surface: session lifecycle plus
// the websocket relay entry point.
type api struct {
	manager        *session.Manager
	hub            *network.Hub
	defaultVariant string
	log            logging.Logger
}

func newAPI(manager *session.Manager, hub *network.Hub, defaultVariant string, log logging.Logger) *api {
	return &api{
		manager:        manager,
		hub:            hub,
		defaultVariant: defaultVariant,
		log:            log,
	}
}

func (a *api) router() http.Handler {
	router := mux.NewRouter()
	router.HandleFunc("/healthz", a.healthzHandler).Methods(http.MethodGet)
	router.HandleFunc("/sessions", a.createSessionHandler).Methods(http.MethodPost)
	router.HandleFunc("/sessions", a.listSessionsHandler).Methods(http.MethodGet)
	router.HandleFunc("/sessions/{id}", a.getSessionHandler).Methods(http.MethodGet)
	router.HandleFunc("/ws", a.hub.ServeWS(a.resolve, config.MaxParticipants()))
	return router
}

func (a *api) resolve(sessionID string) (network.Match, bool) {
	sess, ok := a.manager.Get(sessionID)
	if !ok {
		return nil, false
	}
	return sess, true
}

func (a *api) healthzHandler(w http.ResponseWriter, r *http.Request) {
	a.respond(w, http.StatusOK, map[string]bool{"healthy": true})
}

type createSessionRequest struct {
	Variant string `json:"variant"`
}

func (a *api) createSessionHandler(w http.ResponseWriter, r *http.Request) {
	variant := a.defaultVariant
	if r.Body != nil && r.ContentLength != 0 {
		var request createSessionRequest
		if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
			a.respondError(w, http.StatusBadRequest, "invalid payload")
			return
		}
		if request.Variant != "" {
			variant = request.Variant
		}
	}

	sess, err := a.manager.Create(variant)
	if err != nil {
		if errors.Is(err, session.ErrUnknownVariant) {
			a.respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		a.log.Error("create session: %v", err)
		a.respondError(w, http.StatusInternalServerError, "could not create session")
		return
	}

	a.seatAutopilot(sess)
	a.respond(w, http.StatusCreated, session.Info{
		ID:        sess.ID,
		Variant:   sess.Variant,
		CreatedAt: sess.CreatedAt,
		Snapshot:  sess.Snapshot(),
	})
}

// seatAutopilot fills a fresh session with scripted participants when
// the config asks for them. Levels rotate so one session exercises the
// different spend rhythms.
func (a *api) seatAutopilot(sess *session.Session) {
	if !config.AutopilotEnabled() {
		return
	}
	tuning := bot.DefaultTuning
	tuning.SaverFloor = config.AutopilotSpendFloor()
	for i := 0; i < config.AutopilotCount(); i++ {
		level := bot.Level(i % 3)
		agent, err := bot.NewTunedAgent(i, level, 0, config.AutopilotDelayTicksMax(), tuning, nil)
		if err != nil {
			a.log.Error("autopilot agent: %v", err)
			return
		}
		if err := sess.AttachAgent(agent); err != nil {
			a.log.Warn("could not seat %s in session %s: %v", agent.ID, sess.ID, err)
			return
		}
	}
}

func (a *api) listSessionsHandler(w http.ResponseWriter, r *http.Request) {
	a.respond(w, http.StatusOK, a.manager.List())
}

func (a *api) getSessionHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	sess, ok := a.manager.Get(id)
	if !ok {
		a.respondError(w, http.StatusNotFound, "unknown session")
		return
	}
	a.respond(w, http.StatusOK, session.Info{
		ID:        sess.ID,
		Variant:   sess.Variant,
		CreatedAt: sess.CreatedAt,
		Snapshot:  sess.Snapshot(),
	})
}

func (a *api) respond(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		a.log.Error("encode response: %v", err)
	}
}

func (a *api) respondError(w http.ResponseWriter, status int, message string) {
	a.respond(w, status, map[string]string{"error": message})
}
