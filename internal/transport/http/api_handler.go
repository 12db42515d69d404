package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"provia-quiz-service/internal/app"
	"provia-quiz-service/internal/domain"
)

// APIHandler serves the JSON endpoints around the quiz sessions.
type APIHandler struct {
	quiz     *app.QuizService
	progress *app.ProgressTracker
	battles  *app.BattleService
}

func NewAPIHandler(quiz *app.QuizService, progress *app.ProgressTracker, battles *app.BattleService) *APIHandler {
	return &APIHandler{quiz: quiz, progress: progress, battles: battles}
}

// RegisterRoutes mounts the API under /api.
func (h *APIHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Get("/curriculum", h.curriculum)
		r.Get("/milestones", h.milestones)
		r.Get("/attempts/{day}", h.attempts)
		r.Get("/progress", h.currentProgress)
		r.Get("/opponents", h.opponents)
		r.Post("/battles", h.startBattle)
		r.Get("/battles/current", h.currentBattle)
		r.Post("/battles/answer", h.answerBattle)
		r.Post("/battles/timeout", h.timeoutBattle)
	})
}

func (h *APIHandler) curriculum(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, domain.Curriculum())
}

func (h *APIHandler) milestones(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, domain.Milestones())
}

func (h *APIHandler) attempts(w http.ResponseWriter, r *http.Request) {
	day, err := strconv.Atoi(chi.URLParam(r, "day"))
	if err != nil {
		Error(w, http.StatusBadRequest, "day must be a number")
		return
	}
	info, err := h.quiz.AttemptInfo(r.Context(), UserIDFromContext(r.Context()), day)
	if err != nil {
		writeErr(w, err)
		return
	}
	JSON(w, http.StatusOK, info)
}

func (h *APIHandler) currentProgress(w http.ResponseWriter, r *http.Request) {
	p, err := h.progress.TouchStreak(r.Context(), UserIDFromContext(r.Context()))
	if err != nil {
		writeErr(w, err)
		return
	}
	JSON(w, http.StatusOK, p)
}

func (h *APIHandler) opponents(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, domain.Opponents())
}

type startBattleRequest struct {
	OpponentID string `json:"opponentId"`
	Stake      int    `json:"stake"`
}

func (h *APIHandler) startBattle(w http.ResponseWriter, r *http.Request) {
	var req startBattleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	snap, err := h.battles.Start(r.Context(), UserIDFromContext(r.Context()), req.OpponentID, req.Stake)
	if err != nil {
		writeErr(w, err)
		return
	}
	JSON(w, http.StatusCreated, snap)
}

func (h *APIHandler) currentBattle(w http.ResponseWriter, r *http.Request) {
	battle, err := h.battles.Current(UserIDFromContext(r.Context()))
	if err != nil {
		writeErr(w, err)
		return
	}
	JSON(w, http.StatusOK, battle.Snapshot())
}

type battleAnswerRequest struct {
	Option int `json:"option"`
}

func (h *APIHandler) answerBattle(w http.ResponseWriter, r *http.Request) {
	var req battleAnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	snap, err := h.battles.Answer(r.Context(), UserIDFromContext(r.Context()), req.Option)
	if err != nil {
		writeErr(w, err)
		return
	}
	JSON(w, http.StatusOK, snap)
}

func (h *APIHandler) timeoutBattle(w http.ResponseWriter, r *http.Request) {
	snap, err := h.battles.Timeout(r.Context(), UserIDFromContext(r.Context()))
	if err != nil {
		writeErr(w, err)
		return
	}
	JSON(w, http.StatusOK, snap)
}
