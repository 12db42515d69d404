package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"provia-quiz-service/internal/domain"
)

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

// StatusFor maps domain errors to HTTP status codes.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrSessionNotFound),
		errors.Is(err, domain.ErrMilestoneNotFound),
		errors.Is(err, domain.ErrOpponentNotFound),
		errors.Is(err, domain.ErrBattleNotFound),
		errors.Is(err, domain.ErrNoQuestions):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidDay),
		errors.Is(err, domain.ErrInvalidRange),
		errors.Is(err, domain.ErrInvalidCount),
		errors.Is(err, domain.ErrIndexOutOfRange),
		errors.Is(err, domain.ErrOptionOutOfRange),
		errors.Is(err, domain.ErrInvalidQuestion):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrQuestionLocked),
		errors.Is(err, domain.ErrInvalidTransition),
		errors.Is(err, domain.ErrNotAllowedInMode),
		errors.Is(err, domain.ErrSessionNotFinished),
		errors.Is(err, domain.ErrBattleFinished),
		errors.Is(err, domain.ErrInsufficientCredits):
		return http.StatusConflict
	case errors.Is(err, domain.ErrEmptyRepository):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeErr(w http.ResponseWriter, err error) {
	status := StatusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "internal error"
	}
	Error(w, status, msg)
}
