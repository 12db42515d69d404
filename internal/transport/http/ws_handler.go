package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gorilla/websocket"

	"provia-quiz-service/internal/app"
	"provia-quiz-service/internal/domain"
)

type WSHandler struct {
	service  *app.QuizService
	logger   *slog.Logger
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.QuizService, logger *slog.Logger) *WSHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &WSHandler{
		service: service,
		logger:  logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type answerPayload struct {
	Index  int `json:"index"`
	Option int `json:"option"`
}

type indexPayload struct {
	Index int `json:"index"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// sessionRequest is the parsed query of a /ws/session upgrade.
type sessionRequest struct {
	mode      domain.Mode
	day       int
	milestone string
	start     int
	end       int
	count     int
}

func parseSessionRequest(r *http.Request) (sessionRequest, error) {
	q := r.URL.Query()
	mode, err := domain.ParseMode(q.Get("mode"))
	if err != nil {
		return sessionRequest{}, err
	}
	req := sessionRequest{mode: mode, milestone: q.Get("milestone")}
	ints := map[string]*int{"day": &req.day, "start": &req.start, "end": &req.end, "count": &req.count}
	for key, dst := range ints {
		raw := q.Get(key)
		if raw == "" {
			continue
		}
		v, err := strconv.Atoi(raw)
		if err != nil {
			return sessionRequest{}, errors.New(key + " must be a number")
		}
		*dst = v
	}
	switch {
	case mode == domain.ModeDaily && req.day == 0:
		return sessionRequest{}, errors.New("daily sessions need a day")
	case mode == domain.ModeMock && req.milestone == "" && (req.start == 0 || req.end == 0):
		return sessionRequest{}, errors.New("mock sessions need a milestone or a start and end day")
	}
	return req, nil
}

// ServeWS upgrades the request, starts the requested session and drives it
// from client messages until the connection closes.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())
	req, err := parseSessionRequest(r)
	if err != nil {
		Error(w, http.StatusBadRequest, err.Error())
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("ws upgrade failed", "user", userID, "error", err)
		return
	}
	defer conn.Close()

	ctx := r.Context()
	if req.mode == domain.ModeDaily {
		info, err := h.service.AttemptInfo(ctx, userID, req.day)
		if err != nil {
			_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
			return
		}
		if info.CoolingDown {
			_ = conn.WriteJSON(outboundMessage[domain.AttemptInfo]{Type: "cooldown", Payload: info})
			return
		}
	}

	session, err := h.startSession(ctx, userID, req)
	if errors.Is(err, domain.ErrNoQuestions) {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "empty", Payload: errorPayload{Message: err.Error()}})
		return
	}
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}
	defer h.service.Close(userID, session.ID())

	updates, cancel := session.Subscribe()
	defer cancel()

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	push := func(msg outboundMessage[any]) {
		select {
		case send <- msg:
		case <-writerDone:
		}
	}

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				h.logger.Warn("ws write error", "user", userID, "error", err)
				return
			}
		}
	}()

	go func() {
		defer close(updatesDone)
		finished := false
		for {
			select {
			case snap, ok := <-updates:
				if !ok {
					return
				}
				push(outboundMessage[any]{Type: "state", Payload: snap})
				if snap.Phase != domain.PhaseResult || finished {
					continue
				}
				finished = true
				result, err := h.service.FinishSession(ctx, userID, session)
				if err != nil {
					h.logger.Error("finish session", "user", userID, "session", session.ID(), "error", err)
				}
				if result.SessionID != "" {
					push(outboundMessage[any]{Type: "result", Payload: result})
				}
			case <-closeSignals:
				return
			}
		}
	}()

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		if err := h.dispatch(session, inbound); err != nil {
			push(outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		}
	}

	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone
}

func (h *WSHandler) startSession(ctx context.Context, userID string, req sessionRequest) (*app.Session, error) {
	switch {
	case req.mode == domain.ModeDaily:
		return h.service.StartDaily(ctx, userID, req.day)
	case req.milestone != "":
		return h.service.StartMilestone(ctx, userID, req.milestone)
	default:
		return h.service.StartMock(ctx, userID, req.start, req.end, req.count)
	}
}

var errUnsupportedMessage = errors.New("unsupported message type")

func (h *WSHandler) dispatch(session *app.Session, msg inboundMessage) error {
	switch msg.Type {
	case "begin":
		return session.Begin()
	case "answer":
		var p answerPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			return errors.New("invalid answer payload")
		}
		return session.SubmitAnswer(p.Index, p.Option)
	case "advance":
		return session.Advance()
	case "next":
		return session.Next()
	case "prev":
		return session.Previous()
	case "jump", "bookmark":
		var p indexPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			return errors.New("invalid index payload")
		}
		if msg.Type == "jump" {
			return session.JumpTo(p.Index)
		}
		return session.ToggleBookmark(p.Index)
	case "review":
		return session.EnterReview()
	case "submit":
		return session.Submit()
	default:
		return errUnsupportedMessage
	}
}
