// Package transport exposes sessions over HTTP: tool calls for the
// conversational model and a websocket channel that keeps draft displays
// in sync.
package transport

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"

	"github.com/julianstephens/habitline/internal/constants"
	"github.com/julianstephens/habitline/internal/logger"
	"github.com/julianstephens/habitline/internal/session"
)

const maxBodyBytes = 1 << 20

type Server struct {
	sessions *session.Manager
	hub      *Hub
	router   chi.Router
	upgrader websocket.Upgrader
}

// NewServer wires a hub into the manager as its publisher.
func NewServer(sessions *session.Manager) *Server {
	s := &Server{
		sessions: sessions,
		hub:      NewHub(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Displays run on the same machine and may be served from any origin.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
	sessions.SetPublisher(s.hub)
	s.router = s.routes()
	return s
}

func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) Hub() *Hub { return s.hub }

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.health)
	r.Get("/tools", s.listTools)

	r.Route("/sessions", func(r chi.Router) {
		r.Get("/", s.listSessions)
		r.Post("/", s.createSession)
		r.Route("/{id}", func(r chi.Router) {
			r.Use(s.sessionCtx)
			r.Delete("/", s.deleteSession)
			r.Get("/draft", s.getDraft)
			r.Post("/tools/{tool}", s.callTool)
			r.Post("/actions", s.postAction)
			r.Get("/ws", s.websocket)
		})
	})
	return r
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		logger.Info("Shutting down server")
		return srv.Shutdown(shutdownCtx)
	}
}

type ctxKey struct{}

func (s *Server) sessionCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, ok := s.sessions.Get(chi.URLParam(r, "id"))
		if !ok {
			writeError(w, http.StatusNotFound, constants.KindNotFound, "no such session")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, sess)))
	})
}

func sessionFrom(r *http.Request) *session.Session {
	return r.Context().Value(ctxKey{}).(*session.Session)
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "version": constants.Version})
}

func (s *Server) listTools(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"tools": session.ToolNames()})
}

// SessionInfo is returned when a session is created.
type SessionInfo struct {
	ID       string `json:"id"`
	Stage    string `json:"stage"`
	Greeting string `json:"greeting,omitempty"`
}

func (s *Server) createSession(w http.ResponseWriter, _ *http.Request) {
	sess := s.sessions.Create()
	g := sess.Greet()
	writeJSON(w, http.StatusCreated, SessionInfo{ID: sess.ID, Stage: string(g.Stage), Greeting: g.Instructions})
}

func (s *Server) listSessions(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"sessions": s.sessions.IDs()})
}

func (s *Server) deleteSession(w http.ResponseWriter, r *http.Request) {
	s.sessions.Delete(sessionFrom(r).ID)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) getDraft(w http.ResponseWriter, r *http.Request) {
	d, ok := sessionFrom(r).Draft()
	if !ok {
		writeError(w, http.StatusNotFound, constants.KindNotFound, "no draft has been generated")
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) callTool(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, constants.KindBadRequest, "failed to read body")
		return
	}
	if len(body) > 0 && !json.Valid(body) {
		writeError(w, http.StatusBadRequest, constants.KindBadRequest, "body must be a JSON object")
		return
	}
	res := sessionFrom(r).CallTool(r.Context(), chi.URLParam(r, "tool"), body)
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) postAction(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, constants.KindBadRequest, "failed to read body")
		return
	}
	res := sessionFrom(r).HandleMessage(r.Context(), body)
	status := http.StatusOK
	if res.Kind == constants.KindBadRequest {
		status = http.StatusBadRequest
	}
	writeJSON(w, status, res)
}

// websocket subscribes the connection to the session, sends the current
// draft, then treats every inbound text frame as a UI action.
func (s *Server) websocket(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn("Websocket upgrade failed", "session", sess.ID, "error", err)
		return
	}

	c := s.hub.subscribe(sess.ID, conn)
	go c.writePump()
	logger.Info("Display connected", "session", sess.ID, "subscribers", s.hub.Subscribers(sess.ID))

	if d, ok := sess.Draft(); ok {
		s.hub.Publish(sess.ID, session.Message{Type: constants.MessageTypeDraft, Payload: d})
	}

	defer func() {
		s.hub.unsubscribe(sess.ID, c)
		logger.Info("Display disconnected", "session", sess.ID)
	}()

	conn.SetReadLimit(maxBodyBytes)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Warn("Websocket read failed", "session", sess.ID, "error", err)
			}
			return
		}
		sess.HandleMessage(context.Background(), data)
	}
}

// requestLogger logs each request through the application logger.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		logger.Info("request",
			"id", middleware.GetReqID(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

// ErrorResponse is the body of a failed request.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Warn("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, kind, message string) {
	writeJSON(w, status, ErrorResponse{Error: kind, Message: message})
}
