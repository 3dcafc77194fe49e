package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"path/filepath"
	"time"

	"github.com/brianly1003/codexdesk/internal/domain"
	"github.com/brianly1003/codexdesk/internal/domain/commands"
	"github.com/brianly1003/codexdesk/internal/domain/events"
	"github.com/brianly1003/codexdesk/internal/domain/ports"
	"github.com/brianly1003/codexdesk/internal/pairing"
	"github.com/brianly1003/codexdesk/internal/server/websocket"
	"github.com/brianly1003/codexdesk/internal/session"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"
	httpSwagger "github.com/swaggo/http-swagger"
)

// SessionController is the part of the session controller the server drives.
type SessionController interface {
	SendMessage(text string) error
	StopGeneration() error
	SetProjectContext(path string) error
	CheckInstallation(ctx context.Context) ports.InstallStatus
	InstallStatus() *ports.InstallStatus
	Snapshot() session.Snapshot
}

// Server is the HTTP API server.
type Server struct {
	addr       string
	server     *http.Server
	listener   net.Listener
	router     *mux.Router
	controller SessionController
	ws         *websocket.Handler
	qr         *pairing.QRGenerator
	logger     *slog.Logger
	startTime  time.Time
}

// New creates a new HTTP server. Events published on hub are streamed to
// WebSocket clients on /ws.
func New(host string, port int, controller SessionController, hub ports.EventHub, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		addr:       net.JoinHostPort(host, fmt.Sprintf("%d", port)),
		router:     mux.NewRouter(),
		controller: controller,
		logger:     logger,
		startTime:  time.Now(),
	}

	s.ws = websocket.NewHandler(hub, s.handleCommand)
	s.ws.SetStatusProvider(s)

	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)

	api := s.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/session", s.handleGetSession).Methods(http.MethodGet)
	api.HandleFunc("/messages", s.handleSendMessage).Methods(http.MethodPost)
	api.HandleFunc("/stop", s.handleStop).Methods(http.MethodPost)
	api.HandleFunc("/project", s.handleSetProject).Methods(http.MethodPut)
	api.HandleFunc("/install", s.handleGetInstall).Methods(http.MethodGet)
	api.HandleFunc("/install/check", s.handleCheckInstall).Methods(http.MethodPost)
	api.HandleFunc("/pair/qr", s.handlePairQR).Methods(http.MethodGet)

	s.router.Handle("/ws", s.ws)

	s.router.PathPrefix("/swagger/").Handler(httpSwagger.Handler(
		httpSwagger.DeepLinking(true),
		httpSwagger.DocExpansion("none"),
		httpSwagger.DomID("swagger-ui"),
	))

	return s
}

// SetPairing enables the /api/pair/qr endpoint.
func (s *Server) SetPairing(qr *pairing.QRGenerator) {
	s.qr = qr
}

// Handler returns the full handler chain.
func (s *Server) Handler() http.Handler {
	var handler http.Handler = s.router
	handler = corsMiddleware(handler)
	handler = s.recoverMiddleware(handler)
	handler = s.requestLoggingMiddleware(handler)
	return handler
}

// Start binds the listen address and serves in the background.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}
	s.listener = ln

	// No Read/WriteTimeout: they would cut long-lived WebSocket connections.
	s.server = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	s.ws.Start()

	s.logger.Info("HTTP server starting", "addr", ln.Addr().String())

	go func() {
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("HTTP server error", "error", err)
		}
	}()

	return nil
}

// Addr returns the bound address once started, or the configured one.
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.addr
}

// Stop gracefully stops the HTTP server and closes WebSocket clients.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("HTTP server stopping")
	s.ws.Stop()
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// SessionState implements websocket.StatusProvider.
func (s *Server) SessionState() string {
	return string(s.controller.Snapshot().State)
}

// UptimeSeconds implements websocket.StatusProvider.
func (s *Server) UptimeSeconds() int64 {
	return int64(time.Since(s.startTime).Seconds())
}

// handleHealth handles GET /health
//
//	@Summary		Health check
//	@Description	Returns the health status of the server
//	@Tags			health
//	@Produce		json
//	@Success		200	{object}	HealthResponse
//	@Router			/health [get]
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status: "ok",
		Time:   time.Now().UTC().Format(time.RFC3339),
	})
}

// handleGetSession handles GET /api/session
//
//	@Summary		Get session snapshot
//	@Description	Returns the project path, generation state, transcript and in-progress answer
//	@Tags			session
//	@Produce		json
//	@Success		200	{object}	session.Snapshot
//	@Router			/api/session [get]
func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.controller.Snapshot())
}

// handleSendMessage handles POST /api/messages
//
//	@Summary		Send a message
//	@Description	Appends the message to the transcript and starts codex. The answer streams over /ws.
//	@Tags			session
//	@Accept			json
//	@Produce		json
//	@Param			request	body		SendMessageRequest	true	"Message text"
//	@Success		202		{object}	StatusResponse
//	@Failure		400		{object}	ErrorResponse	"Empty message"
//	@Failure		409		{object}	ErrorResponse	"Response already being generated"
//	@Failure		412		{object}	ErrorResponse	"No project selected or codex not installed"
//	@Router			/api/messages [post]
func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	var req SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, domain.ErrInvalidPayload)
		return
	}

	if err := s.controller.SendMessage(req.Text); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusAccepted, StatusResponse{Status: "accepted"})
}

// handleStop handles POST /api/stop
//
//	@Summary		Stop generation
//	@Description	Stops the in-flight response and discards the partial answer. A no-op when idle.
//	@Tags			session
//	@Produce		json
//	@Success		200	{object}	StatusResponse
//	@Router			/api/stop [post]
func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	if err := s.controller.StopGeneration(); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, StatusResponse{Status: "stopped"})
}

// handleSetProject handles PUT /api/project
//
//	@Summary		Select project folder
//	@Description	Selects the folder codex works in. Stops any generation and clears the transcript.
//	@Tags			session
//	@Accept			json
//	@Produce		json
//	@Param			request	body		SetProjectRequest	true	"Project path"
//	@Success		200		{object}	session.Snapshot
//	@Failure		400		{object}	ErrorResponse	"Path is not a directory"
//	@Router			/api/project [put]
func (s *Server) handleSetProject(w http.ResponseWriter, r *http.Request) {
	var req SetProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, domain.ErrInvalidPayload)
		return
	}

	if err := s.controller.SetProjectContext(req.Path); err != nil {
		writeError(w, err)
		return
	}

	snapshot := s.controller.Snapshot()
	if s.qr != nil && snapshot.ProjectPath != "" {
		s.qr.SetProject(filepath.Base(snapshot.ProjectPath))
	}
	writeJSON(w, http.StatusOK, snapshot)
}

// handleGetInstall handles GET /api/install
//
//	@Summary		Get install status
//	@Description	Returns the last codex installation check with install hints when missing
//	@Tags			install
//	@Produce		json
//	@Success		200	{object}	InstallResponse
//	@Router			/api/install [get]
func (s *Server) handleGetInstall(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, installResponse(s.controller.InstallStatus()))
}

// handleCheckInstall handles POST /api/install/check
//
//	@Summary		Re-check installation
//	@Description	Runs codex --version again and records the result
//	@Tags			install
//	@Produce		json
//	@Success		200	{object}	InstallResponse
//	@Router			/api/install/check [post]
func (s *Server) handleCheckInstall(w http.ResponseWriter, r *http.Request) {
	status := s.controller.CheckInstallation(r.Context())
	writeJSON(w, http.StatusOK, installResponse(&status))
}

// handlePairQR handles GET /api/pair/qr
//
//	@Summary		Get connection QR code
//	@Description	Returns a PNG QR code encoding the HTTP and WebSocket URLs
//	@Tags			pairing
//	@Produce		png
//	@Param			size	query		int	false	"Image size in pixels (default 256)"
//	@Success		200		{file}		binary
//	@Failure		503		{object}	ErrorResponse	"Pairing not configured"
//	@Router			/api/pair/qr [get]
func (s *Server) handlePairQR(w http.ResponseWriter, r *http.Request) {
	if s.qr == nil {
		writeJSON(w, http.StatusServiceUnavailable, ErrorResponse{
			Error: "pairing not configured",
			Code:  domain.ErrCodeInternalError,
		})
		return
	}

	size := 256
	if v := r.URL.Query().Get("size"); v != "" {
		if _, err := fmt.Sscanf(v, "%d", &size); err != nil || size < 64 || size > 1024 {
			writeError(w, domain.NewValidationError("size", "must be between 64 and 1024"))
			return
		}
	}

	png, err := s.qr.GeneratePNG(size)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}

// handleCommand executes a command received from a WebSocket client.
// Failures are reported back to that client only.
func (s *Server) handleCommand(clientID string, message []byte) {
	cmd, err := commands.ParseCommand(message)
	if err != nil {
		s.ws.SendTo(clientID, events.NewErrorEvent(domain.ErrCodeInvalidPayload, domain.ErrInvalidPayload.Error(), ""))
		return
	}

	switch cmd.Command {
	case commands.CommandSendMessage:
		var p *commands.SendMessagePayload
		if p, err = cmd.ParseSendMessagePayload(); err == nil {
			err = s.controller.SendMessage(p.Text)
		}
	case commands.CommandStopGeneration:
		err = s.controller.StopGeneration()
	case commands.CommandSetProject:
		var p *commands.SetProjectPayload
		if p, err = cmd.ParseSetProjectPayload(); err == nil {
			err = s.controller.SetProjectContext(p.Path)
		}
	case commands.CommandCheckInstall:
		s.controller.CheckInstallation(context.Background())
	case commands.CommandGetSession:
		snapshot := s.controller.Snapshot()
		s.ws.SendTo(clientID, events.NewSessionResponseEvent(snapshot.GenerationID, snapshot, cmd.RequestID))
	default:
		err = fmt.Errorf("%w: %q", domain.ErrInvalidCommand, cmd.Command)
	}

	if err != nil {
		if errors.As(err, new(*json.UnmarshalTypeError)) || errors.As(err, new(*json.SyntaxError)) {
			err = fmt.Errorf("%w: %v", domain.ErrInvalidPayload, err)
		}
		log.Debug().Err(err).Str("client_id", clientID).Str("command", string(cmd.Command)).Msg("command rejected")
		s.ws.SendTo(clientID, events.NewErrorEvent(domain.ErrorCode(err), err.Error(), cmd.RequestID))
	}
}

func installResponse(status *ports.InstallStatus) InstallResponse {
	resp := InstallResponse{Checked: status != nil, Status: status}
	if advisory := session.AdvisoryText(status); advisory != "" {
		resp.Advisory = session.InstallAdvisory
		resp.Hints = session.InstallHints
	}
	return resp
}
