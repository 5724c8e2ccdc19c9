// Package web provides the real-time dashboard for the face filter: status
// and camera APIs, a detected/not-detected status stream and a composited
// preview stream.
package web

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"

	"github.com/teslashibe/go-facefilter/pkg/camera"
	"github.com/teslashibe/go-facefilter/pkg/hub"
	"github.com/teslashibe/go-facefilter/pkg/session"
)

// statusInterval is how often live session stats are pushed to status clients.
const statusInterval = 500 * time.Millisecond

// State represents the app state shown on the dashboard
type State struct {
	CameraOn    bool   `json:"camera_on"`
	FacePresent bool   `json:"face_present"`
	SessionID   string `json:"session_id,omitempty"`
	Detector    string `json:"detector"`
	Asset       string `json:"asset"`
	LastError   string `json:"last_error,omitempty"`
}

// Status is the /api/status and /ws/status payload.
type Status struct {
	State
	Session *session.Snapshot `json:"session,omitempty"`
}

// LogEntry represents a log line for the dashboard
type LogEntry struct {
	Time    string `json:"time"`
	Type    string `json:"type"` // info, face, camera, error
	Message string `json:"message"`
}

// Server is the web dashboard server
type Server struct {
	app    *fiber.App
	port   string
	logger *slog.Logger

	// State
	state   State
	stateMu sync.RWMutex

	// Log buffer (last 500 entries)
	logs   []LogEntry
	logsMu sync.RWMutex

	// Hubs for websocket broadcast
	statusHub *hub.Hub
	logHub    *hub.Hub
	cameraHub *hub.Hub

	// Latest composite waiting for the preview encoder
	frames chan composite

	cameraManager *camera.Manager

	// Snapshot of the active session, false when there is none
	OnSnapshot func() (session.Snapshot, bool)

	// Display size override for the active session
	OnDisplayResize func(width, height int) error

	// Camera on/off; the callback updates CameraOn through UpdateState
	OnCameraToggle func(on bool) error
}

// NewServer creates a new web dashboard server. staticDir, if not empty,
// is served at /.
func NewServer(port, staticDir string, manager *camera.Manager, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		port:          port,
		logger:        logger.With("component", "web"),
		logs:          make([]LogEntry, 0, 500),
		statusHub:     hub.New("status", hub.WithRetainLast(), hub.WithLogger(logger)),
		logHub:        hub.New("logs", hub.WithLogger(logger)),
		cameraHub:     hub.New("camera", hub.WithLogger(logger)),
		frames:        make(chan composite, 1),
		cameraManager: manager,
	}

	app := fiber.New(fiber.Config{
		AppName:               "Face Filter Dashboard",
		DisableStartupMessage: true,
	})

	// CORS for local development
	app.Use(cors.New())

	if staticDir != "" {
		app.Static("/", staticDir)
	}

	// API routes
	api := app.Group("/api")
	api.Get("/status", s.handleStatus)
	api.Post("/display", s.handleDisplay)
	api.Get("/camera", s.handleGetCamera)
	api.Post("/camera", s.handleSetCamera)
	api.Post("/camera/toggle", s.handleToggleCamera)
	api.Get("/logs", s.handleGetLogs)

	// WebSocket upgrade middleware
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	// WebSocket routes
	app.Get("/ws/logs", websocket.New(s.handleLogsWS))
	app.Get("/ws/camera", websocket.New(s.handleCameraWS))
	app.Get("/ws/status", websocket.New(s.handleStatusWS))

	s.app = app
	return s
}

// App returns the underlying fiber app.
func (s *Server) App() *fiber.App {
	return s.app
}

// Start runs the hubs, the preview encoder and the status ticker, then
// listens until the server is shut down.
func (s *Server) Start(ctx context.Context) error {
	s.logger.Info("web dashboard listening", "url", "http://localhost:"+s.port)

	go s.statusHub.Run(ctx)
	go s.logHub.Run(ctx)
	go s.cameraHub.Run(ctx)
	go s.encodeLoop(ctx)
	go s.statusLoop(ctx)

	return s.app.Listen(":" + s.port)
}

// StartAsync starts the web server in a goroutine
func (s *Server) StartAsync(ctx context.Context) {
	go func() {
		if err := s.Start(ctx); err != nil {
			s.logger.Error("web server error", "error", err)
		}
	}()
}

func (s *Server) statusLoop(ctx context.Context) {
	ticker := time.NewTicker(statusInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if s.statusHub.ClientCount() > 0 {
				s.statusHub.BroadcastJSON(s.status())
			}
		}
	}
}

// UpdateState updates the dashboard state and broadcasts to clients
func (s *Server) UpdateState(update func(*State)) {
	s.stateMu.Lock()
	update(&s.state)
	s.stateMu.Unlock()

	s.statusHub.BroadcastJSON(s.status())
}

// GetState returns a copy of the dashboard state.
func (s *Server) GetState() State {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.state
}

func (s *Server) status() Status {
	st := Status{State: s.GetState()}
	if s.OnSnapshot != nil {
		if snap, ok := s.OnSnapshot(); ok {
			st.Session = &snap
		}
	}
	return st
}

// AddLog adds a log entry and broadcasts to clients
func (s *Server) AddLog(logType, message string) {
	entry := LogEntry{
		Time:    time.Now().Format("15:04:05"),
		Type:    logType,
		Message: message,
	}

	s.logsMu.Lock()
	s.logs = append(s.logs, entry)
	if len(s.logs) > 500 {
		s.logs = s.logs[1:]
	}
	s.logsMu.Unlock()

	s.logHub.BroadcastJSON(entry)
}

// OnFaceDetectionChange implements session.Listener.
func (s *Server) OnFaceDetectionChange(present bool) {
	s.UpdateState(func(st *State) { st.FacePresent = present })
	if present {
		s.AddLog("face", "Face detected")
	} else {
		s.AddLog("face", "No face detected")
	}
}

// Shutdown gracefully stops the web server
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
