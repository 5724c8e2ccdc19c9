package web

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/teslashibe/go-facefilter/pkg/camera"
	"github.com/teslashibe/go-facefilter/pkg/hub"
)

// handleStatus returns the dashboard state with the session snapshot
func (s *Server) handleStatus(c *fiber.Ctx) error {
	return c.JSON(s.status())
}

// DisplayRequest is the request body for a display resize
type DisplayRequest struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// handleDisplay overrides the displayed video size the overlay canvas
// follows. 0x0 reverts to the camera frame size.
func (s *Server) handleDisplay(c *fiber.Ctx) error {
	var req DisplayRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
	}
	reset := req.Width == 0 && req.Height == 0
	if !reset && (req.Width <= 0 || req.Height <= 0) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "width and height must both be positive, or both zero",
		})
	}

	if s.OnDisplayResize == nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "display resize not configured",
		})
	}
	if err := s.OnDisplayResize(req.Width, req.Height); err != nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(fiber.Map{"width": req.Width, "height": req.Height})
}

// handleGetCamera returns the camera config and presets
func (s *Server) handleGetCamera(c *fiber.Ctx) error {
	if s.cameraManager == nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "camera not configured"})
	}
	return c.JSON(fiber.Map{
		"config":  s.cameraManager.GetConfigJSON(),
		"presets": camera.PresetNames(),
	})
}

// handleSetCamera applies a partial camera config, optionally from a preset
func (s *Server) handleSetCamera(c *fiber.Ctx) error {
	if s.cameraManager == nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "camera not configured"})
	}

	params := make(map[string]any)
	if err := c.BodyParser(&params); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
	}
	if err := s.cameraManager.UpdateConfig(params); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	s.AddLog("camera", "Camera config updated")
	return c.JSON(fiber.Map{"config": s.cameraManager.GetConfigJSON()})
}

// ToggleRequest is the optional body for the camera toggle. Without it
// the camera state is flipped.
type ToggleRequest struct {
	On *bool `json:"on"`
}

// handleToggleCamera turns the camera (and its tracking session) on or off
func (s *Server) handleToggleCamera(c *fiber.Ctx) error {
	if s.OnCameraToggle == nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "camera toggle not configured"})
	}

	var req ToggleRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
		}
	}
	on := !s.GetState().CameraOn
	if req.On != nil {
		on = *req.On
	}

	if err := s.OnCameraToggle(on); err != nil {
		s.AddLog("error", "Camera: "+err.Error())
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error":     err.Error(),
			"camera_on": s.GetState().CameraOn,
		})
	}

	if on {
		s.AddLog("camera", "Camera turned on")
	} else {
		s.AddLog("camera", "Camera turned off")
	}
	return c.JSON(s.status())
}

// handleGetLogs returns recent log entries
func (s *Server) handleGetLogs(c *fiber.Ctx) error {
	s.logsMu.RLock()
	defer s.logsMu.RUnlock()
	return c.JSON(s.logs)
}

// handleLogsWS streams log entries, starting with the recent ones
func (s *Server) handleLogsWS(c *websocket.Conn) {
	client := hub.NewClient(s.logHub, c)
	if client == nil {
		return
	}

	s.logsMu.RLock()
	for _, entry := range s.logs {
		c.WriteJSON(entry)
	}
	s.logsMu.RUnlock()

	client.Run()
}

// handleCameraWS streams composited JPEG frames
func (s *Server) handleCameraWS(c *websocket.Conn) {
	if client := hub.NewClient(s.cameraHub, c); client != nil {
		client.Run()
	}
}

// handleStatusWS streams status updates, starting with the latest one
func (s *Server) handleStatusWS(c *websocket.Conn) {
	if client := hub.NewClient(s.statusHub, c); client != nil {
		client.Run()
	}
}
