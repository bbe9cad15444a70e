package api

import (
	"encoding/json"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/ticketsmith/internal/enhance"
)

// installPayload is the body of the Connect install callback.
type installPayload struct {
	ClientKey    string `json:"clientKey"`
	SharedSecret string `json:"sharedSecret"`
	BaseURL      string `json:"baseUrl"`
}

// uninstallPayload is the body of the Connect uninstall callback.
type uninstallPayload struct {
	ClientKey string `json:"clientKey"`
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":            "healthy",
		"installed_tenants": s.registry.Len(),
		"timestamp":         time.Now().UTC(),
	})
}

// handleDescriptor serves the Connect app descriptor from disk. Parsed
// before serving so a broken file surfaces as a 500, not as garbage sent
// to Jira.
func (s *Server) handleDescriptor(c echo.Context) error {
	data, err := os.ReadFile(s.cfg.Server.Descriptor)
	if err != nil {
		if os.IsNotExist(err) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "App descriptor not found"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to load descriptor"})
	}

	var descriptor map[string]interface{}
	if err := json.Unmarshal(data, &descriptor); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Invalid JSON in descriptor"})
	}

	return c.JSON(http.StatusOK, descriptor)
}

// handlePanel serves the enhancement panel iframe with the issue key and
// app base URL substituted in.
func (s *Server) handlePanel(c echo.Context) error {
	issueKey := c.QueryParam("issueKey")

	data, err := os.ReadFile(s.cfg.Server.PanelFile)
	if err != nil {
		return c.HTML(http.StatusNotFound, "<html><body><h3>Error: panel file not found</h3></body></html>")
	}

	html := string(data)
	html = strings.ReplaceAll(html, "{{ISSUE_KEY}}", issueKey)
	html = strings.ReplaceAll(html, "{{APP_BASE_URL}}", s.cfg.Server.BaseURL)

	return c.HTML(http.StatusOK, html)
}

func (s *Server) handleInstalled(c echo.Context) error {
	var payload installPayload
	if err := c.Bind(&payload); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid install payload"})
	}
	if payload.ClientKey == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "clientKey required"})
	}

	// A persistence failure is logged but the install still takes effect
	// in memory for the lifetime of the process.
	if err := s.registry.Install(payload.ClientKey, payload.SharedSecret, payload.BaseURL); err != nil {
		log.Error().Err(err).Str("client_key", payload.ClientKey).Msg("Failed to persist tenant registry")
	}

	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handleUninstalled(c echo.Context) error {
	var payload uninstallPayload
	if err := c.Bind(&payload); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid uninstall payload"})
	}
	if payload.ClientKey == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "clientKey required"})
	}

	if err := s.registry.Uninstall(payload.ClientKey); err != nil {
		log.Error().Err(err).Str("client_key", payload.ClientKey).Msg("Failed to persist tenant registry")
	}

	return c.NoContent(http.StatusNoContent)
}

// handleEnhance dispatches preview and apply operations. Pipeline
// failures come back as data with success=false, never as an HTTP error.
func (s *Server) handleEnhance(c echo.Context) error {
	issueKey := c.QueryParam("issueKey")
	if issueKey == "" {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"success": false,
			"error":   "Issue key required",
		})
	}

	action := c.QueryParam("action")
	if action == "" {
		action = "preview"
	}
	instructions := c.QueryParam("instructions")

	// The authenticated tenant's own instance wins over the configured
	// default server URL.
	serverURL := s.cfg.Jira.ServerURL
	if authCtx := GetTenant(c); authCtx != nil && authCtx.Record.BaseURL != "" {
		serverURL = authCtx.Record.BaseURL
	}

	tracker, err := s.newTracker(serverURL)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]interface{}{
			"success": false,
			"error":   err.Error(),
		})
	}

	enhancer := enhance.NewEnhancer(tracker, s.generator, s.policy)

	switch action {
	case "preview":
		result := enhancer.Preview(c.Request().Context(), issueKey, instructions)
		return c.JSON(http.StatusOK, result)

	case "apply":
		success, message := enhancer.Apply(c.Request().Context(), issueKey, instructions)
		return c.JSON(http.StatusOK, map[string]interface{}{
			"success": success,
			"message": message,
		})

	default:
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"success": false,
			"error":   "Invalid action",
		})
	}
}
