package handler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"dhl-tracking-proxy/internal/features/tracking/domain"
	"dhl-tracking-proxy/internal/features/tracking/ports"
	"dhl-tracking-proxy/internal/features/tracking/service"
)

// ServiceName is the public name reported by the info and health endpoints.
const ServiceName = "DHL Tracking Proxy"

// TrackingHandler handles HTTP requests for tracking operations.
type TrackingHandler struct {
	trackingService *service.TrackingService
	warmer          ports.SessionWarmer
	log             *zap.Logger
}

// NewTrackingHandler creates a new TrackingHandler.
func NewTrackingHandler(trackingService *service.TrackingService, warmer ports.SessionWarmer, log *zap.Logger) *TrackingHandler {
	return &TrackingHandler{
		trackingService: trackingService,
		warmer:          warmer,
		log:             log,
	}
}

// TrackResponse wraps a successful extraction.
type TrackResponse struct {
	Success bool                     `json:"success"`
	Data    *domain.ExtractionResult `json:"data"`
}

// ErrorResponse represents a failed query with Ray ID.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	// Message carries user-facing guidance on 500s.
	Message string `json:"message,omitempty"`
	// Blocked and RequiresManualVerification are set on 403s so clients
	// know retrying will not help.
	Blocked                    bool   `json:"blocked,omitempty"`
	RequiresManualVerification bool   `json:"requiresManualVerification,omitempty"`
	RayID                      string `json:"ray_id,omitempty"`
}

// Register mounts all tracking and lifecycle routes on the app.
func (h *TrackingHandler) Register(app *fiber.App) {
	app.Get("/", h.Info)
	app.Get("/health", h.Health)
	app.Get("/api/track/:trackingNumber", h.Track)
	app.Get("/warmup", h.Warmup)
	app.Get("/keepalive", h.Keepalive)
}

// Track godoc
// @Summary Track a DHL shipment
// @Description Scrapes the DHL tracking page for the given number and returns normalized status and events
// @Tags tracking
// @Produce json
// @Param trackingNumber path string true "Tracking Number"
// @Success 200 {object} TrackResponse
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/track/{trackingNumber} [get]
func (h *TrackingHandler) Track(c *fiber.Ctx) error {
	trackingNumber := c.Params("trackingNumber")

	result, err := h.trackingService.Track(c.Context(), trackingNumber)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidTrackingNumber) {
			return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
				Success: false,
				Error:   "Número de tracking inválido",
				RayID:   rayID(c),
			})
		}

		if domain.IsBlocked(err) {
			return c.Status(fiber.StatusForbidden).JSON(ErrorResponse{
				Success:                    false,
				Error:                      "DHL ha detectado actividad automatizada y bloqueó la consulta. Por favor, espera unos minutos antes de intentar nuevamente.",
				Blocked:                    true,
				RequiresManualVerification: true,
				RayID:                      rayID(c),
			})
		}

		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Success: false,
			Error:   err.Error(),
			Message: "Error al consultar DHL después de varios intentos. Por favor intenta nuevamente más tarde.",
			RayID:   rayID(c),
		})
	}

	return c.JSON(TrackResponse{
		Success: true,
		Data:    result,
	})
}

// Info describes the service and its endpoints.
func (h *TrackingHandler) Info(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"service": ServiceName,
		"status":  "running",
		"version": "1.0.0",
		"endpoints": fiber.Map{
			"health":    "/health",
			"track":     "/api/track/:trackingNumber",
			"warmup":    "/warmup",
			"keepalive": "/keepalive",
		},
	})
}

// Health godoc
// @Summary Service liveness
// @Tags ops
// @Produce json
// @Success 200
// @Router /health [get]
func (h *TrackingHandler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "ok",
		"service": ServiceName,
	})
}

// Warmup godoc
// @Summary Pre-build the warm browser session
// @Description Builds the warm session up front so the first tracking query skips session construction
// @Tags ops
// @Produce json
// @Success 200
// @Failure 500 {object} ErrorResponse
// @Router /warmup [get]
func (h *TrackingHandler) Warmup(c *fiber.Ctx) error {
	start := time.Now()

	if err := h.warmer.Warm(c.Context()); err != nil {
		h.log.Error("warmup failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   err.Error(),
			"ready":   false,
		})
	}

	elapsed := time.Since(start)
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Página precargada exitosamente",
		"elapsed": fmt.Sprintf("%dms", elapsed.Milliseconds()),
		"ready":   true,
	})
}

// Keepalive godoc
// @Summary Probe the warm session and rebuild in background if needed
// @Description Reports liveness and the warm-session state; a non-ready session triggers an async rebuild
// @Tags ops
// @Produce json
// @Success 200
// @Router /keepalive [get]
func (h *TrackingHandler) Keepalive(c *fiber.Ctx) error {
	preloadStatus := h.warmer.Status()

	if preloadStatus != "ready" {
		h.log.Info("warm session not ready, rebuilding in background",
			zap.String("preload_status", preloadStatus),
		)
		go func() {
			if err := h.warmer.Warm(context.Background()); err != nil {
				h.log.Warn("background session rebuild failed", zap.Error(err))
			}
		}()
	}

	return c.JSON(fiber.Map{
		"status":        "alive",
		"timestamp":     time.Now().UTC().Format(time.RFC3339),
		"preloadStatus": preloadStatus,
		"message":       "Servicio activo",
	})
}

// rayID returns the request's Ray ID when the middleware set one.
func rayID(c *fiber.Ctx) string {
	if id, ok := c.Locals("requestid").(string); ok {
		return id
	}
	return ""
}
