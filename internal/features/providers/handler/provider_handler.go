package handler

import (
	"errors"

	orderports "panel-connector/internal/features/orders/ports"
	"panel-connector/internal/features/providers/domain"
	"panel-connector/internal/features/providers/service"

	"github.com/gofiber/fiber/v2"
)

// ProviderHandler handles HTTP requests for provider operations.
type ProviderHandler struct {
	connector *service.ConnectorService
}

// NewProviderHandler creates a new ProviderHandler.
func NewProviderHandler(connector *service.ConnectorService) *ProviderHandler {
	return &ProviderHandler{
		connector: connector,
	}
}

// ErrorResponse represents an error response with Ray ID.
type ErrorResponse struct {
	// Message is the error description.
	Message string `json:"message"`
	// RayID is the unique request identifier for tracing.
	RayID string `json:"ray_id,omitempty"`
}

// GetBalance godoc
// @Summary Query the remaining balance at a provider
// @Tags providers
// @Produce json
// @Param id path string true "Provider ID"
// @Success 200 {object} domain.CanonicalResult
// @Failure 404 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse
// @Router /providers/{id}/balance [get]
func (h *ProviderHandler) GetBalance(c *fiber.Ctx) error {
	result, err := h.connector.QueryBalance(c.Context(), c.Params("id"))
	if err != nil {
		return h.renderError(c, err)
	}
	return c.JSON(result)
}

// GetServices godoc
// @Summary Fetch the service catalog from a provider
// @Tags providers
// @Produce json
// @Param id path string true "Provider ID"
// @Success 200 {array} domain.Service
// @Failure 404 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse
// @Router /providers/{id}/services [get]
func (h *ProviderHandler) GetServices(c *fiber.Ctx) error {
	services, err := h.connector.ListServices(c.Context(), c.Params("id"))
	if err != nil {
		return h.renderError(c, err)
	}
	return c.JSON(services)
}

// GetOrderStatus godoc
// @Summary Query upstream order status and reconcile local state
// @Tags orders
// @Produce json
// @Param id path string true "Order ID"
// @Success 200 {object} domain.CanonicalResult
// @Failure 404 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse
// @Router /orders/{id}/status [get]
func (h *ProviderHandler) GetOrderStatus(c *fiber.Ctx) error {
	result, err := h.connector.QueryOrderStatus(c.Context(), c.Params("id"))
	if err != nil {
		return h.renderError(c, err)
	}
	return c.JSON(result)
}

// GetRefillEligibility godoc
// @Summary Probe refill eligibility for an order
// @Tags refills
// @Produce json
// @Param id path string true "Order ID"
// @Success 200 {object} domain.RefillEligibility
// @Failure 404 {object} ErrorResponse
// @Router /orders/{id}/refill/eligibility [get]
func (h *ProviderHandler) GetRefillEligibility(c *fiber.Ctx) error {
	eligibility, err := h.connector.ProbeRefillEligibility(c.Context(), c.Params("id"))
	if err != nil {
		return h.renderError(c, err)
	}
	return c.JSON(eligibility)
}

// SubmitRefill godoc
// @Summary Submit a refill request to the order's provider
// @Tags refills
// @Produce json
// @Param id path string true "Order ID"
// @Success 200 {object} service.RefillOutcome
// @Failure 404 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse
// @Router /orders/{id}/refill [post]
func (h *ProviderHandler) SubmitRefill(c *fiber.Ctx) error {
	outcome, err := h.connector.SubmitRefill(c.Context(), c.Params("id"))
	if err != nil {
		return h.renderError(c, err)
	}
	return c.JSON(outcome)
}

// SubmitCancel godoc
// @Summary Submit a cancel request to the order's provider
// @Tags orders
// @Produce json
// @Param id path string true "Order ID"
// @Success 200 {object} domain.CanonicalResult
// @Failure 404 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse
// @Router /orders/{id}/cancel [post]
func (h *ProviderHandler) SubmitCancel(c *fiber.Ctx) error {
	result, err := h.connector.SubmitCancel(c.Context(), c.Params("id"))
	if err != nil {
		return h.renderError(c, err)
	}
	return c.JSON(result)
}

// ResendRefill godoc
// @Summary Resend a failed refill request against the current provider configuration
// @Tags refills
// @Produce json
// @Param id path string true "Refill Request ID"
// @Success 200 {object} service.RefillOutcome
// @Failure 404 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse
// @Router /refills/{id}/resend [post]
func (h *ProviderHandler) ResendRefill(c *fiber.Ctx) error {
	outcome, err := h.connector.ResendRefill(c.Context(), c.Params("id"))
	if err != nil {
		return h.renderError(c, err)
	}
	return c.JSON(outcome)
}

// renderError maps service errors onto HTTP responses. Raw upstream
// diagnostics stay in the logs; end users only see a generic message for
// provider call failures.
func (h *ProviderHandler) renderError(c *fiber.Ctx, err error) error {
	rayID, _ := c.Locals("requestid").(string)

	switch {
	case errors.Is(err, orderports.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{
			Message: "record not found",
			RayID:   rayID,
		})

	case errors.Is(err, service.ErrRefillIneligible),
		errors.Is(err, service.ErrCancelNotAllowed),
		errors.Is(err, service.ErrNotResendable),
		errors.Is(err, service.ErrNoUpstreamLinkage),
		errors.Is(err, service.ErrProviderUnusable):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(ErrorResponse{
			Message: err.Error(),
			RayID:   rayID,
		})
	}

	if _, ok := domain.AsCallError(err); ok {
		return c.Status(fiber.StatusBadGateway).JSON(ErrorResponse{
			Message: "provider call failed",
			RayID:   rayID,
		})
	}

	return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
		Message: err.Error(),
		RayID:   rayID,
	})
}
