package http

import (
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/safesuite/provisioning/internal/usecase"
	apperrors "github.com/safesuite/provisioning/pkg/errors"
)

type WebhookHandler struct {
	dispatcher *usecase.WebhookDispatcher
	logger     *zap.Logger
}

func NewWebhookHandler(dispatcher *usecase.WebhookDispatcher, logger *zap.Logger) *WebhookHandler {
	return &WebhookHandler{
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// HandleWebhook handles POST /webhook. The billing provider retries on any
// non-2xx response, so only errors that a redelivery could fix (transient
// processing failures) return 5xx; a bad signature is rejected with 400.
func (h *WebhookHandler) HandleWebhook(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		h.logger.Error("Error reading request body", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "error reading request body"})
	}

	sig := c.Request().Header.Get("Stripe-Signature")

	outcome, err := h.dispatcher.Handle(c.Request().Context(), body, sig)
	if err != nil {
		apperrors.LogError(h.logger, err, "Webhook processing failed")
		switch apperrors.CodeOf(err) {
		case apperrors.ErrUnauthenticated, apperrors.ErrInvalidArgument:
			return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": err.Error()})
		}
	}

	resp := echo.Map{"received": true}
	if outcome.Duplicate {
		resp["duplicate"] = true
	}
	return c.JSON(http.StatusOK, resp)
}
