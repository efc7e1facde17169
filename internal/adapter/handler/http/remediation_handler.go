package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/safesuite/provisioning/internal/domain/entity"
	"github.com/safesuite/provisioning/internal/usecase"
)

// RemediationHandler exposes the operator recovery surface: status checks
// across all apps and manual re-grants for customers stuck behind a failed
// provisioning run.
type RemediationHandler struct {
	remediation *usecase.RemediationService
	logger      *zap.Logger
}

func NewRemediationHandler(remediation *usecase.RemediationService, logger *zap.Logger) *RemediationHandler {
	return &RemediationHandler{
		remediation: remediation,
		logger:      logger,
	}
}

type reprovisionRequest struct {
	Email string   `json:"email" validate:"required,email"`
	Apps  []string `json:"apps" validate:"required,min=1"`
}

type appResultResponse struct {
	App      string `json:"app"`
	Action   string `json:"action"`
	Success  bool   `json:"success"`
	Attempts int    `json:"attempts"`
	Error    string `json:"error,omitempty"`
	Note     string `json:"note,omitempty"`
}

// CheckStatus handles GET /api/v1/admin/status
func (h *RemediationHandler) CheckStatus(c echo.Context) error {
	email := c.QueryParam("email")
	if email == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email query parameter is required"})
	}

	statuses := h.remediation.CheckStatus(c.Request().Context(), email)

	return c.JSON(http.StatusOK, echo.Map{
		"email": email,
		"apps":  statuses,
	})
}

// Reprovision handles POST /api/v1/admin/reprovision
func (h *RemediationHandler) Reprovision(c echo.Context) error {
	operator, ok := c.Get("operator_email").(string)
	if !ok || operator == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	var req reprovisionRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	if err := c.Validate(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email and at least one app are required"})
	}

	apps := make([]entity.App, 0, len(req.Apps))
	for _, raw := range req.Apps {
		app, valid := entity.ParseApp(raw)
		if !valid {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown app: " + raw})
		}
		apps = append(apps, app)
	}

	result := h.remediation.Reprovision(c.Request().Context(), operator, req.Email, apps)

	results := make([]appResultResponse, 0, len(result.Results))
	for _, r := range result.Results {
		results = append(results, appResultResponse{
			App:      string(r.App),
			Action:   string(r.Action),
			Success:  r.Success,
			Attempts: r.Attempts,
			Error:    r.Error,
			Note:     r.Note,
		})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"email":   result.Email,
		"success": result.Success(),
		"results": results,
	})
}
