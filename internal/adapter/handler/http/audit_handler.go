package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/safesuite/provisioning/internal/domain/entity"
	"github.com/safesuite/provisioning/internal/domain/repository"
)

type AuditHandler struct {
	auditRepo repository.AuditLogRepository
	logger    *zap.Logger
}

func NewAuditHandler(auditRepo repository.AuditLogRepository, logger *zap.Logger) *AuditHandler {
	return &AuditHandler{
		auditRepo: auditRepo,
		logger:    logger,
	}
}

// List handles GET /api/v1/admin/audit-logs
func (h *AuditHandler) List(c echo.Context) error {
	var params entity.PaginationParams
	if err := c.Bind(&params); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid pagination parameters"})
	}
	params.Validate()

	filters := repository.AuditLogFilters{
		Action:      c.QueryParam("action"),
		TargetEmail: c.QueryParam("email"),
		Limit:       params.Limit,
		Offset:      params.CalculateOffset(),
	}

	entries, err := h.auditRepo.List(c.Request().Context(), filters)
	if err != nil {
		h.logger.Error("failed to list audit logs", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to list audit logs"})
	}

	total, err := h.auditRepo.Count(c.Request().Context(), filters)
	if err != nil {
		h.logger.Error("failed to count audit logs", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to list audit logs"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"data":       entries,
		"pagination": entity.NewPaginationMeta(params.Page, params.Limit, total),
	})
}
