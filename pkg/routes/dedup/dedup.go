package dedup

import (
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	appctx "github.com/Ramsey-B/clover/internal/context"
	"github.com/Ramsey-B/clover/internal/tracing"
	"github.com/Ramsey-B/clover/pkg/dedup"
	"github.com/Ramsey-B/clover/pkg/models"
)

// Handler handles dedup API endpoints
type Handler struct {
	service   *dedup.Service
	validator *validator.Validate
	logger    ectologger.Logger
}

// NewHandler creates a new dedup handler
func NewHandler(service *dedup.Service, logger ectologger.Logger) *Handler {
	return &Handler{
		service:   service,
		validator: validator.New(),
		logger:    logger,
	}
}

// Register registers dedup routes
func (h *Handler) Register(g *echo.Group) {
	g.POST("/scan", h.Scan)
	g.GET("/groups", h.ListGroups)
	g.POST("/merge", h.Merge)
	g.POST("/groups/:primaryId/dismiss", h.DismissGroup)
	g.GET("/stats", h.Stats)
	g.GET("/status", h.Status)
}

// ScanResponse summarizes a completed scan
type ScanResponse struct {
	GroupCount int                     `json:"group_count"`
	Groups     []models.DuplicateGroup `json:"groups"`
}

// Scan runs a duplicate scan over the tenant's customers
func (h *Handler) Scan(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "dedup.Handler.Scan")
	defer span.End()

	tenantID, err := tenantFromContext(c)
	if err != nil {
		return err
	}

	groups, err := h.service.FindDuplicates(ctx, tenantID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, ScanResponse{
		GroupCount: len(groups),
		Groups:     groups,
	})
}

// ListGroups returns the groups from the most recent scan
func (h *Handler) ListGroups(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "dedup.Handler.ListGroups")
	defer span.End()

	return c.JSON(http.StatusOK, h.service.Groups(ctx))
}

// Merge folds a group's duplicates into the chosen primary
func (h *Handler) Merge(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "dedup.Handler.Merge")
	defer span.End()

	tenantID, err := tenantFromContext(c)
	if err != nil {
		return err
	}

	var req models.MergeRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := h.validator.Struct(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	result, err := h.service.MergeCustomers(ctx, tenantID, &req)
	if err != nil {
		return err
	}

	h.logger.WithContext(ctx).WithFields(map[string]any{
		"primary_customer_id": result.PrimaryCustomerID,
		"duplicates_removed":  result.DuplicatesRemoved,
	}).Info("Merged customer group")

	return c.JSON(http.StatusOK, result)
}

// DismissGroup drops a group without merging it
func (h *Handler) DismissGroup(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "dedup.Handler.DismissGroup")
	defer span.End()

	primaryID := c.Param("primaryId")
	if primaryID == "" {
		return httperror.NewHTTPError(http.StatusBadRequest, "missing primaryId")
	}

	if !h.service.DismissGroup(ctx, primaryID) {
		return httperror.NewHTTPError(http.StatusNotFound, "no duplicate group for customer "+primaryID)
	}

	return c.JSON(http.StatusOK, map[string]string{"status": "dismissed"})
}

// Stats re-scans and returns summary numbers for the tenant
func (h *Handler) Stats(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "dedup.Handler.Stats")
	defer span.End()

	tenantID, err := tenantFromContext(c)
	if err != nil {
		return err
	}

	stats, err := h.service.Stats(ctx, tenantID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, stats)
}

// Status reports the session controller's current state
func (h *Handler) Status(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "dedup.Handler.Status")
	defer span.End()

	return c.JSON(http.StatusOK, h.service.Status(ctx))
}

func tenantFromContext(c echo.Context) (string, error) {
	tenantID := appctx.GetTenantID(c.Request().Context())
	if tenantID == "" {
		return "", httperror.NewHTTPError(http.StatusUnauthorized, "tenant id header is required")
	}
	return tenantID, nil
}
