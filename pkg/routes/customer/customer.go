package customer

import (
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"

	appctx "github.com/Ramsey-B/clover/internal/context"
	bookingrepo "github.com/Ramsey-B/clover/internal/repositories/booking"
	customerrepo "github.com/Ramsey-B/clover/internal/repositories/customer"
	"github.com/Ramsey-B/clover/internal/tracing"
)

// Handler handles customer API endpoints
type Handler struct {
	customers *customerrepo.Repository
	bookings  *bookingrepo.Repository
	logger    ectologger.Logger
}

// NewHandler creates a new customer handler
func NewHandler(customers *customerrepo.Repository, bookings *bookingrepo.Repository, logger ectologger.Logger) *Handler {
	return &Handler{
		customers: customers,
		bookings:  bookings,
		logger:    logger,
	}
}

// Register registers customer routes
func (h *Handler) Register(g *echo.Group) {
	g.GET("", h.List)
	g.GET("/:id", h.Get)
	g.GET("/:id/bookings", h.ListBookings)
}

// List returns the tenant's customers in scan order
func (h *Handler) List(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "customer.Handler.List")
	defer span.End()

	tenantID, err := tenantFromContext(c)
	if err != nil {
		return err
	}

	customers, err := h.customers.List(ctx, tenantID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, customers)
}

// Get returns one customer by id
func (h *Handler) Get(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "customer.Handler.Get")
	defer span.End()

	tenantID, err := tenantFromContext(c)
	if err != nil {
		return err
	}

	id := c.Param("id")
	if id == "" {
		return httperror.NewHTTPError(http.StatusBadRequest, "missing id")
	}

	customer, err := h.customers.Get(ctx, tenantID, id)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, customer)
}

// ListBookings returns a customer's bookings
func (h *Handler) ListBookings(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "customer.Handler.ListBookings")
	defer span.End()

	tenantID, err := tenantFromContext(c)
	if err != nil {
		return err
	}

	id := c.Param("id")
	if id == "" {
		return httperror.NewHTTPError(http.StatusBadRequest, "missing id")
	}

	// 404 for unknown customers instead of an empty list.
	if _, err := h.customers.Get(ctx, tenantID, id); err != nil {
		return err
	}

	bookings, err := h.bookings.ListByCustomer(ctx, tenantID, id)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, bookings)
}

func tenantFromContext(c echo.Context) (string, error) {
	tenantID := appctx.GetTenantID(c.Request().Context())
	if tenantID == "" {
		return "", httperror.NewHTTPError(http.StatusUnauthorized, "tenant id header is required")
	}
	return tenantID, nil
}
