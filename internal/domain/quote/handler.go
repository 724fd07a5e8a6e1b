package quote

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/pawcare/partner-api/internal/platform/auth"
	"github.com/pawcare/partner-api/pkg/pagination"
)

// Handler exposes the pharmacy quote endpoints.
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the quote endpoints. Only pharmacy partners handle
// medicine quotes.
func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/quotes", auth.RequireServiceType(auth.ServicePharmacy))
	g.GET("", h.List)
	g.GET("/:id", h.Get)
	g.POST("/:id/respond", h.Respond)
	g.POST("/:id/decline", h.Decline)
}

type listResponse struct {
	Quotes []*Request `json:"quotes"`
	Total  int        `json:"total"`
}

func (h *Handler) List(c echo.Context) error {
	pc, ok := auth.FromContext(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
	}
	pg := pagination.FromContext(c)
	qs, total, err := h.svc.List(c.Request().Context(), pc.PartnerID, Status(c.QueryParam("status")), pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if qs == nil {
		qs = []*Request{}
	}
	return c.JSON(http.StatusOK, listResponse{Quotes: qs, Total: total})
}

func (h *Handler) Get(c echo.Context) error {
	pc, ok := auth.FromContext(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid quote id")
	}
	q, err := h.svc.Get(c.Request().Context(), pc.PartnerID, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "quote request not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, q)
}

type respondRequest struct {
	Lines      []QuotedLine `json:"lines"`
	ValidUntil *time.Time   `json:"valid_until"`
}

func (h *Handler) Respond(c echo.Context) error {
	pc, ok := auth.FromContext(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid quote id")
	}
	var req respondRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	q, err := h.svc.Respond(c.Request().Context(), pc.PartnerID, id, RespondInput{
		Lines:      req.Lines,
		ValidUntil: req.ValidUntil,
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "quote request not found")
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, q)
}

type declineRequest struct {
	Reason string `json:"reason"`
}

func (h *Handler) Decline(c echo.Context) error {
	pc, ok := auth.FromContext(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid quote id")
	}
	var req declineRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	q, err := h.svc.Decline(c.Request().Context(), pc.PartnerID, id, req.Reason)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "quote request not found")
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, q)
}
