package scheduling

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/pawcare/partner-api/internal/platform/auth"
)

// Handler exposes slot management and availability lookups.
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/slots", h.ListAvailable)
	api.POST("/slots", h.CreateSlot)
	api.DELETE("/slots/:id", h.DeleteSlot)
}

// listResponse carries the slots plus a notice when the day is empty, so the
// client can surface "no slots" without special-casing.
type listResponse struct {
	Slots  []*Slot `json:"slots"`
	Notice string  `json:"notice,omitempty"`
}

func (h *Handler) ListAvailable(c echo.Context) error {
	pc, ok := auth.FromContext(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
	}
	date, err := time.Parse("2006-01-02", c.QueryParam("date"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "date must be YYYY-MM-DD")
	}
	slots, err := h.svc.ListAvailable(c.Request().Context(), pc.PartnerID, date)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	resp := listResponse{Slots: slots}
	if len(slots) == 0 {
		resp.Notice = "no slots available on this date"
	}
	return c.JSON(http.StatusOK, resp)
}

type createSlotRequest struct {
	Date      string    `json:"date"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	Capacity  int       `json:"capacity"`
}

func (h *Handler) CreateSlot(c echo.Context) error {
	pc, ok := auth.FromContext(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
	}
	var req createSlotRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "date must be YYYY-MM-DD")
	}
	sl := &Slot{
		PartnerID: pc.PartnerID,
		Date:      date,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		Capacity:  req.Capacity,
	}
	if err := h.svc.CreateSlot(c.Request().Context(), sl); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, sl)
}

func (h *Handler) DeleteSlot(c echo.Context) error {
	if _, ok := auth.FromContext(c); !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.DeleteSlot(c.Request().Context(), id); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}
