package record

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/pawcare/partner-api/internal/platform/auth"
	"github.com/pawcare/partner-api/pkg/pagination"
)

// Handler exposes the lifecycle operations over REST.
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/records", h.List)
	api.GET("/records/:id", h.Get)
	api.POST("/records", h.Create)
	api.POST("/records/:id/verify-otp", h.VerifyOTP)
	api.POST("/records/:id/complete", h.Complete)
	api.POST("/records/:id/cancel", h.Cancel)
	api.POST("/records/:id/reschedule", h.Reschedule)
	api.POST("/records/:id/status", h.UpdateOrderStatus)
}

// errorPayload is the classified error body clients branch on.
type errorPayload struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

func httpError(err error) error {
	var le *Error
	if !errors.As(err, &le) {
		return echo.NewHTTPError(http.StatusInternalServerError, "something went wrong, please try again")
	}
	status := http.StatusBadRequest
	switch le.Code {
	case CodeNotFound:
		status = http.StatusNotFound
	case CodeTransitionRejected:
		status = http.StatusConflict
	}
	return echo.NewHTTPError(status, errorPayload{Code: le.Code, Message: le.Message})
}

func partnerID(c echo.Context) (uuid.UUID, error) {
	pc, ok := auth.FromContext(c)
	if !ok {
		return uuid.Nil, echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
	}
	return pc.PartnerID, nil
}

func recordID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid record id")
	}
	return id, nil
}

func (h *Handler) List(c echo.Context) error {
	pid, err := partnerID(c)
	if err != nil {
		return err
	}
	pg := pagination.FromContext(c)
	f := Filter{
		Status: Status(c.QueryParam("status")),
		Kind:   Kind(c.QueryParam("kind")),
	}
	items, total, err := h.svc.List(c.Request().Context(), pid, f, pg.Limit, pg.Offset)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) Get(c echo.Context) error {
	pid, err := partnerID(c)
	if err != nil {
		return err
	}
	id, err := recordID(c)
	if err != nil {
		return err
	}
	rec, err := h.svc.Get(c.Request().Context(), pid, id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, rec)
}

type createRequest struct {
	Kind           Kind      `json:"kind"`
	CustomerID     uuid.UUID `json:"customer_id"`
	PetName        string    `json:"pet_name"`
	ServiceName    string    `json:"service_name"`
	ScheduledDate  time.Time `json:"scheduled_date"`
	ScheduledStart time.Time `json:"scheduled_start"`
}

func (h *Handler) Create(c echo.Context) error {
	pid, err := partnerID(c)
	if err != nil {
		return err
	}
	var req createRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	rec, err := h.svc.Create(c.Request().Context(), BookingInput{
		Kind:           req.Kind,
		PartnerID:      pid,
		CustomerID:     req.CustomerID,
		PetName:        req.PetName,
		ServiceName:    req.ServiceName,
		ScheduledDate:  req.ScheduledDate,
		ScheduledStart: req.ScheduledStart,
	})
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, rec)
}

type verifyOTPRequest struct {
	Code string `json:"code"`
}

func (h *Handler) VerifyOTP(c echo.Context) error {
	pid, err := partnerID(c)
	if err != nil {
		return err
	}
	id, err := recordID(c)
	if err != nil {
		return err
	}
	var req verifyOTPRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	rec, err := h.svc.VerifyOTP(c.Request().Context(), pid, id, req.Code)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, rec)
}

type completeRequest struct {
	Notes             string             `json:"notes"`
	PrescriptionLines []PrescriptionLine `json:"prescription_lines"`
	FollowUp          *FollowUp          `json:"follow_up"`
}

func (h *Handler) Complete(c echo.Context) error {
	pid, err := partnerID(c)
	if err != nil {
		return err
	}
	id, err := recordID(c)
	if err != nil {
		return err
	}
	var req completeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	rec, err := h.svc.Complete(c.Request().Context(), pid, id, CompleteInput{
		Notes:             req.Notes,
		PrescriptionLines: req.PrescriptionLines,
		FollowUp:          req.FollowUp,
	})
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, rec)
}

type cancelRequest struct {
	Reason string `json:"reason"`
}

func (h *Handler) Cancel(c echo.Context) error {
	pid, err := partnerID(c)
	if err != nil {
		return err
	}
	id, err := recordID(c)
	if err != nil {
		return err
	}
	var req cancelRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	rec, err := h.svc.Cancel(c.Request().Context(), pid, id, req.Reason)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, rec)
}

type rescheduleRequest struct {
	Date  time.Time `json:"date"`
	Start time.Time `json:"time_slot_start"`
}

func (h *Handler) Reschedule(c echo.Context) error {
	pid, err := partnerID(c)
	if err != nil {
		return err
	}
	id, err := recordID(c)
	if err != nil {
		return err
	}
	var req rescheduleRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	rec, err := h.svc.Reschedule(c.Request().Context(), pid, id, req.Date, req.Start)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, rec)
}

type orderStatusRequest struct {
	Status Status `json:"status"`
	Note   string `json:"note"`
}

func (h *Handler) UpdateOrderStatus(c echo.Context) error {
	pid, err := partnerID(c)
	if err != nil {
		return err
	}
	id, err := recordID(c)
	if err != nil {
		return err
	}
	var req orderStatusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	rec, err := h.svc.UpdateOrderStatus(c.Request().Context(), pid, id, req.Status, req.Note)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, rec)
}
