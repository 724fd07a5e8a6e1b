package scheduling

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/pawcare/partner-api/internal/platform/auth"
)

func serve(t *testing.T, h echo.HandlerFunc, method, path, body string, pc auth.PartnerContext) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	auth.WithPartner(c, pc)
	if err := h(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	return rec
}

func TestHandlerListAvailable_BadDate(t *testing.T) {
	svc, _ := newTestService(at(10))
	h := NewHandler(svc)

	rec := serve(t, h.ListAvailable, http.MethodGet, "/slots?date=15-03-2026", "",
		auth.PartnerContext{PartnerID: uuid.New()})

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestHandlerListAvailable_EmptyDayCarriesNotice(t *testing.T) {
	svc, _ := newTestService(at(10))
	h := NewHandler(svc)

	rec := serve(t, h.ListAvailable, http.MethodGet, "/slots?date=2026-03-15", "",
		auth.PartnerContext{PartnerID: uuid.New()})

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp listResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Notice == "" {
		t.Error("an empty day should carry a notice")
	}
}

func TestHandlerListAvailable_ReturnsSlots(t *testing.T) {
	svc, repo := newTestService(at(10))
	h := NewHandler(svc)
	partnerID := uuid.New()
	seedSlot(t, repo, partnerID, at(14), 2, 0)

	rec := serve(t, h.ListAvailable, http.MethodGet, "/slots?date=2026-03-15", "",
		auth.PartnerContext{PartnerID: partnerID})

	var resp listResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Slots) != 1 {
		t.Fatalf("expected 1 slot, got %d", len(resp.Slots))
	}
	if resp.Notice != "" {
		t.Errorf("unexpected notice: %q", resp.Notice)
	}
}

func TestHandlerCreateSlot(t *testing.T) {
	svc, repo := newTestService(at(10))
	h := NewHandler(svc)
	partnerID := uuid.New()

	body := `{"date":"2026-03-16","start_time":"2026-03-16T09:00:00Z","end_time":"2026-03-16T09:30:00Z","capacity":3}`
	rec := serve(t, h.CreateSlot, http.MethodPost, "/slots", body,
		auth.PartnerContext{PartnerID: partnerID})

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var got Slot
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got.PartnerID != partnerID {
		t.Error("slot must belong to the authenticated partner")
	}
	stored, err := repo.FindByStart(context.Background(), partnerID, time.Date(2026, 3, 16, 0, 0, 0, 0, time.UTC), got.StartTime)
	if err != nil {
		t.Fatalf("slot should be persisted: %v", err)
	}
	if stored.Capacity != 3 {
		t.Errorf("expected capacity 3, got %d", stored.Capacity)
	}
}

func TestHandlerDeleteSlot(t *testing.T) {
	svc, repo := newTestService(at(10))
	h := NewHandler(svc)
	partnerID := uuid.New()
	sl := seedSlot(t, repo, partnerID, at(14), 1, 0)

	e := echo.New()
	req := httptest.NewRequest(http.MethodDelete, "/slots/"+sl.ID.String(), nil)
	w := httptest.NewRecorder()
	c := e.NewContext(req, w)
	auth.WithPartner(c, auth.PartnerContext{PartnerID: partnerID})
	c.SetParamNames("id")
	c.SetParamValues(sl.ID.String())

	if err := h.DeleteSlot(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", w.Code)
	}
	if len(repo.slots) != 0 {
		t.Error("slot should be gone")
	}
}
