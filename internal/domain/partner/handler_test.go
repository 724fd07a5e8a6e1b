package partner

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/pawcare/partner-api/internal/platform/auth"
)

func call(t *testing.T, h echo.HandlerFunc, method, path, body string, pc *auth.PartnerContext) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if pc != nil {
		auth.WithPartner(c, *pc)
	}
	if err := h(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	return rec
}

const registerBody = `{
	"name": "Happy Paws Clinic",
	"email": "clinic@example.com",
	"phone": "+1-555-0100",
	"password": "hunter22hunter22",
	"service_type": "veterinary",
	"address": "12 Bark Street"
}`

func TestHandlerRegister(t *testing.T) {
	svc, _ := newTestService()
	h := NewHandler(svc)

	rec := call(t, h.Register, http.MethodPost, "/auth/register", registerBody, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if strings.Contains(rec.Body.String(), "password") {
		t.Error("response must not leak the password hash")
	}

	rec = call(t, h.Register, http.MethodPost, "/auth/register", registerBody, nil)
	if rec.Code != http.StatusConflict {
		t.Fatalf("duplicate email should be 409, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestHandlerLogin(t *testing.T) {
	svc, _ := newTestService()
	h := NewHandler(svc)
	if rec := call(t, h.Register, http.MethodPost, "/auth/register", registerBody, nil); rec.Code != http.StatusCreated {
		t.Fatalf("register: %d %s", rec.Code, rec.Body.String())
	}

	rec := call(t, h.Login, http.MethodPost, "/auth/login",
		`{"email":"clinic@example.com","password":"hunter22hunter22"}`, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp loginResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Token == "" || resp.Partner == nil {
		t.Errorf("expected token and partner, got %+v", resp)
	}

	rec = call(t, h.Login, http.MethodPost, "/auth/login",
		`{"email":"clinic@example.com","password":"wrong"}`, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("bad credentials should be 401, got %d", rec.Code)
	}
}

func TestHandlerProfile(t *testing.T) {
	svc, _ := newTestService()
	h := NewHandler(svc)
	p, err := svc.Register(context.Background(), validRegistration())
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	pc := auth.PartnerContext{PartnerID: p.ID, ServiceType: p.ServiceType}
	rec := call(t, h.Profile, http.MethodGet, "/partner/profile", "", &pc)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = call(t, h.UpdateProfile, http.MethodPut, "/partner/profile",
		`{"phone":"+1-555-0199"}`, &pc)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var got Partner
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got.Phone != "+1-555-0199" {
		t.Errorf("phone not updated: %q", got.Phone)
	}

	rec = call(t, h.Profile, http.MethodGet, "/partner/profile", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("unauthenticated profile should be 401, got %d", rec.Code)
	}
}
