package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

func authRequest(t *testing.T, signer *Signer, header string) (*httptest.ResponseRecorder, error) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set(echo.HeaderAuthorization, header)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := Middleware(signer)(func(c echo.Context) error {
		pc, ok := FromContext(c)
		if !ok {
			t.Fatal("partner context missing after successful auth")
		}
		return c.JSON(http.StatusOK, pc.PartnerID)
	})
	return rec, handler(c)
}

func TestMiddleware_ValidToken(t *testing.T) {
	signer := NewSigner(testSecret, time.Hour)
	token, err := signer.Sign(PartnerContext{PartnerID: uuid.New(), ServiceType: ServiceVeterinary})
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	rec, err := authRequest(t, signer, "Bearer "+token)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestMiddleware_MissingHeader(t *testing.T) {
	signer := NewSigner(testSecret, time.Hour)
	_, err := authRequest(t, signer, "")
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %v", err)
	}
}

func TestMiddleware_MalformedHeader(t *testing.T) {
	signer := NewSigner(testSecret, time.Hour)
	_, err := authRequest(t, signer, "Token abc")
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %v", err)
	}
}

func TestMiddleware_ExpiredSessionCode(t *testing.T) {
	signer := NewSigner(testSecret, time.Hour)
	signer.ttl = -time.Minute
	token, err := signer.Sign(PartnerContext{PartnerID: uuid.New(), ServiceType: ServiceVeterinary})
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	signer.ttl = time.Hour

	_, err = authRequest(t, signer, "Bearer "+token)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %v", err)
	}
	body, ok := he.Message.(map[string]string)
	if !ok || body["code"] != "session_expired" {
		t.Fatalf("expected session_expired payload, got %v", he.Message)
	}
}

func TestRequireServiceType(t *testing.T) {
	next := func(c echo.Context) error { return c.NoContent(http.StatusOK) }
	guard := RequireServiceType(ServicePharmacy)(next)

	e := echo.New()

	run := func(pc *PartnerContext) error {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		c := e.NewContext(req, httptest.NewRecorder())
		if pc != nil {
			WithPartner(c, *pc)
		}
		return guard(c)
	}

	if err := run(&PartnerContext{PartnerID: uuid.New(), ServiceType: ServicePharmacy}); err != nil {
		t.Errorf("pharmacy partner should pass: %v", err)
	}
	err := run(&PartnerContext{PartnerID: uuid.New(), ServiceType: ServiceGrooming})
	if he, ok := err.(*echo.HTTPError); !ok || he.Code != http.StatusForbidden {
		t.Errorf("grooming partner should get 403, got %v", err)
	}
	err = run(nil)
	if he, ok := err.(*echo.HTTPError); !ok || he.Code != http.StatusUnauthorized {
		t.Errorf("unauthenticated request should get 401, got %v", err)
	}
}
