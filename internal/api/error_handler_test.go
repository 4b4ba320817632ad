package api

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/srochno/order-exchange/internal/core/domain"
)

func TestResolveError_DomainMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"order not found", domain.ErrOrderNotFound, http.StatusNotFound},
		{"actor not found", domain.ErrActorNotFound, http.StatusNotFound},
		{"invalid credentials", domain.ErrInvalidCredentials, http.StatusUnauthorized},
		{"insufficient balance", domain.ErrInsufficientBalance, http.StatusPaymentRequired},
		{"forbidden", domain.ErrForbidden, http.StatusForbidden},
		{"invalid category", domain.ErrInvalidCategory, http.StatusBadRequest},
		{"invalid amount", domain.ErrInvalidAmount, http.StatusBadRequest},
		{"order expired", domain.ErrOrderExpired, http.StatusGone},
		{"order locked", domain.ErrOrderLocked, http.StatusConflict},
		{"max holders", domain.ErrMaxHoldersReached, http.StatusConflict},
		{"contact in use", domain.ErrContactInUse, http.StatusConflict},
		{"no holders", domain.ErrNoHolders, http.StatusConflict},
		{"already responded", domain.ErrAlreadyResponded, http.StatusConflict},
		{"actor exists", domain.ErrActorExists, http.StatusConflict},
		{"busy", domain.ErrBusy, http.StatusServiceUnavailable},
		{"unavailable", domain.ErrUnavailable, http.StatusServiceUnavailable},
		{"wrapped storage fault", fmt.Errorf("%w: socket closed", domain.ErrUnavailable), http.StatusServiceUnavailable},
	}

	e := echo.New()
	log := zerolog.Nop()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			c := e.NewContext(req, httptest.NewRecorder())
			code, _ := resolveError(tt.err, log, c)
			if code != tt.want {
				t.Errorf("expected %d, got %d", tt.want, code)
			}
		})
	}
}

func TestErrorHandler_RendersEnvelope(t *testing.T) {
	e := echo.New()
	handler := NewHTTPErrorHandler(zerolog.Nop())

	req := httptest.NewRequest(http.MethodPost, "/v1/orders/ord_1/take", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler(domain.ErrMaxHoldersReached, c)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
	if body := rec.Body.String(); body == "" || body[0] != '{' {
		t.Fatalf("expected JSON envelope, got %q", body)
	}
}

func TestErrorHandler_HidesInternalErrors(t *testing.T) {
	e := echo.New()
	handler := NewHTTPErrorHandler(zerolog.Nop())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler(errors.New("mongo topology closed"), c)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if body := rec.Body.String(); strings.Contains(body, "mongo") {
		t.Fatalf("internal detail leaked to the client: %q", body)
	}
}
