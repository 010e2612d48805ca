package handler

import (
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cafeteria-pos/internal/repository"
	"github.com/iliyamo/cafeteria-pos/internal/service"
)

func TestFailErrMapping(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"validation", service.Validationf("total mismatch"), http.StatusBadRequest},
		{"person not found", repository.ErrPersonNotFound, http.StatusNotFound},
		{"food not found", repository.ErrFoodNotFound, http.StatusNotFound},
		{"reservation not found", repository.ErrReservationNotFound, http.StatusNotFound},
		{"duplicate uid", repository.ErrUIDExists, http.StatusConflict},
		{"already served", service.ErrAlreadyServed, http.StatusConflict},
		{"cancelled", service.ErrReservationCancelled, http.StatusConflict},
		{"conflict", repository.ErrConflict, http.StatusConflict},
		{"bad connection", driver.ErrBadConn, http.StatusServiceUnavailable},
		{"connection done", sql.ErrConnDone, http.StatusServiceUnavailable},
		{"wrapped bad connection", fmt.Errorf("list foods: %w", driver.ErrBadConn), http.StatusServiceUnavailable},
		{"unknown", errors.New("scan: unexpected row"), http.StatusInternalServerError},
	}

	e := echo.New()
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			if err := failErr(c, tc.err); err != nil {
				t.Fatalf("failErr returned %v", err)
			}
			if rec.Code != tc.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tc.wantStatus)
			}

			var body map[string]any
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("body: %v", err)
			}
			if body["success"] != false {
				t.Errorf("success = %v, want false", body["success"])
			}
			if tc.wantStatus == http.StatusInternalServerError && body["error"] != "internal error" {
				t.Errorf("internal errors must not leak details, got %q", body["error"])
			}
			if tc.wantStatus == http.StatusServiceUnavailable && body["error"] != "service unavailable" {
				t.Errorf("connectivity errors must not leak details, got %q", body["error"])
			}
		})
	}
}

func TestHealth(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()

	if err := Health(e.NewContext(req, rec)); err != nil {
		t.Fatalf("Health: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}
