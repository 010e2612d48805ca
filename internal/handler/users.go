package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cafeteria-pos/internal/service"
)

// UserHandler serves cardholder lookups and registration of new cards.
type UserHandler struct {
	Directory *service.UserDirectory
}

func NewUserHandler(d *service.UserDirectory) *UserHandler {
	return &UserHandler{Directory: d}
}

// ByUID resolves a card UID to its active cardholder.
func (h *UserHandler) ByUID(c echo.Context) error {
	uid := service.NormalizeUID(c.Param("uid"))
	if uid == "" {
		return fail(c, http.StatusBadRequest, "uid is required")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	person, err := h.Directory.ResolveUID(ctx, uid)
	if err != nil {
		return failErr(c, err)
	}
	return ok(c, http.StatusOK, person)
}

// ByID fetches a cardholder by primary key.
func (h *UserHandler) ByID(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return fail(c, http.StatusBadRequest, "invalid id")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	person, err := h.Directory.GetByID(ctx, id)
	if err != nil {
		return failErr(c, err)
	}
	return ok(c, http.StatusOK, person)
}

// Search matches cardholders by name, UID or email fragment.
func (h *UserHandler) Search(c echo.Context) error {
	q := strings.TrimSpace(c.QueryParam("q"))
	if q == "" {
		return fail(c, http.StatusBadRequest, "q is required")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	persons, err := h.Directory.Search(ctx, q)
	if err != nil {
		return failErr(c, err)
	}
	return ok(c, http.StatusOK, persons)
}

// Register creates a cardholder for an unregistered card.
func (h *UserHandler) Register(c echo.Context) error {
	var in service.RegisterInput
	if err := c.Bind(&in); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	person, err := h.Directory.Register(ctx, in)
	if err != nil {
		return failErr(c, err)
	}
	return ok(c, http.StatusCreated, person)
}
