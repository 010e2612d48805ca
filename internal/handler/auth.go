package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cafeteria-pos/internal/config"
	"github.com/iliyamo/cafeteria-pos/internal/repository"
	"github.com/iliyamo/cafeteria-pos/internal/utils"
)

// AuthHandler signs terminal operators in. The terminal has no self-service
// registration; operator accounts are provisioned by administration.
type AuthHandler struct {
	Cfg       config.Config
	Operators *repository.OperatorRepo
}

func NewAuthHandler(cfg config.Config, ops *repository.OperatorRepo) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Operators: ops}
}

type loginReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResp struct {
	Operator struct {
		Username string `json:"username"`
		Name     string `json:"name"`
		Role     string `json:"role"`
	} `json:"operator"`
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}

// Login verifies operator credentials and issues a station-scoped access
// token. Unknown usernames and wrong passwords are indistinguishable to the
// caller.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}
	req.Username = strings.ToLower(strings.TrimSpace(req.Username))
	if req.Username == "" || req.Password == "" {
		return fail(c, http.StatusBadRequest, "username and password are required")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	op, err := h.Operators.GetByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, repository.ErrOperatorNotFound) {
			return fail(c, http.StatusUnauthorized, "invalid credentials")
		}
		return failErr(c, err)
	}
	if !utils.VerifyOperatorPassword(op.PasswordHash, req.Password) {
		return fail(c, http.StatusUnauthorized, "invalid credentials")
	}

	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, op.Username, op.Role, h.Cfg.StationID, h.Cfg.AccessTTLMin)
	if err != nil {
		return failErr(c, err)
	}

	var resp loginResp
	resp.Operator.Username = op.Username
	resp.Operator.Name = op.Name
	resp.Operator.Role = op.Role
	resp.Token = access.Token
	resp.Expires = access.Exp
	return ok(c, http.StatusOK, resp)
}
