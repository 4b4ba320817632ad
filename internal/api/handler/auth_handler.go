package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/srochno/order-exchange/internal/core/domain"
	"github.com/srochno/order-exchange/internal/core/ports"
)

type AuthHandler struct {
	authService ports.AuthService
}

func NewAuthHandler(authService ports.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

type registerRequest struct {
	Username string `json:"username" validate:"required,min=3,max=64"`
	Password string `json:"password" validate:"required,min=8,max=128"`
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type authResponse struct {
	Token string        `json:"token,omitempty"`
	Actor *domain.Actor `json:"actor,omitempty"`
}

// Register creates a new actor account.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	actor, err := h.authService.Register(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, authResponse{Actor: actor})
}

// Login authenticates an actor and returns a JWT token.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	token, actor, err := h.authService.Login(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, authResponse{Token: token, Actor: actor})
}

// Profile returns the authenticated actor's own record.
func (h *AuthHandler) Profile(c echo.Context) error {
	actorID, err := ctxActorID(c)
	if err != nil {
		return err
	}

	actor, err := h.authService.Profile(c.Request().Context(), actorID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, actor)
}
