package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// ctxActorID extracts the actor identity injected by the Auth middleware
// and performs a fast-fail check before any service call: a structurally
// valid JWT without an actor id is operationally unusable.
func ctxActorID(c echo.Context) (string, error) {
	actorID, _ := c.Get("actor_id").(string)
	if actorID == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "token missing actor identity")
	}
	return actorID, nil
}
