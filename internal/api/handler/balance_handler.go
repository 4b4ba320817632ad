package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/srochno/order-exchange/internal/core/domain"
	"github.com/srochno/order-exchange/internal/core/ports"
)

// BalanceHandler exposes the actor's balance, recharges, and the ledger
// history.
type BalanceHandler struct {
	ledger ports.Ledger
}

func NewBalanceHandler(ledger ports.Ledger) *BalanceHandler {
	return &BalanceHandler{ledger: ledger}
}

type rechargeRequest struct {
	Amount     int64  `json:"amount" validate:"required,gt=0"`
	Method     string `json:"method" validate:"required,oneof=card transfer wallet"`
	PaymentRef string `json:"payment_ref" validate:"required,min=6,max=128"`
}

type rechargeResponse struct {
	Balance   int64         `json:"balance"`
	Entry     *domain.Entry `json:"entry,omitempty"`
	Duplicate bool          `json:"duplicate"`
}

type historyResponse struct {
	Items []domain.Entry `json:"items"`
	// NextBefore and NextBeforeID form the cursor for the following page;
	// both are passed back as query parameters. Empty on the last page.
	NextBefore   string `json:"next_before,omitempty"`
	NextBeforeID string `json:"next_before_id,omitempty"`
}

// Get handles GET /v1/balance.
func (h *BalanceHandler) Get(c echo.Context) error {
	actorID, err := ctxActorID(c)
	if err != nil {
		return err
	}

	balance, err := h.ledger.Balance(c.Request().Context(), actorID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]int64{"balance": balance})
}

// Recharge handles POST /v1/balance/recharge. Replaying the same
// payment_ref returns the current balance without crediting again.
func (h *BalanceHandler) Recharge(c echo.Context) error {
	actorID, err := ctxActorID(c)
	if err != nil {
		return err
	}

	var req rechargeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	result, err := h.ledger.Recharge(c.Request().Context(), actorID, req.Amount, req.Method, req.PaymentRef)
	if err != nil {
		return err
	}

	status := http.StatusCreated
	if result.Duplicate {
		status = http.StatusOK
	}

	return c.JSON(status, rechargeResponse{
		Balance:   result.Balance,
		Entry:     result.Entry,
		Duplicate: result.Duplicate,
	})
}

// History handles GET /v1/balance/history. Query parameters: before
// (RFC 3339 cursor) with before_id (tie-break), limit.
func (h *BalanceHandler) History(c echo.Context) error {
	actorID, err := ctxActorID(c)
	if err != nil {
		return err
	}

	var cursor ports.EntryCursor
	if raw := c.QueryParam("before"); raw != "" {
		cursor.CreatedAt, err = time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "before must be an RFC 3339 timestamp")
		}
		cursor.ID = c.QueryParam("before_id")
	}

	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "limit must be a positive integer")
		}
	}

	entries, err := h.ledger.History(c.Request().Context(), actorID, cursor, limit)
	if err != nil {
		return err
	}

	resp := historyResponse{Items: entries}
	if len(entries) > 0 && limit > 0 && len(entries) == limit {
		last := entries[len(entries)-1]
		resp.NextBefore = last.CreatedAt.Format(time.RFC3339Nano)
		resp.NextBeforeID = last.ID
	}

	return c.JSON(http.StatusOK, resp)
}
