package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/srochno/order-exchange/internal/core/domain"
	"github.com/srochno/order-exchange/internal/core/ports"
)

// OrderHandler handles HTTP requests for order operations, including the
// paid take.
type OrderHandler struct {
	orders ports.OrderService
	takes  ports.TakeService
}

func NewOrderHandler(orders ports.OrderService, takes ports.TakeService) *OrderHandler {
	return &OrderHandler{orders: orders, takes: takes}
}

// Create handles POST /v1/orders.
func (h *OrderHandler) Create(c echo.Context) error {
	actorID, err := ctxActorID(c)
	if err != nil {
		return err
	}

	var req createOrderRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	order, err := h.orders.Create(c.Request().Context(), ports.CreateOrderInput{
		ClientID:    actorID,
		Category:    req.Category,
		Description: req.Description,
		City:        req.City,
		Contact:     req.Contact,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, toOrderResponse(&ports.OrderView{
		Order:       order,
		ShowContact: true,
		MinutesLeft: order.MinutesLeft(time.Now().UTC()),
	}))
}

// Get handles GET /v1/orders/:order_id.
func (h *OrderHandler) Get(c echo.Context) error {
	actorID, err := ctxActorID(c)
	if err != nil {
		return err
	}

	view, err := h.orders.Get(c.Request().Context(), c.Param("order_id"), actorID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, toOrderResponse(view))
}

// List handles GET /v1/orders. Query parameters: mine, status, category,
// city, limit, offset.
func (h *OrderHandler) List(c echo.Context) error {
	actorID, err := ctxActorID(c)
	if err != nil {
		return err
	}

	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))
	mine, _ := strconv.ParseBool(c.QueryParam("mine"))

	result, err := h.orders.List(c.Request().Context(), ports.ListOrdersInput{
		ActorID:  actorID,
		Mine:     mine,
		Status:   c.QueryParam("status"),
		Category: c.QueryParam("category"),
		City:     c.QueryParam("city"),
		Limit:    limit,
		Offset:   offset,
	})
	if err != nil {
		return err
	}

	items := make([]orderResponse, 0, len(result.Items))
	for i := range result.Items {
		items = append(items, toOrderResponse(&result.Items[i]))
	}

	return c.JSON(http.StatusOK, listOrdersResponse{
		Items:  items,
		Total:  result.Total,
		Limit:  result.Limit,
		Offset: result.Offset,
	})
}

// Update handles PATCH /v1/orders/:order_id.
func (h *OrderHandler) Update(c echo.Context) error {
	actorID, err := ctxActorID(c)
	if err != nil {
		return err
	}

	var req updateOrderRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.Category == nil && req.Description == nil && req.Contact == nil {
		return echo.NewHTTPError(http.StatusBadRequest, "no fields to update")
	}

	order, err := h.orders.Update(c.Request().Context(), ports.UpdateOrderInput{
		OrderID:     c.Param("order_id"),
		ActorID:     actorID,
		Category:    req.Category,
		Description: req.Description,
		Contact:     req.Contact,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, toOrderResponse(&ports.OrderView{
		Order:       order,
		ShowContact: true,
		MinutesLeft: order.MinutesLeft(time.Now().UTC()),
	}))
}

// Delete handles DELETE /v1/orders/:order_id.
func (h *OrderHandler) Delete(c echo.Context) error {
	actorID, err := ctxActorID(c)
	if err != nil {
		return err
	}

	if err := h.orders.Delete(c.Request().Context(), c.Param("order_id"), actorID); err != nil {
		return err
	}

	return c.NoContent(http.StatusNoContent)
}

// Take handles POST /v1/orders/:order_id/take — the paid contact reveal.
func (h *OrderHandler) Take(c echo.Context) error {
	actorID, err := ctxActorID(c)
	if err != nil {
		return err
	}

	result, err := h.takes.Take(c.Request().Context(), c.Param("order_id"), actorID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, takeOrderResponse{
		Contact:     result.Contact,
		HolderCount: result.HolderCount,
		Balance:     result.Balance,
		AlreadyHeld: result.AlreadyHeld,
	})
}

// Respond handles POST /v1/orders/:order_id/respond. The owner confirms
// they answered an executor, clearing the no-response auto-close guard.
func (h *OrderHandler) Respond(c echo.Context) error {
	actorID, err := ctxActorID(c)
	if err != nil {
		return err
	}

	order, err := h.orders.Respond(c.Request().Context(), c.Param("order_id"), actorID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]any{
		"id":           order.ID,
		"status":       string(order.Status),
		"responded_at": order.RespondedAt,
	})
}

// Complete handles POST /v1/orders/:order_id/complete.
func (h *OrderHandler) Complete(c echo.Context) error {
	actorID, err := ctxActorID(c)
	if err != nil {
		return err
	}

	order, err := h.orders.Complete(c.Request().Context(), c.Param("order_id"), actorID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]string{
		"id":     order.ID,
		"status": string(order.Status),
	})
}

// Close handles POST /v1/orders/:order_id/close — the owner ends the order
// early without completing it.
func (h *OrderHandler) Close(c echo.Context) error {
	actorID, err := ctxActorID(c)
	if err != nil {
		return err
	}

	if err := h.orders.Close(c.Request().Context(), c.Param("order_id"), actorID); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]string{
		"id":     c.Param("order_id"),
		"status": string(domain.StatusClosedNoResponse),
	})
}
