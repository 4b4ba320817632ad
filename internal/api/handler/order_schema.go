package handler

import (
	"time"

	"github.com/srochno/order-exchange/internal/core/ports"
)

type createOrderRequest struct {
	Category    string `json:"category" validate:"required"`
	Description string `json:"description" validate:"required,min=10,max=2000"`
	City        string `json:"city" validate:"required,min=2,max=100"`
	Contact     string `json:"contact" validate:"required,min=5,max=100"`
}

// updateOrderRequest carries an owner edit. Absent fields stay unchanged;
// city is locked at creation and deliberately missing here.
type updateOrderRequest struct {
	Category    *string `json:"category,omitempty"`
	Description *string `json:"description,omitempty" validate:"omitempty,min=10,max=2000"`
	Contact     *string `json:"contact,omitempty" validate:"omitempty,min=5,max=100"`
}

type orderResponse struct {
	ID          string     `json:"id"`
	ClientID    string     `json:"client_id"`
	Category    string     `json:"category"`
	Description string     `json:"description"`
	City        string     `json:"city"`
	Contact     string     `json:"contact,omitempty"`
	Status      string     `json:"status"`
	HolderCount int        `json:"holder_count"`
	MinutesLeft int        `json:"minutes_left"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	RespondedAt *time.Time `json:"responded_at,omitempty"`
}

type listOrdersResponse struct {
	Items  []orderResponse `json:"items"`
	Total  int64           `json:"total"`
	Limit  int             `json:"limit"`
	Offset int             `json:"offset"`
}

type takeOrderResponse struct {
	Contact     string `json:"contact"`
	HolderCount int    `json:"holder_count"`
	Balance     int64  `json:"balance"`
	AlreadyHeld bool   `json:"already_held"`
}

// toOrderResponse maps a service view to the wire shape. The contact is
// blanked unless the view says the caller may see it.
func toOrderResponse(v *ports.OrderView) orderResponse {
	o := v.Order
	resp := orderResponse{
		ID:          o.ID,
		ClientID:    o.ClientID,
		Category:    o.Category,
		Description: o.Description,
		City:        o.City,
		Status:      string(o.Status),
		HolderCount: v.HolderCount,
		MinutesLeft: v.MinutesLeft,
		CreatedAt:   o.CreatedAt,
		UpdatedAt:   o.UpdatedAt,
		RespondedAt: o.RespondedAt,
	}
	if v.ShowContact {
		resp.Contact = o.Contact
	}
	return resp
}
