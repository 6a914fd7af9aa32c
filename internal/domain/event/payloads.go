package event

// Payload shapes for the typed publishers. These are part of the wire
// contract consumed by existing frontend clients; field names and types
// must stay stable.

// StockUpdate reports an inventory quantity change.
type StockUpdate struct {
	ProductID   string `json:"product_id"`
	OldQuantity int    `json:"old_quantity"`
	NewQuantity int    `json:"new_quantity"`
	LocationID  string `json:"location_id"`
	Change      int    `json:"change"`
}

// OrderUpdate reports an order status transition.
type OrderUpdate struct {
	OrderID        string `json:"order_id"`
	Status         string `json:"status"`
	PreviousStatus string `json:"previous_status"`
}

// UserActivity reports a client-side user action.
type UserActivity struct {
	UserID       string         `json:"user_id"`
	ActivityType string         `json:"activity_type"`
	Details      map[string]any `json:"details"`
}

// Notification is a system notification pushed to a tenant's users.
type Notification struct {
	NotificationType string `json:"notification_type"`
	Title            string `json:"title"`
	Message          string `json:"message"`
	Priority         string `json:"priority"`
}
