package gateway

import "time"

// User is the backend profile resolved from a Telegram identity.
type User struct {
	ID       string `json:"id"`
	Token    string `json:"access_token"`
	Name     string `json:"name"`
	Language string `json:"language"`
}

// Party identifies one side of an order.
type Party struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Order is a read projection of a marketplace order.
type Order struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	ServiceName string     `json:"service_name"`
	Status      string     `json:"status"`
	Price       string     `json:"price"`
	Deadline    *time.Time `json:"deadline"`
	Client      Party      `json:"client"`
	Performer   Party      `json:"performer"`
	// IsPerformer reports the requesting user's role on the order.
	IsPerformer  bool `json:"is_performer"`
	MessageCount int  `json:"message_count"`
}

// Message is a single chat message on an order.
type Message struct {
	ID         string    `json:"id"`
	OrderID    string    `json:"order_id"`
	SenderName string    `json:"sender_name"`
	Mine       bool      `json:"is_own"`
	Text       string    `json:"text"`
	CreatedAt  time.Time `json:"created_at"`
}

// Notification is a backend-originated event awaiting chat delivery.
type Notification struct {
	ID              string     `json:"id"`
	UserID          string     `json:"user_id"`
	Type            string     `json:"type"`
	Content         string     `json:"content"`
	RelatedID       string     `json:"related_id"`
	DeliveredToChat bool       `json:"delivered_to_chat"`
	DeliveredAt     *time.Time `json:"delivered_at"`
	CreatedAt       time.Time  `json:"created_at"`
}

// TelegramChat maps a backend user to their Telegram chat.
type TelegramChat struct {
	ChatID   int64  `json:"chat_id"`
	Language string `json:"language"`
}

// AssistantAnswer is a reply produced by the backend assistant endpoint.
type AssistantAnswer struct {
	Reply string `json:"reply"`
}

// Ack is an empty acknowledged response body.
type Ack struct{}

// Notification types understood by the delivery formatter.
const (
	TypeMessage      = "message"
	TypeNewOrder     = "new_order"
	TypeStatusChange = "status_change"
	TypeDeadline     = "deadline"
	TypePayment      = "payment"
	TypeReview       = "review"
	TypeDispute      = "dispute"
)

// Order statuses the bot may request.
const (
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusRevision   = "revision"
)
