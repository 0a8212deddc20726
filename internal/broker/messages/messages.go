// Package messages описывает события об изменениях, публикуемые в брокер.
package messages

import (
	"time"

	"github.com/mmeshcher/juentregas/internal/model"
)

// Типы событий.
const (
	ClientCreated = "client.created"
	ClientUpdated = "client.updated"
	ClientDeleted = "client.deleted"

	OrderCreated       = "order.created"
	OrderUpdated       = "order.updated"
	OrderDeleted       = "order.deleted"
	OrderEventAppended = "order.event_appended"
)

// ClientChanged публикуется после каждого изменения клиента.
type ClientChanged struct {
	Type       string    `json:"type"`
	ClientID   string    `json:"client_id"`
	CPF        string    `json:"cpf"`
	FullName   string    `json:"full_name"`
	OccurredAt time.Time `json:"occurred_at"`
}

// OrderChanged публикуется после каждого изменения заказа.
// Event заполняется только для order.event_appended и order.created.
type OrderChanged struct {
	Type        string            `json:"type"`
	OrderID     string            `json:"order_id"`
	OrderNumber string            `json:"order_number"`
	ClientID    string            `json:"client_id"`
	Status      model.OrderStatus `json:"status"`
	Event       *model.Event      `json:"event,omitempty"`
	OccurredAt  time.Time         `json:"occurred_at"`
}
