// Package repository содержит хранилище клиентов и заказов в памяти процесса.
package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/mmeshcher/juentregas/internal/model"
	"github.com/mmeshcher/juentregas/internal/validation"
)

var (
	// ErrClientExists возвращается, если CPF уже зарегистрирован за другим клиентом.
	ErrClientExists = errors.New("client with this cpf already exists")
	// ErrClientNotFound возвращается, если клиент не найден.
	ErrClientNotFound = errors.New("client not found")
	// ErrOrderNotFound возвращается, если заказ не найден.
	ErrOrderNotFound = errors.New("order not found")
	// ErrOrderNumberTaken возвращается при совпадении сгенерированного номера заказа с существующим.
	ErrOrderNumberTaken = errors.New("order number already taken")
)

// MemoryRepository хранит клиентов и заказы в памяти в порядке добавления.
//
// Каждая операция выполняется целиком под одной блокировкой, поэтому проверки
// уникальности и ссылочной целостности не пересекаются с конкурентными изменениями.
// Наружу отдаются только копии записей.
type MemoryRepository struct {
	mu      sync.RWMutex
	clients []model.Client
	orders  []model.Order
}

// NewMemoryRepository создаёт пустое хранилище.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

// Close ничего не освобождает: данные живут до завершения процесса.
func (r *MemoryRepository) Close() error {
	return nil
}

// ListClients возвращает всех клиентов в порядке добавления.
func (r *MemoryRepository) ListClients(ctx context.Context) ([]model.Client, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return append([]model.Client{}, r.clients...), nil
}

// GetClientByCPF ищет клиента по нормализованному CPF.
func (r *MemoryRepository) GetClientByCPF(ctx context.Context, cpf string) (*model.Client, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	i := r.clientIndexByCPF(validation.NormalizeCPF(cpf), "")
	if i < 0 {
		return nil, ErrClientNotFound
	}
	c := r.clients[i]
	return &c, nil
}

// CreateClient добавляет клиента в конец списка.
func (r *MemoryRepository) CreateClient(ctx context.Context, c model.Client) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.clientIndexByCPF(validation.NormalizeCPF(c.CPF), "") >= 0 {
		return fmt.Errorf("%w: %s", ErrClientExists, c.CPF)
	}

	r.clients = append(r.clients, c)
	return nil
}

// UpdateClient заменяет клиента с тем же идентификатором, сохраняя его позицию.
// Возвращает прежнюю версию записи.
func (r *MemoryRepository) UpdateClient(ctx context.Context, c model.Client) (*model.Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.clientIndexByID(c.ID)
	if i < 0 {
		return nil, ErrClientNotFound
	}
	if r.clientIndexByCPF(validation.NormalizeCPF(c.CPF), c.ID) >= 0 {
		return nil, fmt.Errorf("%w: %s", ErrClientExists, c.CPF)
	}

	prev := r.clients[i]
	r.clients[i] = c
	return &prev, nil
}

// DeleteClient удаляет клиента. Заказы клиента не затрагиваются.
func (r *MemoryRepository) DeleteClient(ctx context.Context, id string) (*model.Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.clientIndexByID(id)
	if i < 0 {
		return nil, ErrClientNotFound
	}

	removed := r.clients[i]
	r.clients = append(r.clients[:i:i], r.clients[i+1:]...)
	return &removed, nil
}

// ListOrders возвращает все заказы в порядке добавления.
func (r *MemoryRepository) ListOrders(ctx context.Context) ([]model.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]model.Order, 0, len(r.orders))
	for _, o := range r.orders {
		out = append(out, o.Clone())
	}
	return out, nil
}

// GetOrder возвращает заказ по идентификатору.
func (r *MemoryRepository) GetOrder(ctx context.Context, id string) (*model.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	i := r.orderIndexByID(id)
	if i < 0 {
		return nil, ErrOrderNotFound
	}
	o := r.orders[i].Clone()
	return &o, nil
}

// GetOrderByNumber ищет заказ по номеру без учёта регистра.
func (r *MemoryRepository) GetOrderByNumber(ctx context.Context, number string) (*model.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	i := r.orderIndexByNumber(number)
	if i < 0 {
		return nil, ErrOrderNotFound
	}
	o := r.orders[i].Clone()
	return &o, nil
}

// CreateOrder добавляет заказ. Владелец ищется по ClientID (нормализованному CPF),
// его имя копируется в ClientName.
func (r *MemoryRepository) CreateOrder(ctx context.Context, o model.Order) (*model.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	o.ClientID = validation.NormalizeCPF(o.ClientID)
	ci := r.clientIndexByCPF(o.ClientID, "")
	if ci < 0 {
		return nil, fmt.Errorf("%w: %s", ErrClientNotFound, o.ClientID)
	}
	if r.orderIndexByNumber(o.OrderNumber) >= 0 {
		return nil, fmt.Errorf("%w: %s", ErrOrderNumberTaken, o.OrderNumber)
	}

	o.ClientName = r.clients[ci].FullName
	o = o.Clone()
	r.orders = append(r.orders, o)

	out := o.Clone()
	return &out, nil
}

// UpdateOrder заменяет изменяемые атрибуты заказа. Номер, владелец и история не меняются.
func (r *MemoryRepository) UpdateOrder(ctx context.Context, id string, details model.OrderDetails) (*model.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.orderIndexByID(id)
	if i < 0 {
		return nil, ErrOrderNotFound
	}

	r.orders[i].OrderDetails = details
	out := r.orders[i].Clone()
	return &out, nil
}

// AppendEvent добавляет событие в конец истории заказа.
// build получает актуальное состояние заказа под блокировкой.
func (r *MemoryRepository) AppendEvent(ctx context.Context, orderID string, build func(o model.Order) model.Event) (*model.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.orderIndexByID(orderID)
	if i < 0 {
		return nil, ErrOrderNotFound
	}

	ev := build(r.orders[i].Clone())
	r.orders[i].Events = append(r.orders[i].Events, ev)
	out := r.orders[i].Clone()
	return &out, nil
}

// DeleteOrder удаляет заказ. Клиент не затрагивается.
func (r *MemoryRepository) DeleteOrder(ctx context.Context, id string) (*model.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.orderIndexByID(id)
	if i < 0 {
		return nil, ErrOrderNotFound
	}

	removed := r.orders[i]
	r.orders = append(r.orders[:i:i], r.orders[i+1:]...)
	return &removed, nil
}

func (r *MemoryRepository) clientIndexByID(id string) int {
	for i, c := range r.clients {
		if c.ID == id {
			return i
		}
	}
	return -1
}

// clientIndexByCPF ищет клиента по нормализованному CPF, пропуская запись exceptID.
func (r *MemoryRepository) clientIndexByCPF(cpf, exceptID string) int {
	for i, c := range r.clients {
		if c.ID != exceptID && validation.NormalizeCPF(c.CPF) == cpf {
			return i
		}
	}
	return -1
}

func (r *MemoryRepository) orderIndexByID(id string) int {
	for i, o := range r.orders {
		if o.ID == id {
			return i
		}
	}
	return -1
}

func (r *MemoryRepository) orderIndexByNumber(number string) int {
	n := strings.ToUpper(number)
	for i, o := range r.orders {
		if strings.ToUpper(o.OrderNumber) == n {
			return i
		}
	}
	return -1
}
