package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mmeshcher/juentregas/internal/apperr"
	"github.com/mmeshcher/juentregas/internal/broker/messages"
	"github.com/mmeshcher/juentregas/internal/model"
	"github.com/mmeshcher/juentregas/internal/repository"
	"github.com/mmeshcher/juentregas/internal/validation"
)

// OrderInput содержит данные формы заказа. ClientCPF учитывается только при создании.
type OrderInput struct {
	ClientCPF             string            `json:"clientCpf,omitempty"`
	CollectionAddress     string            `json:"collectionAddress" validate:"required"`
	DeliveryAddress       string            `json:"deliveryAddress" validate:"required"`
	CurrentStatus         model.OrderStatus `json:"currentStatus"`
	EstimatedDeliveryDate string            `json:"estimatedDeliveryDate" validate:"required"`
	Weight                string            `json:"weight"`
	Dimensions            string            `json:"dimensions"`
	PackageType           string            `json:"packageType"`
	Urgent                bool              `json:"urgent"`
	Refrigerated          bool              `json:"refrigerated"`
	Insured               bool              `json:"insured"`
	Observations          string            `json:"observations"`
}

// ListOrders возвращает все заказы в порядке создания.
func (s *Service) ListOrders(ctx context.Context) ([]model.Order, error) {
	return s.repo.ListOrders(ctx)
}

// GetOrder возвращает заказ по идентификатору.
func (s *Service) GetOrder(ctx context.Context, id string) (*model.Order, error) {
	o, err := s.repo.GetOrder(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return nil, apperr.Wrap(apperr.ErrNotFound, "Pedido não encontrado.", err)
		}
		return nil, err
	}
	return o, nil
}

// AddOrder создаёт заказ для клиента с указанным CPF и записывает первое событие истории.
func (s *Service) AddOrder(ctx context.Context, in OrderInput) (*model.Order, error) {
	if in.CurrentStatus == "" {
		in.CurrentStatus = model.OrderStatusCollected
	}
	fields := s.missing(in)
	if validation.NormalizeCPF(in.ClientCPF) == "" {
		fields = append(fields, "clientCpf")
	}
	if len(fields) > 0 {
		return nil, apperr.Validation(strings.Join(fields, ","),
			"Endereço de recolhimento, endereço de entrega, previsão de entrega e CPF do cliente são obrigatórios.")
	}
	details, err := detailsFromInput(in)
	if err != nil {
		return nil, err
	}

	date, clock := s.localDateTime()
	order := model.Order{
		ID:           s.newID(),
		ClientID:     validation.NormalizeCPF(in.ClientCPF),
		OrderDetails: details,
		Events: []model.Event{{
			ID:          s.newID(),
			Status:      details.CurrentStatus,
			Description: fmt.Sprintf("Pedido registrado no sistema com status: %s", details.CurrentStatus),
			Location:    details.CollectionAddress,
			Date:        date,
			Time:        clock,
			Icon:        model.IconPackage,
			Completed:   true,
		}},
	}

	var created *model.Order
	for attempt := 0; attempt < maxOrderNumberAttempts; attempt++ {
		order.OrderNumber = s.newOrderNumber()
		created, err = s.repo.CreateOrder(ctx, order)
		if !errors.Is(err, repository.ErrOrderNumberTaken) {
			break
		}
	}
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrClientNotFound):
			return nil, apperr.Wrap(apperr.ErrReferenceNotFound,
				"Nenhum cliente com este CPF foi encontrado. Por favor, cadastre o cliente primeiro.", err)
		case errors.Is(err, repository.ErrOrderNumberTaken):
			return nil, fmt.Errorf("generate order number after %d attempts: %w", maxOrderNumberAttempts, err)
		}
		return nil, fmt.Errorf("create order: %w", err)
	}

	s.publishOrder(ctx, messages.OrderCreated, *created, &created.Events[0])
	return created, nil
}

// UpdateOrder заменяет изменяемые атрибуты заказа. История событий не меняется.
func (s *Service) UpdateOrder(ctx context.Context, id string, in OrderInput) (*model.Order, error) {
	if fields := s.missing(in); len(fields) > 0 {
		return nil, apperr.Validation(strings.Join(fields, ","),
			"Endereço de recolhimento, endereço de entrega e previsão de entrega são obrigatórios.")
	}
	details, err := detailsFromInput(in)
	if err != nil {
		return nil, err
	}

	updated, err := s.repo.UpdateOrder(ctx, id, details)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return nil, apperr.Wrap(apperr.ErrNotFound, "Pedido não encontrado.", err)
		}
		return nil, fmt.Errorf("update order: %w", err)
	}

	s.invalidate(ctx, updated.OrderNumber)
	s.publishOrder(ctx, messages.OrderUpdated, *updated, nil)
	return updated, nil
}

// AppendEvent добавляет в историю заказа событие с его текущим статусом и адресом доставки.
func (s *Service) AppendEvent(ctx context.Context, orderID, description string) (*model.Order, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return nil, apperr.Validation("description", "Por favor, digite a descrição da evolução.")
	}

	date, clock := s.localDateTime()
	id := s.newID()
	updated, err := s.repo.AppendEvent(ctx, orderID, func(o model.Order) model.Event {
		return model.Event{
			ID:          id,
			Status:      o.CurrentStatus,
			Description: description,
			Location:    o.DeliveryAddress,
			Date:        date,
			Time:        clock,
			Icon:        model.StatusIcon(o.CurrentStatus),
			Completed:   true,
		}
	})
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return nil, apperr.Wrap(apperr.ErrNotFound, "Pedido não encontrado.", err)
		}
		return nil, fmt.Errorf("append event: %w", err)
	}

	s.invalidate(ctx, updated.OrderNumber)
	s.publishOrder(ctx, messages.OrderEventAppended, *updated, &updated.Events[len(updated.Events)-1])
	return updated, nil
}

// DeleteOrder удаляет заказ. Клиент не затрагивается.
func (s *Service) DeleteOrder(ctx context.Context, id string) error {
	removed, err := s.repo.DeleteOrder(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return apperr.Wrap(apperr.ErrNotFound, "Pedido não encontrado.", err)
		}
		return fmt.Errorf("delete order: %w", err)
	}

	s.invalidate(ctx, removed.OrderNumber)
	s.publishOrder(ctx, messages.OrderDeleted, *removed, nil)
	return nil
}

func (s *Service) missing(in OrderInput) []string {
	if err := s.validate.Struct(in); err != nil {
		return missingFields(err)
	}
	return nil
}

func detailsFromInput(in OrderInput) (model.OrderDetails, error) {
	if !in.CurrentStatus.Valid() {
		return model.OrderDetails{}, apperr.Validation("currentStatus",
			fmt.Sprintf("Status inválido: %q.", in.CurrentStatus))
	}
	packageType := in.PackageType
	if packageType == "" {
		packageType = model.PackageTypeNormal
	}

	return model.OrderDetails{
		CollectionAddress:     in.CollectionAddress,
		DeliveryAddress:       in.DeliveryAddress,
		CurrentStatus:         in.CurrentStatus,
		EstimatedDeliveryDate: in.EstimatedDeliveryDate,
		Weight:                in.Weight,
		Dimensions:            in.Dimensions,
		PackageType:           packageType,
		Urgent:                in.Urgent,
		Refrigerated:          in.Refrigerated,
		Insured:               in.Insured,
		Observations:          in.Observations,
	}, nil
}

func (s *Service) publishOrder(ctx context.Context, typ string, o model.Order, ev *model.Event) {
	s.publish(ctx, s.ordersTopic, o.ID, messages.OrderChanged{
		Type:        typ,
		OrderID:     o.ID,
		OrderNumber: o.OrderNumber,
		ClientID:    o.ClientID,
		Status:      o.CurrentStatus,
		Event:       ev,
		OccurredAt:  s.now().UTC(),
	})
}
