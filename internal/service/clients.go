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

// ClientInput содержит данные формы клиента.
type ClientInput struct {
	FullName string `json:"fullName" validate:"required"`
	CPF      string `json:"cpf" validate:"required"`
	Phone    string `json:"phone,omitempty"`
	Email    string `json:"email,omitempty"`
}

// ListClients возвращает всех клиентов в порядке регистрации.
func (s *Service) ListClients(ctx context.Context) ([]model.Client, error) {
	return s.repo.ListClients(ctx)
}

// AddClient регистрирует нового клиента.
func (s *Service) AddClient(ctx context.Context, in ClientInput) (*model.Client, error) {
	c, err := s.clientFromInput(in)
	if err != nil {
		return nil, err
	}
	c.ID = s.newID()

	if err := s.repo.CreateClient(ctx, c); err != nil {
		if errors.Is(err, repository.ErrClientExists) {
			return nil, apperr.Wrap(apperr.ErrDuplicateKey, "Já existe um cliente cadastrado com este CPF.", err)
		}
		return nil, fmt.Errorf("create client: %w", err)
	}

	s.publishClient(ctx, messages.ClientCreated, c)
	return &c, nil
}

// UpdateClient заменяет данные клиента. Проверка дубликата CPF исключает самого клиента.
func (s *Service) UpdateClient(ctx context.Context, id string, in ClientInput) (*model.Client, error) {
	c, err := s.clientFromInput(in)
	if err != nil {
		return nil, err
	}
	c.ID = id

	prev, err := s.repo.UpdateClient(ctx, c)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrClientNotFound):
			return nil, apperr.Wrap(apperr.ErrNotFound, "Cliente não encontrado.", err)
		case errors.Is(err, repository.ErrClientExists):
			return nil, apperr.Wrap(apperr.ErrDuplicateKey, "Já existe outro cliente cadastrado com este CPF.", err)
		}
		return nil, fmt.Errorf("update client: %w", err)
	}

	s.invalidateClientOrders(ctx, prev.CPF, c.CPF)
	s.publishClient(ctx, messages.ClientUpdated, c)
	return &c, nil
}

// DeleteClient удаляет клиента. Его заказы остаются в хранилище.
func (s *Service) DeleteClient(ctx context.Context, id string) error {
	removed, err := s.repo.DeleteClient(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrClientNotFound) {
			return apperr.Wrap(apperr.ErrNotFound, "Cliente não encontrado.", err)
		}
		return fmt.Errorf("delete client: %w", err)
	}

	s.invalidateClientOrders(ctx, removed.CPF)
	s.publishClient(ctx, messages.ClientDeleted, *removed)
	return nil
}

func (s *Service) clientFromInput(in ClientInput) (model.Client, error) {
	if err := s.validate.Struct(in); err != nil {
		if fields := missingFields(err); len(fields) > 0 {
			return model.Client{}, apperr.Validation(strings.Join(fields, ","), "Nome completo e CPF são obrigatórios.")
		}
		return model.Client{}, fmt.Errorf("validate client: %w", err)
	}
	if !validation.IsValidCPF(in.CPF) {
		return model.Client{}, apperr.Validation("cpf", "O CPF deve conter 11 dígitos.")
	}

	return model.Client{
		FullName: in.FullName,
		CPF:      validation.FormatCPF(in.CPF),
		Phone:    validation.FormatPhone(in.Phone),
		Email:    in.Email,
	}, nil
}

// invalidateClientOrders сбрасывает представления заказов, ссылающихся на любой из CPF.
func (s *Service) invalidateClientOrders(ctx context.Context, cpfs ...string) {
	if s.invalidator == nil {
		return
	}
	refs := make(map[string]struct{}, len(cpfs))
	for _, cpf := range cpfs {
		refs[validation.NormalizeCPF(cpf)] = struct{}{}
	}

	orders, err := s.repo.ListOrders(ctx)
	if err != nil {
		return
	}
	var numbers []string
	for _, o := range orders {
		if _, ok := refs[o.ClientID]; ok {
			numbers = append(numbers, o.OrderNumber)
		}
	}
	s.invalidate(ctx, numbers...)
}

func (s *Service) publishClient(ctx context.Context, typ string, c model.Client) {
	s.publish(ctx, s.clientsTopic, c.ID, messages.ClientChanged{
		Type:       typ,
		ClientID:   c.ID,
		CPF:        validation.NormalizeCPF(c.CPF),
		FullName:   c.FullName,
		OccurredAt: s.now().UTC(),
	})
}
