package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/mmeshcher/juentregas/internal/broker/messages"
	"github.com/mmeshcher/juentregas/internal/model"
	"github.com/mmeshcher/juentregas/internal/repository"
)

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, topic string, key, value []byte) error {
	args := m.Called(ctx, topic, key, value)
	return args.Error(0)
}

type mockInvalidator struct {
	mock.Mock
}

func (m *mockInvalidator) Invalidate(ctx context.Context, orderNumbers ...string) {
	m.Called(ctx, orderNumbers)
}

type ServiceSuite struct {
	suite.Suite

	repo        *repository.MemoryRepository
	publisher   *mockPublisher
	invalidator *mockInvalidator
	svc         *Service
}

func (s *ServiceSuite) SetupTest() {
	s.repo = repository.NewMemoryRepository()
	s.publisher = &mockPublisher{}
	s.invalidator = &mockInvalidator{}
	s.svc = NewService(s.repo, nil, Options{
		Publisher:      s.publisher,
		Invalidator:    s.invalidator,
		OrdersTopic:    "orders",
		ClientsTopic:   "clients",
		Location:       time.UTC,
		Now:            func() time.Time { return fixedNow },
		NewOrderNumber: func() string { return "JE12345678" },
	})
}

func (s *ServiceSuite) addClientAndOrder() (*model.Client, *model.Order) {
	s.publisher.On("Publish", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil).Twice()

	c, err := s.svc.AddClient(context.Background(), ClientInput{FullName: "Larissa", CPF: "123.456.789-00"})
	s.Require().NoError(err)
	o, err := s.svc.AddOrder(context.Background(), validOrderInput(c.CPF))
	s.Require().NoError(err)
	return c, o
}

func (s *ServiceSuite) TestAddClient_PublishesCreated() {
	var payload []byte
	s.publisher.On("Publish", mock.Anything, "clients", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { payload = args.Get(3).([]byte) }).
		Return(nil).
		Once()

	c, err := s.svc.AddClient(context.Background(), ClientInput{FullName: "Larissa", CPF: "12345678900"})
	s.Require().NoError(err)
	s.publisher.AssertExpectations(s.T())

	var msg messages.ClientChanged
	s.Require().NoError(json.Unmarshal(payload, &msg))
	s.Require().Equal(messages.ClientCreated, msg.Type)
	s.Require().Equal(c.ID, msg.ClientID)
	s.Require().Equal("12345678900", msg.CPF)
}

func (s *ServiceSuite) TestAddClient_InvalidDoesNotPublish() {
	_, err := s.svc.AddClient(context.Background(), ClientInput{FullName: "Larissa", CPF: "123"})
	s.Require().Error(err)
	s.publisher.AssertNotCalled(s.T(), "Publish", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (s *ServiceSuite) TestPublishFailure_DoesNotFailMutation() {
	s.publisher.On("Publish", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(errors.New("broker down")).
		Once()

	_, err := s.svc.AddClient(context.Background(), ClientInput{FullName: "Larissa", CPF: "12345678900"})
	s.Require().NoError(err)

	clients, _ := s.svc.ListClients(context.Background())
	s.Require().Len(clients, 1)
}

func (s *ServiceSuite) TestAddOrder_PublishesCreatedWithEvent() {
	s.addClientAndOrder()

	var msg messages.OrderChanged
	for _, call := range s.publisher.Calls {
		if call.Arguments.String(1) == "orders" {
			s.Require().NoError(json.Unmarshal(call.Arguments.Get(3).([]byte), &msg))
		}
	}
	s.Require().Equal(messages.OrderCreated, msg.Type)
	s.Require().Equal("JE12345678", msg.OrderNumber)
	s.Require().NotNil(msg.Event)
	s.Require().Equal(model.IconPackage, msg.Event.Icon)
	s.invalidator.AssertNotCalled(s.T(), "Invalidate", mock.Anything, mock.Anything)
}

func (s *ServiceSuite) TestUpdateOrder_InvalidatesView() {
	_, o := s.addClientAndOrder()

	s.invalidator.On("Invalidate", mock.Anything, []string{o.OrderNumber}).Once()
	s.publisher.On("Publish", mock.Anything, "orders", []byte(o.ID), mock.Anything).Return(nil).Once()

	in := validOrderInput("")
	in.CurrentStatus = model.OrderStatusInTransit
	_, err := s.svc.UpdateOrder(context.Background(), o.ID, in)
	s.Require().NoError(err)

	s.invalidator.AssertExpectations(s.T())
	s.publisher.AssertExpectations(s.T())
}

func (s *ServiceSuite) TestAppendEvent_InvalidatesView() {
	_, o := s.addClientAndOrder()

	s.invalidator.On("Invalidate", mock.Anything, []string{o.OrderNumber}).Once()
	s.publisher.On("Publish", mock.Anything, "orders", mock.Anything, mock.Anything).Return(nil).Once()

	_, err := s.svc.AppendEvent(context.Background(), o.ID, "Encomenda em transporte.")
	s.Require().NoError(err)
	s.invalidator.AssertExpectations(s.T())
}

func (s *ServiceSuite) TestAppendEvent_EmptyDescription_NoSideEffects() {
	_, o := s.addClientAndOrder()

	_, err := s.svc.AppendEvent(context.Background(), o.ID, "")
	s.Require().Error(err)
	s.invalidator.AssertNotCalled(s.T(), "Invalidate", mock.Anything, mock.Anything)

	got, err := s.svc.GetOrder(context.Background(), o.ID)
	s.Require().NoError(err)
	s.Require().Len(got.Events, 1)
}

func (s *ServiceSuite) TestUpdateClient_InvalidatesOrdersOfOldAndNewCPF() {
	c, o := s.addClientAndOrder()

	s.invalidator.On("Invalidate", mock.Anything, []string{o.OrderNumber}).Once()
	s.publisher.On("Publish", mock.Anything, "clients", mock.Anything, mock.Anything).Return(nil).Once()

	_, err := s.svc.UpdateClient(context.Background(), c.ID, ClientInput{FullName: "Larissa H.", CPF: "999.999.999-99"})
	s.Require().NoError(err)
	s.invalidator.AssertExpectations(s.T())
}

func (s *ServiceSuite) TestDeleteClient_InvalidatesOrders() {
	c, o := s.addClientAndOrder()

	s.invalidator.On("Invalidate", mock.Anything, []string{o.OrderNumber}).Once()
	s.publisher.On("Publish", mock.Anything, "clients", mock.Anything, mock.Anything).Return(nil).Once()

	s.Require().NoError(s.svc.DeleteClient(context.Background(), c.ID))
	s.invalidator.AssertExpectations(s.T())
}

func (s *ServiceSuite) TestDeleteOrder_InvalidatesView() {
	_, o := s.addClientAndOrder()

	s.invalidator.On("Invalidate", mock.Anything, []string{o.OrderNumber}).Once()
	s.publisher.On("Publish", mock.Anything, "orders", mock.Anything, mock.Anything).Return(nil).Once()

	s.Require().NoError(s.svc.DeleteOrder(context.Background(), o.ID))
	s.invalidator.AssertExpectations(s.T())
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}
