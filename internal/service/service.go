// Package service реализует бизнес-логику административной части JuEntregas.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mmeshcher/juentregas/internal/model"
)

// maxOrderNumberAttempts ограничивает число попыток сгенерировать свободный номер заказа.
const maxOrderNumberAttempts = 5

// Repository описывает контракт доступа к данным, используемый сервисом.
type Repository interface {
	Close() error
	ListClients(ctx context.Context) ([]model.Client, error)
	CreateClient(ctx context.Context, c model.Client) error
	UpdateClient(ctx context.Context, c model.Client) (*model.Client, error)
	DeleteClient(ctx context.Context, id string) (*model.Client, error)
	ListOrders(ctx context.Context) ([]model.Order, error)
	GetOrder(ctx context.Context, id string) (*model.Order, error)
	CreateOrder(ctx context.Context, o model.Order) (*model.Order, error)
	UpdateOrder(ctx context.Context, id string, details model.OrderDetails) (*model.Order, error)
	AppendEvent(ctx context.Context, orderID string, build func(o model.Order) model.Event) (*model.Order, error)
	DeleteOrder(ctx context.Context, id string) (*model.Order, error)
}

// Publisher отправляет события об изменениях во внешний брокер.
type Publisher interface {
	Publish(ctx context.Context, topic string, key, value []byte) error
}

// ViewInvalidator сбрасывает закэшированные представления отслеживания.
type ViewInvalidator interface {
	Invalidate(ctx context.Context, orderNumbers ...string)
}

// Options содержит необязательные зависимости сервиса.
type Options struct {
	Publisher    Publisher
	Invalidator  ViewInvalidator
	OrdersTopic  string
	ClientsTopic string
	Location     *time.Location

	// Переопределяются в тестах.
	Now            func() time.Time
	NewID          func() string
	NewOrderNumber func() string
}

// Service содержит бизнес-логику управления клиентами и заказами.
type Service struct {
	repo     Repository
	logger   *zap.Logger
	validate *validator.Validate

	publisher    Publisher
	invalidator  ViewInvalidator
	ordersTopic  string
	clientsTopic string
	location     *time.Location

	now            func() time.Time
	newID          func() string
	newOrderNumber func() string
}

// NewService создаёт сервис поверх указанного репозитория.
func NewService(repo Repository, logger *zap.Logger, opts Options) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Service{
		repo:           repo,
		logger:         logger,
		validate:       newValidator(),
		publisher:      opts.Publisher,
		invalidator:    opts.Invalidator,
		ordersTopic:    opts.OrdersTopic,
		clientsTopic:   opts.ClientsTopic,
		location:       opts.Location,
		now:            opts.Now,
		newID:          opts.NewID,
		newOrderNumber: opts.NewOrderNumber,
	}
	if s.location == nil {
		s.location = time.Local
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.newID == nil {
		s.newID = func() string { return uuid.NewString() }
	}
	if s.newOrderNumber == nil {
		s.newOrderNumber = GenerateOrderNumber
	}
	return s
}

// Close закрывает ресурсы сервиса.
func (s *Service) Close() error {
	if s.repo != nil {
		return s.repo.Close()
	}
	return nil
}

// GenerateOrderNumber возвращает номер вида "JE" и 8 случайных цифр.
func GenerateOrderNumber() string {
	return fmt.Sprintf("JE%08d", rand.IntN(100_000_000))
}

// Dashboard возвращает сводку по клиентам и заказам.
func (s *Service) Dashboard(ctx context.Context) (*model.Dashboard, error) {
	clients, err := s.repo.ListClients(ctx)
	if err != nil {
		return nil, err
	}
	orders, err := s.repo.ListOrders(ctx)
	if err != nil {
		return nil, err
	}

	byStatus := make(map[model.OrderStatus]int, len(model.OrderStatuses))
	for _, st := range model.OrderStatuses {
		byStatus[st] = 0
	}
	for _, o := range orders {
		byStatus[o.CurrentStatus]++
	}

	return &model.Dashboard{
		Clients:        len(clients),
		Orders:         len(orders),
		OrdersByStatus: byStatus,
	}, nil
}

// localDateTime возвращает текущие дату и время в формате pt-BR.
func (s *Service) localDateTime() (string, string) {
	t := s.now().In(s.location)
	return t.Format("02/01/2006"), t.Format("15:04")
}

func (s *Service) publish(ctx context.Context, topic, key string, msg any) {
	if s.publisher == nil || topic == "" {
		return
	}
	b, err := json.Marshal(msg)
	if err != nil {
		s.logger.Warn("marshal change event failed", zap.Error(err), zap.String("topic", topic))
		return
	}
	if err := s.publisher.Publish(ctx, topic, []byte(key), b); err != nil {
		s.logger.Warn("publish change event failed", zap.Error(err), zap.String("topic", topic), zap.String("key", key))
	}
}

func (s *Service) invalidate(ctx context.Context, orderNumbers ...string) {
	if s.invalidator == nil || len(orderNumbers) == 0 {
		return
	}
	s.invalidator.Invalidate(ctx, orderNumbers...)
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// missingFields возвращает имена полей, не прошедших проверку required.
func missingFields(err error) []string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fe.Field())
	}
	return fields
}
