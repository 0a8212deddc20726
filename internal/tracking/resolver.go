// Package tracking реализует публичный поиск заказа по номеру для страницы отслеживания.
package tracking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mmeshcher/juentregas/internal/apperr"
	"github.com/mmeshcher/juentregas/internal/cache"
	"github.com/mmeshcher/juentregas/internal/model"
	"github.com/mmeshcher/juentregas/internal/repository"
	"github.com/mmeshcher/juentregas/internal/validation"
)

// PhoneNotInformed подставляется вместо пустого телефона получателя.
const PhoneNotInformed = "Não informado"

// Store описывает чтение данных, нужное для поиска.
type Store interface {
	GetOrderByNumber(ctx context.Context, number string) (*model.Order, error)
	GetClientByCPF(ctx context.Context, cpf string) (*model.Client, error)
}

// Resolver находит заказ и его владельца и собирает TrackingView.
// Хранилище он только читает.
type Resolver struct {
	store    Store
	cache    cache.BytesCache
	cacheTTL time.Duration
	delay    time.Duration
	logger   *zap.Logger
	after    func(time.Duration) <-chan time.Time

	// generations растёт при каждом Invalidate номера. Представление,
	// собранное до инвалидации, в кэш не записывается.
	mu          sync.Mutex
	generations map[string]uint64
}

// NewResolver создаёт Resolver. Кэш отключён, если c == nil или cacheTTL <= 0.
// delay имитирует задержку реального поиска перед обращением к хранилищу.
func NewResolver(store Store, c cache.BytesCache, cacheTTL, delay time.Duration, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{
		store:    store,
		cache:    c,
		cacheTTL: cacheTTL,
		delay:    delay,
		logger:      logger,
		after:       time.After,
		generations: make(map[string]uint64),
	}
}

// Resolve ищет заказ по номеру без учёта регистра и окружающих пробелов.
func (r *Resolver) Resolve(ctx context.Context, input string) (*model.TrackingView, error) {
	if strings.TrimSpace(input) == "" {
		return nil, apperr.New(apperr.ErrEmptyInput,
			"Por favor, digite o número do pedido para rastrear a encomenda.")
	}
	number := validation.NormalizeOrderNumber(input)

	if v, ok := r.cached(ctx, number); ok {
		return v, nil
	}

	gen := r.generation(number)

	if r.delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-r.after(r.delay):
		}
	}

	order, err := r.store.GetOrderByNumber(ctx, number)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return nil, apperr.Wrap(apperr.ErrOrderNotFound, fmt.Sprintf(
				"Nenhum pedido com o número \"%s\" foi encontrado. Verifique o número e tente novamente.", input), err)
		}
		return nil, fmt.Errorf("get order by number: %w", err)
	}

	client, err := r.store.GetClientByCPF(ctx, order.ClientID)
	if err != nil {
		if errors.Is(err, repository.ErrClientNotFound) {
			return nil, apperr.Wrap(apperr.ErrClientDataMissing,
				"Pedido encontrado, mas os dados do cliente associado estão ausentes.", err)
		}
		return nil, fmt.Errorf("get client by cpf: %w", err)
	}

	view := BuildView(*order, *client)
	r.remember(ctx, number, gen, view)
	return view, nil
}

// Invalidate удаляет из кэша представления указанных заказов.
func (r *Resolver) Invalidate(ctx context.Context, orderNumbers ...string) {
	if !r.cacheEnabled() || len(orderNumbers) == 0 {
		return
	}
	keys := make([]string, 0, len(orderNumbers))
	r.mu.Lock()
	for _, n := range orderNumbers {
		n = validation.NormalizeOrderNumber(n)
		r.generations[n]++
		keys = append(keys, viewKey(n))
	}
	r.mu.Unlock()

	if err := r.cache.Delete(ctx, keys...); err != nil {
		r.logger.Warn("tracking cache invalidation failed", zap.Error(err), zap.Strings("orders", orderNumbers))
	}
}

// BuildView проецирует заказ и клиента в публичное представление.
func BuildView(o model.Order, c model.Client) *model.TrackingView {
	phone := c.Phone
	if phone == "" {
		phone = PhoneNotInformed
	}
	events := append([]model.Event{}, o.Events...)

	return &model.TrackingView{
		OrderNumber:       o.OrderNumber,
		Status:            o.CurrentStatus,
		StatusColor:       model.StatusColor(o.CurrentStatus),
		Recipient:         c.FullName,
		Phone:             phone,
		Origin:            o.CollectionAddress,
		Destination:       o.DeliveryAddress,
		EstimatedDelivery: o.EstimatedDeliveryDate,
		Weight:            o.Weight,
		Type:              model.PackageTypeLabel(o.PackageType),
		Observations:      o.Observations,
		Events:            events,
	}
}

func (r *Resolver) cacheEnabled() bool {
	return r.cache != nil && r.cacheTTL > 0
}

func (r *Resolver) cached(ctx context.Context, number string) (*model.TrackingView, bool) {
	if !r.cacheEnabled() {
		return nil, false
	}
	b, ok, err := r.cache.Get(ctx, viewKey(number))
	if err != nil {
		r.logger.Warn("tracking cache get failed", zap.Error(err), zap.String("order", number))
		return nil, false
	}
	if !ok {
		return nil, false
	}
	var v model.TrackingView
	if err := json.Unmarshal(b, &v); err != nil {
		return nil, false
	}
	return &v, true
}

func (r *Resolver) remember(ctx context.Context, number string, gen uint64, v *model.TrackingView) {
	if !r.cacheEnabled() || r.generation(number) != gen {
		return
	}
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	key := viewKey(number)
	if err := r.cache.Set(ctx, key, b, r.cacheTTL); err != nil {
		r.logger.Warn("tracking cache set failed", zap.Error(err), zap.String("order", number))
		return
	}
	// Invalidate мог пройти между проверкой и записью.
	if r.generation(number) != gen {
		if err := r.cache.Delete(ctx, key); err != nil {
			r.logger.Warn("tracking cache delete failed", zap.Error(err), zap.String("order", number))
		}
	}
}

func (r *Resolver) generation(number string) uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.generations[number]
}

func viewKey(number string) string {
	return fmt.Sprintf("tracking:%s:view", number)
}
