package tracking

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmeshcher/juentregas/internal/apperr"
	"github.com/mmeshcher/juentregas/internal/model"
	"github.com/mmeshcher/juentregas/internal/repository"
)

func newStore(t *testing.T) *repository.MemoryRepository {
	t.Helper()

	r := repository.NewMemoryRepository()
	ctx := context.Background()
	require.NoError(t, r.CreateClient(ctx, model.Client{
		ID:       "c1",
		FullName: "Larissa Hellen Calinski",
		CPF:      "12345678900",
	}))
	_, err := r.CreateOrder(ctx, model.Order{
		ID:          "o1",
		ClientID:    "12345678900",
		OrderNumber: "JE98765432",
		OrderDetails: model.OrderDetails{
			CurrentStatus:   model.OrderStatusInTransit,
			PackageType:     model.PackageTypeRefrigerated,
			DeliveryAddress: "Getúlio Vargas, 20 - Centro, Irati - SC",
		},
		Events: []model.Event{
			{ID: "e1", Status: model.OrderStatusCreated, Icon: model.IconPackage, Completed: true},
			{ID: "e2", Status: model.OrderStatusOutForDelivery, Icon: model.IconMapPin, Completed: false},
		},
	})
	require.NoError(t, err)
	return r
}

type fakeCache struct {
	m       map[string][]byte
	deleted []string
}

func (c *fakeCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	b, ok := c.m[key]
	return b, ok, nil
}

func (c *fakeCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	c.m[key] = value
	return nil
}

func (c *fakeCache) Delete(ctx context.Context, keys ...string) error {
	for _, k := range keys {
		delete(c.m, k)
	}
	c.deleted = append(c.deleted, keys...)
	return nil
}

func TestResolve_CaseInsensitive(t *testing.T) {
	res := NewResolver(newStore(t), nil, 0, 0, nil)

	v, err := res.Resolve(context.Background(), "  je98765432 ")
	require.NoError(t, err)
	assert.Equal(t, "JE98765432", v.OrderNumber)
	assert.Equal(t, "Larissa Hellen Calinski", v.Recipient)
	assert.Equal(t, model.OrderStatusInTransit, v.Status)
	assert.Equal(t, "blue", v.StatusColor)
	assert.Equal(t, PhoneNotInformed, v.Phone)
	assert.Equal(t, "Encomenda Refrigerada", v.Type)
	require.Len(t, v.Events, 2)
	assert.Equal(t, "e1", v.Events[0].ID)
	assert.False(t, v.Events[1].Completed)
}

func TestResolve_Errors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		kind    error
		message string
	}{
		{name: "empty", input: "   ", kind: apperr.ErrEmptyInput},
		{name: "not found echoes literal input", input: "JE00000000", kind: apperr.ErrOrderNotFound, message: "JE00000000"},
		{name: "not found keeps original case", input: " je0000 ", kind: apperr.ErrOrderNotFound, message: " je0000 "},
		{name: "not found keeps quotes", input: `JE"123`, kind: apperr.ErrOrderNotFound, message: `"JE"123"`},
		{name: "not found keeps backslash", input: `JE\1`, kind: apperr.ErrOrderNotFound, message: `"JE\1"`},
		{name: "not found keeps tab", input: "JE\t1", kind: apperr.ErrOrderNotFound, message: "\"JE\t1\""},
	}

	res := NewResolver(newStore(t), nil, 0, 0, nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := res.Resolve(context.Background(), tt.input)
			require.ErrorIs(t, err, tt.kind)
			if tt.message != "" {
				assert.Contains(t, err.Error(), tt.message)
				assert.Contains(t, apperr.Message(err), tt.message)
			}
		})
	}
}

func TestResolve_ClientDataMissing(t *testing.T) {
	store := newStore(t)
	_, err := store.DeleteClient(context.Background(), "c1")
	require.NoError(t, err)

	res := NewResolver(store, nil, 0, 0, nil)
	_, err = res.Resolve(context.Background(), "JE98765432")
	require.ErrorIs(t, err, apperr.ErrClientDataMissing)
	assert.NotErrorIs(t, err, apperr.ErrOrderNotFound)
}

func TestResolve_DoesNotMutateStore(t *testing.T) {
	store := newStore(t)
	res := NewResolver(store, nil, 0, 0, nil)

	v, err := res.Resolve(context.Background(), "JE98765432")
	require.NoError(t, err)
	v.Events[0].Description = "changed"

	o, _ := store.GetOrder(context.Background(), "o1")
	assert.Empty(t, o.Events[0].Description)
}

func TestResolve_DelayHonoursContext(t *testing.T) {
	res := NewResolver(newStore(t), nil, 0, time.Hour, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := res.Resolve(ctx, "JE98765432")
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestResolve_WaitsForDelay(t *testing.T) {
	res := NewResolver(newStore(t), nil, 0, time.Second, nil)
	var waited time.Duration
	res.after = func(d time.Duration) <-chan time.Time {
		waited = d
		ch := make(chan time.Time, 1)
		ch <- time.Now()
		return ch
	}

	_, err := res.Resolve(context.Background(), "JE98765432")
	require.NoError(t, err)
	assert.Equal(t, time.Second, waited)
}

func TestResolve_CacheRoundTripAndInvalidate(t *testing.T) {
	c := &fakeCache{m: map[string][]byte{}}
	res := NewResolver(newStore(t), c, time.Minute, 0, nil)

	_, err := res.Resolve(context.Background(), "je98765432")
	require.NoError(t, err)
	require.Contains(t, c.m, "tracking:JE98765432:view")

	stale := model.TrackingView{OrderNumber: "JE98765432", Recipient: "cached"}
	b, _ := json.Marshal(stale)
	c.m["tracking:JE98765432:view"] = b

	v, err := res.Resolve(context.Background(), "JE98765432")
	require.NoError(t, err)
	assert.Equal(t, "cached", v.Recipient)

	res.Invalidate(context.Background(), "je98765432")
	assert.Equal(t, []string{"tracking:JE98765432:view"}, c.deleted)

	v, err = res.Resolve(context.Background(), "JE98765432")
	require.NoError(t, err)
	assert.Equal(t, "Larissa Hellen Calinski", v.Recipient)
}

func TestInvalidate_NoCache(t *testing.T) {
	res := NewResolver(newStore(t), nil, 0, 0, nil)
	res.Invalidate(context.Background(), "JE98765432")
}

// mutatingStore меняет заказ между чтением заказа и чтением клиента.
type mutatingStore struct {
	*repository.MemoryRepository
	mutate func()
}

func (s *mutatingStore) GetClientByCPF(ctx context.Context, cpf string) (*model.Client, error) {
	if s.mutate != nil {
		s.mutate()
		s.mutate = nil
	}
	return s.MemoryRepository.GetClientByCPF(ctx, cpf)
}

func TestResolve_InvalidateDuringLookupDropsStaleView(t *testing.T) {
	ctx := context.Background()
	repo := newStore(t)
	store := &mutatingStore{MemoryRepository: repo}
	c := &fakeCache{m: map[string][]byte{}}
	res := NewResolver(store, c, time.Minute, 0, nil)

	store.mutate = func() {
		o, err := repo.GetOrder(ctx, "o1")
		require.NoError(t, err)
		details := o.OrderDetails
		details.CurrentStatus = model.OrderStatusDelivered
		_, err = repo.UpdateOrder(ctx, "o1", details)
		require.NoError(t, err)
		res.Invalidate(ctx, "JE98765432")
	}

	v, err := res.Resolve(ctx, "JE98765432")
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusInTransit, v.Status)
	assert.NotContains(t, c.m, "tracking:JE98765432:view")

	v, err = res.Resolve(ctx, "JE98765432")
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusDelivered, v.Status)
	assert.Contains(t, c.m, "tracking:JE98765432:view")
}

// invalidatingCache вызывает Invalidate сразу после записи представления.
type invalidatingCache struct {
	fakeCache
	onSet func()
}

func (c *invalidatingCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	_ = c.fakeCache.Set(ctx, key, value, ttl)
	if c.onSet != nil {
		f := c.onSet
		c.onSet = nil
		f()
	}
	return nil
}

func TestResolve_InvalidateRacingCacheWrite(t *testing.T) {
	ctx := context.Background()
	c := &invalidatingCache{fakeCache: fakeCache{m: map[string][]byte{}}}
	res := NewResolver(newStore(t), c, time.Minute, 0, nil)

	var generationBumped bool
	c.onSet = func() {
		res.mu.Lock()
		res.generations["JE98765432"]++
		res.mu.Unlock()
		generationBumped = true
	}

	_, err := res.Resolve(ctx, "JE98765432")
	require.NoError(t, err)
	require.True(t, generationBumped)
	assert.NotContains(t, c.m, "tracking:JE98765432:view")
}
