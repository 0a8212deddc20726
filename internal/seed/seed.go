// Package seed загружает демонстрационные данные в хранилище.
package seed

import (
	"context"
	_ "embed"
	"fmt"

	"go.yaml.in/yaml/v4"

	"github.com/mmeshcher/juentregas/internal/model"
)

//go:embed demo.yaml
var demoYAML []byte

// Store описывает часть репозитория, через которую загружаются данные.
type Store interface {
	CreateClient(ctx context.Context, c model.Client) error
	CreateOrder(ctx context.Context, o model.Order) (*model.Order, error)
}

// Dataset содержит набор клиентов и заказов.
type Dataset struct {
	Clients []model.Client `yaml:"clients"`
	Orders  []model.Order  `yaml:"orders"`
}

// Parse разбирает набор данных из YAML.
func Parse(data []byte) (*Dataset, error) {
	var ds Dataset
	if err := yaml.Unmarshal(data, &ds); err != nil {
		return nil, fmt.Errorf("parse dataset: %w", err)
	}
	return &ds, nil
}

// Demo возвращает встроенный демонстрационный набор.
func Demo() (*Dataset, error) {
	return Parse(demoYAML)
}

// Load сохраняет набор в хранилище. Клиенты загружаются раньше заказов,
// ограничения уникальности проверяет само хранилище.
func Load(ctx context.Context, store Store, ds *Dataset) error {
	for _, c := range ds.Clients {
		if err := store.CreateClient(ctx, c); err != nil {
			return fmt.Errorf("seed client %s: %w", c.ID, err)
		}
	}
	for _, o := range ds.Orders {
		if _, err := store.CreateOrder(ctx, o); err != nil {
			return fmt.Errorf("seed order %s: %w", o.OrderNumber, err)
		}
	}
	return nil
}
