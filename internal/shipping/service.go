package shipping

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/redis"
)

// Destination is the part of an address shipping cares about.
type Destination struct {
	City    string `json:"city"`
	State   string `json:"state"`
	Country string `json:"country"`
}

// Quote is the resolved per-line charge.
type Quote struct {
	PerItemCost int64 `json:"perItemCost"`
}

// Service quotes shipping for a destination.
type Service interface {
	Quote(ctx context.Context, dest Destination) (Quote, error)
}

type tableLoader interface {
	LoadTable(ctx context.Context) (RateTable, error)
}

type cacheStore interface {
	redis.KV
	ShippingRatesKey() string
}

// ServiceParams wires the shipping service.
type ServiceParams struct {
	Loader      tableLoader
	Cache       cacheStore
	CacheTTL    time.Duration
	DefaultCost int64
	Logger      *logger.Logger
}

type service struct {
	loader      tableLoader
	cache       cacheStore
	cacheTTL    time.Duration
	defaultCost int64
	logg        *logger.Logger
}

// NewService builds the quote service. Cache is optional.
func NewService(params ServiceParams) (Service, error) {
	if params.Loader == nil {
		return nil, errors.New("rate loader required")
	}
	if params.Logger == nil {
		return nil, errors.New("logger required")
	}
	defaultCost := params.DefaultCost
	if defaultCost <= 0 {
		defaultCost = DefaultCost
	}
	return &service{
		loader:      params.Loader,
		cache:       params.Cache,
		cacheTTL:    params.CacheTTL,
		defaultCost: defaultCost,
		logg:        params.Logger,
	}, nil
}

// Quote never fails on missing rate data; it degrades to the default cost.
func (s *service) Quote(ctx context.Context, dest Destination) (Quote, error) {
	table, err := s.table(ctx)
	if err != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{"state": dest.State, "city": dest.City})
		s.logg.Warn(s.logg.WithField(logCtx, "error", err.Error()), "shipping rates unavailable, using default cost")
		return Quote{PerItemCost: s.defaultCost}, nil
	}
	return Quote{PerItemCost: CostWithDefault(dest.City, dest.State, dest.Country, table, s.defaultCost)}, nil
}

func (s *service) table(ctx context.Context) (RateTable, error) {
	if s.cache != nil {
		if raw, err := s.cache.Get(ctx, s.cache.ShippingRatesKey()); err == nil {
			var cached RateTable
			if jsonErr := json.Unmarshal([]byte(raw), &cached); jsonErr == nil {
				return cached, nil
			}
		} else if !redis.IsNil(err) {
			s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "shipping cache read failed")
		}
	}

	table, err := s.loader.LoadTable(ctx)
	if err != nil {
		return nil, fmt.Errorf("load shipping rates: %w", err)
	}

	if s.cache != nil && s.cacheTTL > 0 {
		if encoded, err := json.Marshal(table); err == nil {
			if err := s.cache.Set(ctx, s.cache.ShippingRatesKey(), string(encoded), s.cacheTTL); err != nil {
				s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "shipping cache write failed")
			}
		}
	}
	return table, nil
}
