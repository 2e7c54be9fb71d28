// Package search keeps each customer's recent search terms in Redis.
package search

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/redis"
)

const (
	defaultLimit  = 10
	maxTermLength = 100
)

type termStore interface {
	redis.KV
	RecentSearchKey(userID string) string
}

// Service records and lists recent searches.
type Service interface {
	Record(ctx context.Context, userID, term string) ([]string, error)
	List(ctx context.Context, userID string) ([]string, error)
	Clear(ctx context.Context, userID string) error
}

type service struct {
	kv    termStore
	limit int
	ttl   time.Duration
}

// NewService builds the recent-search service. limit <= 0 uses the default of 10.
func NewService(kv termStore, limit int, ttl time.Duration) (Service, error) {
	if kv == nil {
		return nil, errors.New("redis store required")
	}
	if limit <= 0 {
		limit = defaultLimit
	}
	return &service{kv: kv, limit: limit, ttl: ttl}, nil
}

// Record moves term to the front, dropping any case-insensitive duplicate,
// and keeps at most limit entries.
func (s *service) Record(ctx context.Context, userID, term string) ([]string, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "search term is required")
	}
	if utf8.RuneCountInString(term) > maxTermLength {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "search term must be at most %d characters", maxTermLength)
	}
	current, err := s.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	next := Push(current, term, s.limit)
	encoded, err := json.Marshal(next)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode recent searches")
	}
	if err := s.kv.Set(ctx, s.kv.RecentSearchKey(userID), string(encoded), s.ttl); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save recent searches")
	}
	return next, nil
}

func (s *service) List(ctx context.Context, userID string) ([]string, error) {
	raw, err := s.kv.Get(ctx, s.kv.RecentSearchKey(userID))
	if err != nil {
		if redis.IsNil(err) {
			return []string{}, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load recent searches")
	}
	var terms []string
	if err := json.Unmarshal([]byte(raw), &terms); err != nil {
		// a corrupt entry is treated as empty and overwritten on next Record
		return []string{}, nil
	}
	return terms, nil
}

func (s *service) Clear(ctx context.Context, userID string) error {
	if err := s.kv.Del(ctx, s.kv.RecentSearchKey(userID)); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear recent searches")
	}
	return nil
}

// Push returns terms with term at the front, case-insensitive duplicates
// removed and the result capped at limit.
func Push(terms []string, term string, limit int) []string {
	out := make([]string, 0, limit)
	out = append(out, term)
	for _, existing := range terms {
		if len(out) >= limit {
			break
		}
		if strings.EqualFold(existing, term) {
			continue
		}
		out = append(out, existing)
	}
	return out
}
