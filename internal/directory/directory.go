// Package directory resolves deposit and assistance references for the
// transition coordinator, with a bounded wait and an optional Redis
// read-through cache.
package directory

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/assistencia-service/internal/domain"
	"github.com/spec-kit/assistencia-service/internal/observability"
	"github.com/spec-kit/assistencia-service/internal/repository"
	apperrors "github.com/spec-kit/assistencia-service/pkg/util/errorutil"
)

const collaboratorName = "directory"

// Resolver looks up directory entries.
type Resolver interface {
	// Deposit resolves id, reporting a missing entry as a validation error on
	// field.
	Deposit(ctx context.Context, field, id string) (*domain.Deposit, error)
	Assistance(ctx context.Context, field, id string) (*domain.Assistance, error)
}

// Dependencies wires a directory resolver.
type Dependencies struct {
	Repo     repository.DirectoryRepository
	Cache    *redis.Client
	CacheTTL time.Duration
	Timeout  time.Duration
	Logger   *zap.Logger
	Metrics  *observability.Metrics
}

type resolver struct {
	repo     repository.DirectoryRepository
	cache    *redis.Client
	cacheTTL time.Duration
	timeout  time.Duration
	logger   *zap.Logger
	metrics  *observability.Metrics
}

// NewResolver builds a Resolver. A nil Cache disables caching.
func NewResolver(deps Dependencies) Resolver {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	ttl := deps.CacheTTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &resolver{
		repo:     deps.Repo,
		cache:    deps.Cache,
		cacheTTL: ttl,
		timeout:  deps.Timeout,
		logger:   logger,
		metrics:  deps.Metrics,
	}
}

func (r *resolver) Deposit(ctx context.Context, field, id string) (*domain.Deposit, error) {
	var dep domain.Deposit
	err := r.resolve(ctx, "deposito", field, id, &dep, func(ctx context.Context, id string) (any, error) {
		return r.repo.GetDeposit(ctx, id)
	})
	if err != nil {
		return nil, err
	}
	return &dep, nil
}

func (r *resolver) Assistance(ctx context.Context, field, id string) (*domain.Assistance, error) {
	var a domain.Assistance
	err := r.resolve(ctx, "assistencia", field, id, &a, func(ctx context.Context, id string) (any, error) {
		return r.repo.GetAssistance(ctx, id)
	})
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *resolver) resolve(ctx context.Context, kind, field, id string, dst any, load func(ctx context.Context, id string) (any, error)) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return apperrors.NewValidationError(field+" is required", map[string]any{"campo": field})
	}

	key := "assistencia:dir:" + kind + ":" + id
	if r.readCache(ctx, key, dst) {
		return nil
	}

	callCtx := ctx
	if r.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	found, err := load(callCtx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NewValidationError(kind+" not found", map[string]any{
				"campo": field,
				"id":    id,
			})
		}
		r.metrics.RecordCollaboratorFailure(collaboratorName)
		r.logger.Warn("directory lookup failed", zap.String("kind", kind), zap.String("id", id), zap.Error(err))
		return apperrors.NewCollaboratorError(collaboratorName, err)
	}

	raw, err := json.Marshal(found)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return apperrors.NewInternalError(err)
	}
	r.writeCache(ctx, key, raw)
	return nil
}

func (r *resolver) readCache(ctx context.Context, key string, dst any) bool {
	if r.cache == nil {
		return false
	}
	raw, err := r.cache.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			r.logger.Debug("directory cache read failed", zap.String("key", key), zap.Error(err))
		}
		return false
	}
	return json.Unmarshal(raw, dst) == nil
}

func (r *resolver) writeCache(ctx context.Context, key string, raw []byte) {
	if r.cache == nil {
		return
	}
	if err := r.cache.Set(ctx, key, raw, r.cacheTTL).Err(); err != nil {
		r.logger.Debug("directory cache write failed", zap.String("key", key), zap.Error(err))
	}
}
