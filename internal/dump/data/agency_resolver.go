package data

import (
	"context"
	"encoding/json"
	"time"

	"github.com/lk2023060901/rrdump/internal/dump/types"
	apperrors "github.com/lk2023060901/rrdump/internal/pkg/errors"
	"github.com/lk2023060901/rrdump/internal/pkg/logger"
	"github.com/lk2023060901/rrdump/internal/pkg/recorddump"
	"github.com/lk2023060901/rrdump/internal/pkg/redis"
	"go.uber.org/zap"
)

// agencyCachePrefix 机构列表缓存键前缀, 后接服务地址
const agencyCachePrefix = "rrdump:agencies:"

// DefaultAgencyCacheTTL 机构列表缓存时间
const DefaultAgencyCacheTTL = time.Hour

// AgencyResolver 获取记录服务已知的全部机构
type AgencyResolver struct {
	client *recorddump.Client
	cache  *redis.Client
	ttl    time.Duration
	logger *logger.Logger
}

// NewAgencyResolver 创建机构解析器, cache 为 nil 时不使用缓存
func NewAgencyResolver(client *recorddump.Client, cache *redis.Client, ttl time.Duration, log *logger.Logger) *AgencyResolver {
	if ttl <= 0 {
		ttl = DefaultAgencyCacheTTL
	}
	if log == nil {
		log = logger.Nop()
	}
	return &AgencyResolver{
		client: client,
		cache:  cache,
		ttl:    ttl,
		logger: log.Named("agencies"),
	}
}

// ListAgencies 返回排序后的机构列表, 不含汇总机构 191919.
// 缓存读写失败只记录日志, 以服务端结果为准.
func (r *AgencyResolver) ListAgencies(ctx context.Context) ([]int, error) {
	log := r.logger.WithContext(ctx)
	key := agencyCachePrefix + r.client.BaseURL()

	if agencies, ok := r.fromCache(ctx, log, key); ok {
		log.Debug("agency list served from cache",
			zap.String("key", key),
			zap.Int("count", len(agencies)),
		)
		return agencies, nil
	}

	all, err := r.client.ListAgencies(ctx)
	if err != nil {
		return nil, apperrors.NewAgencyResolverError(err)
	}

	agencies := types.WithoutAggregate(all)
	if len(agencies) == 0 {
		return nil, apperrors.NewAgencyResolverError(recorddump.ErrEmptyResponse)
	}

	r.toCache(ctx, log, key, agencies)

	log.Info("agency list resolved", zap.Int("count", len(agencies)))
	return agencies, nil
}

func (r *AgencyResolver) fromCache(ctx context.Context, log *logger.Logger, key string) ([]int, bool) {
	if r.cache == nil {
		return nil, false
	}

	raw, err := r.cache.Get(ctx, key)
	if err != nil {
		if !redis.IsNil(err) {
			log.Warn("agency cache read failed", zap.Error(err))
		}
		return nil, false
	}

	var agencies []int
	if err := json.Unmarshal([]byte(raw), &agencies); err != nil || len(agencies) == 0 {
		log.Warn("agency cache entry ignored", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	return types.WithoutAggregate(agencies), true
}

func (r *AgencyResolver) toCache(ctx context.Context, log *logger.Logger, key string, agencies []int) {
	if r.cache == nil {
		return
	}

	data, err := json.Marshal(agencies)
	if err != nil {
		log.Warn("agency cache encode failed", zap.Error(err))
		return
	}
	if err := r.cache.Set(ctx, key, data, r.ttl); err != nil {
		log.Warn("agency cache write failed", zap.Error(err))
	}
}
