package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/fieldops/fieldops-api/internal/models"
	appErrors "github.com/fieldops/fieldops-api/pkg/errors"
)

const dashboardCacheKey = "fieldops:dashboard:summary"

type caseCounter interface {
	CountByStatus(ctx context.Context) (map[models.CaseStatus]int64, error)
}

type interventionCounter interface {
	CountByStatus(ctx context.Context) (map[models.InterventionStatus]int64, error)
}

type reviewCounter interface {
	CountOpenByQueue(ctx context.Context) (map[models.ReviewQueue]int64, error)
}

type proposalCounter interface {
	CountPendingProposals(ctx context.Context) (int64, error)
}

// DashboardSummary is the office landing-page payload.
type DashboardSummary struct {
	CasesByStatus         map[models.CaseStatus]int64         `json:"casesByStatus"`
	InterventionsByStatus map[models.InterventionStatus]int64 `json:"interventionsByStatus"`
	OpenReviewsByQueue    map[models.ReviewQueue]int64        `json:"openReviewsByQueue"`
	PendingProposals      int64                               `json:"pendingProposals"`
	GeneratedAt           time.Time                           `json:"generatedAt"`
}

// DashboardService aggregates workflow counters, cached in redis for the
// configured TTL. Workflow writes invalidate the cached summary best-effort.
type DashboardService struct {
	cases         caseCounter
	interventions interventionCounter
	reviews       reviewCounter
	proposals     proposalCounter
	redis         *redis.Client
	ttl           time.Duration
	logger        *zap.Logger
}

// NewDashboardService constructs the service; redis may be nil, which
// disables caching.
func NewDashboardService(cases caseCounter, interventions interventionCounter, reviews reviewCounter, proposals proposalCounter, redisClient *redis.Client, ttl time.Duration, logger *zap.Logger) *DashboardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &DashboardService{
		cases:         cases,
		interventions: interventions,
		reviews:       reviews,
		proposals:     proposals,
		redis:         redisClient,
		ttl:           ttl,
		logger:        logger,
	}
}

// Summary returns the cached dashboard payload, rebuilding it on miss.
func (s *DashboardService) Summary(ctx context.Context) (*DashboardSummary, error) {
	if s.redis != nil {
		payload, err := s.redis.Get(ctx, dashboardCacheKey).Bytes()
		if err == nil {
			var summary DashboardSummary
			if unmarshalErr := json.Unmarshal(payload, &summary); unmarshalErr == nil {
				return &summary, nil
			}
		} else if err != redis.Nil {
			s.logger.Warn("dashboard cache read failed", zap.Error(err))
		}
	}

	summary, err := s.build(ctx)
	if err != nil {
		return nil, err
	}

	if s.redis != nil {
		if payload, err := json.Marshal(summary); err == nil {
			if err := s.redis.Set(ctx, dashboardCacheKey, payload, s.ttl).Err(); err != nil {
				s.logger.Warn("dashboard cache write failed", zap.Error(err))
			}
		}
	}
	return summary, nil
}

// Invalidate drops the cached summary. Failures are logged, never surfaced:
// a stale dashboard is preferable to a failed workflow write.
func (s *DashboardService) Invalidate(ctx context.Context) {
	if s.redis == nil {
		return
	}
	if err := s.redis.Del(ctx, dashboardCacheKey).Err(); err != nil {
		s.logger.Warn("dashboard cache invalidation failed", zap.Error(err))
	}
}

func (s *DashboardService) build(ctx context.Context) (*DashboardSummary, error) {
	caseCounts, err := s.cases.CountByStatus(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count cases")
	}
	interventionCounts, err := s.interventions.CountByStatus(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count interventions")
	}
	reviewCounts, err := s.reviews.CountOpenByQueue(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count review items")
	}
	pendingProposals, err := s.proposals.CountPendingProposals(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count pending proposals")
	}

	return &DashboardSummary{
		CasesByStatus:         caseCounts,
		InterventionsByStatus: interventionCounts,
		OpenReviewsByQueue:    reviewCounts,
		PendingProposals:      pendingProposals,
		GeneratedAt:           time.Now().UTC(),
	}, nil
}

// WorkflowObserver bridges workflow services to metrics and the dashboard
// cache. Either side may be nil.
type WorkflowObserver struct {
	Metrics   *MetricsService
	Dashboard *DashboardService
}

// Transition records a workflow transition counter.
func (o *WorkflowObserver) Transition(entity, status string) {
	if o.Metrics != nil {
		o.Metrics.RecordTransition(entity, status)
	}
}

// Invalidate drops the cached dashboard summary.
func (o *WorkflowObserver) Invalidate(ctx context.Context) {
	if o.Dashboard != nil {
		o.Dashboard.Invalidate(ctx)
	}
}
