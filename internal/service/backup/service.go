package backup

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/zhouzirui/anchor/backend/internal/metrics"
	"github.com/zhouzirui/anchor/backend/internal/store"
)

const defaultPatchTimeout = 10 * time.Second

// Service 负责导出回忆，并在后台更新 backedUpAt。
type Service struct {
	store        store.Store
	logger       *zap.Logger
	metrics      *metrics.Collector
	now          func() time.Time
	patchTimeout time.Duration
	wg           sync.WaitGroup

	// OnPatched, when set, runs after every background patch attempt.
	OnPatched func(userID string, err error)
}

// NewService creates the backup job runner.
func NewService(s store.Store, logger *zap.Logger, m *metrics.Collector) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:        s,
		logger:       logger.Named("backup"),
		metrics:      m,
		now:          func() time.Time { return time.Now().UTC() },
		patchTimeout: defaultPatchTimeout,
	}
}

// WithClock overrides the timestamp source.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Backup exports the user's memories. The backedUpAt patch runs in the background;
// its failure is logged and never affects the returned export.
func (s *Service) Backup(ctx context.Context, userID string, format Format) (File, error) {
	memories, err := s.store.ListMemories(ctx, userID)
	if err != nil {
		return File{}, err
	}

	now := s.now()
	out, err := Export(memories, format, now)
	if err != nil {
		return File{}, err
	}
	s.metrics.ObserveExport(string(ParseFormat(string(format))))

	s.wg.Add(1)
	go s.patch(context.WithoutCancel(ctx), userID, now)

	s.logger.Info("memories exported",
		zap.String("user_id", userID),
		zap.String("format", string(format)),
		zap.Int("count", out.Count),
	)
	return out, nil
}

func (s *Service) patch(ctx context.Context, userID string, at time.Time) {
	defer s.wg.Done()

	ctx, cancel := context.WithTimeout(ctx, s.patchTimeout)
	defer cancel()

	err := s.store.PatchMemories(ctx, userID, store.MemoryPatch{BackedUpAt: at})
	if err != nil {
		s.metrics.ObservePatchFailure()
		s.logger.Warn("failed to mark memories as backed up", zap.String("user_id", userID), zap.Error(err))
	}
	if s.OnPatched != nil {
		s.OnPatched(userID, err)
	}
}

// Wait blocks until in-flight background patches finish.
func (s *Service) Wait() {
	s.wg.Wait()
}
