package worker

import (
	"context"
	"errors"
	"time"

	"github.com/b2b-portale/internal/config"
	"github.com/b2b-portale/internal/logger"
	"github.com/b2b-portale/internal/queue"

	"github.com/hibiken/asynq"
)

const defaultReviewInviteScanInterval = time.Hour

// Service 异步队列服务
type Service struct {
	name      string
	server    *asynq.Server
	mux       *asynq.ServeMux
	consumer  *Consumer
	scanEvery time.Duration
}

// NewService 创建异步队列服务
func NewService(cfg *config.Config, consumer *Consumer) (*Service, error) {
	if cfg == nil || !cfg.Queue.Enabled {
		return nil, errors.New("queue disabled")
	}
	if consumer == nil {
		return nil, errors.New("consumer is nil")
	}
	opt, serverCfg := queue.BuildServerConfig(&cfg.Queue)
	server := asynq.NewServer(opt, serverCfg)
	mux := asynq.NewServeMux()
	consumer.Register(mux)

	scanEvery := defaultReviewInviteScanInterval
	if cfg.Payout.ReviewInviteScanMinutes > 0 {
		scanEvery = time.Duration(cfg.Payout.ReviewInviteScanMinutes) * time.Minute
	}
	return &Service{
		name:      "worker",
		server:    server,
		mux:       mux,
		consumer:  consumer,
		scanEvery: scanEvery,
	}, nil
}

// Name 服务名称
func (s *Service) Name() string {
	if s == nil || s.name == "" {
		return "worker"
	}
	return s.name
}

// Start 启动服务
func (s *Service) Start(ctx context.Context) error {
	if s == nil || s.server == nil || s.mux == nil {
		return errors.New("worker not initialized")
	}
	if s.consumer != nil && s.consumer.OrderService != nil {
		go s.runReviewInviteLoop(ctx)
	}
	return s.server.Run(s.mux)
}

// Stop 停止服务
func (s *Service) Stop(ctx context.Context) error {
	if s == nil || s.server == nil {
		return nil
	}
	_ = ctx
	s.server.Shutdown()
	return nil
}

func (s *Service) runReviewInviteLoop(ctx context.Context) {
	if s == nil || s.consumer == nil || s.consumer.OrderService == nil {
		return
	}
	runOnce := func() {
		sent, err := s.consumer.OrderService.SendDueReviewInvites(time.Now())
		if err != nil {
			logger.Warnw("worker_review_invite_scan_failed", "error", err)
			return
		}
		if sent > 0 {
			logger.Infow("worker_review_invites_sent", "count", sent)
		}
	}
	runOnce()

	ticker := time.NewTicker(s.scanEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			runOnce()
		}
	}
}
