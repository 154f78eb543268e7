package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/b2b-portale/internal/config"
	"github.com/b2b-portale/internal/provider"
	"github.com/b2b-portale/internal/router"
	"github.com/b2b-portale/internal/worker"
)

// BuildRunner 按运行模式装配 HTTP 与 Worker 服务
func BuildRunner(cfg *config.Config, mode string) (*Runner, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	container := provider.NewContainer(cfg)

	var services []Service
	if mode == ModeAll || mode == ModeAPI {
		engine := router.SetupRouter(cfg, container)
		addr := cfg.Server.Host + ":" + cfg.Server.Port
		services = append(services, newHTTPService(addr, engine))
	}
	if mode == ModeAll || mode == ModeWorker {
		consumer := worker.NewConsumer(container)
		workerService, err := worker.NewService(cfg, consumer)
		if err != nil {
			return nil, err
		}
		services = append(services, workerService)
	}
	if len(services) == 0 {
		return nil, fmt.Errorf("unknown run mode %q", mode)
	}
	return NewRunner(services...), nil
}

type httpService struct {
	server *http.Server
}

func newHTTPService(addr string, handler http.Handler) *httpService {
	return &httpService{
		server: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

func (s *httpService) Name() string { return "http" }

func (s *httpService) Start(ctx context.Context) error {
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *httpService) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
