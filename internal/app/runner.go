package app

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"time"

	"github.com/b2b-portale/internal/config"
	"github.com/b2b-portale/internal/logger"

	"go.uber.org/zap"
)

const (
	ModeAll    = "all"
	ModeAPI    = "api"
	ModeWorker = "worker"
)

const defaultShutdownTimeout = 10 * time.Second

// Service 可托管的长生命周期服务
type Service interface {
	Name() string
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// Options 应用启动选项
type Options struct {
	Config          *config.Config
	Logger          *zap.SugaredLogger
	Signals         []os.Signal
	ShutdownTimeout time.Duration
	Mode            string
}

func (o Options) withDefaults() Options {
	if o.Logger == nil {
		o.Logger = logger.S()
	}
	if o.ShutdownTimeout <= 0 {
		o.ShutdownTimeout = defaultShutdownTimeout
	}
	if o.Mode == "" {
		o.Mode = ModeAll
	}
	return o
}

// Runner 按模式托管一组服务，首个退出或收到信号即触发整体收尾
type Runner struct {
	services []Service
}

// NewRunner 创建服务运行器
func NewRunner(services ...Service) *Runner {
	return &Runner{services: services}
}

type serviceExit struct {
	name string
	err  error
}

func (r *Runner) run(ctx context.Context, opts Options) error {
	if len(r.services) == 0 {
		return errors.New("no services to run")
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	exits := make(chan serviceExit, len(r.services))
	for _, svc := range r.services {
		service := svc
		go func() {
			if service == nil {
				exits <- serviceExit{name: "unknown", err: errors.New("service is nil")}
				return
			}
			opts.Logger.Infow("service_start", "service", service.Name())
			exits <- serviceExit{name: service.Name(), err: service.Start(ctx)}
		}()
	}

	var runErr error
	select {
	case <-ctx.Done():
		runErr = ctx.Err()
	case exit := <-exits:
		runErr = exit.err
		opts.Logger.Infow("service_exit", "service", exit.name)
	}

	cancel()
	stopCtx, stopCancel := context.WithTimeout(context.Background(), opts.ShutdownTimeout)
	defer stopCancel()
	for _, svc := range r.services {
		if svc == nil {
			continue
		}
		if err := svc.Stop(stopCtx); err != nil {
			opts.Logger.Errorw("service_stop_failed", "service", svc.Name(), "error", err)
		}
	}
	if errors.Is(runErr, context.Canceled) {
		return nil
	}
	return runErr
}

// Run 应用启动入口
func Run(opts Options) error {
	opts = opts.withDefaults()
	if opts.Config == nil {
		return errors.New("config is nil")
	}

	runner, err := BuildRunner(opts.Config, opts.Mode)
	if err != nil {
		return err
	}

	ctx := context.Background()
	if len(opts.Signals) > 0 {
		var cancel context.CancelFunc
		ctx, cancel = signal.NotifyContext(ctx, opts.Signals...)
		defer cancel()
	}

	addr := opts.Config.Server.Host + ":" + opts.Config.Server.Port
	opts.Logger.Infow("app_start", "addr", addr, "mode", opts.Mode)
	return runner.run(ctx, opts)
}
