package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"Starfish-Go/internal/artifact"
	"Starfish-Go/internal/config"
	xerrors "Starfish-Go/internal/errors"
	"Starfish-Go/internal/journal"
	"Starfish-Go/internal/network"
	"Starfish-Go/internal/observability/metrics"
	"Starfish-Go/internal/storage/mysql"
	storageredis "Starfish-Go/internal/storage/redis"
	"Starfish-Go/internal/web3/provider"
	"Starfish-Go/pkg/logger"

	"github.com/prometheus/client_golang/prometheus"
)

// appState 按需构建命令所需的组件，并在命令结束时统一释放。
type appState struct {
	opts *globalOptions

	cfg     *config.Config
	net     *network.Network
	store   artifact.Store
	journal journal.Sink
	reg     *prometheus.Registry
	rec     *metrics.Recorder

	closers []func() error
}

func (s *appState) config() (*config.Config, error) {
	if s.cfg != nil {
		return s.cfg, nil
	}
	var (
		cfg *config.Config
		err error
	)
	if strings.TrimSpace(s.opts.configPath) == "" {
		cfg = config.Default()
	} else {
		cfg, err = config.Load(s.opts.configPath)
		if err != nil {
			return nil, err
		}
	}
	if s.opts.chain != "" {
		cfg.Network.Chain = s.opts.chain
	}
	if s.opts.logLevel != "" {
		cfg.Log.Level = s.opts.logLevel
	}
	if err := logger.Init(cfg.Log); err != nil {
		return nil, fmt.Errorf("初始化日志失败: %w", err)
	}
	s.closers = append(s.closers, logger.Sync)
	s.cfg = cfg
	return cfg, nil
}

// network 建立连接并构造 Network，整个进程只构造一次。
func (s *appState) network(ctx context.Context) (*network.Network, error) {
	if s.net != nil {
		return s.net, nil
	}
	cfg, err := s.config()
	if err != nil {
		return nil, err
	}

	registry, err := provider.NewRegistry(cfg.Network)
	if err != nil {
		return nil, err
	}
	conn, err := registry.Connect(ctx, cfg.Network.Chain)
	if err != nil {
		return nil, err
	}

	store, err := s.artifactStore(ctx)
	if err != nil {
		conn.Close()
		return nil, err
	}
	sink, err := s.journalSink(ctx)
	if err != nil {
		conn.Close()
		return nil, err
	}

	opts := []network.Option{network.WithJournal(sink), network.WithLogger(logger.Named("network"))}
	if rec := s.recorder(); rec != nil {
		opts = append(opts, network.WithMetrics(rec))
	}
	if cfg.Artifacts.Preload {
		opts = append(opts, network.WithPreload(true))
	}
	n, err := network.New(ctx, conn, store, opts...)
	if err != nil {
		conn.Close()
		return nil, err
	}
	s.closers = append(s.closers, func() error {
		n.Close()
		return nil
	})
	s.net = n
	return n, nil
}

func (s *appState) artifactStore(ctx context.Context) (artifact.Store, error) {
	if s.store != nil {
		return s.store, nil
	}
	cfg, err := s.config()
	if err != nil {
		return nil, err
	}

	var store artifact.Store
	switch strings.ToLower(cfg.Artifacts.Driver) {
	case "", "file":
		store = artifact.NewFileStore(cfg.Artifacts.Dir)
	case "redis":
		client, err := storageredis.NewClient(ctx, storageredis.Config{
			Address:  cfg.Artifacts.Redis.Address,
			Password: cfg.Artifacts.Redis.Password,
			DB:       cfg.Artifacts.Redis.DB,
		})
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, client.Close)
		store = artifact.NewRedisStore(client, cfg.Artifacts.Redis.Key)
	case "mysql":
		db, err := openMySQL(ctx, cfg.Artifacts.MySQL)
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, db.Close)
		store = artifact.NewSQLStore(db)
	default:
		return nil, xerrors.New(xerrors.CodeInvalidArgument,
			fmt.Sprintf("不支持的构件存储驱动: %s", cfg.Artifacts.Driver))
	}
	s.store = store
	return store, nil
}

func openMySQL(ctx context.Context, cfg config.MySQLConfig) (*sql.DB, error) {
	db, err := mysql.Open(ctx, mysql.Config{
		DSN:             cfg.DSN,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: time.Duration(cfg.ConnMaxLifetimeSeconds) * time.Second,
	})
	if err != nil {
		return nil, err
	}
	if err := mysql.Migrate(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func (s *appState) journalSink(ctx context.Context) (journal.Sink, error) {
	if s.journal != nil {
		return s.journal, nil
	}
	cfg, err := s.config()
	if err != nil {
		return nil, err
	}
	sink, err := journal.Open(ctx, cfg.Journal)
	if err != nil {
		return nil, err
	}
	s.closers = append(s.closers, sink.Close)
	s.journal = sink
	return sink, nil
}

func (s *appState) recorder() *metrics.Recorder {
	if s.rec != nil {
		return s.rec
	}
	if !s.cfg.Metrics.Enabled && s.opts.metricsAddr == "" {
		return nil
	}
	s.reg = prometheus.NewRegistry()
	s.rec = metrics.New(s.reg, s.cfg.Metrics.Namespace)
	if s.opts.metricsAddr != "" {
		s.serveMetrics()
	}
	return s.rec
}

func (s *appState) serveMetrics() {
	ln, err := net.Listen("tcp", s.opts.metricsAddr)
	if err != nil {
		logger.L().Warn("指标端口监听失败", "addr", s.opts.metricsAddr, "error", err)
		return
	}
	srv := &http.Server{Handler: metrics.Handler(s.reg), ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.L().Warn("指标服务异常退出", "error", err)
		}
	}()
	s.closers = append(s.closers, func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return srv.Shutdown(ctx)
	})
}

func (s *appState) close() error {
	var err error
	for i := len(s.closers) - 1; i >= 0; i-- {
		err = errors.Join(err, s.closers[i]())
	}
	s.closers = nil
	return err
}
