package logger

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Config 描述客户端日志的输出方式。
type Config struct {
	Level  string `json:"level" yaml:"level"`
	Format string `json:"format" yaml:"format"`
	// File 为空时输出到 stderr。
	File FileConfig `json:"file" yaml:"file"`
	// TxFile 单独记录每笔已提交的交易，为空时并入主日志。
	TxFile FileConfig `json:"tx_file" yaml:"tx_file"`
}

// FileConfig 描述一个按大小滚动的日志文件。
type FileConfig struct {
	Path       string `json:"path" yaml:"path"`
	MaxSizeMB  int    `json:"max_size_mb" yaml:"max_size_mb"`
	MaxBackups int    `json:"max_backups" yaml:"max_backups"`
	MaxAgeDays int    `json:"max_age_days" yaml:"max_age_days"`
	Compress   bool   `json:"compress" yaml:"compress"`
}

var (
	mu      sync.Mutex
	base    *slog.Logger
	tx      *slog.Logger
	closers []io.Closer
)

// Init 按配置重建全局日志器，并关闭上一次打开的文件。
func Init(cfg Config) error {
	var opened []io.Closer

	out := io.Writer(os.Stderr)
	if cfg.File.Path != "" {
		w, err := rotating(cfg.File)
		if err != nil {
			return err
		}
		opened = append(opened, w)
		out = w
	}
	root := slog.New(newHandler(cfg.Format, out, parseLevel(cfg.Level)))

	txLogger := root.With(slog.String("stream", "tx"))
	if cfg.TxFile.Path != "" {
		w, err := rotating(cfg.TxFile)
		if err != nil {
			closeAll(opened)
			return err
		}
		opened = append(opened, w)
		txLogger = slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}

	mu.Lock()
	defer mu.Unlock()
	_ = closeAll(closers)
	closers = opened
	base = root
	tx = txLogger
	return nil
}

func newHandler(format string, w io.Writer, level slog.Level) slog.Handler {
	opts := &slog.HandlerOptions{Level: level, AddSource: true, ReplaceAttr: shortSource}
	if strings.EqualFold(format, "text") {
		return slog.NewTextHandler(w, opts)
	}
	return slog.NewJSONHandler(w, opts)
}

// shortSource 只保留源文件所在目录与文件名。
func shortSource(_ []string, a slog.Attr) slog.Attr {
	if a.Key != slog.SourceKey {
		return a
	}
	if src, ok := a.Value.Any().(*slog.Source); ok && src != nil {
		short := filepath.Join(filepath.Base(filepath.Dir(src.File)), filepath.Base(src.File))
		return slog.String(slog.SourceKey, fmt.Sprintf("%s:%d", short, src.Line))
	}
	return a
}

func rotating(cfg FileConfig) (*lumberjack.Logger, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
		return nil, fmt.Errorf("创建日志目录失败: %w", err)
	}
	w := &lumberjack.Logger{
		Filename:   cfg.Path,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   cfg.Compress,
	}
	if w.MaxSize <= 0 {
		w.MaxSize = 100
	}
	if w.MaxBackups <= 0 {
		w.MaxBackups = 7
	}
	if w.MaxAge <= 0 {
		w.MaxAge = 30
	}
	return w, nil
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func closeAll(list []io.Closer) error {
	var err error
	for _, c := range list {
		err = errors.Join(err, c.Close())
	}
	return err
}

// L 返回全局日志器，未初始化时使用默认配置。
func L() *slog.Logger {
	mu.Lock()
	l := base
	mu.Unlock()
	if l == nil {
		_ = Init(Config{})
		mu.Lock()
		l = base
		mu.Unlock()
	}
	return l
}

// Tx 返回交易日志器，每笔提交到节点的交易写一行。
func Tx() *slog.Logger {
	L()
	mu.Lock()
	defer mu.Unlock()
	return tx
}

// Sync 关闭 Init 打开的文件。
func Sync() error {
	mu.Lock()
	defer mu.Unlock()
	err := closeAll(closers)
	closers = nil
	return err
}

// Named 返回带 component 字段的子日志器。
func Named(name string) *slog.Logger {
	return L().With(slog.String("component", name))
}

// Discard 返回丢弃所有记录的日志器，未注入日志器的组件使用它。
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}
