package mysql

import (
	"context"
	"database/sql"
	"strings"
	"time"

	xerrors "Starfish-Go/internal/errors"

	driver "github.com/go-sql-driver/mysql"
)

// Config 描述 MySQL 连接池参数。
type Config struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// Open 解析 DSN、建立连接池并确认数据库可达。
// 构件表按 UTC 存储时间戳，DSN 中的 parseTime 与 loc 会被覆盖。
func Open(ctx context.Context, cfg Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, xerrors.New(xerrors.CodeInvalidArgument, "MySQL DSN 不能为空")
	}
	dsn, err := driver.ParseDSN(cfg.DSN)
	if err != nil {
		return nil, xerrors.Wrap(xerrors.CodeInvalidArgument, err, "解析 MySQL DSN 失败")
	}
	dsn.ParseTime = true
	dsn.Loc = time.UTC

	connector, err := driver.NewConnector(dsn)
	if err != nil {
		return nil, xerrors.Wrap(xerrors.CodeStorageFailure, err, "创建 MySQL 连接器失败")
	}
	db := sql.OpenDB(connector)
	db.SetMaxOpenConns(positiveOr(cfg.MaxOpenConns, 10))
	db.SetMaxIdleConns(positiveOr(cfg.MaxIdleConns, 5))
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	} else {
		db.SetConnMaxLifetime(30 * time.Minute)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, xerrors.Wrap(xerrors.CodeStorageFailure, err, "无法连接到 MySQL",
			xerrors.WithMetadata("addr", dsn.Addr))
	}
	return db, nil
}

func positiveOr(v, fallback int) int {
	if v > 0 {
		return v
	}
	return fallback
}
