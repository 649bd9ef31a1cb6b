package mysql

import (
	"bufio"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strconv"
	"strings"

	"Starfish-Go/deploy/migrations"
	xerrors "Starfish-Go/internal/errors"

	driver "github.com/go-sql-driver/mysql"
)

var embeddedMigrations fs.FS = migrations.Files

// 表或索引已存在，说明此前有人手工建过表。
const (
	errTableExists   = 1050
	errDuplicateName = 1061
)

type migration struct {
	version    int
	name       string
	statements []string
}

// Migrate 依次执行尚未记录在 artifact_schema 表中的内嵌脚本。
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS artifact_schema (
        version INT NOT NULL PRIMARY KEY,
        name VARCHAR(128) NOT NULL,
        applied_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
)`); err != nil {
		return xerrors.Wrap(xerrors.CodeStorageFailure, err, "创建 artifact_schema 表失败")
	}

	current, err := schemaVersion(ctx, db)
	if err != nil {
		return err
	}
	pending, err := loadMigrations(embeddedMigrations)
	if err != nil {
		return err
	}
	for _, m := range pending {
		if m.version <= current {
			continue
		}
		if err := apply(ctx, db, m); err != nil {
			return err
		}
	}
	return nil
}

func schemaVersion(ctx context.Context, db *sql.DB) (int, error) {
	var version sql.NullInt64
	if err := db.QueryRowContext(ctx, `SELECT MAX(version) FROM artifact_schema`).Scan(&version); err != nil {
		return 0, xerrors.Wrap(xerrors.CodeStorageFailure, err, "查询 artifact_schema 失败")
	}
	return int(version.Int64), nil
}

func apply(ctx context.Context, db *sql.DB, m migration) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return xerrors.Wrap(xerrors.CodeStorageFailure, err, "开启迁移事务失败")
	}
	defer tx.Rollback()

	for _, stmt := range m.statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil && !alreadyExists(err) {
			return xerrors.Wrap(xerrors.CodeStorageFailure, err, fmt.Sprintf("执行迁移 %s 失败", m.name))
		}
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO artifact_schema (version, name) VALUES (?, ?)`, m.version, m.name); err != nil {
		return xerrors.Wrap(xerrors.CodeStorageFailure, err, "记录迁移版本失败")
	}
	if err := tx.Commit(); err != nil {
		return xerrors.Wrap(xerrors.CodeStorageFailure, err, "提交迁移事务失败")
	}
	return nil
}

func alreadyExists(err error) bool {
	var myErr *driver.MySQLError
	if !errors.As(err, &myErr) {
		return false
	}
	return myErr.Number == errTableExists || myErr.Number == errDuplicateName
}

// loadMigrations 读取 "<版本号>_<说明>.sql" 文件并按版本排序。
func loadMigrations(fsys fs.FS) ([]migration, error) {
	names, err := fs.Glob(fsys, "*.sql")
	if err != nil {
		return nil, fmt.Errorf("读取迁移目录失败: %w", err)
	}
	var out []migration
	for _, name := range names {
		prefix, _, ok := strings.Cut(strings.TrimSuffix(path.Base(name), ".sql"), "_")
		if !ok {
			return nil, fmt.Errorf("迁移文件名缺少版本号: %s", name)
		}
		version, err := strconv.Atoi(prefix)
		if err != nil {
			return nil, fmt.Errorf("迁移文件版本号无效: %s", name)
		}
		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, fmt.Errorf("读取迁移文件 %s 失败: %w", name, err)
		}
		if stmts := statements(string(content)); len(stmts) > 0 {
			out = append(out, migration{version: version, name: name, statements: stmts})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].version < out[j].version })
	return out, nil
}

// statements 去掉 "--" 注释行后按分号拆分。
func statements(content string) []string {
	var b strings.Builder
	scanner := bufio.NewScanner(strings.NewReader(content))
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(strings.TrimSpace(line), "--") {
			continue
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}
	var out []string
	for _, stmt := range strings.Split(b.String(), ";") {
		if s := strings.TrimSpace(stmt); s != "" {
			out = append(out, s)
		}
	}
	return out
}
