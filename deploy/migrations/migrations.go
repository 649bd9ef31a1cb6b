package migrations

import "embed"

// Files 暴露合约构件表等 SQL 迁移文件。
//
//go:embed *.sql
var Files embed.FS
