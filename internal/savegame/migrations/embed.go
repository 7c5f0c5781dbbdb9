package migrations

import "embed"

// FS содержит встроенные миграции SQLite для сохранений.
//
//go:embed *.sql
var FS embed.FS
