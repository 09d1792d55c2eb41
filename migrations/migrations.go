// Package migrations встраивает SQL-миграции, чтобы goose мог
// накатить их при старте без внешних файлов.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
