// Package embedsql carries the archive schema compiled into the binary.
package embedsql

import _ "embed"

//go:embed schema.sql
var Schema string
