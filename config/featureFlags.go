package config

import (
	"os"
	"strconv"
	"strings"
)

// StrictLedgerImmutability blocks editing a stock transaction row after it has
// been written; corrections go through a compensating SET/OUT transaction.
//
// Set via env:
// - STRICT_LEDGER_IMMUTABLE=true
func StrictLedgerImmutability() bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv("STRICT_LEDGER_IMMUTABLE")))
	return v == "1" || v == "true" || v == "yes" || v == "y"
}

// BulkFanoutWorkers controls parallelism of bulk ledger operations.
// 0 or 1 means sequential (default). Same-variant rows are still serialized by
// row locks regardless of this setting.
//
// Set via env:
// - BULK_FANOUT_WORKERS=4
func BulkFanoutWorkers() int {
	raw := strings.TrimSpace(os.Getenv("BULK_FANOUT_WORKERS"))
	if raw == "" {
		return 1
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 1
	}
	if n > 32 {
		return 32
	}
	return n
}
