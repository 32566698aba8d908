package main

import (
	"context"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"

	"github.com/sells-group/solar-suitability/internal/ledger"
)

// initLedger opens the run ledger at the configured path and applies the schema.
func initLedger(ctx context.Context) (*ledger.Store, error) {
	if dir := filepath.Dir(cfg.Ledger.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, eris.Wrap(err, "create ledger directory")
		}
	}
	st, err := ledger.Open(cfg.Ledger.Path)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close() //nolint:errcheck
		return nil, err
	}
	return st, nil
}
