package cmd

import (
	"errors"
	"os"
	"path/filepath"

	"lst-tools/catalog"
	"lst-tools/config"
	"lst-tools/export"
	"lst-tools/platform"
	"lst-tools/scaling"
)

// openPlatform opens the GeoTIFF catalog and the task ledger and registers the
// functions a graph built from cfg refers to. A task must be launched with the
// same expressions configured as when it was created.
func openPlatform(cfg *config.Config) (local *platform.Local, closeFn func() error, err error) {
	cat, err := catalog.OpenDir(cfg.CatalogDir, cfg.Workers)
	if err != nil {
		return nil, nil, err
	}
	if err := os.MkdirAll(filepath.Dir(cfg.TasksDB), 0o755); err != nil {
		return nil, nil, err
	}
	store, err := export.OpenStore(cfg.TasksDB)
	if err != nil {
		return nil, nil, err
	}
	defer func() {
		if err != nil {
			err = errors.Join(err, store.Close())
		}
	}()

	local = platform.NewLocal(cat, store, export.NewRunner(cfg.DriveDir, cfg.Backoff), cfg.Workers)
	policy := scaling.Policy{RequireMatch: cfg.StrictBands}
	if err := local.Register(scaling.FunctionName, scaling.ScaleFactors(policy)); err != nil {
		return nil, nil, err
	}
	for _, e := range cfg.Expressions {
		fn, err := scaling.NewExpression(e.Output, e.Source)
		if err != nil {
			return nil, nil, err
		}
		if err := local.Register(e.FunctionName(), fn); err != nil {
			return nil, nil, err
		}
	}
	return local, store.Close, nil
}
