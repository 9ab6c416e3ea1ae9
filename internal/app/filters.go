// internal/app/filters.go
package app

import (
	"go.uber.org/zap"

	"catrapid-core/filter"

	"catrapid/internal/config"
)

// loadFilters reads the configured allow-lists. An unset path leaves its
// stage disabled.
func loadFilters(fc config.FiltersConfig, log *zap.Logger) (filter.Spec, error) {
	var (
		spec filter.Spec
		err  error
	)
	if spec.Pairs, err = filter.LoadPairs(fc.Pairs); err != nil {
		return filter.Spec{}, err
	}
	if spec.Proteins, err = filter.LoadIDs(fc.Proteins); err != nil {
		return filter.Spec{}, err
	}
	if spec.RNAs, err = filter.LoadIDs(fc.RNAs); err != nil {
		return filter.Spec{}, err
	}
	for _, l := range []struct {
		stage string
		path  string
		set   filter.Set
	}{
		{"pair", fc.Pairs, spec.Pairs},
		{"protein", fc.Proteins, spec.Proteins},
		{"rna", fc.RNAs, spec.RNAs},
	} {
		if l.path == "" {
			continue
		}
		log.Info("loaded allow-list", zap.String("stage", l.stage), zap.String("path", l.path), zap.Int("unique", len(l.set)))
		if !l.set.Enabled() {
			log.Warn("allow-list is empty; stage disabled", zap.String("stage", l.stage), zap.String("path", l.path))
		}
	}
	return spec, nil
}
