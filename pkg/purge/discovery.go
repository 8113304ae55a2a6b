package purge

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"coursys/courselib/pkg/catalog"
)

// Source says where a unit came from.
type Source string

const (
	// SourceConfig is a policy override from the configuration file.
	SourceConfig Source = "config"
	// SourceAttached is a policy attached to the catalog model.
	SourceAttached Source = "attached"
	// SourceRegistered is a purger from the registry.
	SourceRegistered Source = "registered"
)

func (s Source) rank() int {
	switch s {
	case SourceConfig:
		return 0
	case SourceAttached:
		return 1
	default:
		return 2
	}
}

// Unit is one (model, purger) pair to process. Units whose discovery failed
// carry the configuration error in Err and no purger.
type Unit struct {
	Model  string
	Source Source
	Purger Purger
	Err    error
}

// Describe names the unit's policy for listings.
func (u Unit) Describe() string {
	if u.Err != nil {
		return "invalid"
	}
	return describe(u.Purger)
}

// Override is an age policy from configuration for one model. It replaces
// every attached policy and registered purger of that model.
type Override struct {
	Model     string
	Field     string
	AfterDays int
}

// DiscoverOptions tunes discovery.
type DiscoverOptions struct {
	// Overrides replace the discovered units of their models.
	Overrides []Override

	// Disabled lists model names that are never purged.
	Disabled []string

	// Logger receives discovery diagnostics. Default: slog.Default()
	Logger *slog.Logger
}

// Discover builds the ordered list of purge units from the catalog's
// attached policies, the registry's purgers and the configured overrides.
//
// Misconfigured policies and purgers are not dropped: they become units
// carrying a *ConfigError so the executor reports them. The order is by
// model name, then source (config, attached, registered), then registration
// order.
func Discover(cat *catalog.Catalog, reg *Registry, opts DiscoverOptions) ([]Unit, error) {
	if cat == nil {
		return nil, errors.New("discover: catalog is nil")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "purge.discovery")

	disabled := make(map[string]bool, len(opts.Disabled))
	for _, name := range opts.Disabled {
		if _, ok := cat.Lookup(name); !ok {
			logger.Warn("disabled model is not in the catalog", "model", name)
		}
		disabled[name] = true
	}

	overridden := make(map[string]bool, len(opts.Overrides))
	var units []Unit

	for _, o := range opts.Overrides {
		overridden[o.Model] = true
		if disabled[o.Model] {
			continue
		}
		u := Unit{Model: o.Model, Source: SourceConfig}
		if _, ok := cat.Lookup(o.Model); !ok {
			u.Err = NewConfigError(o.Model, "configured policy names an unknown model", nil)
		} else {
			u.Purger = Bind(o.Model, AgePolicy{Field: o.Field, AfterDays: o.AfterDays})
		}
		units = append(units, u)
	}

	for _, m := range cat.Models() {
		if m.PurgePolicy == nil || disabled[m.Name] || overridden[m.Name] {
			continue
		}
		u := Unit{Model: m.Name, Source: SourceAttached}
		if policy, ok := m.PurgePolicy.(Policy); ok {
			u.Purger = Bind(m.Name, policy)
		} else {
			u.Err = NewConfigError(m.Name,
				fmt.Sprintf("attached purge policy of type %T is not a purge.Policy", m.PurgePolicy), nil)
		}
		units = append(units, u)
	}

	if reg != nil {
		for _, p := range reg.Purgers() {
			name := p.ModelName()
			if disabled[name] || overridden[name] {
				continue
			}
			u := Unit{Model: name, Source: SourceRegistered, Purger: p}
			if _, ok := cat.Lookup(name); !ok {
				u.Purger = nil
				u.Err = NewConfigError(name,
					fmt.Sprintf("purger %T names a model missing from the catalog", p), nil)
			}
			units = append(units, u)
		}
	}

	sort.SliceStable(units, func(i, j int) bool {
		if units[i].Model != units[j].Model {
			return units[i].Model < units[j].Model
		}
		return units[i].Source.rank() < units[j].Source.rank()
	})

	logger.Debug("purge units discovered", "units", len(units))
	return units, nil
}
