package purge

import (
	"fmt"
	"time"

	"coursys/courselib/pkg/catalog"
	"coursys/courselib/pkg/store"
)

// Env is what a purger sees while computing its retrieval.
type Env struct {
	// Model is the purger's model, resolved from the catalog.
	Model *catalog.Model

	// Catalog is the full model catalog.
	Catalog *catalog.Catalog

	// Now is the reference time of the run.
	Now time.Time
}

// Purger binds one model to its purge eligibility logic.
type Purger interface {
	// ModelName names the catalog model this purger deletes from.
	ModelName() string

	// Retrieval returns the mechanism finding the currently eligible
	// records. An error is a configuration error for this purger.
	Retrieval(env *Env) (Retrieval, error)
}

// Policy describes how to find purgeable records of whatever model it is
// attached to.
type Policy interface {
	Retrieval(env *Env) (Retrieval, error)
}

// Age returns the cutoff for records older than days at now.
func Age(now time.Time, days int) time.Time {
	return now.AddDate(0, 0, -days)
}

// AgePolicy is for data that can simply be deleted after a certain time,
// based on a date or datetime field.
type AgePolicy struct {
	Field     string `yaml:"age_field" json:"age_field"`
	AfterDays int    `yaml:"after_days" json:"after_days"`
}

// Retrieval selects records whose Field is older than AfterDays.
func (p AgePolicy) Retrieval(env *Env) (Retrieval, error) {
	if p.Field == "" {
		return Retrieval{}, fmt.Errorf("age policy has no field")
	}
	if p.AfterDays <= 0 {
		return Retrieval{}, fmt.Errorf("age policy for field %q: after_days must be positive, got %d", p.Field, p.AfterDays)
	}
	if env.Model != nil && !env.Model.HasField(p.Field) {
		return Retrieval{}, fmt.Errorf("age policy field %q is not a field of %s", p.Field, env.Model.Name)
	}
	return BulkQuery(store.Before{Field: p.Field, Cutoff: Age(env.Now, p.AfterDays)}), nil
}

// String implements fmt.Stringer.
func (p AgePolicy) String() string {
	return fmt.Sprintf("age(%s > %dd)", p.Field, p.AfterDays)
}

// PublicData is for data that is fully public and has no privacy or
// retention concerns. Nothing is ever eligible.
type PublicData struct{}

// Retrieval selects nothing.
func (PublicData) Retrieval(*Env) (Retrieval, error) {
	return BulkQuery(store.Nothing{}), nil
}

// String implements fmt.Stringer.
func (PublicData) String() string {
	return "public"
}

// UnreferencedOnly makes records eligible once no relation field of any
// model in the catalog points at them. A model's references to itself only
// keep a record alive when the referencing record is kept too.
type UnreferencedOnly struct{}

// Retrieval selects records not referenced from anywhere in the catalog.
func (UnreferencedOnly) Retrieval(env *Env) (Retrieval, error) {
	if env.Model == nil || env.Catalog == nil {
		return Retrieval{}, fmt.Errorf("unreferenced policy needs a model and a catalog")
	}
	refs := env.Catalog.ReferencesTo(env.Model.Name)
	return BulkQuery(store.Unreferenced{Refs: refs}), nil
}

// String implements fmt.Stringer.
func (UnreferencedOnly) String() string {
	return "unreferenced"
}

// QueryFunc adapts a function returning a bulk condition to a Policy.
type QueryFunc func(env *Env) (store.Condition, error)

// Retrieval implements Policy.
func (f QueryFunc) Retrieval(env *Env) (Retrieval, error) {
	cond, err := f(env)
	if err != nil {
		return Retrieval{}, err
	}
	return BulkQuery(cond), nil
}

// String implements fmt.Stringer.
func (QueryFunc) String() string {
	return "custom query"
}

// EnumerateFunc adapts a function returning an enumerator to a Policy.
type EnumerateFunc func(env *Env) (Enumerator, error)

// Retrieval implements Policy.
func (f EnumerateFunc) Retrieval(env *Env) (Retrieval, error) {
	fn, err := f(env)
	if err != nil {
		return Retrieval{}, err
	}
	return Enumeration(fn), nil
}

// String implements fmt.Stringer.
func (EnumerateFunc) String() string {
	return "custom enumeration"
}

// Bind returns a Purger applying policy to the named model.
func Bind(model string, policy Policy) Purger {
	return &policyPurger{model: model, policy: policy}
}

type policyPurger struct {
	model  string
	policy Policy
}

func (p *policyPurger) ModelName() string {
	return p.model
}

func (p *policyPurger) Retrieval(env *Env) (Retrieval, error) {
	if p.policy == nil {
		return Retrieval{}, nil
	}
	return p.policy.Retrieval(env)
}

func (p *policyPurger) String() string {
	return describe(p.policy)
}

// describe names a policy or purger for listings.
func describe(v any) string {
	if s, ok := v.(fmt.Stringer); ok {
		return s.String()
	}
	if v == nil {
		return "none"
	}
	return fmt.Sprintf("%T", v)
}
