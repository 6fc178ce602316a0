// Package registry implements the transformer registry of spec.md §4.3: it
// maps file paths/mime types to transformer instances, enforces traits, and
// validates execution plans. The teacher has no precedent for this (copytree
// has no transform stage); its shape follows the config-driven pattern-to-
// behavior bindings of internal/config/types.go and the structured error
// style of internal/pipeline/errors.go.
package registry

// Requirement names an external precondition a transformer needs before it
// can run (an API key, a memory ceiling, network access).
type Requirement string

const (
	RequiresAPIKey  Requirement = "api_key"
	RequiresMemory  Requirement = "memory"
	RequiresNetwork Requirement = "network"
)

// Traits is the machine-readable descriptor spec.md §4.3/§9 attaches to every
// registered transformer, enabling plan validation and scheduling decisions.
// Construct with DefaultTraits() and override fields, rather than a bare
// struct literal, so the spec.md-mandated safe defaults (idempotent=true,
// heavy=false) are never silently lost to Go's zero value.
type Traits struct {
	InputTypes     []string
	OutputTypes    []string
	Idempotent     bool
	OrderSensitive bool
	Heavy          bool
	Stateful       bool
	Dependencies   []string
	ConflictsWith  []string
	Requirements   []Requirement
	Tags           []string
}

// DefaultTraits returns the safe-default Traits spec.md §4.3 mandates for an
// unregistered or partially-specified transformer: idempotent, not heavy,
// order-insensitive, stateless, no dependencies or requirements.
func DefaultTraits() Traits {
	return Traits{Idempotent: true}
}
