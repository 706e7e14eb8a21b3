// Package surface maps surface names to candidate filtering policies. The
// ranking core applies the resulting boolean filter but does not own the
// policy table; callers may supply their own.
package surface

// Policy describes the filtering rules a surface imposes on candidates
// before they are scored.
type Policy struct {
	// RequireModerated drops candidates that have not passed moderation.
	RequireModerated bool `json:"require_moderated"`
}

// Allows reports whether a candidate with the given moderation state may
// appear on the surface.
func (p Policy) Allows(moderated bool) bool {
	if p.RequireModerated && !moderated {
		return false
	}
	return true
}

// Table maps surface names to policies.
type Table map[string]Policy

// DefaultTable returns the standard surface policies. Unknown surfaces
// resolve to the permissive zero policy.
func DefaultTable() Table {
	return Table{
		"home":     {},
		"discover": {RequireModerated: true},
		"curated":  {RequireModerated: true},
	}
}

// Lookup returns the policy for a surface, falling back to the permissive
// zero policy for unknown names.
func (t Table) Lookup(name string) Policy {
	if t == nil {
		return Policy{}
	}
	return t[name]
}
