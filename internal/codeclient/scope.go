package codeclient

import "strings"

// Scope is a set of capabilities the companion may grant. ScopeDefault is
// always held.
type Scope uint8

const (
	ScopeDefault Scope = 1 << iota
	ScopeInventory
	ScopeMovement
	ScopeReadPlot
	ScopeWriteCode
	ScopeClearPlot

	ScopeAll = ScopeInventory | ScopeMovement | ScopeReadPlot | ScopeWriteCode | ScopeClearPlot
)

var scopeNames = []struct {
	scope Scope
	name  string
}{
	{ScopeInventory, "inventory"},
	{ScopeMovement, "movement"},
	{ScopeReadPlot, "read_plot"},
	{ScopeWriteCode, "write_code"},
	{ScopeClearPlot, "clear_plot"},
}

// Has reports whether every scope in want is in s. ScopeDefault is always held.
func (s Scope) Has(want Scope) bool {
	want &^= ScopeDefault
	return s&want == want
}

// Names returns the wire names of the grantable scopes in s, in protocol order.
func (s Scope) Names() []string {
	var out []string
	for _, n := range scopeNames {
		if s&n.scope != 0 {
			out = append(out, n.name)
		}
	}
	return out
}

func (s Scope) String() string {
	names := s.Names()
	if len(names) == 0 {
		return "default"
	}
	return strings.Join(names, " ")
}

// ParseScopes reads a whitespace separated scope list. Unknown names are ignored.
func ParseScopes(list string) Scope {
	out := ScopeDefault
	for _, f := range strings.Fields(list) {
		if s, ok := ScopeByName(f); ok {
			out |= s
		}
	}
	return out
}

// ScopeByName maps a wire name ("read_plot") to its scope.
func ScopeByName(name string) (Scope, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, n := range scopeNames {
		if n.name == name {
			return n.scope, true
		}
	}
	return 0, false
}
