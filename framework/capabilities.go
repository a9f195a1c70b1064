package framework

// Capabilities is a list of strings describing what the current test environment supports,
// such as whether API credentials were configured. Tests that need a capability the environment
// lacks are skipped rather than failed.
type Capabilities []string

// Has returns true if the specified string appears in the list.
func (cs Capabilities) Has(name string) bool {
	for _, c := range cs {
		if c == name {
			return true
		}
	}
	return false
}

// With returns a copy of the list with the named capability added if it was not already present.
func (cs Capabilities) With(name string) Capabilities {
	if cs.Has(name) {
		return cs
	}
	return append(append(Capabilities(nil), cs...), name)
}
