package domain

// ValueChange is the before and after value of a variable.
type ValueChange struct {
	Old any `json:"old"`
	New any `json:"new"`
}

// BlackboardDiff represents the changes between two blackboards.
// It is designed to be serialized to JSON for partial updates on the client.
type BlackboardDiff struct {
	// Changed holds modified variables.
	Changed map[string]ValueChange `json:"changed,omitempty"`
	// Added holds variables only present in the new blackboard.
	Added map[string]any `json:"added,omitempty"`
	// Removed lists variables only present in the old blackboard.
	Removed []string `json:"removed,omitempty"`
}

// Diff calculates the difference between oldVars and newVars.
// If oldVars is nil, every variable of newVars is reported as added.
// It returns nil when nothing changed.
func Diff(oldVars, newVars *Blackboard) *BlackboardDiff {
	if newVars == nil {
		return nil
	}
	diff := &BlackboardDiff{}

	old := map[string]Variable{}
	if oldVars != nil {
		for _, v := range oldVars.Variables() {
			old[v.Name] = v
		}
	}

	for _, v := range newVars.Variables() {
		prev, exists := old[v.Name]
		delete(old, v.Name)
		switch {
		case !exists:
			if diff.Added == nil {
				diff.Added = map[string]any{}
			}
			diff.Added[v.Name] = parsedOrRaw(v)
		case prev.Value != v.Value || prev.Kind != v.Kind:
			if diff.Changed == nil {
				diff.Changed = map[string]ValueChange{}
			}
			diff.Changed[v.Name] = ValueChange{Old: parsedOrRaw(prev), New: parsedOrRaw(v)}
		}
	}

	if oldVars != nil {
		// keep the old definition order for removals
		for _, v := range oldVars.Variables() {
			if _, gone := old[v.Name]; gone {
				diff.Removed = append(diff.Removed, v.Name)
			}
		}
	}

	if diff.IsEmpty() {
		return nil
	}
	return diff
}

// IsEmpty checks if the diff contains any change.
func (d *BlackboardDiff) IsEmpty() bool {
	return d == nil || (len(d.Changed) == 0 && len(d.Added) == 0 && len(d.Removed) == 0)
}

func parsedOrRaw(v Variable) any {
	if parsed, err := v.Parsed(); err == nil {
		return parsed
	}
	return v.Value
}
