package domain

import (
	"fmt"
	"strings"
)

// RepairReport lists what Repair changed.
type RepairReport struct {
	// ReassignedNodes maps the offending GUID (possibly empty) to the new one.
	ReassignedNodes []GUIDChange `json:"reassigned_nodes,omitempty"`
	// PurgedConnections holds the GUIDs of removed connections.
	PurgedConnections []string `json:"purged_connections,omitempty"`
}

// GUIDChange records a node GUID regenerated by Repair.
type GUIDChange struct {
	Old string `json:"old"`
	New string `json:"new"`
}

// Changed reports whether the repair touched the document.
func (r RepairReport) Changed() bool {
	return len(r.ReassignedNodes) > 0 || len(r.PurgedConnections) > 0
}

// Repair restores the structural invariants of the document:
// nodes with an empty or duplicate GUID get a fresh one, and connections
// whose endpoints do not resolve or whose output port does not exist are purged.
// The document is marked dirty when anything changed.
func (d *Document) Repair() RepairReport {
	var report RepairReport

	seen := make(map[string]bool, len(d.nodes))
	d.index = make(map[string]Node, len(d.nodes))
	for _, n := range d.nodes {
		base := n.Base()
		if base.ID == "" || seen[base.ID] {
			change := GUIDChange{Old: base.ID, New: NewGUID()}
			base.ID = change.New
			report.ReassignedNodes = append(report.ReassignedNodes, change)
		}
		seen[base.ID] = true
		d.index[base.ID] = n
	}

	d.filterConnections(func(c *Connection) bool {
		from, okFrom := d.index[c.From]
		_, okTo := d.index[c.To]
		if okFrom && okTo && c.FromPort >= 0 && c.FromPort < from.OutputPortCount() {
			return true
		}
		report.PurgedConnections = append(report.PurgedConnections, c.ID)
		return false
	})

	if report.Changed() {
		d.dirty = true
	}
	return report
}

// ValidationReport lists the authoring problems of a document.
type ValidationReport struct {
	MissingRoot        bool     `json:"missing_root,omitempty"`
	ExtraRoots         []string `json:"extra_roots,omitempty"`
	Unreachable        []string `json:"unreachable,omitempty"`
	InvalidConnections []string `json:"invalid_connections,omitempty"`
	DuplicateNodes     []string `json:"duplicate_nodes,omitempty"`
}

// Valid reports whether no problem was found.
func (r ValidationReport) Valid() bool {
	return !r.MissingRoot && len(r.ExtraRoots) == 0 && len(r.Unreachable) == 0 &&
		len(r.InvalidConnections) == 0 && len(r.DuplicateNodes) == 0
}

// Problems renders the report as one line per problem.
func (r ValidationReport) Problems() []string {
	var out []string
	if r.MissingRoot {
		out = append(out, "document has no root node")
	}
	for _, id := range r.ExtraRoots {
		out = append(out, fmt.Sprintf("extra root node '%s'", id))
	}
	for _, id := range r.DuplicateNodes {
		out = append(out, fmt.Sprintf("duplicate or empty node guid '%s'", id))
	}
	for _, id := range r.InvalidConnections {
		out = append(out, fmt.Sprintf("invalid connection '%s'", id))
	}
	for _, id := range r.Unreachable {
		out = append(out, fmt.Sprintf("unreachable node '%s'", id))
	}
	return out
}

// Err returns nil for a valid report and a summary error otherwise.
func (r ValidationReport) Err() error {
	problems := r.Problems()
	if len(problems) == 0 {
		return nil
	}
	return fmt.Errorf("found %d errors:\n- %s", len(problems), strings.Join(problems, "\n- "))
}

// Validate inspects the document without changing it.
func (d *Document) Validate() ValidationReport {
	var report ValidationReport

	var root Node
	seen := make(map[string]bool, len(d.nodes))
	for _, n := range d.nodes {
		id := n.Base().ID
		if id == "" || seen[id] {
			report.DuplicateNodes = append(report.DuplicateNodes, id)
		}
		seen[id] = true
		if n.Kind() == KindRoot {
			if root == nil {
				root = n
			} else {
				report.ExtraRoots = append(report.ExtraRoots, id)
			}
		}
	}
	report.MissingRoot = root == nil

	for _, c := range d.connections {
		from, okFrom := d.index[c.From]
		_, okTo := d.index[c.To]
		if !okFrom || !okTo || c.FromPort < 0 || c.FromPort >= from.OutputPortCount() {
			report.InvalidConnections = append(report.InvalidConnections, c.ID)
		}
	}

	if root == nil {
		return report
	}

	visited := map[string]bool{}
	queue := []string{root.Base().ID}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		if visited[current] {
			continue
		}
		visited[current] = true
		for _, c := range d.connections {
			if c.From == current && !visited[c.To] {
				if _, ok := d.index[c.To]; ok {
					queue = append(queue, c.To)
				}
			}
		}
	}
	for _, n := range d.nodes {
		if !visited[n.Base().ID] {
			report.Unreachable = append(report.Unreachable, n.Base().ID)
		}
	}
	return report
}
