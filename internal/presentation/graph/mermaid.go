package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/parley/pkg/domain"
)

// maxLabel bounds the text shown inside a node.
const maxLabel = 40

// GraphOverlay contains dynamic state data to visualize on the graph.
type GraphOverlay struct {
	VisitedNodes []string
	CurrentNode  string
}

// GenerateMermaid produces a Mermaid flowchart of a dialogue document.
// Shapes follow the node kind:
//   - Root: ((Circle))
//   - Speech: [Rectangle] with speaker and text
//   - Option: {Rhombus}, one labelled edge per option
//   - Branch: {{Hexagon}}, edges labelled true/false
//
// Guarded connections are drawn dotted. Overlay styles mark visited nodes
// and the current node, if provided.
func GenerateMermaid(doc *domain.Document, overlay *GraphOverlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	for _, node := range doc.Nodes() {
		opener, closer := "[", "]"
		switch node.Kind() {
		case domain.KindRoot:
			opener, closer = "((", "))"
		case domain.KindOption:
			opener, closer = "{", "}"
		case domain.KindBranch:
			opener, closer = "{{", "}}"
		}
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", sanitizeMermaidID(node.Base().ID), opener, nodeLabel(node), closer)
	}

	for _, c := range doc.Connections() {
		from, ok := doc.Node(c.From)
		if !ok {
			continue
		}
		label := portLabel(from, c.FromPort)
		if len(c.Conditions) > 0 {
			guard := conditionsLabel(c.Conditions)
			if label != "" {
				guard = label + " / " + guard
			}
			fmt.Fprintf(&sb, "    %s -. \"%s\" .-> %s\n", sanitizeMermaidID(c.From), escape(guard), sanitizeMermaidID(c.To))
			continue
		}
		if label != "" {
			fmt.Fprintf(&sb, "    %s -- \"%s\" --> %s\n", sanitizeMermaidID(c.From), escape(label), sanitizeMermaidID(c.To))
			continue
		}
		fmt.Fprintf(&sb, "    %s --> %s\n", sanitizeMermaidID(c.From), sanitizeMermaidID(c.To))
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Black text keeps contrast on both light and dark themes.
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		visited := make(map[string]bool)
		for _, id := range overlay.VisitedNodes {
			safeID := sanitizeMermaidID(id)
			if !visited[safeID] && safeID != "" {
				visited[safeID] = true
				fmt.Fprintf(&sb, "    class %s visited;\n", safeID)
			}
		}
		if overlay.CurrentNode != "" {
			fmt.Fprintf(&sb, "    class %s current;\n", sanitizeMermaidID(overlay.CurrentNode))
		}
	}

	return sb.String()
}

func nodeLabel(node domain.Node) string {
	switch n := node.(type) {
	case *domain.SpeechNode:
		text := truncate(n.Text)
		if n.Speaker != "" {
			text = n.Speaker + ": " + text
		}
		if n.AutoAdvanceSeconds > 0 {
			text += fmt.Sprintf(" <br/> ⏱️ %gs", n.AutoAdvanceSeconds)
		}
		return escape(text)
	case *domain.OptionNode:
		label := n.DisplayTitle()
		if n.TimeoutSeconds > 0 {
			label += fmt.Sprintf(" <br/> ⏱️ %gs", n.TimeoutSeconds)
		}
		return escape(label)
	case *domain.BranchNode:
		if len(n.Conditions) == 0 {
			return "always"
		}
		return escape(conditionsLabel(n.Conditions))
	}
	return escape(node.DisplayTitle())
}

func portLabel(from domain.Node, port int) string {
	switch n := from.(type) {
	case *domain.OptionNode:
		if port >= 0 && port < len(n.Options) && n.Options[port] != nil {
			return truncate(n.Options[port].Text)
		}
	case *domain.BranchNode:
		if port == domain.PortTrue {
			return "true"
		}
		return "false"
	}
	return ""
}

func conditionsLabel(conditions []domain.Condition) string {
	parts := make([]string, 0, len(conditions))
	for _, c := range conditions {
		if c != nil {
			parts = append(parts, Describe(c))
		}
	}
	return strings.Join(parts, " and ")
}

// Describe renders a condition as a short expression such as "gold > 10".
func Describe(c domain.Condition) string {
	switch cond := c.(type) {
	case *domain.BoolCondition:
		if cond.Check == domain.IsFalse {
			return "not " + cond.Variable
		}
		return cond.Variable
	case *domain.IntCondition:
		return fmt.Sprintf("%s %s %d", cond.Variable, cond.Op, cond.Value)
	case *domain.FloatCondition:
		return fmt.Sprintf("%s %s %g", cond.Variable, cond.Op, cond.Value)
	case *domain.StringCondition:
		return fmt.Sprintf("%s %s '%s'", cond.Variable, cond.Op, cond.Value)
	}
	return c.Type() + "(" + c.VariableName() + ")"
}

func truncate(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if r := []rune(s); len(r) > maxLabel {
		return string(r[:maxLabel-1]) + "…"
	}
	return s
}

func escape(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	// Mermaid reserves "end" and ids starting with a digit are ambiguous.
	if s == "end" || (s != "" && s[0] >= '0' && s[0] <= '9') {
		s = "n_" + s
	}
	return s
}
