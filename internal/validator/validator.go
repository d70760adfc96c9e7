package validator

import (
	"context"
	"fmt"

	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/ports"
)

// Result is the outcome of validating one document. Report holds structural
// errors; Warnings hold authoring mistakes the engine tolerates at runtime.
type Result struct {
	DocumentID string                  `json:"document_id"`
	Report     domain.ValidationReport `json:"report"`
	Warnings   []string                `json:"warnings,omitempty"`
}

// Valid reports whether the document has no structural errors.
func (r Result) Valid() bool {
	return r.Report.Valid()
}

// Err summarizes the structural errors, if any.
func (r Result) Err() error {
	return r.Report.Err()
}

// Validate checks the graph structure of doc and lints its nodes against
// the blackboard schema.
func Validate(doc *domain.Document) Result {
	res := Result{DocumentID: doc.ID, Report: doc.Validate()}
	warn := func(n domain.Node, format string, args ...any) {
		res.Warnings = append(res.Warnings, fmt.Sprintf("%s '%s': ", n.Kind(), n.Base().ID)+fmt.Sprintf(format, args...))
	}

	for _, n := range doc.Nodes() {
		for _, a := range n.Base().Actions {
			if a == nil {
				warn(n, "empty action")
				continue
			}
			checkVariable(doc.Schema, a.VariableName(), actionKind(a), func(msg string) { warn(n, "action %s", msg) })
		}

		switch node := n.(type) {
		case *domain.SpeechNode:
			checkText(doc.Schema, node.Text, func(msg string) { warn(n, "%s", msg) })
		case *domain.BranchNode:
			checkConditions(doc.Schema, node.Conditions, func(msg string) { warn(n, "%s", msg) })
		case *domain.OptionNode:
			if len(node.Options) == 0 {
				warn(n, "has no options")
			}
			switch {
			case node.TimeoutSeconds > 0 && node.DefaultOptionIndex < 0:
				warn(n, "timeout set without a default option, it never fires")
			case node.TimeoutSeconds > 0 && node.DefaultOptionIndex >= len(node.Options):
				warn(n, "timeout set but default option %d does not exist", node.DefaultOptionIndex)
			}
			for i, opt := range node.Options {
				if opt == nil {
					warn(n, "option %d is empty", i)
					continue
				}
				report := func(msg string) { warn(n, "option %d: %s", i, msg) }
				checkText(doc.Schema, opt.Text, report)
				checkConditions(doc.Schema, opt.Conditions, report)
				if len(doc.Outgoing(node.ID, i)) == 0 {
					report("leads nowhere")
				}
			}
		}
	}

	for _, c := range doc.Connections() {
		checkConditions(doc.Schema, c.Conditions, func(msg string) {
			res.Warnings = append(res.Warnings, fmt.Sprintf("connection '%s': %s", c.ID, msg))
		})
	}
	return res
}

// ValidateAll validates every document the loader lists.
// Documents that fail to load are reported as errors.
func ValidateAll(ctx context.Context, loader ports.DocumentLoader) ([]Result, error) {
	ids, err := loader.ListDocuments(ctx)
	if err != nil {
		return nil, err
	}
	results := make([]Result, 0, len(ids))
	for _, id := range ids {
		doc, err := loader.LoadDocument(ctx, id)
		if err != nil {
			return results, fmt.Errorf("load %s: %w", id, err)
		}
		results = append(results, Validate(doc))
	}
	return results, nil
}

func checkConditions(schema *domain.Blackboard, conditions []domain.Condition, report func(string)) {
	for _, c := range conditions {
		if c == nil {
			report("empty condition")
			continue
		}
		checkVariable(schema, c.VariableName(), domain.VariableKind(c.Type()), func(msg string) { report("condition " + msg) })
	}
}

func checkVariable(schema *domain.Blackboard, name string, want domain.VariableKind, report func(string)) {
	v, ok := schema.Lookup(name)
	switch {
	case !ok:
		report(fmt.Sprintf("uses undeclared variable '%s'", name))
	case want != "" && v.Kind != want:
		report(fmt.Sprintf("expects %s but '%s' is %s", want, name, v.Kind))
	}
}

func checkText(schema *domain.Blackboard, text string, report func(string)) {
	_, missing := domain.Interpolate(text, schema)
	for _, name := range missing {
		report(fmt.Sprintf("placeholder {%s} names no variable", name))
	}
}

func actionKind(a domain.Action) domain.VariableKind {
	switch a.Type() {
	case domain.ActionSetBool:
		return domain.KindBool
	case domain.ActionSetString:
		return domain.KindString
	case domain.ActionInt:
		return domain.KindInt
	case domain.ActionFloat:
		return domain.KindFloat
	}
	return ""
}
