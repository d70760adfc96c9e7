package document

import (
	"fmt"
	"math/big"
	"strconv"

	"github.com/aretw0/parley/pkg/registry"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
)

// hclDocument is the authoring layout of a dialogue written in HCL:
//
//	variable "gold" { kind = "int" default = 5 }
//	node "speech" "hello" { speaker = "Merchant" text = "Hello" }
//	connection "c1" { from = "start" to = "hello" }
type hclDocument struct {
	ID          string           `hcl:"id,optional"`
	Name        string           `hcl:"name,optional"`
	Variables   []*hclVariable   `hcl:"variable,block"`
	Nodes       []*hclNode       `hcl:"node,block"`
	Connections []*hclConnection `hcl:"connection,block"`
}

type hclVariable struct {
	Name    string     `hcl:"name,label"`
	Kind    string     `hcl:"kind"`
	Default *cty.Value `hcl:"default,optional"`
}

type hclNode struct {
	Kind    string     `hcl:"kind,label"`
	GUID    string     `hcl:"guid,label"`
	X       float64    `hcl:"x,optional"`
	Y       float64    `hcl:"y,optional"`
	Actions []*hclSpec `hcl:"action,block"`

	Speaker            string  `hcl:"speaker,optional"`
	Text               string  `hcl:"text,optional"`
	Icon               string  `hcl:"icon,optional"`
	AudioSignal        string  `hcl:"audio_signal,optional"`
	AutoAdvanceSeconds float64 `hcl:"auto_advance_seconds,optional"`
	OnActivated        string  `hcl:"on_activated,optional"`
	OnCompleted        string  `hcl:"on_completed,optional"`

	Options            []*hclOption `hcl:"option,block"`
	TimeoutSeconds     float64      `hcl:"timeout_seconds,optional"`
	DefaultOptionIndex *int         `hcl:"default_option_index,optional"`

	Conditions []*hclSpec `hcl:"condition,block"`
}

type hclOption struct {
	Text       string     `hcl:"text"`
	OnSelected string     `hcl:"on_selected,optional"`
	Conditions []*hclSpec `hcl:"condition,block"`
}

type hclConnection struct {
	GUID       string     `hcl:"guid,label"`
	From       string     `hcl:"from"`
	FromPort   int        `hcl:"from_port,optional"`
	To         string     `hcl:"to"`
	ToPort     int        `hcl:"to_port,optional"`
	Conditions []*hclSpec `hcl:"condition,block"`
}

type hclSpec struct {
	Type          string     `hcl:"type,label"`
	Variable      string     `hcl:"variable"`
	Op            string     `hcl:"op,optional"`
	Value         *cty.Value `hcl:"value,optional"`
	Tolerance     float64    `hcl:"tolerance,optional"`
	CaseSensitive bool       `hcl:"case_sensitive,optional"`
}

func parseHCL(data []byte, filename string) (File, error) {
	parser := hclparse.NewParser()
	hclFile, diags := parser.ParseHCL(data, filename)
	if diags.HasErrors() {
		return File{}, fmt.Errorf("failed to parse HCL file %s: %w", filename, diags)
	}

	var parsed hclDocument
	diags = gohcl.DecodeBody(hclFile.Body, nil, &parsed)
	if diags.HasErrors() {
		return File{}, fmt.Errorf("failed to decode HCL file %s: %w", filename, diags)
	}
	return parsed.toFile()
}

func (d *hclDocument) toFile() (File, error) {
	f := File{ID: d.ID, Name: d.Name}

	for _, v := range d.Variables {
		def, err := ctyToCanonical(v.Default)
		if err != nil {
			return File{}, fmt.Errorf("variable %q: %w", v.Name, err)
		}
		f.Blackboard = append(f.Blackboard, VariableFile{Name: v.Name, Kind: v.Kind, Default: def})
	}

	for _, n := range d.Nodes {
		nf := NodeFile{
			GUID:               n.GUID,
			Kind:               n.Kind,
			Position:           PositionFile{X: n.X, Y: n.Y},
			Speaker:            n.Speaker,
			Text:               n.Text,
			Icon:               n.Icon,
			AudioSignal:        n.AudioSignal,
			AutoAdvanceSeconds: n.AutoAdvanceSeconds,
			OnActivated:        n.OnActivated,
			OnCompleted:        n.OnCompleted,
			TimeoutSeconds:     n.TimeoutSeconds,
			DefaultOptionIndex: n.DefaultOptionIndex,
		}
		var err error
		if nf.Actions, err = specsFromHCL(n.Actions); err != nil {
			return File{}, fmt.Errorf("node %q: %w", n.GUID, err)
		}
		if nf.Conditions, err = specsFromHCL(n.Conditions); err != nil {
			return File{}, fmt.Errorf("node %q: %w", n.GUID, err)
		}
		for _, o := range n.Options {
			guards, err := specsFromHCL(o.Conditions)
			if err != nil {
				return File{}, fmt.Errorf("node %q option %q: %w", n.GUID, o.Text, err)
			}
			nf.Options = append(nf.Options, OptionFile{Text: o.Text, OnSelected: o.OnSelected, Conditions: guards})
		}
		f.Nodes = append(f.Nodes, nf)
	}

	for _, c := range d.Connections {
		guards, err := specsFromHCL(c.Conditions)
		if err != nil {
			return File{}, fmt.Errorf("connection %q: %w", c.GUID, err)
		}
		f.Connections = append(f.Connections, ConnectionFile{
			GUID:       c.GUID,
			From:       c.From,
			FromPort:   c.FromPort,
			To:         c.To,
			ToPort:     c.ToPort,
			Conditions: guards,
		})
	}
	return f, nil
}

func specsFromHCL(blocks []*hclSpec) ([]registry.Spec, error) {
	var out []registry.Spec
	for _, b := range blocks {
		value, err := ctyToCanonical(b.Value)
		if err != nil {
			return nil, fmt.Errorf("%s on %q: %w", b.Type, b.Variable, err)
		}
		out = append(out, registry.Spec{
			Type:          b.Type,
			Variable:      b.Variable,
			Op:            b.Op,
			Value:         value,
			Tolerance:     b.Tolerance,
			CaseSensitive: b.CaseSensitive,
		})
	}
	return out, nil
}

// ctyToCanonical renders a primitive HCL value in the canonical string form
// used by blackboard variables.
func ctyToCanonical(v *cty.Value) (string, error) {
	if v == nil || v.IsNull() {
		return "", nil
	}
	if !v.IsKnown() {
		return "", fmt.Errorf("value is not known")
	}

	switch ty := v.Type(); ty {
	case cty.String:
		return v.AsString(), nil
	case cty.Bool:
		return strconv.FormatBool(v.True()), nil
	case cty.Number:
		bf := v.AsBigFloat()
		if bf.IsInt() {
			if i, acc := bf.Int64(); acc == big.Exact {
				return strconv.FormatInt(i, 10), nil
			}
		}
		f, _ := bf.Float64()
		return strconv.FormatFloat(f, 'g', -1, 64), nil
	default:
		return "", fmt.Errorf("unsupported value type %s", ty.FriendlyName())
	}
}
