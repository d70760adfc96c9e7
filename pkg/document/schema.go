package document

import "github.com/aretw0/parley/pkg/registry"

// File is the persisted form of a document. JSON, YAML, HCL and loam
// front matter all decode into it.
type File struct {
	ID          string           `json:"id" yaml:"id" mapstructure:"id"`
	Name        string           `json:"name,omitempty" yaml:"name,omitempty" mapstructure:"name"`
	Nodes       []NodeFile       `json:"nodes" yaml:"nodes" mapstructure:"nodes"`
	Connections []ConnectionFile `json:"connections" yaml:"connections" mapstructure:"connections"`
	Blackboard  []VariableFile   `json:"blackboard" yaml:"blackboard" mapstructure:"blackboard"`
}

// NodeFile holds the fields of every node kind; unused ones are omitted.
type NodeFile struct {
	GUID     string          `json:"guid" yaml:"guid" mapstructure:"guid"`
	Kind     string          `json:"kind" yaml:"kind" mapstructure:"kind"`
	Position PositionFile    `json:"position" yaml:"position" mapstructure:"position"`
	Actions  []registry.Spec `json:"actions,omitempty" yaml:"actions,omitempty" mapstructure:"actions"`

	// Speech
	Speaker            string  `json:"speaker,omitempty" yaml:"speaker,omitempty" mapstructure:"speaker"`
	Text               string  `json:"text,omitempty" yaml:"text,omitempty" mapstructure:"text"`
	Icon               string  `json:"icon,omitempty" yaml:"icon,omitempty" mapstructure:"icon"`
	AudioSignal        string  `json:"audio_signal,omitempty" yaml:"audio_signal,omitempty" mapstructure:"audio_signal"`
	AutoAdvanceSeconds float64 `json:"auto_advance_seconds,omitempty" yaml:"auto_advance_seconds,omitempty" mapstructure:"auto_advance_seconds"`
	OnActivated        string  `json:"on_activated,omitempty" yaml:"on_activated,omitempty" mapstructure:"on_activated"`
	OnCompleted        string  `json:"on_completed,omitempty" yaml:"on_completed,omitempty" mapstructure:"on_completed"`

	// Option
	Options            []OptionFile `json:"options,omitempty" yaml:"options,omitempty" mapstructure:"options"`
	TimeoutSeconds     float64      `json:"timeout_seconds,omitempty" yaml:"timeout_seconds,omitempty" mapstructure:"timeout_seconds"`
	DefaultOptionIndex *int         `json:"default_option_index,omitempty" yaml:"default_option_index,omitempty" mapstructure:"default_option_index"`

	// Branch
	Conditions []registry.Spec `json:"conditions,omitempty" yaml:"conditions,omitempty" mapstructure:"conditions"`
}

// PositionFile is the editor position of a node.
type PositionFile struct {
	X float64 `json:"x" yaml:"x" mapstructure:"x"`
	Y float64 `json:"y" yaml:"y" mapstructure:"y"`
}

// OptionFile is one choice of an option node.
type OptionFile struct {
	Text       string          `json:"text" yaml:"text" mapstructure:"text"`
	Conditions []registry.Spec `json:"conditions,omitempty" yaml:"conditions,omitempty" mapstructure:"conditions"`
	OnSelected string          `json:"on_selected,omitempty" yaml:"on_selected,omitempty" mapstructure:"on_selected"`
}

// ConnectionFile is a persisted connection.
type ConnectionFile struct {
	GUID       string          `json:"guid" yaml:"guid" mapstructure:"guid"`
	From       string          `json:"from" yaml:"from" mapstructure:"from"`
	FromPort   int             `json:"from_port" yaml:"from_port" mapstructure:"from_port"`
	To         string          `json:"to" yaml:"to" mapstructure:"to"`
	ToPort     int             `json:"to_port" yaml:"to_port" mapstructure:"to_port"`
	Conditions []registry.Spec `json:"conditions,omitempty" yaml:"conditions,omitempty" mapstructure:"conditions"`
}

// VariableFile is a blackboard schema entry.
type VariableFile struct {
	Name    string `json:"name" yaml:"name" mapstructure:"name"`
	Kind    string `json:"kind" yaml:"kind" mapstructure:"kind"`
	Default string `json:"default" yaml:"default" mapstructure:"default"`
}
