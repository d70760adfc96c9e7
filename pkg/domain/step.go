package domain

// StepStatus tells the caller what the engine is waiting for.
type StepStatus string

const (
	// AwaitingSpeech: present Step.Node as speech, then Resume with Advance.
	AwaitingSpeech StepStatus = "awaiting_speech"
	// AwaitingChoice: present Step.Options, then Resume with Choose.
	AwaitingChoice StepStatus = "awaiting_choice"
	// Ended: the session is over; hide the presentation.
	Ended StepStatus = "ended"
)

// EndReason explains why a session ended.
type EndReason string

const (
	EndNoConnection  EndReason = "no_connection"
	EndNoOptions     EndReason = "no_available_options"
	EndMissingNode   EndReason = "missing_node"
	EndUnknownKind   EndReason = "unknown_kind"
	EndStepBudget    EndReason = "step_budget_exhausted"
	EndExternal      EndReason = "ended_externally"
	EndSuperseded    EndReason = "superseded"
	EndNotStarted    EndReason = "not_started"
	EndContextCancel EndReason = "context_canceled"
)

// Step is the continuation returned by the traversal engine. It either
// describes a suspension point or the end of the session.
type Step struct {
	Status     StepStatus
	DocumentID string
	// Node is the Speech or Option node being presented. Nil once ended.
	Node Node
	// Options holds the options that passed their guards (AwaitingChoice only).
	Options []AvailableOption
	Reason  EndReason
	// Err records the traversal error that ended the session, if any.
	Err error
}

// Speech returns the presented speech node, if any.
func (s Step) Speech() (*SpeechNode, bool) {
	n, ok := s.Node.(*SpeechNode)
	return n, ok && s.Status == AwaitingSpeech
}

// Choice returns the presented option node, if any.
func (s Step) Choice() (*OptionNode, bool) {
	n, ok := s.Node.(*OptionNode)
	return n, ok && s.Status == AwaitingChoice
}

// IsEnded reports whether the session is over.
func (s Step) IsEnded() bool { return s.Status == Ended }

// InputKind is the type of a resume signal.
type InputKind string

const (
	InputAdvance InputKind = "advance"
	InputChoose  InputKind = "choose"
)

// Input resumes a suspended session.
type Input struct {
	Kind InputKind `json:"kind"`
	// Choice is the absolute option index (InputChoose only).
	Choice int `json:"choice,omitempty"`
}

// Advance builds the input that completes a speech.
func Advance() Input { return Input{Kind: InputAdvance} }

// Choose builds the input that selects an option by absolute index.
func Choose(index int) Input { return Input{Kind: InputChoose, Choice: index} }
