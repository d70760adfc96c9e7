package domain

import (
	"errors"
	"fmt"
)

// ErrVariableNotFound is returned when a variable is not defined in a Blackboard.
// Variables are never created at runtime; they must exist in the document schema.
var ErrVariableNotFound = errors.New("variable not found")

// ErrVariableExists is returned when defining a variable whose name is already taken.
var ErrVariableExists = errors.New("variable already defined")

// ErrNilCondition is reported when a condition list contains an empty entry.
var ErrNilCondition = errors.New("nil condition")

// ErrNilAction is reported when an action list contains an empty entry.
var ErrNilAction = errors.New("nil action")

// ErrRootExists is returned when adding a second Root node to a document.
var ErrRootExists = errors.New("document already has a root node")

// ErrRootRemoval is returned when trying to remove the Root node of a document.
var ErrRootRemoval = errors.New("root node cannot be removed")

// ErrNoRoot is returned when a session is started on a document without a Root node.
var ErrNoRoot = errors.New("document has no root node")

// ErrNodeNotFound is returned when a GUID does not resolve to a node.
var ErrNodeNotFound = errors.New("node not found")

// ErrDuplicateNode is returned when a node GUID is empty or already in use.
var ErrDuplicateNode = errors.New("duplicate or empty node guid")

// ErrInvalidPort is returned when a port index is outside a node's port range.
var ErrInvalidPort = errors.New("invalid port")

// ErrUnknownKind is returned for unrecognized node, condition or action kinds.
var ErrUnknownKind = errors.New("unknown kind")

// ErrBlackboardNotFound is returned when a store holds no runtime blackboard for a document.
var ErrBlackboardNotFound = errors.New("blackboard not found")

// ErrDocumentNotFound is returned when a loader cannot resolve a document ID.
var ErrDocumentNotFound = errors.New("document not found")

// TypeMismatchError reports a value that could not be coerced to a variable's kind.
type TypeMismatchError struct {
	Variable string
	Want     VariableKind
	Got      string
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("variable %q: cannot use %s as %s", e.Variable, e.Got, e.Want)
}

// ErrNoActiveSession is returned when resuming while no session is running.
var ErrNoActiveSession = errors.New("no active session")

// ErrInvalidChoice is returned when a choice is not among the available options.
var ErrInvalidChoice = errors.New("invalid choice")

// ErrUnexpectedInput is returned when the input kind does not match what the session awaits.
var ErrUnexpectedInput = errors.New("unexpected input")

// ErrStepBudgetExceeded ends a session that chained too many nodes without
// reaching a speech or option node.
var ErrStepBudgetExceeded = errors.New("step budget exceeded")
