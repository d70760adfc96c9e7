package dsl

import "github.com/aretw0/parley/pkg/domain"

// IsTrue checks that a bool variable is true.
func IsTrue(name string) domain.Condition {
	return &domain.BoolCondition{Variable: name, Check: domain.IsTrue}
}

// IsFalse checks that a bool variable is false.
func IsFalse(name string) domain.Condition {
	return &domain.BoolCondition{Variable: name, Check: domain.IsFalse}
}

// Int compares an int variable.
func Int(name string, op domain.Comparison, value int64) domain.Condition {
	return &domain.IntCondition{Variable: name, Op: op, Value: value}
}

// Float compares a float variable using the default tolerance.
func Float(name string, op domain.Comparison, value float64) domain.Condition {
	return &domain.FloatCondition{Variable: name, Op: op, Value: value}
}

// Text matches a string variable, ignoring case.
func Text(name string, op domain.StringMatch, value string) domain.Condition {
	return &domain.StringCondition{Variable: name, Op: op, Value: value}
}

// SetBool assigns a bool variable.
func SetBool(name string, value bool) domain.Action {
	return &domain.SetBoolAction{Variable: name, Value: value}
}

// SetText assigns a string variable.
func SetText(name, value string) domain.Action {
	return &domain.SetStringAction{Variable: name, Value: value}
}

// IntOp applies op to an int variable.
func IntOp(name string, op domain.Arithmetic, value int64) domain.Action {
	return &domain.IntAction{Variable: name, Op: op, Value: value}
}

// FloatOp applies op to a float variable.
func FloatOp(name string, op domain.Arithmetic, value float64) domain.Action {
	return &domain.FloatAction{Variable: name, Op: op, Value: value}
}
