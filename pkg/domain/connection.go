package domain

// Connection is a directed edge from an output port to a node input.
type Connection struct {
	ID         string
	From       string
	FromPort   int
	To         string
	ToPort     int
	Conditions []Condition
}

// Eligible reports whether the connection's guards hold.
func (c *Connection) Eligible(vars VariableReader) (bool, error) {
	return EvaluateAll(c.Conditions, vars)
}
