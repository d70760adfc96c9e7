package document

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aretw0/parley/pkg/domain"
)

// BlackboardFile is the persisted form of a runtime blackboard, shared by
// every BlackboardStore adapter.
type BlackboardFile struct {
	Variables []domain.Variable `json:"variables"`
}

// MarshalBlackboard encodes a runtime blackboard as JSON.
func MarshalBlackboard(vars *domain.Blackboard) ([]byte, error) {
	if vars == nil {
		return nil, fmt.Errorf("cannot marshal nil blackboard")
	}
	return json.Marshal(BlackboardFile{Variables: vars.Variables()})
}

// UnmarshalBlackboard decodes a runtime blackboard. Variables of an unknown
// kind or whose value does not parse are reported and skipped.
func UnmarshalBlackboard(data []byte) (*domain.Blackboard, error) {
	var f BlackboardFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to unmarshal blackboard: %w", err)
	}

	vars := domain.NewBlackboard()
	var errs []error
	for _, v := range f.Variables {
		if _, err := v.Parsed(); err != nil {
			errs = append(errs, fmt.Errorf("variable %s: %w", v.Name, err))
			continue
		}
		if err := vars.Define(v.Name, v.Kind, v.Value); err != nil {
			errs = append(errs, err)
		}
	}
	return vars, errors.Join(errs...)
}
