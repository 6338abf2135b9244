package engine

// BoundArguments maps argument names to values, ready to be applied as
// keyword arguments.
type BoundArguments map[string]any

// Bind merges inputs and parameters and checks that every declared parameter
// of unit receives a value. Parameters override inputs with the same key.
// Undeclared keys are kept; whether they are accepted is decided by the call.
func Bind(unit *Unit, inputs, parameters map[string]any) (BoundArguments, error) {
	merged := make(BoundArguments, len(inputs)+len(parameters))
	for k, v := range inputs {
		merged[k] = v
	}
	for k, v := range parameters {
		merged[k] = v
	}

	var missing []string
	for _, name := range unit.Params() {
		if _, ok := merged[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, missingArguments(unit.Name(), missing)
	}
	return merged, nil
}
