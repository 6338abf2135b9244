package engine

import (
	"fmt"

	"github.com/specialistvlad/paramfn/internal/ctyconv"
)

// Call applies args to unit as keyword arguments and returns the result as
// a native Go value. Any failure is reported as a KindRuntime error.
func Call(unit *Unit, args BoundArguments) (any, error) {
	values, err := ctyconv.MapToCty(args)
	if err != nil {
		return nil, runtimeFailure(unit.Name(), fmt.Errorf("invalid argument: %w", err))
	}

	ret, err := unit.fn.Call(values)
	if err != nil {
		return nil, runtimeFailure(unit.Name(), err)
	}

	out, err := ctyconv.ToNative(ret)
	if err != nil {
		return nil, runtimeFailure(unit.Name(), fmt.Errorf("unsupported result: %w", err))
	}
	return out, nil
}
