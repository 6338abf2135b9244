// Package engine turns stored function definitions into results.
//
// An execution runs four stages in order and stops at the first failure:
//
//	Lookup  - the definition is fetched by name from a Lookuper
//	Compile - the source is parsed and its top-level statements are run
//	Bind    - inputs and parameters are merged and checked against the
//	          declared parameter names
//	Call    - the function is applied to the bound arguments
//
// Every failure is reported as an *Error whose Kind tells the stage apart.
// Compiled units are never cached: each execution compiles the source again,
// so an update to a stored definition is seen by the next execution.
package engine
