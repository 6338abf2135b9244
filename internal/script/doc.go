// Package script implements the small language stored function definitions
// are written in.
//
// A program is a sequence of top-level statements. Function definitions use a
// Python-like header and an indented body, while every expression is written
// in HCL native syntax and evaluated on cty values:
//
//	rate = 0.5
//
//	def scaled(x, factor):
//	    base = x * factor
//	    if base > 100: return 100
//	    return base * rate
//
//	def clamp(v, lo, hi): return min(max(v, lo), hi)
//
// Supported statements are assignments (including +=, -=, *=, /=, %=),
// return, raise, assert, single-line if, pass and bare expressions. A final
// parameter written as **name collects keyword arguments that match no other
// parameter into an object.
//
// Executing a program (Exec) runs its top-level statements once in an empty
// environment and yields a Module. Functions in the module are looked up by
// name and called with keyword arguments. Calls between functions, including
// recursion, resolve when the call happens.
package script
