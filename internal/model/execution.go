// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file defines the transient request and response of one execution.
package model

import "time"

// ExecutionRequest asks the engine to run a stored function.
//
// Inputs and Parameters should not share keys. When they do, the value from
// Parameters is used.
type ExecutionRequest struct {
	FunctionName string         `json:"function_name"`
	Inputs       map[string]any `json:"inputs"`
	Parameters   map[string]any `json:"parameters"`
}

// ExecutionResult is the outcome of a successful execution.
type ExecutionResult struct {
	Result       any       `json:"result"`
	FunctionName string    `json:"function_name"`
	ExecutedAt   time.Time `json:"executed_at"`
	ExecutionID  string    `json:"execution_id"`
	DurationMS   float64   `json:"duration_ms"`
}
