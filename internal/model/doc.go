// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// Package model defines the records exchanged between the registry, the
// execution engine and the front ends.
//
// # Core Concepts
//
//   - FunctionDefinition: the durable record. It pairs FunctionMetadata with the
//     complete source text of the function. The registry persists exactly this
//     structure, one JSON document per function.
//
//   - FunctionSignature: the author's description of the two value groups the
//     function expects: inputs (x) supplied per call, and parameters (λ) that
//     tune the function. The signature is advisory. The engine never checks it
//     against the compiled function; only the formal parameter names found in
//     the source are enforced at call time.
//
//   - ExecutionRequest and ExecutionResult: the transient request and response
//     of a single execution. They are never persisted.
//
// The JSON field names follow the on-disk format used by earlier versions of
// the tool, so existing function directories load unchanged.
package model
