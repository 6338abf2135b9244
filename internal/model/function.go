// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file defines the function definition record and its metadata.
//
// Why is the name validated so strictly?
//
// The name is used three ways: as the registry key, as the file name of the
// persisted record, and as the name the compiler looks up in the source text.
// Restricting it to identifier characters keeps all three uses consistent and
// rules out path traversal through the file name.
package model

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrInvalidDefinition is returned by Validate.
var ErrInvalidDefinition = errors.New("invalid function definition")

// identifierPattern matches the names accepted for functions.
var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// FunctionSignature describes the declared value groups of a function.
type FunctionSignature struct {
	InputParams []string `json:"input_params" yaml:"input_params"`
	OutputType  string   `json:"output_type" yaml:"output_type"`
	ParamNames  []string `json:"param_names" yaml:"param_names"`
}

// FunctionMetadata identifies a function and carries its descriptive fields.
type FunctionMetadata struct {
	Name        string            `json:"name" yaml:"name"`
	Signature   FunctionSignature `json:"signature" yaml:"signature"`
	Description *string           `json:"description" yaml:"description,omitempty"`
}

// FunctionDefinition is the durable record owned by the registry.
type FunctionDefinition struct {
	Metadata FunctionMetadata `json:"metadata" yaml:"metadata"`
	Code     string           `json:"code" yaml:"code"`
}

// NewFunctionDefinition builds a definition from its parts. An empty
// description is stored as null.
func NewFunctionDefinition(name, code string, sig FunctionSignature, description string) *FunctionDefinition {
	var desc *string
	if description != "" {
		desc = &description
	}
	if sig.InputParams == nil {
		sig.InputParams = []string{}
	}
	if sig.ParamNames == nil {
		sig.ParamNames = []string{}
	}
	return &FunctionDefinition{
		Metadata: FunctionMetadata{
			Name:        name,
			Signature:   sig,
			Description: desc,
		},
		Code: code,
	}
}

// Name is a shortcut for Metadata.Name.
func (d *FunctionDefinition) Name() string {
	return d.Metadata.Name
}

// Validate checks the structural requirements of a definition. It does not
// compile the code.
func (d *FunctionDefinition) Validate() error {
	var errs []string

	name := d.Metadata.Name
	switch {
	case name == "":
		errs = append(errs, "metadata.name is required")
	case !IsValidName(name):
		errs = append(errs, fmt.Sprintf("metadata.name %q is not a valid identifier", name))
	}
	if strings.TrimSpace(d.Code) == "" {
		errs = append(errs, "code is required")
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidDefinition, strings.Join(errs, "; "))
	}
	return nil
}

// IsValidName reports whether name can be used as a function name.
func IsValidName(name string) bool {
	return identifierPattern.MatchString(name)
}
