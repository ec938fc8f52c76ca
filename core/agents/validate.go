// Copyright 2025 The go-uomiagent Authors
// This file is part of the go-uomiagent library.
//
// The go-uomiagent library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-uomiagent library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-uomiagent library. If not, see <http://www.gnu.org/licenses/>.

package agents

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/uomi-network/go-uomiagent/common/units"
)

var (
	ErrEmptyName      = errors.New("agent name is empty")
	ErrEmptyCID       = errors.New("agent CID is empty")
	ErrInvalidCID     = errors.New("agent CID contains whitespace")
	ErrEmptyTag       = errors.New("agent tag is empty")
	ErrDuplicateTag   = errors.New("duplicate agent tag")
	ErrInvalidPrice   = errors.New("agent price out of range")
	ErrNoValidators   = errors.New("agent needs at least one validator")
	ErrInvalidSchema  = errors.New("invalid JSON schema")
	ErrInputMismatch  = errors.New("input does not match the agent input schema")
	errNegativeNumber = errors.New("negative number")
)

// Validate checks the record before it is sent to the contract. Schemas are
// compiled when they are non-trivial.
func (a *Agent) Validate() error {
	if strings.TrimSpace(a.Name) == "" {
		return ErrEmptyName
	}
	if a.AgentCID == "" {
		return ErrEmptyCID
	}
	if strings.ContainsAny(a.AgentCID, " \t\r\n") {
		return ErrInvalidCID
	}
	seen := mapset.NewThreadUnsafeSet[string]()
	for _, tag := range a.Tags {
		if strings.TrimSpace(tag) == "" {
			return ErrEmptyTag
		}
		if !seen.Add(tag) {
			return fmt.Errorf("%w: %q", ErrDuplicateTag, tag)
		}
	}
	if a.Price != nil && !units.FitsUint256(a.Price) {
		return ErrInvalidPrice
	}
	if a.MinValidators == nil || a.MinValidators.Sign() <= 0 {
		return ErrNoValidators
	}
	if a.MinBlocks != nil && a.MinBlocks.Sign() < 0 {
		return fmt.Errorf("min blocks: %w", errNegativeNumber)
	}
	if _, err := CompileSchema("input", a.InputSchema); err != nil {
		return err
	}
	if _, err := CompileSchema("output", a.OutputSchema); err != nil {
		return err
	}
	return nil
}

// CompileSchema compiles a JSON schema document. Empty documents and the
// match-all "{}" yield a nil schema.
func CompileSchema(name, doc string) (*jsonschema.Schema, error) {
	if isTrivialSchema(doc) {
		return nil, nil
	}
	schema, err := jsonschema.CompileString(name+".json", doc)
	if err != nil {
		return nil, fmt.Errorf("%w (%s): %v", ErrInvalidSchema, name, err)
	}
	return schema, nil
}

// ValidateInput checks a call payload against an agent input schema. Inputs
// for agents without a schema are accepted as is.
func ValidateInput(schemaDoc, input string) error {
	schema, err := CompileSchema("input", schemaDoc)
	if err != nil || schema == nil {
		return err
	}
	var v interface{}
	if err := json.Unmarshal([]byte(input), &v); err != nil {
		return fmt.Errorf("%w: input is not JSON: %v", ErrInputMismatch, err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("%w: %v", ErrInputMismatch, err)
	}
	return nil
}

func isTrivialSchema(doc string) bool {
	doc = strings.TrimSpace(doc)
	return doc == "" || doc == "{}"
}
