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
	"bytes"
	"encoding/json"
	"fmt"
	"math/big"
	"os"

	"github.com/uomi-network/go-uomiagent/common/units"
	"gopkg.in/yaml.v3"
)

// Manifest is the human editable description of an agent, read from YAML or
// JSON files by the mint and update commands.
//
//	name: Whitepaper Agent
//	description: explains the network ecosystem
//	inputSchema: {}
//	outputSchema: {}
//	tags: [uomi, chat, whitepaper]
//	price: "0"
//	minValidators: 4
//	minBlocks: 20
//	agentCID: bafkreif5jtx37ujddnelg73tuyppzyimal32n6q57ovzkso56g7hcnevye
type Manifest struct {
	Name          string     `yaml:"name"`
	Description   string     `yaml:"description"`
	InputSchema   SchemaText `yaml:"inputSchema"`
	OutputSchema  SchemaText `yaml:"outputSchema"`
	Tags          []string   `yaml:"tags"`
	Price         string     `yaml:"price"` // decimal ether
	MinValidators uint64     `yaml:"minValidators"`
	MinBlocks     uint64     `yaml:"minBlocks"`
	AgentCID      string     `yaml:"agentCID"`
}

// SchemaText is a JSON schema that may be written either as a string or as
// an inline YAML mapping.
type SchemaText string

// UnmarshalYAML implements yaml.Unmarshaler.
func (s *SchemaText) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		*s = SchemaText(node.Value)
		return nil
	}
	var v interface{}
	if err := node.Decode(&v); err != nil {
		return err
	}
	blob, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("schema at line %d: %v", node.Line, err)
	}
	*s = SchemaText(blob)
	return nil
}

// LoadManifest reads a manifest file.
func LoadManifest(path string) (*Manifest, error) {
	blob, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	m, err := ParseManifest(blob)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// ParseManifest decodes a YAML (or JSON) manifest, rejecting unknown keys.
func ParseManifest(blob []byte) (*Manifest, error) {
	var m Manifest
	dec := yaml.NewDecoder(bytes.NewReader(blob))
	dec.KnownFields(true)
	if err := dec.Decode(&m); err != nil {
		return nil, err
	}
	return &m, nil
}

// Agent converts the manifest into a validated contract record.
func (m *Manifest) Agent() (*Agent, error) {
	price := new(big.Int)
	if m.Price != "" {
		var err error
		if price, err = units.ParseEther(m.Price); err != nil {
			return nil, fmt.Errorf("price: %w", err)
		}
	}
	tags := m.Tags
	if tags == nil {
		tags = []string{}
	}
	agent := &Agent{
		Name:          m.Name,
		Description:   m.Description,
		InputSchema:   string(m.InputSchema),
		OutputSchema:  string(m.OutputSchema),
		Tags:          tags,
		Price:         price,
		MinValidators: new(big.Int).SetUint64(m.MinValidators),
		MinBlocks:     new(big.Int).SetUint64(m.MinBlocks),
		AgentCID:      m.AgentCID,
	}
	if err := agent.Validate(); err != nil {
		return nil, err
	}
	return agent, nil
}

// NewManifest renders a contract record as a manifest.
func NewManifest(a *Agent) *Manifest {
	m := &Manifest{
		Name:         a.Name,
		Description:  a.Description,
		InputSchema:  SchemaText(a.InputSchema),
		OutputSchema: SchemaText(a.OutputSchema),
		Tags:         a.Tags,
		Price:        units.FormatEther(a.Price),
		AgentCID:     a.AgentCID,
	}
	if a.MinValidators != nil {
		m.MinValidators = a.MinValidators.Uint64()
	}
	if a.MinBlocks != nil {
		m.MinBlocks = a.MinBlocks.Uint64()
	}
	return m
}
