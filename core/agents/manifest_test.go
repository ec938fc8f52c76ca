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
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

const whitepaperManifest = `
name: Whitepaper Agent
description: explains the network ecosystem
inputSchema: "{}"
outputSchema:
  type: string
tags: [uomi, chat, whitepaper]
price: "0.5"
minValidators: 4
minBlocks: 20
agentCID: bafkreif5jtx37ujddnelg73tuyppzyimal32n6q57ovzkso56g7hcnevye
`

func TestManifestAgent(t *testing.T) {
	m, err := ParseManifest([]byte(whitepaperManifest))
	require.NoError(t, err)

	agent, err := m.Agent()
	require.NoError(t, err)
	assert.Equal(t, "Whitepaper Agent", agent.Name)
	assert.Equal(t, "{}", agent.InputSchema)
	assert.JSONEq(t, `{"type":"string"}`, agent.OutputSchema)
	assert.Equal(t, []string{"uomi", "chat", "whitepaper"}, agent.Tags)
	assert.Equal(t, "500000000000000000", agent.Price.String())
	assert.Equal(t, int64(4), agent.MinValidators.Int64())
	assert.Equal(t, int64(20), agent.MinBlocks.Int64())
	assert.Equal(t, "0.5", agent.PriceEther())
}

func TestManifestJSON(t *testing.T) {
	m, err := ParseManifest([]byte(`{"name":"j","tags":[],"minValidators":1,"agentCID":"bafk"}`))
	require.NoError(t, err)
	agent, err := m.Agent()
	require.NoError(t, err)
	assert.Equal(t, int64(0), agent.Price.Int64())
	assert.Empty(t, agent.Tags)
}

func TestManifestErrors(t *testing.T) {
	_, err := ParseManifest([]byte("name: x\nunknownKey: 1\n"))
	assert.Error(t, err, "unknown keys are rejected")

	m, err := ParseManifest([]byte("name: x\nprice: abc\nminValidators: 1\nagentCID: bafk\n"))
	require.NoError(t, err)
	_, err = m.Agent()
	assert.Error(t, err)

	m, err = ParseManifest([]byte("name: x\nminValidators: 1\nagentCID: bafk\ntags: [a, a]\n"))
	require.NoError(t, err)
	_, err = m.Agent()
	assert.ErrorIs(t, err, ErrDuplicateTag)
}

func TestManifestFileRoundTrip(t *testing.T) {
	agent := testAgent()
	blob, err := yaml.Marshal(NewManifest(agent))
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "agent.yaml")
	require.NoError(t, os.WriteFile(path, blob, 0644))

	m, err := LoadManifest(path)
	require.NoError(t, err)
	back, err := m.Agent()
	require.NoError(t, err)
	assert.Equal(t, agent, back)

	_, err = LoadManifest(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
