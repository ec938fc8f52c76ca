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

package agentclient

import "github.com/ethereum/go-ethereum/metrics"

var (
	txSentCounter     = metrics.NewRegisteredCounter("agentclient/tx/sent", nil)
	txFailedCounter   = metrics.NewRegisteredCounter("agentclient/tx/failed", nil)
	txRevertedCounter = metrics.NewRegisteredCounter("agentclient/tx/reverted", nil)
	txMinedTimer      = metrics.NewRegisteredTimer("agentclient/tx/mined", nil)

	readCounter       = metrics.NewRegisteredCounter("agentclient/read/calls", nil)
	readFailedCounter = metrics.NewRegisteredCounter("agentclient/read/failed", nil)
	cacheHitCounter   = metrics.NewRegisteredCounter("agentclient/cache/hit", nil)
	cacheMissCounter  = metrics.NewRegisteredCounter("agentclient/cache/miss", nil)

	pollAttemptCounter = metrics.NewRegisteredCounter("agentclient/poll/attempts", nil)
	pollErrorCounter   = metrics.NewRegisteredCounter("agentclient/poll/errors", nil)
	pollWaitTimer      = metrics.NewRegisteredTimer("agentclient/poll/wait", nil)
)
