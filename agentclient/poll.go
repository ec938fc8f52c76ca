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

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/uomi-network/go-uomiagent/core/agents"
	"github.com/uomi-network/go-uomiagent/internal/journal"
	"golang.org/x/sync/errgroup"
)

// AwaitOutput polls getAgentOutput until the request output is settled,
// backing off between attempts as configured in Config.Poll. Read errors
// count as failed attempts. The wait ends early when ctx is done.
func (c *Client) AwaitOutput(ctx context.Context, requestID *big.Int) (*agents.Output, error) {
	var (
		poll    = c.cfg.Poll
		delay   = poll.Interval
		start   = time.Now()
		lastErr error
	)
	defer pollWaitTimer.UpdateSince(start)

	for attempt := 1; ; attempt++ {
		pollAttemptCounter.Inc(1)
		out, err := c.GetAgentOutput(ctx, requestID)
		switch {
		case err != nil:
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			pollErrorCounter.Inc(1)
			lastErr = err
			c.log.Debug("Agent output poll failed", "request", requestID, "attempt", attempt, "err", err)

		case out.Ready():
			c.log.Info("Agent output ready", "request", requestID, "attempts", attempt,
				"executions", out.TotalExecutions, "consensus", out.TotalConsensus,
				"elapsed", common.PrettyDuration(time.Since(start)))
			c.advance(requestID, journal.StatusAnswered, func(e *journal.Entry) {
				e.Output = out.Output
				e.TotalExecutions = out.TotalExecutions
				e.TotalConsensus = out.TotalConsensus
			})
			return out, nil

		default:
			lastErr = nil
			c.log.Debug("Agent output pending", "request", requestID, "attempt", attempt, "executions", out.TotalExecutions)
		}
		if poll.MaxAttempts > 0 && attempt >= poll.MaxAttempts {
			if lastErr != nil {
				return nil, fmt.Errorf("%w: request %v after %d attempts: %w", ErrPollExhausted, requestID, attempt, lastErr)
			}
			return nil, fmt.Errorf("%w: request %v after %d attempts", ErrPollExhausted, requestID, attempt)
		}
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
		delay = backoff(delay, poll)
	}
}

// backoff returns the delay following d.
func backoff(d time.Duration, poll PollConfig) time.Duration {
	next := time.Duration(float64(d) * poll.Multiplier)
	if next > poll.MaxInterval {
		return poll.MaxInterval
	}
	return next
}

// AwaitAll waits for several requests at once. Outputs are returned in the
// order of ids; the first failure cancels the remaining waits.
func (c *Client) AwaitAll(ctx context.Context, ids []*big.Int) ([]*agents.Output, error) {
	outputs := make([]*agents.Output, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			out, err := c.AwaitOutput(gctx, id)
			if err != nil {
				return fmt.Errorf("request %v: %w", id, err)
			}
			outputs[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return outputs, nil
}
