// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

/*
Package dragon implements a distributed, multi-agent resource-allocation
protocol (RAP): a fixed set of autonomous agents (SDOs) simultaneously
place service bundles onto a shared set of physical nodes exposing
bounded, typed resources, with no central arbiter.

# Architecture

The module is organized by protocol concern, leaves first:

  - rap/           immutable problem instance, resource arithmetic, norm
  - oracle/        pluggable private-utility oracle and its flavors
  - bidding/        bid, bidding data, implementation and wire message types
  - election/       per-node greedy knapsack election and false-winner removal
  - orchestrator/   per-agent greedy/patience bundle search and rebidding
  - agreement/      neighbor-merge, overbid detection, decision table
  - neighborhood/   static and time-varying neighbor derivation
  - node/           the per-agent event loop (ingress + driver)
  - transport/      pub/sub broker contract plus in-memory and ZeroMQ backends
  - config/         immutable configuration, presets, JSON loading
  - metrics/        counters, gauges and averagers over a Prometheus registry
  - logx/           the github.com/luxfi/log contract, wired to stdout/file
  - codec/          the JSON wire codec shared by bidding messages
  - cmd/rap-agent/  the one-process-per-agent CLI entrypoint

# Protocol flow

	RAP instance -> Orchestrator (initial bid) -> broadcast
	  -> neighbors' Node Drivers enqueue -> Agreement Engine merges
	  -> possibly Orchestrator re-bids -> broadcast -> ...
	  -> quiescence timers fire -> terminate

Agents never learn a global view: they only exchange BiddingMessages with
their static neighborhood until every neighbor's reported state agrees
with their own, or the weak-agreement timeout fires.

# Non-goals

Optimality of the final allocation (the protocol is a heuristic), Byzantine
fault tolerance, dynamic agent membership, and partial-bundle commitment
are explicitly out of scope; see each package's doc comment for the
invariants it upholds instead.
*/
package dragon
