// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/luxfi/log"
	"github.com/spf13/cobra"

	"github.com/gabrielecastellano/dragon/agreement"
	"github.com/gabrielecastellano/dragon/bidding"
	"github.com/gabrielecastellano/dragon/config"
	"github.com/gabrielecastellano/dragon/logx"
	"github.com/gabrielecastellano/dragon/metrics"
	"github.com/gabrielecastellano/dragon/neighborhood"
	"github.com/gabrielecastellano/dragon/node"
	"github.com/gabrielecastellano/dragon/oracle"
	"github.com/gabrielecastellano/dragon/orchestrator"
	"github.com/gabrielecastellano/dragon/rap"
	"github.com/gabrielecastellano/dragon/transport"
)

func runCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one agent to completion",
		RunE: func(cmd *cobra.Command, args []string) error {
			code, err := runRapAgent(cmd)
			if err != nil {
				return err
			}
			os.Exit(code)
			return nil
		},
	}

	cmd.Flags().String("name", "", "this agent's SDO name (required)")
	cmd.Flags().String("rap", "", "path to the RAP instance JSON file (required)")
	cmd.Flags().StringSlice("bundle", nil, "service names this agent bids for (required)")
	cmd.Flags().StringSlice("agents", nil, "every SDO name in the system, for hash-based neighborhood derivation")
	cmd.Flags().String("topology", "", "path to a topology JSON file ({agent: [neighbor,...]})")
	cmd.Flags().String("config", "", "path to a config JSON file overriding parameter defaults")
	cmd.Flags().String("stats", "", "path to a statistics JSON file feeding the cdn-traffic/game-latency oracle flavors")
	cmd.Flags().String("log-level", "INFO", "DEBUG, INFO, WARNING or ERROR")
	cmd.Flags().String("log-file", "", "write logs here instead of stdout")
	cmd.Flags().String("results-dir", "results", "directory results/*.json are written under")
	cmd.Flags().String("transport", "memory", "transport: memory (in-process, for tests) or zmq")
	cmd.Flags().String("pub", "", "ZeroMQ PUB bind endpoint, e.g. tcp://*:5555 (transport=zmq)")
	cmd.Flags().StringSlice("peers", nil, "ZeroMQ SUB connect endpoints of every peer (transport=zmq)")
	cmd.Flags().Bool("rebid", true, "immediately rebid on overbid detection instead of deferring")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("rap")
	_ = cmd.MarkFlagRequired("bundle")

	return cmd
}

// runRapAgent loads the RAP instance, builds every component, drives the
// node loop to termination and writes results. It returns the POSIX exit
// code (the agent's final private utility, clamped to [0,255]).
func runRapAgent(cmd *cobra.Command) (int, error) {
	name, _ := cmd.Flags().GetString("name")
	rapPath, _ := cmd.Flags().GetString("rap")
	bundleNames, _ := cmd.Flags().GetStringSlice("bundle")
	agentNames, _ := cmd.Flags().GetStringSlice("agents")
	topologyPath, _ := cmd.Flags().GetString("topology")
	configPath, _ := cmd.Flags().GetString("config")
	statsPath, _ := cmd.Flags().GetString("stats")
	logLevel, _ := cmd.Flags().GetString("log-level")
	logFile, _ := cmd.Flags().GetString("log-file")
	resultsDir, _ := cmd.Flags().GetString("results-dir")
	transportKind, _ := cmd.Flags().GetString("transport")
	pubEndpoint, _ := cmd.Flags().GetString("pub")
	peers, _ := cmd.Flags().GetStringSlice("peers")
	rebidEnabled, _ := cmd.Flags().GetBool("rebid")

	logger, err := buildLogger(logFile, logLevel)
	if err != nil {
		return 0, fmt.Errorf("rap-agent: %w", err)
	}

	problem, err := rap.Load(rapPath)
	if err != nil {
		return 0, fmt.Errorf("rap-agent: config error: %w", err)
	}

	params := config.Default()
	if configPath != "" {
		params, err = config.Load(configPath)
		if err != nil {
			return 0, fmt.Errorf("rap-agent: config error: %w", err)
		}
	}

	self, ok := problem.SDOID(name)
	if !ok {
		return 0, fmt.Errorf("rap-agent: config error: unknown sdo %q", name)
	}

	bundle := make([]int, 0, len(bundleNames))
	for _, s := range bundleNames {
		id, ok := problem.ServiceID(s)
		if !ok {
			return 0, fmt.Errorf("rap-agent: config error: unknown service %q", s)
		}
		bundle = append(bundle, id)
	}

	var topology neighborhood.Topology
	if topologyPath != "" {
		topology, err = neighborhood.LoadTopology(topologyPath)
		if err != nil {
			return 0, fmt.Errorf("rap-agent: config error: %w", err)
		}
	}
	if len(agentNames) == 0 {
		agentNames = append([]string(nil), problem.SDOs...)
	}
	staticNeighbors := neighborhood.Static(name, agentNames, params.LoadTopology, topology, params.NeighborProbability)
	neighbors := neighborhood.Current(name, staticNeighbors, params.StableConnections, time.Now().Unix())

	tr, err := buildTransport(transportKind, name, pubEndpoint, peers)
	if err != nil {
		return 0, fmt.Errorf("rap-agent: transport error: %w", err)
	}
	defer tr.Close()

	reg := metrics.NewLocal(name)

	var stats oracle.StatsSource
	if statsPath != "" {
		stats, err = oracle.LoadStats(problem, statsPath)
		if err != nil {
			return 0, fmt.Errorf("rap-agent: config error: %w", err)
		}
	}

	o, err := oracle.NewFactory(params.PrivateUtility, oracle.Config{Problem: problem, SDOName: name, Stats: stats}, params.SubmodularPrivateUtility)
	if err != nil {
		return 0, fmt.Errorf("rap-agent: config error: %w", err)
	}
	orch := orchestrator.New(problem, o, logger, params.SchedulingTimeLimit)
	engine := agreement.New(problem, orch, self, bundle, rebidEnabled, logger)

	driver, err := node.New(problem, self, name, bundle, neighbors, params, tr, engine, orch, reg, logger)
	if err != nil {
		return 0, fmt.Errorf("rap-agent: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	impl, strongAgreement := driver.Run(ctx)
	logger.Info("agent terminated", "strong_agreement", strongAgreement, "placements", len(impl.Items))

	utility := totalUtility(impl)
	if err := writeResults(resultsDir, name, problem, impl, driver.Rates(), utility); err != nil {
		return 0, fmt.Errorf("rap-agent: writing results: %w", err)
	}
	if err := writeMetrics(resultsDir, name, reg); err != nil {
		logger.Warn("writing metrics failed", "error", err)
	}

	return clampExitCode(utility), nil
}

func buildLogger(path, level string) (log.Logger, error) {
	lvl := logx.ParseLevel(level)
	if path == "" {
		return logx.New(os.Stdout, lvl), nil
	}
	return logx.NewFile(path, lvl)
}

func buildTransport(kind, self, pubEndpoint string, peers []string) (transport.Transport, error) {
	switch kind {
	case "", "memory":
		return transport.NewInMemory(64), nil
	case "zmq":
		return transport.NewZMQ(self, pubEndpoint, peers)
	default:
		return nil, fmt.Errorf("unknown transport %q", kind)
	}
}

// totalUtility sums the marginal utilities this agent's committed
// Implementation observed, per §6's exit-code contract.
func totalUtility(impl bidding.Implementation) float64 {
	var total float64
	for _, d := range impl.Detailed {
		total += d.Utility
	}
	return total
}

func clampExitCode(utility float64) int {
	if utility < 0 {
		return 0
	}
	if utility > 255 {
		return 255
	}
	return int(math.Round(utility))
}
