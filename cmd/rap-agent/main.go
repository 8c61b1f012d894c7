// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

// Command rap-agent runs one protocol agent per process invocation (§6):
// it loads a RAP instance and a service bundle, derives its neighborhood,
// drives the node loop to termination, and writes its placement, message
// rate and final utility under results/ before exiting with the utility
// as its POSIX status code.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "rap-agent",
	Short: "Run one agent of the resource-allocation protocol",
	Long: `rap-agent runs a single service-delivery-organization agent: it bids for
placement of its service bundle against shared physical nodes, gossips with
its neighborhood, and exits once it reaches agreement or times out.`,
}

func main() {
	rootCmd.AddCommand(runCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
