// Copyright (C) 2025, Elara Project Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

// elara-session is a two-node demo harness driving the worked scenarios
// from the protocol's reference walkthrough: round-trip delivery, replay
// rejection, quarantine eviction, concurrent merge, degradation under
// loss, and identity survival across a transport outage.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "elara-session",
	Short: "Two-node ELARA session demo",
	Long: `elara-session drives a pair of in-process ELARA sessions over a
loopback transport through the reference scenarios used to validate the
protocol: round-trip delivery, replay rejection, quarantine eviction of
an out-of-window event, concurrent AppendOnly merge, degradation under
sustained loss and jitter, and identity survival across a transport
outage.`,
}

func main() {
	rootCmd.AddCommand(
		scenarioCmd("s1", "Round-trip text delivery", runS1),
		scenarioCmd("s2", "Replay rejection", runS2),
		scenarioCmd("s3", "Out-of-window future event quarantine", runS3),
		scenarioCmd("s4", "Concurrent merge on an AppendOnly atom", runS4),
		scenarioCmd("s5", "Degradation under loss", runS5),
		scenarioCmd("s6", "Identity survives transport death", runS6),
		allCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func scenarioCmd(use, short string, run func() error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run()
		},
	}
}

func allCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "all",
		Short: "Run every scenario in sequence",
		RunE: func(cmd *cobra.Command, args []string) error {
			scenarios := []struct {
				name string
				run  func() error
			}{
				{"s1", runS1},
				{"s2", runS2},
				{"s3", runS3},
				{"s4", runS4},
				{"s5", runS5},
				{"s6", runS6},
			}
			for _, s := range scenarios {
				fmt.Printf("=== %s ===\n", s.name)
				if err := s.run(); err != nil {
					return fmt.Errorf("%s: %w", s.name, err)
				}
			}
			return nil
		},
	}
}
