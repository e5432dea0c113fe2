// SPDX-FileCopyrightText: Copyright 2025 Profitelligence, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package app provides the profmcp command-line application.
package app

import (
	"github.com/spf13/cobra"

	"github.com/profitelligence/mcp-server/pkg/logger"
)

var rootCmd = &cobra.Command{
	Use:               "profmcp",
	DisableAutoGenTag: true,
	Short:             "Profitelligence MCP server with OAuth 2.1 credential brokering",
	Long: `profmcp serves the Profitelligence research tools over the Model Context
Protocol. It fronts the data API with a multi-scheme credential broker
(API keys, OAuth 2.1 bearer tokens, legacy identity tokens) and, when
OAuth is enabled, acts as an authorization proxy that relays the
upstream identity provider's authorization-code flow.

All configuration comes from PROF_-prefixed environment variables.`,
	Run: func(cmd *cobra.Command, _ []string) {
		// If no subcommand is provided, print help
		if err := cmd.Help(); err != nil {
			logger.Errorf("Error displaying help: %v", err)
		}
	},
}

// NewRootCmd creates the root command for the profmcp CLI.
func NewRootCmd() *cobra.Command {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}
