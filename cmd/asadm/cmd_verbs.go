package main

import "github.com/spf13/cobra"

// Each verb command is a thin cobra wrapper that forwards to the shell
// dispatcher built in PersistentPreRunE, exactly as typing the same verb
// at the interactive prompt would. cobra only handles flag/arg parsing
// here; shell.Dispatch owns every actual semantics.

var showCmd = &cobra.Command{
	Use:   "show <nodes|namespaces>",
	Short: "Render the current node or namespace table",
	Args:  cobra.MinimumNArgs(1),
	RunE:  dispatch,
}

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Per-node service statistics summary",
	RunE:  dispatch,
}

var asinfoCmd = &cobra.Command{
	Use:   "asinfo",
	Short: "Raw passthrough of an info-protocol command to every node",
	Args:  cobra.MinimumNArgs(1),
	RunE:  dispatch,
}

var collectinfoCmd = &cobra.Command{
	Use:   "collectinfo",
	Short: "Assemble and write a full cluster snapshot bundle",
	RunE: func(cmd *cobra.Command, args []string) error {
		outDir, _ := cmd.Flags().GetString("out")
		return app.shell.Dispatch(cmd.Context(), []string{"collectinfo", "-o", outDir})
	},
}

var healthCmd = &cobra.Command{
	Use:   "health [check]",
	Short: "Run health checks across the cluster, all or one by name",
	RunE:  dispatch,
}

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "One-line cluster overview",
	RunE:  dispatch,
}

func init() {
	collectinfoCmd.Flags().StringP("out", "o", ".", "directory to write the collectinfo bundle to")
}
