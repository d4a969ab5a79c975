package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"prosody/internal/deps"
)

func newDepsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "deps",
		Short: "Report the external programs a run may need",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig(cmd)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			statuses := deps.CheckBinaries(deps.Requirements(cfg))
			for _, line := range renderSectionHeader("External tools", colorize) {
				fmt.Fprintln(out, line)
			}
			for _, status := range statuses {
				fmt.Fprintln(out, renderStatusLine(status.Name, dependencyKind(status), dependencyMessage(status), colorize))
			}

			if missing := deps.Missing(statuses); len(missing) > 0 {
				return fmt.Errorf("%d required tool(s) missing", len(missing))
			}
			return nil
		},
	}
}

func dependencyKind(status deps.Status) statusKind {
	switch {
	case status.Available:
		return statusOK
	case status.Optional:
		return statusInfo
	default:
		return statusError
	}
}

func dependencyMessage(status deps.Status) string {
	if status.Available {
		return fmt.Sprintf("%s (%s)", status.Path, status.Description)
	}
	if status.Optional {
		return fmt.Sprintf("%s; not needed with current settings", status.Detail)
	}
	return fmt.Sprintf("%s; required: %s", status.Detail, status.Description)
}
