package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/conneroisu/dxcwatch/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Long: `Display the dxcwatch version. With --detailed, also show the commit,
build time, Go version, platform and the version of the dxc found on the
configured path.

Examples:
  dxcwatch version
  dxcwatch version --detailed
  dxcwatch version --format json`,
	Args: cobra.NoArgs,
	RunE: runVersion,
}

func init() {
	rootCmd.AddCommand(versionCmd)

	versionCmd.Flags().StringP("format", "f", "text", "output format (text, json)")
	versionCmd.Flags().Bool("detailed", false, "show detailed version information")
}

func runVersion(cmd *cobra.Command, _ []string) error {
	format, _ := cmd.Flags().GetString("format")
	detailed, _ := cmd.Flags().GetBool("detailed")
	out := cmd.OutOrStdout()

	switch format {
	case "text":
		if !detailed {
			fmt.Fprintf(out, "dxcwatch %s\n", version.GetShortVersion())
			return nil
		}
		fmt.Fprintln(out, buildInfo(cmd.Context()))
		return nil
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(buildInfo(cmd.Context()))
	default:
		return fmt.Errorf("unsupported format: %s (supported: text, json)", format)
	}
}

// buildInfo adds the dxc banner when the configured compiler can be run.
func buildInfo(ctx context.Context) *version.BuildInfo {
	info := version.GetBuildInfo()
	cfg, logger, err := setup()
	if err != nil {
		return info
	}
	opts, err := cfg.CompilerOptions(logger)
	if err != nil {
		return info
	}
	dxc, err := newDXC(opts)
	if err != nil {
		return info
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if banner, err := dxc.Version(ctx); err == nil {
		info.Compiler = banner
	}
	return info
}
