package cmd

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/text/feature/plural"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"

	"github.com/conneroisu/dxcwatch/internal/compiler"
	"github.com/conneroisu/dxcwatch/internal/rebuild"
)

var buildCmd = &cobra.Command{
	Use:     "build <shaderlist>",
	Aliases: []string{"b"},
	Short:   "Compile every shader of a shaderlist once",
	Long: `Compile every shader named by the shaderlist once and exit. The
command exits with status 1 when any shader fails to compile, which makes
it suitable for CI.

Examples:
  dxcwatch build shaders/shaderlist.txt
  dxcwatch build shaders.yaml -I third_party/include -D USE_BINDLESS`,
	Args: cobra.ExactArgs(1),
	RunE: runBuild,
}

const summaryKey = "%d shader(s), %d error(s)"

// errBuildFailed makes build exit non-zero once the summary is printed.
var errBuildFailed = errors.New("build failed")

var printer = message.NewPrinter(language.English)

func init() {
	rootCmd.AddCommand(buildCmd)

	if err := message.Set(language.English, summaryKey,
		catalog.Var("shaders", plural.Selectf(1, "%d", "one", "shader", "other", "shaders")),
		catalog.Var("errors", plural.Selectf(2, "%d", "one", "error", "other", "errors")),
		catalog.String("%[1]d ${shaders}, %[2]d ${errors}"),
	); err != nil {
		panic(err)
	}
}

func summaryLine(s rebuild.Summary) string {
	return printer.Sprintf(summaryKey, s.Units(), s.Errors)
}

func runBuild(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	opts, err := cfg.CompilerOptions(logger)
	if err != nil {
		return err
	}
	dxc, err := newDXC(opts)
	if err != nil {
		return err
	}
	defer dxc.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	summary, err := rebuild.BuildAll(ctx, rebuild.BuildOptions{
		Shaderlist:  args[0],
		Compiler:    dxc,
		Logger:      logger,
		IncludeDirs: cfg.Compiler.IncludeDirs,
	})
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), summaryLine(summary))
	if summary.Errors > 0 {
		return errBuildFailed
	}
	return nil
}

var compileCmd = &cobra.Command{
	Use:   "compile <input> <entrypoint> <target> <output>",
	Short: "Compile a single shader entry point",
	Long: `Compile one entry point of an HLSL source. The output path is given
without extension; each configured output format appends its own (.dxil,
.spv). Targets are vs, hs, ds, gs, ps, cs, ms and as, or their long names.

Examples:
  dxcwatch compile lit.hlsl main ps out/lit
  dxcwatch compile cull.hlsl main cs out/cull --shader-model 6`,
	Args: cobra.ExactArgs(4),
	RunE: runCompile,
}

func init() {
	rootCmd.AddCommand(compileCmd)
}

func runCompile(cmd *cobra.Command, args []string) error {
	target, err := compiler.ParseTarget(args[2])
	if err != nil {
		return err
	}
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	opts, err := cfg.CompilerOptions(logger)
	if err != nil {
		return err
	}
	dxc, err := newDXC(opts)
	if err != nil {
		return err
	}
	defer dxc.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, err := dxc.CompileBinary(ctx, compiler.BinaryRequest{
		Source:      args[0],
		Entrypoint:  args[1],
		Target:      target,
		Output:      args[3],
		IncludeDirs: cfg.Compiler.IncludeDirs,
	})
	out := cmd.OutOrStdout()
	for _, d := range result.Diagnostics {
		fmt.Fprintln(cmd.ErrOrStderr(), d)
	}
	if err != nil {
		return err
	}
	for _, path := range result.Outputs {
		fmt.Fprintln(out, path)
	}
	return nil
}
