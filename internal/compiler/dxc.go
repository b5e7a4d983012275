// Package compiler drives the DirectX Shader Compiler (dxc) to produce DXIL
// and SPIR-V binaries from HLSL sources.
package compiler

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/conneroisu/dxcwatch/internal/errors"
	"github.com/conneroisu/dxcwatch/internal/logging"
	"github.com/conneroisu/dxcwatch/internal/validation"
)

// Runner executes the compiler and returns its combined output.
type Runner func(ctx context.Context, name string, args []string) ([]byte, error)

// Options configures a DXC compiler.
type Options struct {
	Executable string
	// ShaderModel is the minor version of shader model 6.
	ShaderModel int
	Debug       bool
	IncludeDirs []string
	Defines     []string
	// Outputs are produced in order; a later format is only attempted when
	// every earlier one succeeded.
	Outputs []Output
	// Timeout bounds a single dxc invocation. Zero means no limit.
	Timeout time.Duration
	Logger  logging.Logger
	Runner  Runner
}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		Executable:  "dxc",
		ShaderModel: DefaultShaderModel,
		Outputs:     []Output{OutputDXIL, OutputSPIRV},
		Timeout:     time.Minute,
	}
}

var allowedExecutables = map[string]bool{
	"dxc": true,
}

// DXC compiles shaders by running the dxc executable.
type DXC struct {
	executable string
	settings   argSettings
	outputs    []Output
	timeout    time.Duration
	logger     logging.Logger
	run        Runner
}

// NewDXC validates opts and returns a compiler.
func NewDXC(opts Options) (*DXC, error) {
	if err := validation.ValidateExecutable(opts.Executable, allowedExecutables); err != nil {
		return nil, err
	}
	if opts.ShaderModel < MinShaderModel || opts.ShaderModel > MaxShaderModel {
		return nil, errors.NewConfigError(errors.CodeConfigInvalid,
			fmt.Sprintf("shader model 6.%d is not supported (6.%d to 6.%d)", opts.ShaderModel, MinShaderModel, MaxShaderModel))
	}
	if len(opts.Outputs) == 0 {
		return nil, errors.NewConfigError(errors.CodeConfigInvalid, "at least one output format is required")
	}
	if err := validateShared(opts.IncludeDirs, opts.Defines); err != nil {
		return nil, err
	}
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}
	if opts.Runner == nil {
		opts.Runner = execRunner
	}

	return &DXC{
		executable: opts.Executable,
		settings: argSettings{
			shaderModel: opts.ShaderModel,
			debug:       opts.Debug,
			includeDirs: opts.IncludeDirs,
			defines:     opts.Defines,
		},
		outputs: opts.Outputs,
		timeout: opts.Timeout,
		logger:  opts.Logger.WithComponent("compiler"),
		run:     opts.Runner,
	}, nil
}

func execRunner(ctx context.Context, name string, args []string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	return cmd.CombinedOutput()
}

// CompileBinary compiles one entry point to every configured output format.
func (c *DXC) CompileBinary(ctx context.Context, req BinaryRequest) (Result, error) {
	if err := req.validate(); err != nil {
		return Result{}, err
	}
	if (req.Target == TargetMesh || req.Target == TargetAmplification) && c.settings.shaderModel < minMeshShaderModel {
		return Result{}, errors.NewValidationError(errors.CodeInvalidTarget,
			fmt.Sprintf("%s shaders require shader model 6.%d or newer", req.Target, minMeshShaderModel))
	}

	label := fmt.Sprintf("%s:%s (%s)", filepath.Base(req.Source), req.Entrypoint, req.Target.Short())
	return c.compile(ctx, label, req.Source, req.Output, func(out Output, object string) []string {
		return binaryArgs(c.settings, req, out, object)
	})
}

// CompileLibrary compiles a DXIL library to every configured output format.
func (c *DXC) CompileLibrary(ctx context.Context, req LibraryRequest) (Result, error) {
	if err := req.validate(); err != nil {
		return Result{}, err
	}

	label := fmt.Sprintf("%s (library, %d exports)", filepath.Base(req.Source), len(req.Exports))
	return c.compile(ctx, label, req.Source, req.Output, func(out Output, object string) []string {
		return libraryArgs(c.settings, req, out, object)
	})
}

func (c *DXC) compile(ctx context.Context, label, source, dest string, args func(Output, string) []string) (Result, error) {
	var result Result

	scratch, err := os.MkdirTemp("", "dxcwatch-*")
	if err != nil {
		return result, errors.NewIOError(errors.CodeWriteFailed, "cannot create scratch directory", err)
	}
	defer os.RemoveAll(scratch)

	for _, out := range c.outputs {
		object := filepath.Join(scratch, "object"+out.Extension())
		perf := logging.StartOperation(c.logger, "dxc "+string(out))

		output, runErr := c.invoke(ctx, args(out, object))
		log := validation.SanitizeOutput(string(output))
		result.Log += log
		result.Diagnostics = append(result.Diagnostics, errors.ParseDiagnostics(log)...)
		perf.End(ctx, "unit", label)

		if runErr != nil {
			return result, c.failure(ctx, out, source, runErr)
		}

		blob, err := os.ReadFile(object)
		if err != nil {
			return result, errors.NewBuildError(errors.CodeCompileFailed,
				fmt.Sprintf("%s compilation produced no output", out), err).WithPath(source)
		}
		path := dest + out.Extension()
		if err := WriteOutput(blob, path); err != nil {
			return result, err
		}
		result.Outputs = append(result.Outputs, path)
	}

	c.logger.Debug(ctx, "Compiled shader", "unit", label, "outputs", result.Outputs)
	return result, nil
}

func (c *DXC) invoke(ctx context.Context, args []string) ([]byte, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	return c.run(ctx, c.executable, args)
}

func (c *DXC) failure(ctx context.Context, out Output, source string, err error) error {
	switch {
	case errors.Is(err, exec.ErrNotFound):
		return errors.NewBuildError(errors.CodeCompilerMissing,
			fmt.Sprintf("compiler %q not found", c.executable), err).
			WithHint("install the DirectX Shader Compiler or set compiler.executable")
	case ctx.Err() != nil:
		return errors.NewBuildError(errors.CodeCompileFailed,
			fmt.Sprintf("%s compilation cancelled", out), ctx.Err()).WithPath(source)
	case strings.Contains(err.Error(), "signal: killed") && c.timeout > 0:
		return errors.NewBuildError(errors.CodeCompileFailed,
			fmt.Sprintf("%s compilation timed out after %s", out, c.timeout), err).WithPath(source)
	default:
		return errors.NewBuildError(errors.CodeCompileFailed,
			fmt.Sprintf("%s compilation failed", out), err).WithPath(source)
	}
}

// Version runs dxc --version and returns its first line.
func (c *DXC) Version(ctx context.Context) (string, error) {
	output, err := c.invoke(ctx, []string{"--version"})
	if err != nil {
		return "", c.failure(ctx, OutputDXIL, "", err)
	}
	line, _, _ := strings.Cut(strings.TrimSpace(string(output)), "\n")
	return strings.TrimSpace(line), nil
}

// Close implements Compiler. The process-based compiler holds no resources.
func (c *DXC) Close() error { return nil }
