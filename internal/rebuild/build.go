package rebuild

import (
	"context"

	"github.com/conneroisu/dxcwatch/internal/logging"
	"github.com/conneroisu/dxcwatch/internal/notify"
	"github.com/conneroisu/dxcwatch/internal/shaderlist"
)

// BuildOptions configures BuildAll.
type BuildOptions struct {
	Shaderlist  string
	Compiler    Compiler
	Parser      UnitParser
	Listener    Listener
	Logger      logging.Logger
	IncludeDirs []string
}

// BuildAll compiles every unit of a shaderlist once without watching
// anything. Compile failures are counted in the summary; only an unreadable
// shaderlist is an error. The compiler is not closed.
func BuildAll(ctx context.Context, opts BuildOptions) (Summary, error) {
	if opts.Parser == nil {
		opts.Parser = shaderlist.Parser{}
	}
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}
	logger := opts.Logger.WithComponent("rebuild")

	list, err := opts.Parser.Parse(opts.Shaderlist)
	if err != nil {
		return Summary{}, err
	}
	for _, w := range list.Warnings {
		logger.Warn(ctx, w, "Skipping shaderlist entry")
	}

	dirs := searchDirs(list.Path, opts.IncludeDirs)

	summary := Summary{Binaries: len(list.Binaries), Libraries: len(list.Libraries)}
	for _, u := range unitsOf(list) {
		if ctx.Err() != nil {
			return summary, ctx.Err()
		}
		result, err := u.compile(ctx, opts.Compiler, dirs)
		if err != nil {
			summary.Errors++
			logger.Warn(ctx, err, "Shader compilation failed", "unit", u.name)
			for _, d := range result.Diagnostics {
				logger.Warn(ctx, nil, d.String(), "unit", u.name)
			}
			if opts.Listener != nil {
				opts.Listener.Publish(notify.Event{Type: notify.EventFailed, Unit: u.name, Errors: summary.Errors,
					Message: err.Error(), Diagnostics: result.Diagnostics})
			}
			continue
		}
		logger.Info(ctx, "Compiled shader", "unit", u.name)
		if opts.Listener != nil {
			opts.Listener.Publish(notify.Event{Type: notify.EventRebuilt, Unit: u.name, Errors: summary.Errors,
				Outputs: result.Outputs})
		}
	}
	return summary, nil
}
