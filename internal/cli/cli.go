package cli

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/specialistvlad/leafletmm/internal/app"
)

// EnvPrefix is the prefix of environment variables that override settings,
// e.g. LEAFLETMM_ROOT_DIR.
const EnvPrefix = "LEAFLETMM"

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

func usageError(msg string) error {
	return &ExitError{Code: 2, Message: msg}
}

// Runner is what a command needs from the application.
type Runner interface {
	RenderLayer(ctx context.Context, layerID string, deferred bool) error
	ListLayers(ctx context.Context) error
	ListLayerTypes(ctx context.Context) error
	Serve(ctx context.Context) error
}

// NewAppFunc creates the application for a validated configuration.
type NewAppFunc func(cfg *app.Config) Runner

// DefaultNewApp builds the real application writing results to outW and
// logs to logW.
func DefaultNewApp(outW, logW io.Writer) NewAppFunc {
	return func(cfg *app.Config) Runner {
		return app.NewApp(outW, logW, cfg)
	}
}

// NewRootCommand builds the leafletmm command tree.
func NewRootCommand(output io.Writer, newApp NewAppFunc) *cobra.Command {
	s := newSettings()

	root := &cobra.Command{
		Use:   "leafletmm",
		Short: "Map layers drawn from metamodel records",
		Long: `leafletmm - Map layers drawn from metamodel records.

Metamodels and layers are declared in .hcl files. Each item of a metamodel
is turned into GeoJSON features by the renderers configured on a layer.
Renderers marked as deferred only contribute when a layer's data is
loaded lazily, for example through the /layers/{id}/data endpoint.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return s.load()
		},
	}
	root.SetOut(output)
	root.SetErr(output)
	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return usageError(err.Error())
	})

	pf := root.PersistentFlags()
	pf.StringVarP(&s.cfgFile, "config", "c", "", "Path to a YAML config file.")
	pf.StringP("definitions", "d", "definitions", "Path to a .hcl file or a directory containing .hcl files.")
	pf.String("root-dir", ".", "Directory that file references of items resolve against.")
	pf.String("log-format", "json", "Log output format. Options: 'text' or 'json'.")
	pf.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")

	s.bind("definitions", pf.Lookup("definitions"))
	s.bind("root_dir", pf.Lookup("root-dir"))
	s.bind("log_format", pf.Lookup("log-format"))
	s.bind("log_level", pf.Lookup("log-level"))

	root.AddCommand(
		newRenderCommand(s, newApp),
		newLayersCommand(s, newApp),
		newLayerTypesCommand(s, newApp),
		newServeCommand(s, newApp),
	)
	return root
}

// Execute runs the command tree with args.
func Execute(ctx context.Context, args []string, output io.Writer, newApp NewAppFunc) error {
	root := NewRootCommand(output, newApp)
	root.SetArgs(args)

	err := root.ExecuteContext(ctx)
	if err == nil {
		return nil
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr
	}
	if strings.HasPrefix(err.Error(), "unknown command") {
		return usageError(err.Error())
	}
	return err
}
