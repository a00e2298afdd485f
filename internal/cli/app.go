// Package cli provides the pdfword command-line interface.
package cli

import (
	"context"
	"errors"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/local/pdfword/internal/config"
)

// Version information set at build time.
var Version = "dev"

// App represents the CLI application.
type App struct {
	root   *cobra.Command
	cfg    config.Config
	stdout io.Writer
	stderr io.Writer
}

// New creates the CLI around cfg.
func New(cfg config.Config) *App {
	app := &App{
		cfg:    cfg,
		stdout: os.Stdout,
		stderr: os.Stderr,
	}

	app.root = &cobra.Command{
		Use:   "pdfword",
		Short: "Convert PDF documents into editable Word documents",
		Long: `pdfword converts PDF files to .docx page by page. Each page is analysed
and either rebuilt as editable text and structure, or embedded as a picture
when it is a scan. Every output section keeps its source page's size and
orientation.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return app.cfg.Validate()
		},
	}

	app.root.AddCommand(
		app.newVersionCmd(),
		app.newConvertCmd(),
		app.newImagesCmd(),
		app.newMergeCmd(),
		app.newSplitCmd(),
		app.newInspectCmd(),
		app.newServeCmd(),
		app.newStatusCmd(),
	)
	return app
}

// WithOutput sets custom output writers.
func (a *App) WithOutput(stdout, stderr io.Writer) *App {
	a.stdout = stdout
	a.stderr = stderr
	a.root.SetOut(stdout)
	a.root.SetErr(stderr)
	return a
}

// Execute runs the CLI application.
func (a *App) Execute(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	return a.root.ExecuteContext(ctx)
}

// ExecuteWithArgs runs the CLI with specific arguments.
func (a *App) ExecuteWithArgs(ctx context.Context, args []string) error {
	a.root.SetArgs(args)
	return a.Execute(ctx)
}

func (a *App) newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Printf("pdfword version %s\n", Version)
		},
	}
}

// reportedError is returned after a command has printed its own failure
// message.
type reportedError struct{ err error }

func (e reportedError) Error() string { return e.err.Error() }
func (e reportedError) Unwrap() error { return e.err }

// Reported reports whether err was already shown to the user.
func Reported(err error) bool {
	var r reportedError
	return errors.As(err, &r)
}
