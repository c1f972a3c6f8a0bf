package cmd

import (
	"embed"
	"io/fs"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/msalah0e/flowviz/internal/config"
	"github.com/msalah0e/flowviz/internal/logging"
	"github.com/msalah0e/flowviz/internal/ui"
)

var version = "0.3.0"

var (
	webFS embed.FS

	configPath string
	logLevel   string
	logFormat  string
	renderer   string

	cfg    *config.Config
	logger = zap.NewNop()
)

// SetWebFS sets the embedded filesystem holding the browser page.
func SetWebFS(fs embed.FS) {
	webFS = fs
}

func webAssets() (fs.FS, error) {
	return fs.Sub(webFS, "web")
}

var rootCmd = &cobra.Command{
	Use:   "flowviz",
	Short: "flowviz: animated data-flow views of service graphs",
	Long: ui.Brand.Sprint(ui.Mark+" flowviz") + " renders a node graph with particles flowing along its connections\n" +
		ui.Subtle.Sprint("Headless frames or a live browser view"),
	Version:      version + " " + ui.Mark,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if renderer != "" {
			c.Render.Renderer = renderer
			if err := c.Validate(); err != nil {
				return err
			}
		}
		if logLevel != "" {
			c.Log.Level = logLevel
		}
		if logFormat != "" {
			c.Log.Format = logFormat
		}
		l, err := logging.New(c.Log.Level, c.Log.Format)
		if err != nil {
			return err
		}
		cfg, logger = c, l
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func init() {
	rootCmd.SetVersionTemplate("flowviz {{ .Version }}\n")
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configPath, "config", "", "Config file (default: user config plus "+config.ProjectFile+")")
	flags.StringVarP(&renderer, "renderer", "r", "", "Rendering backend: vector or solid")
	flags.StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")
	flags.StringVar(&logFormat, "log-format", "", "Log format: console or json")
	_ = rootCmd.RegisterFlagCompletionFunc("renderer", rendererCompletion)

	rootCmd.AddCommand(
		renderCmd(),
		viewCmd(),
		checkCmd(),
		exportCmd(),
		pickCmd(),
		eventsCmd(),
		configCmd(),
		completionCmd(),
	)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
