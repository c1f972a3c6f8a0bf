package cmd

import (
	"os"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/msalah0e/flowviz/internal/config"
	"github.com/msalah0e/flowviz/internal/ui"
)

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show the effective configuration",
		Run: func(cmd *cobra.Command, args []string) {
			ui.Banner("config")
			ui.Fields(
				ui.Field{Key: "User file", Value: config.Path()},
				ui.Field{Key: "Project file", Value: config.ProjectFile},
				ui.Field{Key: "Renderer", Value: cfg.Render.Renderer},
				ui.Field{Key: "Viewport", Value: fmtSize(cfg.Render.Width, cfg.Render.Height)},
				ui.Field{Key: "Events", Value: eventsStatus()},
				ui.Field{Key: "Log", Value: cfg.Log.Level + " (" + cfg.Log.Format + ")"},
			)
			ui.Subtle.Println("\n  Run `flowviz config show` for every setting")
		},
	}

	cmd.AddCommand(configShowCmd(), configInitCmd())
	return cmd
}

func configShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration as TOML",
		Run: func(cmd *cobra.Command, args []string) {
			if err := toml.NewEncoder(os.Stdout).Encode(cfg); err != nil {
				ui.Bad.Printf("  %v\n", err)
				os.Exit(1)
			}
		},
	}
}

func configInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write the default configuration to the user config file",
		Run: func(cmd *cobra.Command, args []string) {
			if err := config.EnsureExists(); err != nil {
				ui.Bad.Printf("  Failed to write config: %v\n", err)
				os.Exit(1)
			}
			ui.Good.Printf("  %s Config at %s\n", ui.StatusIcon(true), config.Path())
		},
	}
}

func eventsStatus() string {
	if !cfg.Events.Enabled {
		return "off"
	}
	return eventsPath(cfg)
}

func fmtSize(w, h int) string {
	return ui.Subtle.Sprintf("%dx%d", w, h)
}
