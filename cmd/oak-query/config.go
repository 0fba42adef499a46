package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"sigs.k8s.io/yaml"

	"github.com/OAK-Technology/oak-query/internal/cli"
)

var (
	configShowSource  bool
	configShowSection string
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration utilities",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	Long: `Show the effective configuration after merging defaults, config file, and environment variables.

Passwords are masked. When a database is configured, the connection string
exec and doctor would use is printed as a comment.`,
	Example: `  # Show effective configuration
  oak-query config show

  # Show where it came from
  oak-query config show --source

  # Show one section
  oak-query config show --section exec`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return showConfig(cmd.OutOrStdout(), cfg, configPath, configShowSource, configShowSection)
	},
}

func init() {
	configShowCmd.Flags().BoolVar(&configShowSource, "source", false, "show config file source")
	configShowCmd.Flags().StringVar(&configShowSection, "section", "", "show one section: database, render, exec or doctor")
	configCmd.AddCommand(configShowCmd)
}

func showConfig(w io.Writer, c *cli.Config, path string, source bool, section string) error {
	red := c.Redacted()

	var v any
	switch section {
	case "":
		v = red
	case "database":
		v = red.Database
	case "render":
		v = red.Render
	case "exec":
		v = red.Exec
	case "doctor":
		v = red.Doctor
	default:
		return cli.ConfigError(fmt.Sprintf("unknown config section %q", section), nil)
	}

	if source {
		if path != "" {
			_, _ = fmt.Fprintf(w, "# config file: %s\n", path)
		} else {
			_, _ = fmt.Fprintln(w, "# config file: (none, using defaults)")
		}
	}
	if (section == "" || section == "database") && red.HasDatabase() {
		if dsn, err := red.DSN(); err == nil {
			_, _ = fmt.Fprintf(w, "# dsn: %s\n", dsn)
		}
	}

	out, err := yaml.Marshal(v)
	if err != nil {
		return err
	}
	_, err = w.Write(out)
	return err
}
