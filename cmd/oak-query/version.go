package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"sigs.k8s.io/yaml"

	"github.com/OAK-Technology/oak-query/internal/version"
)

var (
	versionShort  bool
	versionFormat string
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Example: `  oak-query version
  oak-query version --short
  oak-query version --format yaml`,
	RunE: func(cmd *cobra.Command, args []string) error {
		w := cmd.OutOrStdout()
		info := version.Get()
		switch {
		case versionShort:
			_, _ = fmt.Fprintln(w, info.Version)
		case versionFormat == "yaml":
			out, err := yaml.Marshal(info)
			if err != nil {
				return err
			}
			_, _ = w.Write(out)
		default:
			_, _ = fmt.Fprintln(w, info.String())
		}
		return nil
	},
}

func init() {
	versionCmd.Flags().BoolVar(&versionShort, "short", false, "print only the version")
	versionCmd.Flags().StringVar(&versionFormat, "format", "text", "output format: text or yaml")
}
