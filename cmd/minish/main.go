// Command minish is an interactive Unix-like shell with process/job
// control.
package main

import (
	"github.com/spf13/cobra"

	"github.com/arvandutta/minish/internal/shell"
)

var version = "dev"

var rootCmd = &cobra.Command{
	Use:     "minish",
	Short:   "A small interactive shell with real job control",
	Long:    `minish reads command lines, runs pipelines with I/O redirection, and tracks background and stopped jobs the way a POSIX job-control shell does.`,
	Version: version,
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := shell.New()
		if err != nil {
			return err
		}
		st.Run()
		return nil
	},
}

func main() {
	cobra.CheckErr(rootCmd.Execute())
}
