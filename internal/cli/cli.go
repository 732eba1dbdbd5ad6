// Package cli implements the applylm command line.
package cli

import (
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/ieee0824/applylm-go/internal/logger"
)

// CLI encapsulates the command-line interface with its dependencies.
type CLI struct {
	version string
	verbose bool
	log     *log.Logger
	rootCmd *cobra.Command
}

// New creates a new CLI instance with the given version string.
func New(version string) *CLI {
	c := &CLI{version: version, log: logger.New("applylm")}
	c.setupCommands()
	return c
}

func (c *CLI) setupCommands() {
	c.rootCmd = &cobra.Command{
		Use:           "applylm",
		Short:         "Rescore word lattices with an n-gram language model",
		Version:       c.version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if c.verbose {
				c.setLevel(log.DebugLevel)
			}
		},
		Run: func(cmd *cobra.Command, args []string) {
			_ = cmd.Help()
		},
	}

	c.rootCmd.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "Enable verbose/debug output")

	c.rootCmd.AddCommand(c.newApplyCommand())
	c.rootCmd.AddCommand(c.newLMBuildCommand())
}

// Run executes the CLI and returns any error.
func (c *CLI) Run() error {
	if err := c.rootCmd.Execute(); err != nil {
		c.log.Error(err.Error())
		return err
	}
	return nil
}

func (c *CLI) setLevel(level log.Level) {
	log.SetLevel(level)
	c.log.SetLevel(level)
}
