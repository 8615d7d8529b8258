// Command royale-server hosts royale matches without a Nakama cluster:
// it runs the session manager, the websocket relay and the metrics
// listener behind one process.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

type command struct {
	root    *cobra.Command
	cfgFile string
}

func newCommand() *command {
	c := &command{
		root: &cobra.Command{
			Use:           "royale-server",
			Short:         "Standalone royale match server",
			SilenceErrors: true,
			SilenceUsage:  true,
		},
	}
	c.root.PersistentFlags().StringVar(&c.cfgFile, "config", "", "path to the JSON server config file")

	c.initStartCmd()
	c.initVersionCmd()
	return c
}

func (c *command) execute() error {
	return c.root.Execute()
}

func main() {
	if err := newCommand().execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
