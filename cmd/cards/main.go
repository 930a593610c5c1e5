// Command cards generates flashcards from text through a running server and
// saves them as named sets.
package main

import (
	"os"
	"time"

	"github.com/spf13/cobra"
)

const (
	defaultServer  = "http://localhost:3000"
	envServer      = "CARDS_SERVER"
	defaultTimeout = 60 * time.Second
)

type cliOptions struct {
	server  string
	model   string
	timeout time.Duration
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &cliOptions{}
	server := os.Getenv(envServer)
	if server == "" {
		server = defaultServer
	}

	rootCmd := &cobra.Command{
		Use:          "cards",
		Short:        "10x Cards command line client",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&opts.server, "server", server, "Server base URL (env "+envServer+")")
	rootCmd.PersistentFlags().StringVar(&opts.model, "model", "", "Model to request; empty uses the server default")
	rootCmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", defaultTimeout, "HTTP timeout per request")

	rootCmd.AddCommand(newGenerateCmd(opts), newSetsCmd(opts))
	return rootCmd
}
