package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var Version = "dev"

func main() {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:           "storectl",
		Short:         "Back-office client for the storefront admin service",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "config/config.yaml", "path to the YAML config file")
	rootCmd.PersistentFlags().StringVar(&opts.addr, "addr", "", "admin service address (skips discovery)")
	rootCmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", defaultTimeout, "per-call timeout")

	rootCmd.AddCommand(productCmd(opts))
	rootCmd.AddCommand(stockCmd(opts))
	rootCmd.AddCommand(orderCmd(opts))
	rootCmd.AddCommand(auditCmd(opts))

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
