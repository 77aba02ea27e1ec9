// Package cmd implements the CLI surface, grounded on termbrowser's
// flag.String/flag.Bool flat flag set but generalized to cobra/pflag, the
// CLI stack the rest of the example corpus reaches for.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/iyulab/shell-tunnel/internal/config"
)

// Options collects the resolved CLI overlay, applied on top of file and
// env configuration (CLI > env > file > defaults), per spec §6.
type Options struct {
	Host          string
	Port          uint16
	ConfigPath    string
	APIKeys       []string
	LogLevel      string
	NoAuth        bool
	NoRateLimit   bool
	AdminStore    string
}

var version = "0.1.0"

// Run parses os.Args and invokes fn with the resolved options, unless a
// subcommand (e.g. admin bootstrap) handled the invocation itself.
func Run(fn func(Options)) {
	var opts Options

	root := &cobra.Command{
		Use:     "shell-tunnel",
		Short:   "PTY execution gateway exposing sessions over HTTP and WebSocket",
		Version: version,
		RunE: func(cmd *cobra.Command, args []string) error {
			fn(opts)
			return nil
		},
	}

	root.Flags().StringVarP(&opts.Host, "host", "H", "", "bind host (overrides config file)")
	var port int
	root.Flags().IntVarP(&port, "port", "p", 0, "bind port (overrides config file)")
	root.Flags().StringVarP(&opts.ConfigPath, "config", "c", "", "path to the JSON config file")
	root.Flags().StringArrayVarP(&opts.APIKeys, "api-key", "k", nil, "accepted bearer API key (repeatable)")
	root.Flags().StringVarP(&opts.LogLevel, "log-level", "l", "", "log level: debug|info|warn|error")
	root.Flags().BoolVar(&opts.NoAuth, "no-auth", false, "disable bearer-key admission entirely")
	root.Flags().BoolVar(&opts.NoRateLimit, "no-rate-limit", false, "disable the sliding-window rate limiter")
	root.Flags().StringVar(&opts.AdminStore, "admin-store", config.DefaultAdminStorePath(), "path to the admin credential store")

	root.PreRunE = func(cmd *cobra.Command, args []string) error {
		if port != 0 {
			if port < 0 || port > 65535 {
				return fmt.Errorf("port out of range: %d", port)
			}
			opts.Port = uint16(port)
		}
		return nil
	}

	root.AddCommand(adminBootstrapCmd())

	root.SilenceUsage = true
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func adminBootstrapCmd() *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:   "admin-bootstrap",
		Short: "interactively create the admin credential store",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := config.RunAdminBootstrap(path)
			return err
		},
	}
	cmd.Flags().StringVar(&path, "admin-store", config.DefaultAdminStorePath(), "path to write the admin credential store")
	return cmd
}
