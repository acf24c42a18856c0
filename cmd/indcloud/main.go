// indcloud is the operator console for the indcloud IoT platform: a log
// viewer, device and organization admin, telemetry dashboard and a local
// backend simulator.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/indcloud/console/analytics"
	"github.com/indcloud/console/client"
	"github.com/indcloud/console/config"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// goreleaser will replace version with the Git version. It can also be set
// with go build -ldflags="-X main.version=1.2.3"
var version = "Development"

func main() {
	if err := newRootCmd(os.Getenv).Execute(); err != nil {
		os.Exit(1)
	}
}

// cli holds the global flags and the resolved profile shared by every
// command
type cli struct {
	getenv     func(string) string
	configPath string
	url        string
	token      string
	verbose    bool
	rootLogs   logsFlags

	cfg config.Config
	out io.Writer
}

func newRootCmd(getenv func(string) string) *cobra.Command {
	c := &cli{getenv: getenv}

	root := &cobra.Command{
		Use:   "indcloud",
		Short: "indcloud operator console",
		Long: `Operator console for the indcloud IoT platform.

Without a command the full screen console starts with the log viewer, the
device table and the telemetry dashboard.`,
		Version:           version,
		SilenceUsage:      true,
		PersistentPreRunE: c.setup,
		RunE:              c.runConsole,
	}

	root.PersistentFlags().StringVar(&c.configPath, "config", config.DefaultPath(), "config profile")
	root.PersistentFlags().StringVar(&c.url, "url", "", "backend URL (overrides profile and INDCLOUD_URL)")
	root.PersistentFlags().StringVar(&c.token, "token", "", "bearer token (overrides profile and INDCLOUD_TOKEN)")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "enable debug logging")
	c.rootLogs.register(root)
	root.Flags().StringVar(&c.rootLogs.rng, "range", analytics.Last24h.Name, "initial dashboard range (1h, 6h, 24h, 7d, 30d)")

	root.AddCommand(
		c.loginCmd(),
		c.versionCmd(),
		c.logsCmd(),
		c.devicesCmd(),
		c.orgsCmd(),
		c.trashCmd(),
		c.aggregateCmd(),
		c.dashboardCmd(),
		c.exportCmd(),
		c.telemetryCmd(),
		c.issuesCmd(),
		c.smsCmd(),
		c.webhookCmd(),
		c.archiveCmd(),
		c.simCmd(),
	)

	return root
}

// setup configures logging and resolves the profile: file, then
// environment, then flags
func (c *cli) setup(cmd *cobra.Command, _ []string) error {
	c.out = cmd.OutOrStdout()

	log.SetOutput(cmd.ErrOrStderr())
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true, TimestampFormat: time.StampMilli})
	log.SetLevel(log.InfoLevel)
	if c.verbose {
		log.SetLevel(log.DebugLevel)
	}

	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	if err := cfg.ApplyEnv(c.getenv); err != nil {
		return err
	}
	if c.url != "" {
		cfg.URL = c.url
	}
	if c.token != "" {
		cfg.Token = c.token
	}
	c.cfg = cfg
	return nil
}

// client returns a REST client for the resolved profile
func (c *cli) client() (*client.Client, error) {
	return client.New(c.cfg.URL, client.WithToken(c.cfg.Token), client.WithDebug(c.verbose))
}

// context bounds a single request
func (c *cli) context(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), client.DefaultTimeout)
}

func (c *cli) printf(format string, args ...interface{}) {
	fmt.Fprintf(c.out, format, args...)
}

func (c *cli) versionCmd() *cobra.Command {
	var server bool
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print the console version, and optionally the backend version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c.printf("console: %v\n", version)
			if !server {
				return nil
			}
			cl, err := c.client()
			if err != nil {
				return err
			}
			ctx, cancel := c.context(cmd)
			defer cancel()
			v, err := cl.CheckVersion(ctx)
			if err != nil {
				return err
			}
			c.printf("backend: %v\n", v)
			return nil
		},
	}
	cmd.Flags().BoolVar(&server, "server", false, "also query and check the backend version")
	return cmd
}
