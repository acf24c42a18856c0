package main

import (
	"os"
	"syscall"
	"time"

	"github.com/indcloud/console/client"
	"github.com/indcloud/console/sim"
	"github.com/indcloud/console/testutil"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func (c *cli) simCmd() *cobra.Command {
	opts := sim.Options{Seed: true}
	var embedNats bool
	var natsPort int
	cmd := &cobra.Command{
		Use:   "sim",
		Short: "Run a simulated backend for development and demos",
		Long: `Run a simulated backend serving the REST API, the log channel and the
telemetry channel with seeded organizations, devices and issues.

With --nats an embedded NATS server is started and the log feed is mirrored
onto it, so the console can be tried with --nats as well.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if embedNats {
				ns, err := testutil.StartNatsServer(testutil.NatsOptions{Port: natsPort, Auth: opts.NatsToken})
				if err != nil {
					return err
				}
				defer ns.Shutdown()
				opts.NatsServer = ns.URL()
				log.WithField("url", ns.URL()).Info("embedded NATS server started")
			}

			s, err := sim.NewServer(opts)
			if err != nil {
				return err
			}
			token, err := s.Token()
			if err != nil {
				return err
			}
			c.printf("admin token (valid %v):\n%v\n", opts.TokenTTL, token)

			g := client.NewRunGroup("sim")
			g.Add(s)
			g.AddSignals(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			return g.Run()
		},
	}
	cmd.Flags().StringVar(&opts.Addr, "addr", ":8080", "listen address")
	cmd.Flags().DurationVar(&opts.LogInterval, "log-interval", 500*time.Millisecond, "time between generated log lines, 0 disables them")
	cmd.Flags().DurationVar(&opts.TelemetryInterval, "telemetry-interval", 2*time.Second, "live telemetry push interval")
	cmd.Flags().DurationVar(&opts.TokenTTL, "token-ttl", 24*time.Hour, "lifetime of issued tokens")
	cmd.Flags().BoolVar(&opts.Seed, "seed", true, "create demo data")
	cmd.Flags().StringVar(&opts.AdminEmail, "admin-email", "admin@indcloud.local", "admin login")
	cmd.Flags().StringVar(&opts.AdminPassword, "admin-password", "admin", "admin password")
	cmd.Flags().BoolVar(&opts.DumpHTTP, "dump-http", false, "log request and response bodies")
	cmd.Flags().BoolVar(&embedNats, "nats", false, "start an embedded NATS server and publish logs on it")
	cmd.Flags().IntVar(&natsPort, "nats-port", 4222, "embedded NATS port")
	cmd.Flags().StringVar(&opts.NatsServer, "nats-server", "", "publish logs on this external NATS server")
	cmd.Flags().StringVar(&opts.NatsToken, "nats-token", "", "NATS auth token")
	return cmd
}
