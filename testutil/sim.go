package testutil

import (
	"net/http/httptest"
	"testing"

	"github.com/indcloud/console/client"
	"github.com/indcloud/console/sim"
)

// Backend starts a seeded simulator behind httptest and returns it with an
// admin client. Both are cleaned up when the test ends.
func Backend(t testing.TB, opts sim.Options) (*sim.Server, *client.Client) {
	t.Helper()

	opts.Seed = true
	s, err := sim.NewServer(opts)
	if err != nil {
		t.Fatal("error creating simulator: ", err)
	}

	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)

	token, err := s.Token()
	if err != nil {
		t.Fatal("error creating token: ", err)
	}

	c, err := client.New(ts.URL, client.WithToken(token))
	if err != nil {
		t.Fatal("error creating client: ", err)
	}

	return s, c
}

// NatsTest starts an embedded NATS server for the duration of a test
func NatsTest(t testing.TB) *NatsServer {
	t.Helper()
	ns, err := StartNatsServer(NatsOptions{})
	if err != nil {
		t.Fatal("error starting NATS server: ", err)
	}
	t.Cleanup(ns.Shutdown)
	return ns
}
