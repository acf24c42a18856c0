// Package testutil starts the infrastructure tests and the simulator need
package testutil

import (
	"fmt"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
	log "github.com/sirupsen/logrus"
)

// NatsOptions configures an embedded NATS server
type NatsOptions struct {
	// Port to listen on; 0 picks a free port
	Port int
	// HTTPPort for monitoring; 0 disables it
	HTTPPort int
	// WSPort enables the NATS WebSocket listener when non-zero
	WSPort int
	Auth   string
}

// NatsServer is a running embedded NATS server
type NatsServer struct {
	server *server.Server
}

// StartNatsServer starts an embedded NATS server and waits until it accepts
// connections
func StartNatsServer(o NatsOptions) (*NatsServer, error) {
	port := o.Port
	if port == 0 {
		port = server.RANDOM_PORT
	}

	opts := server.Options{
		Host:          "127.0.0.1",
		Port:          port,
		HTTPPort:      o.HTTPPort,
		Authorization: o.Auth,
		NoSigs:        true,
		NoLog:         true,
	}

	if o.WSPort != 0 {
		opts.Websocket.Host = "127.0.0.1"
		opts.Websocket.Port = o.WSPort
		opts.Websocket.Token = o.Auth
		opts.Websocket.NoTLS = true
		opts.Websocket.HandshakeTimeout = time.Second * 20
	}

	ns, err := server.NewServer(&opts)
	if err != nil {
		return nil, fmt.Errorf("error creating NATS server: %w", err)
	}

	go ns.Start()

	if !ns.ReadyForConnections(10 * time.Second) {
		ns.Shutdown()
		return nil, fmt.Errorf("timeout starting NATS server")
	}

	log.WithFields(log.Fields{
		"url":  ns.ClientURL(),
		"auth": o.Auth != "",
	}).Debug("NATS server started")

	return &NatsServer{server: ns}, nil
}

// URL returns the client URL of the server
func (n *NatsServer) URL() string {
	return n.server.ClientURL()
}

// Connect returns a client connection to the server
func (n *NatsServer) Connect(token string) (*nats.Conn, error) {
	opts := []nats.Option{nats.Timeout(5 * time.Second)}
	if token != "" {
		opts = append(opts, nats.Token(token))
	}
	return nats.Connect(n.URL(), opts...)
}

// Shutdown stops the server and waits for it to exit
func (n *NatsServer) Shutdown() {
	n.server.Shutdown()
	n.server.WaitForShutdown()
}
