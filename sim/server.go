package sim

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/indcloud/console/data"
	"github.com/nats-io/nats.go"
	log "github.com/sirupsen/logrus"
)

// Version is the backend version the simulator reports
const Version = "1.4.0"

// Options configures a simulator
type Options struct {
	// Addr is the listen address used by Run, e.g. ":8080"
	Addr string
	// LogInterval is the time between generated log lines; 0 disables them
	LogInterval time.Duration
	// TelemetryInterval is the push interval on /ws/telemetry
	TelemetryInterval time.Duration
	// NatsServer, when set, mirrors the log feed onto this NATS server
	NatsServer string
	NatsToken  string
	TokenTTL   time.Duration
	// Seed populates demo organizations, devices and issues
	Seed          bool
	AdminEmail    string
	AdminPassword string
	DumpHTTP      bool
}

func (o *Options) defaults() {
	if o.TelemetryInterval <= 0 {
		o.TelemetryInterval = 2 * time.Second
	}
	if o.TokenTTL <= 0 {
		o.TokenTTL = 24 * time.Hour
	}
	if o.AdminEmail == "" {
		o.AdminEmail = "admin@indcloud.local"
	}
	if o.AdminPassword == "" {
		o.AdminPassword = "admin"
	}
}

// Server is a simulated backend
type Server struct {
	opts  Options
	store *Store
	feed  *LogFeed
	key   Key
	logs  *LogsHandler

	simLock sync.Mutex
	sims    map[string]*DeviceSim

	delay func(data.AggregateQuery) time.Duration
	fail  func(data.AggregateQuery) bool

	webhookClient *http.Client
	handler       http.Handler

	stop     chan struct{}
	stopOnce sync.Once
	srv      *http.Server
}

// NewServer creates a simulator
func NewServer(opts Options) (*Server, error) {
	opts.defaults()

	key, err := NewKey(32, opts.TokenTTL)
	if err != nil {
		return nil, err
	}

	s := &Server{
		opts:          opts,
		store:         NewStore(),
		feed:          NewLogFeed(opts.LogInterval, time.Now().UnixNano()),
		key:           key,
		sims:          make(map[string]*DeviceSim),
		webhookClient: &http.Client{Timeout: 10 * time.Second},
		stop:          make(chan struct{}),
	}

	if err := s.store.AddUser(opts.AdminEmail, opts.AdminPassword, true); err != nil {
		return nil, err
	}
	if opts.Seed {
		Seed(s.store)
	}

	s.logs = NewLogsHandler(s.feed, s.key)
	s.handler = s.router()
	if opts.DumpHTTP || log.IsLevelEnabled(log.DebugLevel) {
		s.handler = NewHTTPLogger("sim", opts.DumpHTTP).Handler(s.handler)
	}
	return s, nil
}

// Store returns the backing store
func (s *Server) Store() *Store {
	return s.store
}

// Feed returns the log feed
func (s *Server) Feed() *LogFeed {
	return s.feed
}

// Handler returns the HTTP handler, for use with httptest
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Token issues a token for the admin user
func (s *Server) Token() (string, error) {
	return s.key.NewToken(s.opts.AdminEmail, true)
}

// UserToken issues a token without admin or developer roles
func (s *Server) UserToken(email string) (string, error) {
	return s.key.NewToken(email, false)
}

// SetAggregateDelay makes aggregate requests wait for d(query) before
// answering. Used to reproduce out of order responses.
func (s *Server) SetAggregateDelay(d func(data.AggregateQuery) time.Duration) {
	s.delay = d
}

// SetAggregateFailure makes aggregate requests fail when f(query) is true
func (s *Server) SetAggregateFailure(f func(data.AggregateQuery) bool) {
	s.fail = f
}

// Run serves on opts.Addr until Stop is called
func (s *Server) Run() error {
	var pub *NatsPublisher
	if s.opts.NatsServer != "" {
		opts := []nats.Option{nats.Timeout(10 * time.Second)}
		if s.opts.NatsToken != "" {
			opts = append(opts, nats.Token(s.opts.NatsToken))
		}
		nc, err := nats.Connect(s.opts.NatsServer, opts...)
		if err != nil {
			return err
		}
		defer nc.Close()
		pub, err = NewNatsPublisher(nc, s.feed)
		if err != nil {
			return err
		}
		defer pub.Close()
		log.WithField("server", s.opts.NatsServer).Info("sim: publishing logs on NATS")
	}

	ln, err := net.Listen("tcp", s.opts.Addr)
	if err != nil {
		return err
	}

	s.srv = &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		_ = s.feed.Run()
	}()

	log.WithField("addr", ln.Addr().String()).Info("sim: backend listening")

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		s.feed.Stop(nil)
		return err
	case <-s.stop:
	}

	s.feed.Stop(nil)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.srv.Shutdown(ctx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop the simulator
func (s *Server) Stop(_ error) {
	s.stopOnce.Do(func() { close(s.stop) })
}
