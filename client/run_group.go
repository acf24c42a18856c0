package client

import (
	"context"
	"os"
	"sync"

	"github.com/oklog/run"
	log "github.com/sirupsen/logrus"
)

// RunStop is a long running part of the console: a stream reader, the TUI,
// the simulator. Run blocks until Stop is called or it fails. Stop must not
// block.
type RunStop interface {
	Run() error
	Stop(error)
}

// RunGroup is used to group a list of actors and start/stop them together.
// It is a thin wrapper around run.Group that adds a Stop() function.
type RunGroup struct {
	name     string
	stop     chan struct{}
	stopOnce sync.Once
	group    run.Group
}

// NewRunGroup creates a new group
func NewRunGroup(name string) *RunGroup {
	return &RunGroup{name: name, stop: make(chan struct{})}
}

// Add an actor to the group
func (g *RunGroup) Add(actor RunStop) {
	g.group.Add(actor.Run, actor.Stop)
}

// AddFunc adds an actor given as a pair of functions
func (g *RunGroup) AddFunc(execute func() error, interrupt func(error)) {
	g.group.Add(execute, interrupt)
}

// AddSignals stops the group when the process receives one of signals
func (g *RunGroup) AddSignals(ctx context.Context, signals ...os.Signal) {
	g.group.Add(run.SignalHandler(ctx, signals...))
}

// Run actors. This function blocks until an actor returns or the group is
// stopped. All actors must be added before Run is called.
func (g *RunGroup) Run() error {
	g.group.Add(func() error {
		<-g.stop
		return nil
	}, func(_ error) {
		g.Stop(nil)
	})

	err := g.group.Run()
	if err != nil {
		log.WithField("group", g.name).WithError(err).Debug("run group stopped")
	}
	return err
}

// Stop the group
func (g *RunGroup) Stop(_ error) {
	g.stopOnce.Do(func() { close(g.stop) })
}
