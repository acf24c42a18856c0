package sim

import (
	"encoding/json"

	"github.com/indcloud/console/data"
	"github.com/nats-io/nats.go"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// NatsPublisher mirrors the log feed onto NATS: every entry is published on
// logs.<source> and history requests are answered on logs.history.
type NatsPublisher struct {
	nc     *nats.Conn
	cancel func()
	sub    *nats.Subscription
}

// NewNatsPublisher starts publishing feed on nc
func NewNatsPublisher(nc *nats.Conn, feed *LogFeed) (*NatsPublisher, error) {
	p := &NatsPublisher{nc: nc}

	sub, err := nc.Subscribe(data.SubjectLogHistory, func(msg *nats.Msg) {
		var a data.LogAction
		resp := data.LogMessage{Type: data.MsgHistory, Source: data.SourceBackend}
		if err := json.Unmarshal(msg.Data, &a); err != nil {
			resp = errorMessage("Invalid message format: " + err.Error())
		} else if a.Source != data.SourceBackend {
			resp = errorMessage("History only available for backend logs")
		} else {
			resp.Logs = feed.History(a.Lines)
		}

		b, err := json.Marshal(resp)
		if err != nil {
			log.WithError(err).Error("error encoding history reply")
			return
		}
		if err := msg.Respond(b); err != nil {
			log.WithError(err).Debug("error replying to history request")
		}
	})
	if err != nil {
		return nil, errors.Wrap(err, "error subscribing to history requests")
	}
	p.sub = sub

	p.cancel = feed.Listen(func(e data.LogEntry) {
		b, err := json.Marshal(e)
		if err != nil {
			return
		}
		if err := nc.Publish(data.SubjectLogs(e.Source), b); err != nil {
			log.WithError(err).Debug("error publishing log entry")
		}
	})

	return p, nil
}

// Close stops publishing
func (p *NatsPublisher) Close() error {
	p.cancel()
	return p.sub.Unsubscribe()
}
