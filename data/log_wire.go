package data

// actions a client sends on the logs channel
const (
	ActionSubscribe   = "subscribe"
	ActionUnsubscribe = "unsubscribe"
	ActionHistory     = "history"
	ActionPing        = "ping"
)

// message types the server sends on the logs channel
const (
	MsgConnected    = "connected"
	MsgSubscribed   = "subscribed"
	MsgUnsubscribed = "unsubscribed"
	MsgLog          = "log"
	MsgHistory      = "history"
	MsgPong         = "pong"
	MsgError        = "error"
)

// LogAction is a client command on the logs channel
type LogAction struct {
	Action  string      `json:"action"`
	Sources []LogSource `json:"sources,omitempty"`
	Source  LogSource   `json:"source,omitempty"`
	Lines   int         `json:"lines,omitempty"`
}

// LogMessage is a server message on the logs channel. Which fields are set
// depends on Type.
type LogMessage struct {
	Type             string      `json:"type"`
	Message          string      `json:"message,omitempty"`
	Entry            *LogEntry   `json:"entry,omitempty"`
	Logs             []LogEntry  `json:"logs,omitempty"`
	Source           LogSource   `json:"source,omitempty"`
	Sources          []LogSource `json:"sources,omitempty"`
	AvailableSources []LogSource `json:"availableSources,omitempty"`
}

// SubjectLogs returns the NATS subject a log source is published on
func SubjectLogs(source LogSource) string {
	return "logs." + string(source)
}

// SubjectLogHistory is the NATS request subject for log history. Requests
// carry a LogAction and replies a LogMessage.
const SubjectLogHistory = "logs.history"
