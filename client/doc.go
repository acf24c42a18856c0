/*
Package client talks to the indcloud backend.

[Client] wraps the REST API. Reads return the backend record as-is; mutations
decode the backend's success/message/data envelope and return an *[APIError]
when the backend reports a failure. Streaming channels implement
logview.Transport: [LogStream] over the /ws/logs WebSocket and [NatsLogStream]
over NATS subjects. [TelemetryStream] follows live device readings.

[RunGroup] groups the long running parts of a console process so they start and
stop together.
*/
package client
