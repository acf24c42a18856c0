/*
Package sim is an in-memory stand-in for the indcloud backend. It serves the
REST API, the /ws/logs and /ws/telemetry channels and optionally publishes the
log stream on NATS, with generated devices, logs and telemetry. It is used by
the tests and by "indcloud sim" for working on the console without a backend.
*/
package sim
