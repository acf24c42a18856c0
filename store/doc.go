// Package store archives log sessions in SQLite so a stream can be looked at
// again after the console exits. Entries are written in batches by a Recorder
// and read back in arrival order.
package store
