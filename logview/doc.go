/*
Package logview holds the state behind the live log viewer: a bounded ingestion
[Buffer], the [Filter] predicate, search term highlighting, a virtualized [Window]
over the filtered rows, the [AutoScroll] controller, per entry [RowState], and the
[Session] state machine that drives subscriptions on a [Transport].

A [Viewer] ties the pieces together. It is not safe for concurrent use; it is meant
to be owned by a single UI loop which feeds it entries received from a [Session].
*/
package logview
