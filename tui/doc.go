/*
Package tui is the terminal interface of the console.

[App] hosts three screens: the streaming log viewer, the device admin table and
the metrics dashboard. Every screen runs inside the single bubbletea update
loop; stream readers and dashboard loads run in goroutines and report back as
messages. Errors and confirmations are shown in the status line as toasts.
*/
package tui
