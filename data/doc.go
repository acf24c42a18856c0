/*
Package data contains the records exchanged with the indcloud backend and the
small helpers shared by every screen of the console.

Records mirror the backend JSON 1:1. They are never computed locally; a record only
changes when the backend returns a new copy after an explicit update call.
*/
package data
