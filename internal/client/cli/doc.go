// Package cli is the catalog command-line client.
//
// Commands map one to one onto the records API: list, search, get, create,
// update and delete. Output is a table on a terminal and JSON otherwise;
// --output forces either.
package cli
