// Package shell is the line-oriented front end of the explorer. It reads
// commands and searches from a golang.org/x/term Terminal, completes search
// tags on Tab, and prints the session's current page of results.
//
// Plain input runs a text search; an empty line returns to the full listing.
// Lines starting with "/" are commands, listed by /help.
package shell
