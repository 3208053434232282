// Package logging provides a simple leveled logging interface for the
// media explorer client.
//
// It supports the following log levels:
//   - DEBUG: Verbose debugging information (batch fetches, poll cycles)
//   - INFO: General operational messages
//   - WARN: Transient failures that will be retried
//   - ERROR: Error conditions
//   - FATAL: Fatal errors that terminate the application
//
// The log level is configured via the LOG_LEVEL environment variable, or
// forced to debug with DEBUG=true. Output goes to stderr unless redirected
// with [SetOutput].
package logging
