// Command explorerctl is a one-shot client for the indexing service, for
// scripts and quick checks without the interactive explorer.
//
// Usage:
//
//	explorerctl [--server URL] [--output text|json|yaml] <command>
//
// Commands:
//
//	dirs                      List registered directories and their status.
//	register <name> <path>    Register a directory for indexing.
//	unregister <name>         Remove a directory.
//	cancel <name>             Stop initializing a directory.
//	pick                      Run the server host's folder picker.
//	ls <dir>                  List files of a directory.
//	search <dir> <query>      Run a text search; @tags filter and weight it.
//	similar <dir>             Run a similarity search for a file or an image.
//	suggest <query>           Show tag completions for a query.
//	version                   Print build information.
//
// Environment:
//
//	SERVER_URL   - Address of the indexing service (default: http://127.0.0.1:8000)
//	CONFIG_FILE  - Optional YAML file with the same settings as the explorer
//	LOG_LEVEL    - Logging level; explorerctl only logs warnings unless --verbose
package main
