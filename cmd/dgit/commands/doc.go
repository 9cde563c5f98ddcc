// Package commands defines the dgit CLI and wires dependencies for subcommands.
//
// Commands
//
//   - init     Create a remote repository and print its id
//   - clone    Copy every file of a repository into dgit-repo-<id>/
//   - commit   Send each tracked file of the working directory (or stage it)
//   - push     Send staged commits
//   - status   Print the remote status summary
//   - whoami   Print the principal and fingerprint of the local identity
//
// # Implementation
//
// The root command resolves configuration from flags, the environment and an
// optional .env file, then builds the dependency graph (logger, identity
// store, working tree, staging store) before any subcommand runs. Commands
// that talk to the remote ask the graph for a repository service, which loads
// the identity and builds the signed RPC client.
//
// Errors are returned to Execute, which prints one line naming the cause and
// maps it onto an exit code:
//
//	0 ok, 1 other failures, 2 usage, 3 missing configuration,
//	4 corrupt identity, 5 remote unavailable, 6 remote rejected, 7 not found
package commands
