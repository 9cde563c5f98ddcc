// Package app wires application dependencies for the CLI.
//
// Load resolves a Config from flags, the environment, an optional .env file
// in the working directory and defaults, in that order of precedence.
// NewWire builds the concrete stores, the working tree and the logger from
// it; Repo adds the signed RPC client and the repository service on demand.
package app
