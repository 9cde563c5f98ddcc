// Package identity reports who the local user is to the repository service.
package identity
