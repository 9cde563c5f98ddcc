// Package repo implements the dgit commands against a remote repository.
//
// Init creates a repository. Clone materialises every file of a repository
// into dgit-repo-<id>/, fetching files one at a time in listed order. Commit
// sends each tracked file of the working directory as its own commit. Stage
// and Push split that in two: staged commits are kept in a local manifest
// until a push delivers them. Status returns the remote summary untouched.
package repo
