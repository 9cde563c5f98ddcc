// Package domain defines core data models and interfaces shared across dgit.
// It contains plain types (identity, repository, staging) and contracts
// (interfaces) only, plus the error taxonomy every layer reports through.
package domain
