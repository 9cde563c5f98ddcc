package app

import (
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"dgit/internal/agent"
	"dgit/internal/store"
	"dgit/internal/worktree"
)

// Configuration keys. Each is read from the environment variable of the same
// name in upper case.
const (
	KeyCanisterID = "repo_canister_id"
	KeyHost       = "dgit_host"
	KeyIdentity   = "dgit_identity"
	KeyPassphrase = "dgit_passphrase"
	KeyExtensions = "dgit_tracked_extensions"
	KeyTimeout    = "dgit_timeout"
	KeyLogLevel   = "dgit_log_level"
	KeyLogFile    = "dgit_log_file"
)

// EnvFile is read from the working directory when present.
const EnvFile = ".env"

// flagKeys maps persistent flag names onto configuration keys.
var flagKeys = map[string]string{
	"canister":   KeyCanisterID,
	"host":       KeyHost,
	"identity":   KeyIdentity,
	"passphrase": KeyPassphrase,
	"timeout":    KeyTimeout,
	"log-level":  KeyLogLevel,
	"log-file":   KeyLogFile,
}

// Config holds runtime wiring options for building the app.
type Config struct {
	WorkDir           string        // directory commands operate in
	Host              string        // gateway base URL, e.g. https://ic0.app
	CanisterID        string        // repository canister id
	IdentityPath      string        // identity file, absolute
	Passphrase        string        // optional; seals the identity file
	TrackedExtensions []string      // e.g. [".mo", ".rs"]
	Timeout           time.Duration // per-RPC bound; zero means none
	LogLevel          string
	LogFile           string       // optional rotating log file, absolute
	HTTP              *http.Client // optional; defaults to http.DefaultClient
}

// StagingDir is where staged commits are kept.
func (c Config) StagingDir() string { return filepath.Join(c.WorkDir, ".dgit") }

// Load resolves the configuration for workDir. flags may be nil.
func Load(workDir string, flags *pflag.FlagSet) (Config, error) {
	abs, err := filepath.Abs(workDir)
	if err != nil {
		return Config{}, fmt.Errorf("resolve working directory: %w", err)
	}

	v := viper.New()
	v.SetDefault(KeyHost, agent.DefaultHost)
	v.SetDefault(KeyIdentity, store.DefaultIdentityFile)
	v.SetDefault(KeyExtensions, strings.Join(worktree.DefaultExtensions, ","))
	v.SetDefault(KeyTimeout, "0s")
	v.SetDefault(KeyLogLevel, "warn")

	for _, key := range []string{KeyCanisterID, KeyHost, KeyIdentity, KeyPassphrase, KeyExtensions, KeyTimeout, KeyLogLevel, KeyLogFile} {
		if err := v.BindEnv(key, strings.ToUpper(key)); err != nil {
			return Config{}, err
		}
	}
	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return Config{}, err
				}
			}
		}
	}

	envFile := filepath.Join(abs, EnvFile)
	if _, err := os.Stat(envFile); err == nil {
		v.SetConfigFile(envFile)
		v.SetConfigType("env")
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read %s: %w", envFile, err)
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("stat %s: %w", envFile, err)
	}

	timeout := v.GetDuration(KeyTimeout)
	if timeout < 0 {
		return Config{}, fmt.Errorf("timeout must not be negative: %s", timeout)
	}

	return Config{
		WorkDir:           abs,
		Host:              strings.TrimSpace(v.GetString(KeyHost)),
		CanisterID:        strings.TrimSpace(v.GetString(KeyCanisterID)),
		IdentityPath:      resolve(abs, v.GetString(KeyIdentity)),
		Passphrase:        v.GetString(KeyPassphrase),
		TrackedExtensions: parseExtensions(v.GetString(KeyExtensions)),
		Timeout:           timeout,
		LogLevel:          v.GetString(KeyLogLevel),
		LogFile:           resolve(abs, v.GetString(KeyLogFile)),
	}, nil
}

func resolve(dir, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(dir, p)
}

// parseExtensions splits a comma-separated list, adding the leading dot
// where it was left out.
func parseExtensions(s string) []string {
	var out []string
	for _, e := range strings.Split(s, ",") {
		e = strings.TrimSpace(e)
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		out = append(out, e)
	}
	return out
}
