// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets resolves the credentials docpipe uses. Each credential is
// looked up first as a plain-text file in the secrets directory, then as an
// environment variable.
package secrets

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
)

// DefaultDir is where the CLI looks for secret files.
const DefaultDir = ".secrets/"

// Key names one credential and where it may come from.
type Key struct {
	// File is the name of the key file inside the secrets directory.
	File string

	// Env is consulted when the file is missing or empty.
	Env string
}

// OpenAI authenticates against the OpenAI-compatible ASR endpoint.
var OpenAI = Key{File: "openai-api-key", Env: "OPENAI_API_KEY"}

// Known lists every credential Load resolves.
var Known = []Key{OpenAI}

// Source reports where a resolved credential came from.
type Source string

const (
	SourceNone Source = ""
	SourceFile Source = "file"
	SourceEnv  Source = "env"
)

type value struct {
	secret string
	source Source
}

// Store holds resolved credentials. The zero value resolves nothing.
type Store struct {
	values map[Key]value
}

// Get returns the credential for k, or "" when it was not found.
func (s *Store) Get(k Key) string {
	if s == nil {
		return ""
	}
	return s.values[k].secret
}

// Source returns where the credential for k came from.
func (s *Store) Source(k Key) Source {
	if s == nil {
		return SourceNone
	}
	return s.values[k].source
}

// Load resolves every Known key from dir, falling back to getenv. A missing
// directory or key file is not an error. Key files readable by group or
// others and files Load does not know are reported as warnings.
func Load(dir string, getenv func(string) string, log zerolog.Logger) (*Store, error) {
	s := &Store{values: make(map[Key]value, len(Known))}

	if _, err := os.Stat(dir); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}
	warnUnknown(dir, log)

	for _, k := range Known {
		secret, err := readKeyFile(filepath.Join(dir, k.File), log)
		if err != nil {
			log.Warn().Err(err).Str("secret", k.File).Msg("could not read secret")
		}
		if secret != "" {
			s.values[k] = value{secret: secret, source: SourceFile}
			continue
		}
		if getenv == nil || k.Env == "" {
			continue
		}
		if secret = strings.TrimSpace(getenv(k.Env)); secret != "" {
			s.values[k] = value{secret: secret, source: SourceEnv}
		}
	}
	return s, nil
}

// readKeyFile returns the trimmed contents of path; a missing file is "".
func readKeyFile(path string, log zerolog.Logger) (string, error) {
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	if info.IsDir() {
		return "", fmt.Errorf("%s is a directory", path)
	}
	if info.Mode().Perm()&0o077 != 0 {
		log.Warn().Str("secret", filepath.Base(path)).Str("mode", info.Mode().Perm().String()).Msg("secret file is readable by other users")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

func warnUnknown(dir string, log zerolog.Logger) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}
	known := make(map[string]bool, len(Known))
	for _, k := range Known {
		known[k.File] = true
	}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") || known[name] {
			continue
		}
		log.Warn().Str("secret", name).Msg("ignoring unknown secret file")
	}
}
