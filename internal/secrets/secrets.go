// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets reads credentials kept outside the config file. A
// secrets directory holds one file per credential, named after the key.
package secrets

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// BackendAPIKey names the file holding the backend bearer token.
const BackendAPIKey = "backend-api-key"

// DefaultDir is the secrets directory read by the CLI.
const DefaultDir = ".secrets"

// Set maps key names to trimmed credential values.
type Set map[string]string

// Get returns the value for key, or fallback when the key is absent. A nil
// Set is empty.
func (s Set) Get(key, fallback string) string {
	if v, ok := s[key]; ok {
		return v
	}
	return fallback
}

// Load reads every regular, non-hidden file in dir. A missing directory
// yields an empty Set. Files that cannot be read, or whose contents are
// blank, are skipped; files readable by group or others are loaded with a
// warning.
func Load(dir string, logger *zap.Logger) (Set, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return Set{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	set := make(Set, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if !entry.Type().IsRegular() || strings.HasPrefix(name, ".") {
			continue
		}
		value, err := readSecret(filepath.Join(dir, name), logger)
		if err != nil {
			logger.Warn("could not read secret", zap.String("name", name), zap.Error(err))
			continue
		}
		if value != "" {
			set[name] = value
		}
	}
	logger.Debug("secrets loaded", zap.String("dir", dir), zap.Int("count", len(set)))
	return set, nil
}

func readSecret(path string, logger *zap.Logger) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", err
	}
	if perm := info.Mode().Perm(); perm&0o077 != 0 {
		logger.Warn("secret file is accessible by other users",
			zap.String("name", filepath.Base(path)),
			zap.Stringer("mode", fs.FileMode(perm)))
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}
