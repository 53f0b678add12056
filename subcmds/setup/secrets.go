// Copyright (c) 2025 BVK Chaitanya

package setup

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bvk/mentionbot/server"
	"github.com/bvk/mentionbot/subcmds/cmdutil"
)

// loadSecrets reads the secrets file from the data directory without the
// environment overrides, so that saving it back doesn't persist them. An
// empty Secrets is returned when the file doesn't exist.
func loadSecrets(dataDir string) (*server.Secrets, string, error) {
	dir, err := cmdutil.DataDir(dataDir)
	if err != nil {
		return nil, "", err
	}
	fpath := filepath.Join(dir, "secrets.json")

	secrets := new(server.Secrets)
	data, err := os.ReadFile(fpath)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, "", err
		}
		return secrets, fpath, nil
	}
	if err := json.Unmarshal(data, secrets); err != nil {
		return nil, "", fmt.Errorf("could not parse secrets file %q: %w", fpath, err)
	}
	return secrets, fpath, nil
}

func saveSecrets(fpath string, secrets *server.Secrets) error {
	js, err := json.MarshalIndent(secrets, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(fpath, js, os.FileMode(0600)); err != nil {
		return err
	}
	return nil
}
