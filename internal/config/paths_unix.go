//go:build !windows

package config

import (
	"os"
	"path/filepath"
)

func configSearchPaths() []string {
	home, _ := os.UserHomeDir()
	return []string{
		"hostnet.yaml",
		filepath.Join(home, ".hostnet", "config.yaml"),
		"/etc/hostnet/config.yaml",
	}
}
