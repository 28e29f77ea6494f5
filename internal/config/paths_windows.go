//go:build windows

package config

import (
	"os"
	"path/filepath"
)

func configSearchPaths() []string {
	local := os.Getenv("LOCALAPPDATA")
	programData := os.Getenv("ProgramData")
	return []string{
		"hostnet.yaml",
		filepath.Join(local, "hostnet", "config.yaml"),
		filepath.Join(programData, "hostnet", "config.yaml"),
	}
}
