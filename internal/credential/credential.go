// Package credential reads the controller password from a file so it never
// appears in the config or on the command line.
package credential

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// ErrEmptySecret is returned when the secret file holds only whitespace.
var ErrEmptySecret = errors.New("secret file is empty")

// ReadSecret returns the trimmed contents of the file at path.
func ReadSecret(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading secret: %w", err)
	}
	secret := strings.TrimSpace(string(data))
	if secret == "" {
		return "", fmt.Errorf("%s: %w", path, ErrEmptySecret)
	}
	return secret, nil
}
