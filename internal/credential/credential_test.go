package credential

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestReadSecret(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name     string
		content  string
		want     string
		wantErr  error
		noCreate bool
	}{
		{name: "trims whitespace", content: "  s3cr3t\n", want: "s3cr3t"},
		{name: "crlf", content: "p@ss word\r\n", want: "p@ss word"},
		{name: "empty", content: " \n\t", wantErr: ErrEmptySecret},
		{name: "missing", noCreate: true, wantErr: os.ErrNotExist},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.name)
			if !tt.noCreate {
				if err := os.WriteFile(path, []byte(tt.content), 0600); err != nil {
					t.Fatal(err)
				}
			}

			got, err := ReadSecret(path)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("ReadSecret() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("ReadSecret() = %q, want %q", got, tt.want)
			}
		})
	}
}
