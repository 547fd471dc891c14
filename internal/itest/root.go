//go:build integration

package itest

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const modulePath = "github.com/reelcut/reelcut"

// findRepoRoot walks up from the working directory to the go.mod that
// declares this module, so the suite works from any package directory.
func findRepoRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for {
		b, err := os.ReadFile(filepath.Join(dir, "go.mod"))
		if err == nil && strings.Contains(string(b), "module "+modulePath) {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("no go.mod for %s above %s", modulePath, dir)
		}
		dir = parent
	}
}
