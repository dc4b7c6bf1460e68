package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// gitignoreContent keeps run state out of version control when a dedicated
// checkpoint directory sits inside a repository.
const gitignoreContent = `# apreboot run state (auto-generated)
.checkpoint_*.json
.checkpoint_*.json.tmp
*.prom
*.log
`

// GitignoreContent returns the .gitignore written into checkpoint directories.
func GitignoreContent() string {
	return gitignoreContent
}

// EnsureGitignore creates a .gitignore file in the given directory if one
// does not already exist. Returns true if a new file was created, false if
// one already existed. Never overwrites an existing .gitignore.
func EnsureGitignore(dir string) (bool, error) {
	gitignorePath := filepath.Join(dir, ".gitignore")

	_, err := os.Stat(gitignorePath)
	if err == nil {
		return false, nil
	}
	if !os.IsNotExist(err) {
		return false, fmt.Errorf("checking .gitignore at %s: %w", gitignorePath, err)
	}

	if mkdirErr := os.MkdirAll(dir, 0o750); mkdirErr != nil {
		return false, fmt.Errorf("creating directory %s: %w", dir, mkdirErr)
	}

	//nolint:gosec // .gitignore must be world-readable (0644).
	if writeErr := os.WriteFile(gitignorePath, []byte(gitignoreContent), 0o644); writeErr != nil {
		return false, fmt.Errorf("writing .gitignore at %s: %w", gitignorePath, writeErr)
	}
	return true, nil
}
