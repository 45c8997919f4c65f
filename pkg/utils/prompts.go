package utils

import (
	"fmt"
	"os"
	"strings"
)

// LoadPrompt reads a prompt file and returns its trimmed contents. The path
// is used as given; no search paths are tried.
func LoadPrompt(filePath string) (string, error) {
	content, err := os.ReadFile(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to read prompt file %s: %w", filePath, err)
	}
	return strings.TrimSpace(string(content)), nil
}

// LoadPromptWithFallback returns the file's contents when it can be read and
// the fallback string otherwise. Used for caller-facing text that ships with
// a baked-in default.
func LoadPromptWithFallback(filePath, fallback string) string {
	content, err := LoadPrompt(filePath)
	if err != nil {
		return fallback
	}
	return content
}
