package utils_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/callvia/callvia/pkg/utils"
	"github.com/stretchr/testify/assert"
)

func TestLoadPrompt(t *testing.T) {
	assert := assert.New(t)

	path := filepath.Join(t.TempDir(), "framing.txt")
	assert.Nil(os.WriteFile(path, []byte("  You are a helpful assistant.\n"), 0644))

	content, err := utils.LoadPrompt(path)
	assert.Nil(err)
	assert.Equal("You are a helpful assistant.", content)
}

func TestLoadPromptMissingFile(t *testing.T) {
	assert := assert.New(t)

	_, err := utils.LoadPrompt("/nonexistent/framing.txt")
	assert.NotNil(err)
}

func TestLoadPromptWithFallback(t *testing.T) {
	assert := assert.New(t)

	path := filepath.Join(t.TempDir(), "framing.txt")
	assert.Nil(os.WriteFile(path, []byte("from file"), 0644))

	assert.Equal("from file", utils.LoadPromptWithFallback(path, "fallback"))
	assert.Equal("fallback", utils.LoadPromptWithFallback("/nonexistent/framing.txt", "fallback"))
}
