package pluginconfig

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDir_MissingDirectoryIsNotAnError(t *testing.T) {
	configs, errs := LoadDir(filepath.Join(t.TempDir(), "does-not-exist"))
	assert.Empty(t, errs)
	assert.Empty(t, configs)
}

func TestLoadDir_ParsesYAMLByPluginName(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ocr.yaml"), []byte("language: eng\nmax_size_mb: 10\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ignored.txt"), []byte("not yaml"), 0o644))

	configs, errs := LoadDir(dir)
	require.Empty(t, errs)
	require.Contains(t, configs, "ocr")
	assert.Equal(t, "eng", configs["ocr"]["language"])
	assert.EqualValues(t, 10, configs["ocr"]["max_size_mb"])
	assert.NotContains(t, configs, "ignored")
}

func TestLoadDir_ReportsParseErrorsButContinues(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.yaml"), []byte("not: [valid: yaml"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ok.yaml"), []byte("enabled: true\n"), 0o644))

	configs, errs := LoadDir(dir)
	assert.NotEmpty(t, errs)
	assert.Contains(t, configs, "ok")
	assert.NotContains(t, configs, "broken")
}
