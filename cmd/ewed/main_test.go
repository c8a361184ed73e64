package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandTree(t *testing.T) {
	for _, path := range [][]string{{"serve"}, {"generate"}, {"cache", "clear"}} {
		cmd, _, err := rootCmd.Find(path)
		require.NoError(t, err, path)
		assert.Equal(t, path[len(path)-1], cmd.Name())
	}
}

func TestGenerateRequiredFlags(t *testing.T) {
	for _, name := range []string{"name", "celebrity"} {
		f := generateCmd.Flags().Lookup(name)
		require.NotNil(t, f, name)
		assert.Equal(t, []string{"true"}, f.Annotations["cobra_annotation_bash_completion_one_required_flag"], name)
	}
}

func TestOpenOutputStdout(t *testing.T) {
	for _, path := range []string{"", "-"} {
		w, closeFn, err := openOutput(path)
		require.NoError(t, err)
		assert.Same(t, os.Stdout, w)
		closeFn()
	}
}

func TestOpenOutputFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cert.png")

	w, closeFn, err := openOutput(path)
	require.NoError(t, err)
	_, err = w.Write([]byte("png"))
	require.NoError(t, err)
	closeFn()

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "png", string(got))
}

func TestOpenOutputBadDir(t *testing.T) {
	_, _, err := openOutput(filepath.Join(t.TempDir(), "missing", "cert.png"))
	assert.Error(t, err)
}
