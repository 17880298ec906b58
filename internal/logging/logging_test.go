package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigure_FileSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "jobdeck.log")

	closer, err := Configure(path, true)
	require.NoError(t, err)
	assert.Equal(t, logrus.DebugLevel, logrus.GetLevel())

	logrus.WithField("port", "jobs").Debug("hello from the test")
	require.NoError(t, closer.Close())
	assert.Equal(t, os.Stderr, logrus.StandardLogger().Out)

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), "hello from the test")
	assert.Contains(t, string(b), "port=jobs")
}

func TestConfigure_Stderr(t *testing.T) {
	closer, err := Configure("", false)
	require.NoError(t, err)
	defer closer.Close()
	assert.Equal(t, logrus.InfoLevel, logrus.GetLevel())
	assert.Equal(t, os.Stderr, logrus.StandardLogger().Out)
}
