// Package logging configures the process-wide logrus logger.
package logging

import (
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

// Configure sets the log level and, when path is not empty, redirects output to
// that file. The terminal UI owns stdout and stderr while it runs, so its logs
// must go to a file. The returned closer restores stderr output.
func Configure(path string, verbose bool) (io.Closer, error) {
	if verbose {
		logrus.SetLevel(logrus.DebugLevel)
	} else {
		logrus.SetLevel(logrus.InfoLevel)
	}
	if path == "" {
		logrus.SetOutput(os.Stderr)
		return nopCloser{}, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, err
	}
	logrus.SetFormatter(&logrus.TextFormatter{DisableColors: true, FullTimestamp: true})
	logrus.SetOutput(f)
	return fileSink{f}, nil
}

// Discard drops all log output, for commands whose stdout must stay clean.
func Discard() {
	logrus.SetOutput(io.Discard)
}

type fileSink struct{ f *os.File }

func (s fileSink) Close() error {
	logrus.SetOutput(os.Stderr)
	return s.f.Close()
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
