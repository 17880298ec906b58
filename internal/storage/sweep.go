package storage

import (
	"context"
	"io/fs"
	"os"
	"strings"
	"sync/atomic"

	"github.com/charlievieth/fastwalk"
	"github.com/sirupsen/logrus"
)

// SweepPartial removes files under root whose name ends in suffix, such as
// downloads interrupted by a previous run. A missing root is not an error.
func SweepPartial(ctx context.Context, root, suffix string) (int, error) {
	root, err := ExpandTilde(root)
	if err != nil {
		return 0, err
	}
	if _, err := os.Stat(root); os.IsNotExist(err) {
		return 0, nil
	}

	var removed atomic.Int64
	conf := fastwalk.DefaultConfig
	err = fastwalk.Walk(&conf, root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // Skip unreadable entries.
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), suffix) {
			return nil
		}
		if err := os.Remove(path); err != nil {
			logrus.WithError(err).Warn("could not remove partial download ", path)
			return nil
		}
		logrus.Debug("removed partial download ", path)
		removed.Add(1)
		return nil
	})
	return int(removed.Load()), err
}
