package config

import (
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"QRKara/logger"
)

// Watch reloads configuration whenever the .env file at path is rewritten and
// hands the fresh Config to onChange. It blocks until stop is closed, so run
// it on its own goroutine. Only writes and creates trigger a reload; editors
// that replace the file atomically show up as creates.
func Watch(path string, onChange func(*Config), stop <-chan struct{}) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	// Watch the directory, not the file: rename-and-replace editors drop the
	// watch when the inode goes away.
	dir := filepath.Dir(path)
	if err := watcher.Add(dir); err != nil {
		return err
	}
	base := filepath.Base(path)

	logger.Info("watching config file", logger.String("path", path))

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if !strings.HasSuffix(event.Name, base) {
				continue
			}
			logger.Info("config file changed, reloading", logger.String("event", event.Name))
			onChange(Load())
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("config watcher error", logger.ErrorField(err))
		case <-stop:
			return nil
		}
	}
}
