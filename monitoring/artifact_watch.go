package monitoring

import (
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// ArtifactWatcher reports changes to the model artifact after it has been
// loaded. The running model is never reloaded; the watcher only tells the
// operator that a restart is needed to pick up the new file.
type ArtifactWatcher struct {
	watcher  *fsnotify.Watcher
	path     string
	logger   *zap.Logger
	onChange func(fsnotify.Op)
	done     chan struct{}
}

// WatchArtifact starts watching path. The parent directory is watched so
// that editors and deploy tools that replace the file are noticed too.
func WatchArtifact(path string, logger *zap.Logger, onChange func(fsnotify.Op)) (*ArtifactWatcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		watcher.Close()
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	w := &ArtifactWatcher{
		watcher:  watcher,
		path:     abs,
		logger:   logger,
		onChange: onChange,
		done:     make(chan struct{}),
	}
	go w.run()
	return w, nil
}

func (w *ArtifactWatcher) run() {
	defer close(w.done)
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
				!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
				continue
			}
			w.logger.Warn("model artifact changed on disk; restart to load it",
				zap.String("path", w.path),
				zap.String("op", event.Op.String()))
			if w.onChange != nil {
				w.onChange(event.Op)
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("artifact watcher error", zap.Error(err))
		}
	}
}

// Close stops the watcher and waits for its goroutine to exit.
func (w *ArtifactWatcher) Close() error {
	err := w.watcher.Close()
	<-w.done
	return err
}
