package fswatch

import (
	"fmt"
	"os"

	"github.com/fsnotify/fsnotify"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/sidkik/dropletctl/pkg/errors"
)

var fs = afero.NewOsFs()

// Watcher signals whenever anything within a directory tree changes.
type Watcher struct {
	// Triggers receives a value after one or more changes. Bursts of changes
	// are coalesced, so a receiver that's busy handling a previous trigger
	// will see at most one pending trigger.
	Triggers <-chan struct{}

	watcher *fsnotify.Watcher
}

// Watch starts watching `dir` and all of its subdirectories. Directories
// created after the watch starts are watched as well.
func Watch(dir string) (*Watcher, error) {
	pathsToWatch, err := getPathsToWatch(dir)
	if err != nil {
		return nil, errors.WithContext(err, "get paths")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.WithContext(err, "create watcher")
	}

	for _, path := range pathsToWatch {
		if err := watcher.Add(path); err != nil {
			// Close the watcher so that we release the file handlers for the
			// previously added paths.
			if err := watcher.Close(); err != nil {
				log.WithError(err).Warn("Failed to close file watcher")
			}

			return nil, errors.WithContext(err, fmt.Sprintf("watch %q", path))
		}
	}

	go logErrors(watcher.Errors)
	events := trackNewDirectories(watcher.Events, watcher.Add)
	return &Watcher{Triggers: combineUpdates(events), watcher: watcher}, nil
}

// Close stops the watch and closes the Triggers channel.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}

func combineUpdates(updates <-chan fsnotify.Event) chan struct{} {
	combined := make(chan struct{}, 1)
	go func() {
		defer close(combined)
		for range updates {
			select {
			case combined <- struct{}{}:
			default:
			}
		}
	}()
	return combined
}

// trackNewDirectories forwards `events`, and calls `add` on any directory
// that's created so that changes within it are noticed too.
func trackNewDirectories(events <-chan fsnotify.Event, add func(string) error) <-chan fsnotify.Event {
	forwarded := make(chan fsnotify.Event)
	go func() {
		defer close(forwarded)
		for event := range events {
			if event.Op&fsnotify.Create != 0 {
				if fi, err := fs.Stat(event.Name); err == nil && fi.IsDir() {
					paths, err := getPathsToWatch(event.Name)
					if err != nil {
						log.WithError(err).WithField("path", event.Name).
							Warn("Failed to list new directory")
					}
					for _, path := range paths {
						if err := add(path); err != nil {
							log.WithError(err).WithField("path", path).
								Warn("Failed to watch new directory")
						}
					}
				}
			}
			forwarded <- event
		}
	}()
	return forwarded
}

func logErrors(errs <-chan error) {
	for err := range errs {
		log.WithError(err).Warn("File watcher error")
	}
}

// getPathsToWatch returns `dir` and every directory below it. fsnotify
// doesn't watch recursively, but a watch on a directory covers the files
// directly inside it.
func getPathsToWatch(dir string) (paths []string, err error) {
	fi, err := fs.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.FileNotFound{Path: dir}
		}
		return nil, errors.WithContext(err, "stat")
	}

	if !fi.IsDir() {
		return nil, errors.PathKindError{Path: dir, Reason: "is not a directory"}
	}

	err = afero.Walk(fs, dir, func(path string, fi os.FileInfo, err error) error {
		if err != nil {
			return errors.WithContext(err, "walk error")
		}

		if fi.IsDir() {
			paths = append(paths, path)
		}
		return nil
	})
	return paths, err
}
