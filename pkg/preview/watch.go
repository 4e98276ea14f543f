package preview

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rubiojr/vouch/pkg/realtime"
)

// Watch watches paths and, after every change, calls onChange (if set) and
// tells live-reload clients to refresh. The watcher is set up before Watch
// returns and released when ctx is done. Paths that do not exist are
// skipped with a warning.
func (s *Server) Watch(ctx context.Context, paths []string, onChange func(path string)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating file watcher: %w", err)
	}

	watched := 0
	for _, p := range paths {
		if p == "" {
			continue
		}
		if err := watcher.Add(p); err != nil {
			s.logger.Warnf("not watching %s: %v", p, err)
			continue
		}
		s.logger.Debugf("watching %s for changes", p)
		watched++
	}
	if watched == 0 {
		_ = watcher.Close()
		return nil
	}

	go func() {
		defer func() {
			if err := watcher.Close(); err != nil {
				s.logger.Warnf("closing file watcher: %v", err)
			}
		}()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) && !event.Has(fsnotify.Remove) {
					continue
				}
				// Editors often replace files with atomic renames.
				if event.Has(fsnotify.Rename) || event.Has(fsnotify.Remove) {
					time.Sleep(200 * time.Millisecond)
					if _, err := os.Stat(event.Name); os.IsNotExist(err) {
						s.logger.Warnf("%s was removed and not replaced", event.Name)
						continue
					}
					if err := watcher.Add(event.Name); err != nil {
						s.logger.Warnf("re-adding %s to watcher: %v", event.Name, err)
					}
				} else {
					time.Sleep(100 * time.Millisecond)
				}

				s.logger.Infof("%s changed (%s), reloading", event.Name, event.Op)
				if onChange != nil {
					onChange(event.Name)
				}
				n := s.hub.Broadcast(realtime.Reload(event.Name))
				s.logger.Debugf("reload sent to %d clients", n)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				s.logger.Warnf("file watcher error: %v", err)
			}
		}
	}()
	return nil
}
