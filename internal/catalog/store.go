// internal/catalog/store.go
package catalog

import (
	"context"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"catalog-lookup-workers/internal/common/logger"
)

// TemplateStore serves the item specs document. With caching enabled the
// parsed document is kept in memory and reloaded after the file changes on
// disk; without it every call reads the file again.
type TemplateStore struct {
	path   string
	load   func(string) (*TemplateDocument, error)
	logger logger.Logger

	mu        sync.RWMutex
	doc       *TemplateDocument
	gen       uint64
	loadedGen uint64
	cached    bool

	watcher *fsnotify.Watcher
	done    chan struct{}
	wg      sync.WaitGroup
}

// NewTemplateStore creates a store for the workbook at path. If the file
// watcher cannot be started the store falls back to loading on every call.
func NewTemplateStore(path string, cacheEnabled bool, log logger.Logger) *TemplateStore {
	s := &TemplateStore{
		path:   filepath.Clean(path),
		load:   LoadTemplateDocument,
		logger: log.WithFields(map[string]interface{}{"templatePath": path}),
		gen:    1,
		done:   make(chan struct{}),
	}
	if !cacheEnabled {
		return s
	}

	if err := s.watch(); err != nil {
		s.logger.Warn("template watcher unavailable, reloading on every lookup", map[string]interface{}{
			"error": err.Error(),
		})
		return s
	}
	s.cached = true
	return s
}

// Document returns the current template document.
func (s *TemplateStore) Document(ctx context.Context) (*TemplateDocument, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !s.cached {
		return s.load(s.path)
	}

	s.mu.RLock()
	if s.doc != nil && s.loadedGen == s.gen {
		doc := s.doc
		s.mu.RUnlock()
		return doc, nil
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.doc != nil && s.loadedGen == s.gen {
		return s.doc, nil
	}

	gen := s.gen
	doc, err := s.load(s.path)
	if err != nil {
		return nil, err
	}
	s.doc = doc
	s.loadedGen = gen
	s.logger.Info("template document loaded", map[string]interface{}{
		"rows":          len(doc.Rows),
		"allowedValues": len(doc.AllowedValues),
	})
	return doc, nil
}

// Invalidate forces the next Document call to reload the file.
func (s *TemplateStore) Invalidate() {
	s.mu.Lock()
	s.gen++
	s.mu.Unlock()
}

// Close stops the file watcher.
func (s *TemplateStore) Close() error {
	if s.watcher == nil {
		return nil
	}
	close(s.done)
	err := s.watcher.Close()
	s.wg.Wait()
	return err
}

func (s *TemplateStore) watch() error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	// Watch the directory: editors and exporters often replace the file
	// instead of writing it in place.
	if err := w.Add(filepath.Dir(s.path)); err != nil {
		w.Close()
		return err
	}
	s.watcher = w

	s.wg.Add(1)
	go s.processEvents()
	return nil
}

func (s *TemplateStore) processEvents() {
	defer s.wg.Done()
	for {
		select {
		case <-s.done:
			return
		case ev, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != s.path {
				continue
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) ||
				ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename) {
				s.Invalidate()
				s.logger.Debug("template document changed", map[string]interface{}{
					"op": ev.Op.String(),
				})
			}
		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			s.logger.Warn("template watcher error", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}
}
