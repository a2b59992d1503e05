package devicestate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/mysnackdev/mysnack-storefront/internal/domain"
)

// fileRepo keeps one JSON document per device under a root directory. It is
// the single-device deployment mode: a second process writing the same
// directory shows up through the fsnotify watch, which subscribers treat
// exactly like an internal change (converge by re-reading, no locking).
type fileRepo struct {
	root   string
	logger *log.Logger

	mu sync.Mutex

	watcher  *fsnotify.Watcher
	onChange func(deviceID string)
}

// NewFile creates the root directory if needed and returns a file-backed
// repository. onChange may be nil; when set it is invoked with the device ID
// whose state file changed on disk, including this process' own writes.
func NewFile(root string, logger *log.Logger, onChange func(deviceID string)) (Repository, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create state dir: %w", err)
	}
	r := &fileRepo{root: root, logger: logger, onChange: onChange}
	if onChange != nil {
		watcher, err := fsnotify.NewWatcher()
		if err != nil {
			return nil, fmt.Errorf("init watcher: %w", err)
		}
		if err := watcher.Add(root); err != nil {
			watcher.Close()
			return nil, fmt.Errorf("watch state dir: %w", err)
		}
		r.watcher = watcher
		go r.watchLoop()
	}
	return r, nil
}

func (r *fileRepo) watchLoop() {
	for {
		select {
		case ev, ok := <-r.watcher.Events:
			if !ok {
				return
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			name := filepath.Base(ev.Name)
			if !strings.HasSuffix(name, ".json") {
				continue
			}
			r.onChange(strings.TrimSuffix(name, ".json"))
		case err, ok := <-r.watcher.Errors:
			if !ok {
				return
			}
			if r.logger != nil {
				r.logger.Printf("devicestate watch error: %v", err)
			}
		}
	}
}

func (r *fileRepo) path(deviceID string) string {
	// Device IDs are UUIDs; Base guards against anything path-like.
	return filepath.Join(r.root, filepath.Base(deviceID)+".json")
}

// load reads the per-device document. A missing or unparsable file yields an
// empty document rather than an error.
func (r *fileRepo) load(deviceID string) map[string]json.RawMessage {
	doc := map[string]json.RawMessage{}
	data, err := os.ReadFile(r.path(deviceID))
	if err != nil {
		return doc
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		if r.logger != nil {
			r.logger.Printf("devicestate: discarding malformed state file for %s: %v", deviceID, err)
		}
		return map[string]json.RawMessage{}
	}
	return doc
}

func (r *fileRepo) store(deviceID string, doc map[string]json.RawMessage) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	tmp := r.path(deviceID) + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, r.path(deviceID))
}

func (r *fileRepo) Get(_ context.Context, deviceID, key string) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	value, ok := r.load(deviceID)[key]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return value, nil
}

func (r *fileRepo) Set(_ context.Context, deviceID, key string, value []byte) error {
	if !json.Valid(value) {
		return errors.New("value must be valid JSON")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	doc := r.load(deviceID)
	doc[key] = json.RawMessage(value)
	return r.store(deviceID, doc)
}

func (r *fileRepo) Delete(_ context.Context, deviceID, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	doc := r.load(deviceID)
	if _, ok := doc[key]; !ok {
		return nil
	}
	delete(doc, key)
	return r.store(deviceID, doc)
}
