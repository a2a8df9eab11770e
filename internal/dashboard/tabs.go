package dashboard

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/vostoksystem/station-meteo/internal/weather"
)

// selectedTabKey is the preference holding the last selected tab.
const selectedTabKey = "selected-tab"

// Preferences is a small key-value store local to the client.
type Preferences interface {
	Get(key string) (string, bool)
	Set(key, value string) error
}

// FilePreferences persists preferences as a JSON object in a file.
type FilePreferences struct {
	path string

	mu     sync.Mutex
	values map[string]string
}

// NewFilePreferences loads the preferences stored at path. A missing file is
// an empty store.
func NewFilePreferences(path string) (*FilePreferences, error) {
	p := &FilePreferences{path: path, values: make(map[string]string)}

	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return p, nil
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(raw, &p.values); err != nil {
		return nil, fmt.Errorf("invalid preferences file %s: %w", path, err)
	}
	return p, nil
}

func (p *FilePreferences) Get(key string) (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	v, ok := p.values[key]
	return v, ok
}

func (p *FilePreferences) Set(key, value string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.values[key] = value
	raw, err := json.MarshalIndent(p.values, "", "  ")
	if err != nil {
		return err
	}
	// Write then rename so a crash never leaves a truncated file.
	tmp := p.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, p.path)
}

// Tabs is the ordered list of graph tabs and the selected one.
type Tabs struct {
	graphs []weather.GraphDescriptor
	prefs  Preferences
}

func NewTabs(graphs []weather.GraphDescriptor, prefs Preferences) *Tabs {
	return &Tabs{graphs: graphs, prefs: prefs}
}

// Graphs returns the tabs in display order.
func (t *Tabs) Graphs() []weather.GraphDescriptor {
	return t.graphs
}

// Selected returns the last selected tab, or the first one when nothing
// valid was stored. ok is false when there are no tabs at all.
func (t *Tabs) Selected() (g weather.GraphDescriptor, ok bool) {
	if len(t.graphs) == 0 {
		return weather.GraphDescriptor{}, false
	}
	if key, found := t.prefs.Get(selectedTabKey); found {
		if g, ok := t.find(key); ok {
			return g, true
		}
	}
	return t.graphs[0], true
}

// Select records key as the selected tab.
func (t *Tabs) Select(key string) (weather.GraphDescriptor, error) {
	g, ok := t.find(key)
	if !ok {
		return weather.GraphDescriptor{}, fmt.Errorf("unknown tab %q", key)
	}
	if err := t.prefs.Set(selectedTabKey, key); err != nil {
		return weather.GraphDescriptor{}, fmt.Errorf("saving selected tab: %w", err)
	}
	return g, nil
}

func (t *Tabs) find(key string) (weather.GraphDescriptor, bool) {
	for _, g := range t.graphs {
		if g.Key == key {
			return g, true
		}
	}
	return weather.GraphDescriptor{}, false
}
