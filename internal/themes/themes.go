package themes

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	yaml "gopkg.in/yaml.v3"
)

//go:embed themes.yaml
var defaultFiles embed.FS

var (
	ErrUnknownTheme = errors.New("unknown theme")
	ErrBadMixRatio  = errors.New("invalid mix ratio")
)

// Catalog is the set of tactical theme labels the tool accepts, each
// with a one-line description for document text. Defaults are embedded;
// an optional override directory can add or reword entries.
type Catalog struct {
	mu   sync.RWMutex
	data map[string]string
}

// New loads the embedded catalog and then applies overrides from dir if
// provided.
func New(overrideDir string) (*Catalog, error) {
	c := &Catalog{data: make(map[string]string)}
	raw, err := fs.ReadFile(defaultFiles, "themes.yaml")
	if err != nil {
		return nil, fmt.Errorf("read embedded themes: %w", err)
	}
	if err := c.applyYAML(raw); err != nil {
		return nil, err
	}
	if strings.TrimSpace(overrideDir) != "" {
		if err := c.applyDir(overrideDir); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (c *Catalog) applyDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read theme override dir: %w", err)
	}
	// Sort for deterministic order
	files := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if ext == ".yaml" || ext == ".yml" {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)
	for _, name := range files {
		b, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return fmt.Errorf("read %s: %w", name, err)
		}
		if err := c.applyYAML(b); err != nil {
			return fmt.Errorf("parse %s: %w", name, err)
		}
	}
	return nil
}

func (c *Catalog) applyYAML(b []byte) error {
	var m map[string]string
	if err := yaml.Unmarshal(b, &m); err != nil {
		return err
	}
	c.mu.Lock()
	for k, v := range m {
		c.data[strings.TrimSpace(k)] = strings.TrimSpace(v)
	}
	c.mu.Unlock()
	return nil
}

func (c *Catalog) Known(name string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.data[name]
	return ok
}

func (c *Catalog) Description(name string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.data[name]
}

// Names returns all theme labels, sorted.
func (c *Catalog) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.data))
	for k := range c.data {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// ValidateList parses a comma-separated theme list and fails fast on the
// first unknown label. This runs before any validation work begins.
func (c *Catalog) ValidateList(list string) ([]string, error) {
	parts := strings.Split(list, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		name := strings.TrimSpace(p)
		if name == "" {
			continue
		}
		if !c.Known(name) {
			return nil, fmt.Errorf("%w: %q", ErrUnknownTheme, name)
		}
		out = append(out, name)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: empty theme list", ErrUnknownTheme)
	}
	return out, nil
}

// ParseMixRatio parses "X:Y" where X is the tactical share and Y the
// mate share, both percentages summing to 100.
func ParseMixRatio(ratio string) (tactical, mate int, err error) {
	parts := strings.Split(strings.TrimSpace(ratio), ":")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("%w: %q, want X:Y", ErrBadMixRatio, ratio)
	}
	tactical, err = strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %q", ErrBadMixRatio, ratio)
	}
	mate, err = strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %q", ErrBadMixRatio, ratio)
	}
	if tactical < 0 || mate < 0 || tactical+mate != 100 {
		return 0, 0, fmt.Errorf("%w: %q, shares must sum to 100", ErrBadMixRatio, ratio)
	}
	return tactical, mate, nil
}

// FormatList renders theme names with their descriptions for log and
// document text.
func (c *Catalog) FormatList(names []string) string {
	parts := make([]string, 0, len(names))
	for _, n := range names {
		if d := c.Description(n); d != "" {
			parts = append(parts, fmt.Sprintf("%s (%s)", n, d))
		} else {
			parts = append(parts, n)
		}
	}
	return strings.Join(parts, ", ")
}
