package species

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// Dataset layout below the data directory.
const (
	ASBDir       = "data/asb"
	WikiDir      = "data/wiki"
	StatsFile    = "values.json"
	SpeciesFile  = "species.json"
	ManifestFile = "_manifest.json"
)

// CoreGame is the mod id that denotes the base game.
const CoreGame = "core"

// ErrModNotFound is returned when a manifest does not list the requested mod.
var ErrModNotFound = errors.New("mod not found in manifest")

// Dataset is a versioned, ordered list of creature records.
type Dataset struct {
	Version string
	Species []*Entity
}

type rawDataset struct {
	Version json.RawMessage          `json:"version"`
	Species []map[string]interface{} `json:"species"`
}

// LoadDataset reads a dataset JSON document from path.
func LoadDataset(path string) (*Dataset, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is a user-provided dataset
	if err != nil {
		return nil, fmt.Errorf("reading dataset: %w", err)
	}

	ds, err := ParseDataset(data)
	if err != nil {
		return nil, fmt.Errorf("dataset %s: %w", path, err)
	}

	return ds, nil
}

// ParseDataset decodes a dataset JSON document.
func ParseDataset(data []byte) (*Dataset, error) {
	var raw rawDataset
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing dataset: %w", err)
	}

	ds := &Dataset{
		Version: versionString(raw.Version),
		Species: make([]*Entity, 0, len(raw.Species)),
	}

	for _, rec := range raw.Species {
		ds.Species = append(ds.Species, NewEntity(rec))
	}

	return ds, nil
}

// Append adds the records of other and keeps the higher version.
func (d *Dataset) Append(other *Dataset) {
	d.Species = append(d.Species, other.Species...)
	d.Version = MaxVersion(d.Version, other.Version)
}

// Len returns the number of records.
func (d *Dataset) Len() int {
	return len(d.Species)
}

// versionString accepts both "358.17" and 358.17.
func versionString(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}

	return string(raw)
}

// MaxVersion returns the greater of two dataset versions. Versions are
// compared as semantic versions when both parse, lexically otherwise.
func MaxVersion(a, b string) string {
	if a == "" {
		return b
	}

	if b == "" {
		return a
	}

	va, errA := semver.NewVersion(a)
	vb, errB := semver.NewVersion(b)

	if errA == nil && errB == nil {
		if vb.GreaterThan(va) {
			return b
		}

		return a
	}

	if b > a {
		return b
	}

	return a
}

// ---------------------------------------------------------------------------
// Mod manifest
// ---------------------------------------------------------------------------

// Mod identifies a mod data file.
type Mod struct {
	ID    string `json:"id"`
	Tag   string `json:"tag"`
	Title string `json:"title"`
}

// FileName returns the data file of the mod, or the base game file for nil.
func (m *Mod) FileName() string {
	if m == nil {
		return StatsFile
	}

	return m.ID + "-" + m.Tag + ".json"
}

// Manifest lists the data files of a data directory.
type Manifest struct {
	Files map[string]ManifestEntry `json:"files"`
}

// ManifestEntry describes one data file.
type ManifestEntry struct {
	Version string `json:"version,omitempty"`
	Mod     *Mod   `json:"mod,omitempty"`
}

// LoadManifest reads data/asb/_manifest.json below root.
func LoadManifest(root string) (*Manifest, error) {
	p := filepath.Join(root, ASBDir, ManifestFile)

	data, err := os.ReadFile(p) //nolint:gosec // path derived from the data directory
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing manifest %s: %w", p, err)
	}

	return &m, nil
}

// FindMod returns the mod with the given id. The base game ([CoreGame] or
// "") yields a nil mod and no error.
func (m *Manifest) FindMod(id string) (*Mod, error) {
	if id == "" || id == CoreGame {
		return nil, nil
	}

	files := make([]string, 0, len(m.Files))
	for name := range m.Files {
		files = append(files, name)
	}

	sort.Strings(files)

	for _, name := range files {
		if mod := m.Files[name].Mod; mod != nil && mod.ID == id {
			return mod, nil
		}
	}

	return nil, fmt.Errorf("%w: %q", ErrModNotFound, id)
}

// LoadASB loads the stats dataset of mod (nil for the base game) below root
// and appends the data files of linkMods, named "<id>-<id>.json".
func LoadASB(root string, mod *Mod, linkMods ...string) (*Dataset, error) {
	dir := filepath.Join(root, ASBDir)

	ds, err := LoadDataset(filepath.Join(dir, mod.FileName()))
	if err != nil {
		return nil, err
	}

	for _, id := range linkMods {
		extra, err := LoadDataset(filepath.Join(dir, id+"-"+id+".json"))
		if err != nil {
			return nil, fmt.Errorf("linked mod %s: %w", id, err)
		}

		ds.Species = append(ds.Species, extra.Species...)
	}

	return ds, nil
}

// LoadWiki loads the extended dataset below root.
func LoadWiki(root string) (*Dataset, error) {
	return LoadDataset(filepath.Join(root, WikiDir, SpeciesFile))
}

// ---------------------------------------------------------------------------
// Line lists
// ---------------------------------------------------------------------------

// LoadLineList reads a newline separated list, skipping blank lines and lines
// starting with "#".
func LoadLineList(path string) ([]string, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is a user-provided list
	if err != nil {
		return nil, fmt.Errorf("reading list: %w", err)
	}

	return ParseLineList(string(data)), nil
}

// ParseLineList splits text into list entries.
func ParseLineList(text string) []string {
	var out []string

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		out = append(out, line)
	}

	return out
}
