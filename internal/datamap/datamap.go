package datamap

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"facetflow/internal/fileutil"
)

var (
	// ErrNotFound indicates the datamap handle does not exist on disk.
	ErrNotFound = errors.New("datamap not found")
	// ErrCorrupt indicates the stored datamap cannot be parsed.
	ErrCorrupt = errors.New("datamap corrupt")
	// ErrShape indicates mismatched entry/host/flag cardinality.
	ErrShape = errors.New("datamap shape mismatch")
)

// Entry is one artifact with its host affinity. An empty Host means the
// artifact may be consumed from any worker host.
type Entry struct {
	Path string `json:"path"`
	Host string `json:"host,omitempty"`
}

// Datamap is an ordered artifact manifest. Entries and Skip are parallel:
// Skip[i] marks Entries[i] as not produced.
type Datamap struct {
	Entries []Entry
	Skip    []bool
}

// Paths returns the entry paths in order.
func (d *Datamap) Paths() []string {
	paths := make([]string, len(d.Entries))
	for i, entry := range d.Entries {
		paths[i] = entry.Path
	}
	return paths
}

// Hosts returns the entry hosts in order.
func (d *Datamap) Hosts() []string {
	hosts := make([]string, len(d.Entries))
	for i, entry := range d.Entries {
		hosts[i] = entry.Host
	}
	return hosts
}

// Len returns the number of entries.
func (d *Datamap) Len() int { return len(d.Entries) }

// WriteOptions scope a persisted datamap name so repeated invocations in
// the same direction or stage never collide.
type WriteOptions struct {
	Direction string
	Index     int // disambiguates repeated invocations; included when > 0
}

// Filename returns the collision-resistant file name for prefix and opts.
func Filename(prefix string, opts WriteOptions) string {
	name := prefix
	if opts.Direction != "" {
		name += "_" + opts.Direction
	}
	if opts.Index > 0 {
		name += fmt.Sprintf("_%d", opts.Index)
	}
	return name + ".datamap"
}

// Write persists a new datamap under dir from paths and optional per-entry
// hosts. hosts must be nil or the same length as paths. Skip flags start
// false. It returns the handle (path) of the persisted datamap. Writing the
// same content to the same handle is idempotent.
func Write(dir, prefix string, paths, hosts []string, opts WriteOptions) (string, error) {
	if hosts != nil && len(hosts) != len(paths) {
		return "", fmt.Errorf("%w: %d paths, %d hosts", ErrShape, len(paths), len(hosts))
	}

	dm := &Datamap{
		Entries: make([]Entry, len(paths)),
		Skip:    make([]bool, len(paths)),
	}
	for i, path := range paths {
		dm.Entries[i].Path = path
		if hosts != nil {
			dm.Entries[i].Host = hosts[i]
		}
	}

	handle := filepath.Join(dir, Filename(prefix, opts))
	if err := persist(handle, dm); err != nil {
		return "", err
	}
	return handle, nil
}

// Read deserializes the datamap at handle.
func Read(handle string) (*Datamap, error) {
	file, err := os.Open(handle)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, handle)
		}
		return nil, fmt.Errorf("open datamap %s: %w", handle, err)
	}
	defer file.Close()

	dm := &Datamap{}
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var record struct {
			Path string `json:"path"`
			Host string `json:"host"`
			Skip bool   `json:"skip"`
		}
		if err := json.Unmarshal([]byte(line), &record); err != nil {
			return nil, fmt.Errorf("%w: %s line %d: %v", ErrCorrupt, handle, lineNo, err)
		}
		if record.Path == "" {
			return nil, fmt.Errorf("%w: %s line %d: empty path", ErrCorrupt, handle, lineNo)
		}
		dm.Entries = append(dm.Entries, Entry{Path: record.Path, Host: record.Host})
		dm.Skip = append(dm.Skip, record.Skip)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorrupt, handle, err)
	}
	return dm, nil
}

// SetSkipFlags rewrites the skip flags of the datamap at handle in place.
// A length mismatch fails with ErrShape and leaves the stored file
// unchanged.
func SetSkipFlags(handle string, flags []bool) error {
	dm, err := Read(handle)
	if err != nil {
		return err
	}
	if len(flags) != len(dm.Entries) {
		return fmt.Errorf("%w: %s has %d entries, got %d flags", ErrShape, handle, len(dm.Entries), len(flags))
	}
	copy(dm.Skip, flags)
	return persist(handle, dm)
}

func persist(handle string, dm *Datamap) error {
	var buf bytes.Buffer
	for i, entry := range dm.Entries {
		record := struct {
			Path string `json:"path"`
			Host string `json:"host,omitempty"`
			Skip bool   `json:"skip,omitempty"`
		}{Path: entry.Path, Host: entry.Host, Skip: dm.Skip[i]}
		line, err := json.Marshal(record)
		if err != nil {
			return fmt.Errorf("encode datamap entry: %w", err)
		}
		buf.Write(line)
		buf.WriteByte('\n')
	}
	if err := fileutil.WriteAtomic(handle, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("persist datamap %s: %w", handle, err)
	}
	return nil
}
