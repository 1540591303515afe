package loader

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"strings"
)

// ErrNotFound is returned when a canonical URL cannot be resolved.
var ErrNotFound = errors.New("resource not found")

// Entry is a resource held by the registry. The resource body is kept raw
// and decoded on demand with [Decode].
type Entry struct {
	ResourceType string
	ID           string
	URL          string
	File         string // Bundle the resource was loaded from.
	Raw          json.RawMessage
}

// Registry loads and caches FHIR bundles from a specification directory and
// resolves canonical URLs across every bundle loaded so far.
type Registry struct {
	fsys    fs.FS
	bundles map[string]*Bundle
	entries []*Entry
	byURL   map[string]*Entry // canonical URL → entry
	byID    map[string]*Entry // "Type/id" → entry

	inlineSystems map[string]*InlineCodeSystem // DSTU2 system URL → code system; nil until first use
}

// NewRegistry creates a registry rooted at the given filesystem. All bundle
// paths are resolved relative to it.
func NewRegistry(fsys fs.FS) *Registry {
	return &Registry{
		fsys:    fsys,
		bundles: make(map[string]*Bundle),
		byURL:   make(map[string]*Entry),
		byID:    make(map[string]*Entry),
	}
}

// LoadBundle reads and parses a Bundle at the given path relative to the
// registry root. Bundles are cached by cleaned path and their entries are
// indexed for URL resolution.
func (r *Registry) LoadBundle(relPath string) (*Bundle, error) {
	relPath = path.Clean(relPath)
	if b, ok := r.bundles[relPath]; ok {
		return b, nil
	}

	data, err := fs.ReadFile(r.fsys, relPath)
	if err != nil {
		return nil, fmt.Errorf("loading bundle %s: %w", relPath, err)
	}

	var b Bundle
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("parsing bundle %s: %w", relPath, err)
	}
	if b.ResourceType != "Bundle" {
		return nil, fmt.Errorf("parsing bundle %s: resourceType is %q, want Bundle", relPath, b.ResourceType)
	}

	for i, be := range b.Entry {
		if len(be.Resource) == 0 {
			continue
		}
		var h resourceHeader
		if err := json.Unmarshal(be.Resource, &h); err != nil {
			return nil, fmt.Errorf("parsing bundle %s entry %d: %w", relPath, i, err)
		}
		r.index(&Entry{
			ResourceType: h.ResourceType,
			ID:           h.ID,
			URL:          h.URL,
			File:         relPath,
			Raw:          be.Resource,
		})
	}

	r.bundles[relPath] = &b
	r.inlineSystems = nil
	return &b, nil
}

// LoadOptionalBundle is like LoadBundle but returns (nil, nil) when the file
// does not exist.
func (r *Registry) LoadOptionalBundle(relPath string) (*Bundle, error) {
	b, err := r.LoadBundle(relPath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	return b, err
}

func (r *Registry) index(e *Entry) {
	r.entries = append(r.entries, e)
	// The first definition of a URL wins.
	if e.URL != "" {
		if _, exists := r.byURL[e.URL]; !exists {
			r.byURL[e.URL] = e
		}
	}
	if e.ID != "" {
		key := e.ResourceType + "/" + e.ID
		if _, exists := r.byID[key]; !exists {
			r.byID[key] = e
		}
	}
}

// InlineCodeSystem returns the code system with the given system URL that
// a loaded DSTU2 value set defines inline, or nil. The index is built on
// first use and rebuilt after another bundle is loaded. When several value
// sets define the same system, the first one loaded wins.
func (r *Registry) InlineCodeSystem(system string) *InlineCodeSystem {
	if r.inlineSystems == nil {
		r.inlineSystems = make(map[string]*InlineCodeSystem)
		for _, e := range r.Entries("ValueSet") {
			vs, err := Decode[ValueSet](e)
			if err != nil || vs.CodeSystem == nil || vs.CodeSystem.System == "" {
				continue
			}
			if _, ok := r.inlineSystems[vs.CodeSystem.System]; !ok {
				r.inlineSystems[vs.CodeSystem.System] = vs.CodeSystem
			}
		}
	}
	return r.inlineSystems[system]
}

// Entries returns all loaded entries of a resource type in load order.
func (r *Registry) Entries(resourceType string) []*Entry {
	var out []*Entry
	for _, e := range r.entries {
		if e.ResourceType == resourceType {
			out = append(out, e)
		}
	}
	return out
}

// Resolve finds a resource by reference. Supported forms:
//   - "http://hl7.org/fhir/ValueSet/foo"         : canonical URL
//   - "http://hl7.org/fhir/ValueSet/foo|3.0.1"   : versioned canonical
//   - "ValueSet/foo"                             : relative Type/id
//   - "http://hl7.org/fhir/ValueSet/foo/_history/1": history suffix is ignored
func (r *Registry) Resolve(ref string) (*Entry, error) {
	canonical, _ := splitCanonical(ref)
	if e, ok := r.byURL[canonical]; ok {
		return e, nil
	}

	// Fall back to the trailing Type/id pair.
	parts := strings.Split(strings.TrimRight(canonical, "/"), "/")
	if n := len(parts); n >= 2 {
		if e, ok := r.byID[parts[n-2]+"/"+parts[n-1]]; ok {
			return e, nil
		}
	}
	return nil, fmt.Errorf("resolving %q: %w", ref, ErrNotFound)
}

// splitCanonical splits a canonical reference into URL and version.
// Examples:
//
//	"http://hl7.org/fhir/ValueSet/x"             → ("http://hl7.org/fhir/ValueSet/x", "")
//	"http://hl7.org/fhir/ValueSet/x|3.0.1"       → ("http://hl7.org/fhir/ValueSet/x", "3.0.1")
//	"http://hl7.org/fhir/ValueSet/x/_history/2"  → ("http://hl7.org/fhir/ValueSet/x", "")
func splitCanonical(ref string) (url, version string) {
	url = ref
	if idx := strings.Index(url, "|"); idx >= 0 {
		version = url[idx+1:]
		url = url[:idx]
	}
	if idx := strings.Index(url, "/_history/"); idx >= 0 {
		url = url[:idx]
	}
	return url, version
}

// Decode unmarshals an entry into a concrete resource type.
func Decode[T any](e *Entry) (*T, error) {
	var v T
	if err := json.Unmarshal(e.Raw, &v); err != nil {
		return nil, fmt.Errorf("decoding %s/%s from %s: %w", e.ResourceType, e.ID, e.File, err)
	}
	return &v, nil
}

// tail returns the last path segment of a URL
// (e.g. "http://hl7.org/fhir/StructureDefinition/Element" → "Element").
func tail(url string) string {
	url, _ = splitCanonical(url)
	if idx := strings.LastIndex(url, "/"); idx >= 0 {
		return url[idx+1:]
	}
	return url
}
