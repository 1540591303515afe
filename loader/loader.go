// Package loader reads a FHIR specification build directory into a
// [definitions.Definitions] model.
//
// Two loaders exist, one per supported release format: DSTU2 and DSTU3. They
// share the loading pipeline and differ only in how individual resources
// are interpreted (see the format implementations). [ForVersion] picks the
// loader for a version discriminator.
//
// The loaders use [io/fs.FS] for filesystem access, which allows testing
// with in-memory filesystems. By default they use [os.DirFS] for the
// provided path.
package loader

import (
	"fmt"
	"io/fs"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/andrewkroh/go-fhir-delphi/definitions"
	"github.com/andrewkroh/go-fhir-delphi/internal/logger"
)

// Bundle files read from a specification directory.
const (
	typesBundle     = "profiles-types.json"
	resourcesBundle = "profiles-resources.json"
	searchBundle    = "search-parameters.json"
	valueSetsBundle = "valuesets.json"
)

// Loader parses a specification directory into definitions.
type Loader interface {
	LoadDefinitions(path string) (*definitions.Definitions, error)
}

// ForVersion returns the loader for a version discriminator. "3" selects
// the DSTU3 loader; any other value selects the DSTU2 loader.
func ForVersion(dstu string, opts ...Option) Loader {
	if dstu == "3" {
		return NewDSTU3(opts...)
	}
	return NewDSTU2(opts...)
}

// Option configures a DefinitionsLoader.
type Option func(*config)

type config struct {
	fsys fs.FS
	log  logrus.FieldLogger
}

// WithFS provides a custom filesystem. When set, the path argument to
// LoadDefinitions is interpreted relative to this filesystem.
func WithFS(fsys fs.FS) Option {
	return func(c *config) {
		c.fsys = fsys
	}
}

// WithLogger sets the logger used to report skipped definitions.
func WithLogger(log logrus.FieldLogger) Option {
	return func(c *config) {
		c.log = log
	}
}

// DefinitionsLoader loads definitions using a release-specific format.
type DefinitionsLoader struct {
	format format
	cfg    config
}

// NewDSTU2 returns a loader for DSTU2 (FHIR 1.0.x) builds.
func NewDSTU2(opts ...Option) *DefinitionsLoader {
	return newLoader(dstu2Format{}, opts)
}

// NewDSTU3 returns a loader for DSTU3 (FHIR 3.0.x) builds.
func NewDSTU3(opts ...Option) *DefinitionsLoader {
	return newLoader(dstu3Format{}, opts)
}

func newLoader(f format, opts []Option) *DefinitionsLoader {
	l := &DefinitionsLoader{format: f}
	for _, opt := range opts {
		opt(&l.cfg)
	}
	if l.cfg.log == nil {
		l.cfg.log = logger.Discard()
	}
	return l
}

// DSTU returns the release number the loader reads.
func (l *DefinitionsLoader) DSTU() int {
	return l.format.dstu()
}

// LoadDefinitions reads the specification directory at path.
func (l *DefinitionsLoader) LoadDefinitions(path string) (*definitions.Definitions, error) {
	var fsys fs.FS
	if l.cfg.fsys != nil {
		fsys = l.cfg.fsys
		if path != "" && path != "." {
			sub, err := fs.Sub(fsys, path)
			if err != nil {
				return nil, fmt.Errorf("opening %s: %w", path, err)
			}
			fsys = sub
		}
	} else {
		fsys = os.DirFS(path)
	}

	log := l.cfg.log.WithFields(logrus.Fields{"dstu": l.format.dstu(), "path": path})

	vi, err := readVersionInfo(fsys)
	if err != nil {
		return nil, err
	}

	reg := NewRegistry(fsys)
	typesB, err := reg.LoadBundle(typesBundle)
	if err != nil {
		return nil, err
	}
	if _, err := reg.LoadBundle(resourcesBundle); err != nil {
		return nil, err
	}
	if _, err := reg.LoadOptionalBundle(valueSetsBundle); err != nil {
		return nil, err
	}
	searchB, err := reg.LoadOptionalBundle(searchBundle)
	if err != nil {
		return nil, err
	}

	defs := definitions.New()
	b := &builder{format: l.format, reg: reg, defs: defs, log: log}

	if err := b.addStructures(); err != nil {
		return nil, err
	}
	if searchB != nil {
		if err := b.addSearchParameters(); err != nil {
			return nil, err
		}
	}
	if err := b.addValueSets(); err != nil {
		return nil, err
	}

	// Version metadata.
	defs.Version = vi.Version
	defs.Revision = vi.Revision
	defs.GenDate = vi.Date
	if defs.Version == "" {
		defs.Version = b.fhirVersion
	}
	if defs.Version == "" {
		return nil, ErrNoVersion
	}
	if defs.GenDate.IsZero() {
		defs.GenDate = parseLastUpdated(typesB.Meta)
	}

	log.WithFields(logrus.Fields{
		"version":    defs.Version,
		"primitives": len(defs.Primitives),
		"types":      len(defs.Types),
		"resources":  len(defs.Resources),
		"value_sets": len(defs.ValueSets),
	}).Info("Loaded definitions.")
	return defs, nil
}
