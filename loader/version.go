package loader

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"gopkg.in/ini.v1"
)

// ErrNoVersion is returned when neither version.info nor the definitions
// themselves state a FHIR version.
var ErrNoVersion = errors.New("no FHIR version found")

const (
	versionInfoFile = "version.info"
	// dateLayout is the layout of the date key in version.info.
	dateLayout = "20060102150405"
)

// versionInfo is the content of a build's version.info file:
//
//	[FHIR]
//	FhirVersion=3.0.1
//	version=3.0.1
//	revision=11917
//	date=20170419074443
type versionInfo struct {
	Version  string
	Revision string
	Date     time.Time
}

// readVersionInfo reads version.info from the root of fsys. A missing file
// returns a zero value and no error.
func readVersionInfo(fsys fs.FS) (versionInfo, error) {
	data, err := fs.ReadFile(fsys, versionInfoFile)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return versionInfo{}, nil
		}
		return versionInfo{}, fmt.Errorf("reading %s: %w", versionInfoFile, err)
	}

	f, err := ini.LoadSources(ini.LoadOptions{Insensitive: true}, data)
	if err != nil {
		return versionInfo{}, fmt.Errorf("parsing %s: %w", versionInfoFile, err)
	}

	sec := f.Section("fhir")
	vi := versionInfo{
		Version:  sec.Key("fhirversion").String(),
		Revision: sec.Key("revision").String(),
	}
	if vi.Version == "" {
		vi.Version = sec.Key("version").String()
	}
	if d := sec.Key("date").String(); d != "" {
		t, err := time.Parse(dateLayout, d)
		if err != nil {
			return versionInfo{}, fmt.Errorf("parsing %s date %q: %w", versionInfoFile, d, err)
		}
		vi.Date = t
	}
	return vi, nil
}

// parseLastUpdated parses a FHIR instant. An empty or invalid value yields
// the zero time.
func parseLastUpdated(meta *Meta) time.Time {
	if meta == nil || meta.LastUpdated == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, meta.LastUpdated)
	if err != nil {
		return time.Time{}
	}
	return t
}
