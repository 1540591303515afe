package pascal

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerator_Generate(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	log, hook := test.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)

	g := NewGenerator(dir, WithLogger(log))
	genDate := time.Date(2017, 4, 19, 7, 44, 43, 0, time.UTC)
	require.NoError(t, g.Generate(testDefinitions(), "3.0.1", genDate, 3))

	for _, unit := range []string{UnitConstants, UnitTypes, UnitResources} {
		data, err := os.ReadFile(filepath.Join(dir, unit+".pas"))
		require.NoError(t, err, unit)
		assert.True(t, strings.HasPrefix(string(data), "unit "+unit+";"))
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 3)

	var wrote int
	for _, e := range hook.AllEntries() {
		if e.Message == "Wrote unit." {
			wrote++
			assert.NotEmpty(t, e.Data["size"])
		}
	}
	assert.Equal(t, 3, wrote)
}

func TestGenerator_GenerateVersionArgs(t *testing.T) {
	dir := t.TempDir()
	g := NewGenerator(dir)
	require.NoError(t, g.Generate(testDefinitions(), "1.0.2", time.Date(2015, 10, 24, 10, 45, 22, 0, time.UTC), 2))

	data, err := os.ReadFile(filepath.Join(dir, UnitConstants+".pas"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "FHIR_GENERATED_VERSION = '1.0.2';")
	assert.Contains(t, string(data), "FHIR_GENERATED_DATE = '20151024104522';")
	assert.Contains(t, string(data), "FHIR_GENERATED_PUBLICATION = '2';")
}

func TestGenerator_DefaultLoggerDiscards(t *testing.T) {
	log, ok := NewGenerator(t.TempDir()).log.(*logrus.Logger)
	require.True(t, ok)
	assert.Equal(t, io.Discard, log.Out)
}

func TestGenerator_WithOptions(t *testing.T) {
	dir := t.TempDir()
	g := NewGenerator(dir,
		WithAugmentations(&AugmentConfig{Types: map[string]AugmentType{
			"Patient.link": {Name: "TFhirPatientLinkage"},
		}}),
		WithUnitMap(&UnitMap{Units: map[string][]string{"FHIRResourcesAdmin": {"Patient"}}}),
	)
	require.NoError(t, g.Generate(testDefinitions(), "3.0.1", time.Time{}, 3))

	data, err := os.ReadFile(filepath.Join(dir, "FHIRResourcesAdmin.pas"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "  TFhirPatientLinkage = class (TFhirBackboneElement)\n")
	assert.Contains(t, string(data), "    FLinkList : TFhirPatientLinkageList;\n")
}

func TestGenerator_InvalidModel(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	g := NewGenerator(dir, WithUnitMap(&UnitMap{Units: map[string][]string{
		"FHIRResourcesCore": {"DomainResource"},
	}}))
	err := g.Generate(testDefinitions(), "3.0.1", time.Time{}, 3)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnitOrder))

	// Nothing is written when validation fails.
	_, statErr := os.Stat(dir)
	assert.True(t, os.IsNotExist(statErr))
}

func TestGenerator_OutputDirIsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	err := NewGenerator(path).Generate(testDefinitions(), "3.0.1", time.Time{}, 3)
	assert.ErrorContains(t, err, "emitting units")
}
