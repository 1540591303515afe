// Package pascal generates Delphi source units from loaded FHIR
// definitions.
//
// The pipeline maps definitions to a [Model] of classes and enumerated
// types, applies optional YAML overrides, assigns classes to units,
// validates the result and renders one .pas file per unit.
package pascal

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/andrewkroh/go-fhir-delphi/definitions"
	"github.com/andrewkroh/go-fhir-delphi/internal/logger"
)

// Generator produces Pascal units from definitions.
type Generator struct {
	outputDir string
	augment   *AugmentConfig
	unitMap   *UnitMap
	log       logrus.FieldLogger
}

// Option configures a Generator.
type Option func(*Generator)

// WithAugmentations applies class and field overrides.
func WithAugmentations(cfg *AugmentConfig) Option {
	return func(g *Generator) { g.augment = cfg }
}

// WithUnitMap splits resources into extra units.
func WithUnitMap(um *UnitMap) Option {
	return func(g *Generator) { g.unitMap = um }
}

// WithLogger sets the logger. By default nothing is logged.
func WithLogger(log logrus.FieldLogger) Option {
	return func(g *Generator) { g.log = log }
}

// NewGenerator returns a Generator writing units to outputDir.
func NewGenerator(outputDir string, opts ...Option) *Generator {
	g := &Generator{outputDir: outputDir}
	for _, opt := range opts {
		opt(g)
	}
	if g.log == nil {
		g.log = logger.Discard()
	}
	return g
}

// Build maps defs to a validated model without writing anything.
func (g *Generator) Build(defs *definitions.Definitions) (*Model, error) {
	// 1. Map definitions to classes and enums.
	model, err := NewTypeMapper(defs).Map()
	if err != nil {
		return nil, err
	}

	// 2. Apply augmentations.
	ApplyAugmentations(model, g.augment)

	// 3. Assign units.
	g.unitMap.AssignUnits(model)

	// 4. Validate.
	if err := validate(model); err != nil {
		return nil, fmt.Errorf("invalid model: %w", err)
	}
	return model, nil
}

// Generate writes the Pascal units for defs. version, genDate and dstu are
// recorded in every unit header and in FHIRConstants.
func (g *Generator) Generate(defs *definitions.Definitions, version string, genDate time.Time, dstu int) error {
	model, err := g.Build(defs)
	if err != nil {
		return err
	}

	g.log.WithFields(logrus.Fields{
		"classes":  len(model.Classes),
		"enums":    len(model.Enums),
		"searches": len(model.Searches),
		"units":    3 + len(ExtraUnits(model)),
	}).Info("Built Pascal model.")

	header := Header{
		Version:  version,
		Revision: defs.Revision,
		GenDate:  genDate,
		DSTU:     dstu,
	}
	if err := NewEmitter(g.outputDir, header, g.log).Emit(context.Background(), model); err != nil {
		return fmt.Errorf("emitting units: %w", err)
	}
	return nil
}
