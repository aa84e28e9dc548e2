package cli

import (
	"fmt"

	"github.com/aretw0/stepflow"
	"github.com/aretw0/stepflow/internal/compiler"
	"github.com/aretw0/stepflow/internal/config"
	"github.com/aretw0/stepflow/pkg/domain"
)

// LoadDefinition parses the definition file at path, or builds the
// quality-control workflow from cfg when path is empty.
func LoadDefinition(path string, cfg *config.Config) (*domain.Definition, error) {
	if path == "" {
		def, err := stepflow.QualityControl(cfg.QualityControl())
		if err != nil {
			return nil, fmt.Errorf("build workflow: %w", err)
		}
		return def, nil
	}
	def, err := compiler.NewParser(compiler.WithStrictFields()).ParseFile(path)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return def, nil
}
