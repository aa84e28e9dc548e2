package compiler

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/aretw0/stepflow/internal/runtime"
	"github.com/aretw0/stepflow/pkg/domain"
	"gopkg.in/yaml.v3"
)

// Parser converts definition documents into validated workflow definitions.
// YAML and JSON are both accepted; JSON is decoded as the YAML subset it is.
type Parser struct {
	strict bool
}

// ParserOption configures a Parser.
type ParserOption func(*Parser)

// WithStrictFields rejects documents carrying unknown fields.
func WithStrictFields() ParserOption {
	return func(p *Parser) {
		p.strict = true
	}
}

// NewParser creates a new parser instance.
func NewParser(opts ...ParserOption) *Parser {
	p := &Parser{}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Parse decodes data into a Definition and validates it.
// State IDs default to their key in the states map.
func (p *Parser) Parse(data []byte) (*domain.Definition, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(p.strict)

	var def domain.Definition
	if err := dec.Decode(&def); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("failed to parse definition: %w: document is empty", domain.ErrInvalidDefinition)
		}
		return nil, fmt.Errorf("failed to parse definition: %w: %v", domain.ErrInvalidDefinition, err)
	}

	for id, state := range def.States {
		if state != nil && state.ID == "" {
			state.ID = id
		}
	}
	if def.StartAt == "" && len(def.States) == 1 {
		for id := range def.States {
			def.StartAt = id
		}
	}

	if err := runtime.ValidateDefinition(&def); err != nil {
		return nil, err
	}
	return &def, nil
}

// ParseFile reads and parses the definition at path.
func (p *Parser) ParseFile(path string) (*domain.Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read definition %s: %w", path, err)
	}
	def, err := p.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return def, nil
}
