package service

import (
	"context"
	"fmt"

	"sems-converter/internal/conversion"
	"sems-converter/internal/entity"
)

// DefinitionJob binds the election job to ConvertDefinition; the document is
// serialized with the converter's definition codec.
func DefinitionJob(c *conversion.Converter) JobSpec {
	return JobSpec{
		Descriptor: entity.ElectionJob(),
		Convert: func(ctx context.Context, inputs []string) ([]byte, error) {
			if len(inputs) != 2 {
				return nil, fmt.Errorf("expected 2 inputs, got %d", len(inputs))
			}
			doc, err := c.ConvertDefinition(ctx, inputs[0], inputs[1])
			if err != nil {
				return nil, err
			}
			return c.EncodeDefinition(doc)
		},
	}
}

// ResultsJob binds the tallies job to ConvertResults.
func ResultsJob(c *conversion.Converter) JobSpec {
	return JobSpec{
		Descriptor: entity.TalliesJob(),
		Convert: func(ctx context.Context, inputs []string) ([]byte, error) {
			if len(inputs) != 2 {
				return nil, fmt.Errorf("expected 2 inputs, got %d", len(inputs))
			}
			text, err := c.ConvertResults(ctx, inputs[0], inputs[1])
			if err != nil {
				return nil, err
			}
			return []byte(text), nil
		},
	}
}
