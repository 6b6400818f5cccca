package batch

import (
	"fmt"

	"SeedLab/internal/calc/formulation"
)

type BatchInput struct {
	Items []formulation.Input `json:"items"`
}

type BatchResult struct {
	Results []formulation.Result `json:"results"`
}

// Calculate solves every item independently, e.g. one recipe at several
// batch sizes for a scale-up table.
func Calculate(in BatchInput) (BatchResult, error) {
	if len(in.Items) == 0 {
		return BatchResult{}, fmt.Errorf("no items")
	}
	out := BatchResult{Results: make([]formulation.Result, 0, len(in.Items))}
	for i, item := range in.Items {
		res, err := formulation.Calculate(item)
		if err != nil {
			return BatchResult{}, fmt.Errorf("item %d: %w", i, err)
		}
		out.Results = append(out.Results, res)
	}
	return out, nil
}

// ScaleUp repeats a recipe at each anchor value.
func ScaleUp(base formulation.Input, anchors []float64) BatchInput {
	items := make([]formulation.Input, 0, len(anchors))
	for _, a := range anchors {
		item := base
		item.AnchorValue = a
		items = append(items, item)
	}
	return BatchInput{Items: items}
}
