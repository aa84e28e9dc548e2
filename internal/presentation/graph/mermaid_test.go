package graph_test

import (
	"strings"
	"testing"

	"github.com/aretw0/stepflow/internal/presentation/graph"
	"github.com/aretw0/stepflow/pkg/domain"
)

func qualityControl() *domain.Definition {
	return &domain.Definition{
		Name:    "FoodQualityControl",
		StartAt: "Detect Object",
		States: map[string]*domain.State{
			"Detect Object": {ID: "Detect Object", Type: domain.StateTask, Resource: "detect_labels", Next: "Extract Name"},
			"Extract Name": {ID: "Extract Name", Type: domain.StateTransform, Next: "Is Pizza?",
				Projections: []domain.Projection{{Source: "$.Labels[0].Name", Dest: "food"}}},
			"Is Pizza?": {ID: "Is Pizza?", Type: domain.StateChoice, Default: "Failed",
				Rules: []domain.ChoiceRule{{Variable: "$.food", StringEquals: "Pizza", Next: "Passed"}}},
			"Passed": {ID: "Passed", Type: domain.StateTerminal, Outcome: domain.OutcomeSucceeded},
			"Failed": {ID: "Failed", Type: domain.StateTerminal, Outcome: domain.OutcomeFailed},
		},
	}
}

func TestGenerateMermaid(t *testing.T) {
	tests := []struct {
		name     string
		overlay  *graph.GraphOverlay
		contains []string
		excludes []string
	}{
		{
			name: "Shapes",
			contains: []string{
				`Detect_Object(("Detect Object <br/> detect_labels"))`,
				`Extract_Name["Extract Name"]`,
				`Is_Pizza_{"Is Pizza?"}`,
				`Passed(["Passed"])`,
			},
		},
		{
			name: "Transitions",
			contains: []string{
				"Detect_Object --> Extract_Name",
				`Is_Pizza_ -- "$.food == 'Pizza'" --> Passed`,
				`Is_Pizza_ -. "otherwise" .-> Failed`,
			},
		},
		{
			name:     "Failed Terminal Styling",
			contains: []string{"class Failed failed;"},
			excludes: []string{"class Passed failed;", "Overlay Styles"},
		},
		{
			name: "Overlay",
			overlay: graph.OverlayFor(domain.ExecutionResult{
				Visited: []string{"Detect Object", "Extract Name", "Is Pizza?", "Passed"},
			}),
			contains: []string{
				"class Detect_Object visited;",
				"class Is_Pizza_ visited;",
				"class Passed current;",
			},
			excludes: []string{"class Failed visited;"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := graph.GenerateMermaid(qualityControl(), tt.overlay)
			for _, want := range tt.contains {
				if !strings.Contains(got, want) {
					t.Errorf("GenerateMermaid() = \n%v\nWant substring: %v", got, want)
				}
			}
			for _, unwanted := range tt.excludes {
				if strings.Contains(got, unwanted) {
					t.Errorf("GenerateMermaid() = \n%v\nUnexpected substring: %v", got, unwanted)
				}
			}
		})
	}
}

func TestGenerateMermaid_StableOrder(t *testing.T) {
	first := graph.GenerateMermaid(qualityControl(), nil)
	for i := 0; i < 5; i++ {
		if got := graph.GenerateMermaid(qualityControl(), nil); got != first {
			t.Fatalf("output changed between runs:\n%s\n---\n%s", first, got)
		}
	}
	if !strings.HasPrefix(first, "graph TD\n    Detect_Object") {
		t.Errorf("start state should be rendered first, got:\n%s", first)
	}
}

func TestGenerateMermaid_Nil(t *testing.T) {
	if got := graph.GenerateMermaid(nil, nil); got != "graph TD\n" {
		t.Errorf("GenerateMermaid(nil) = %q", got)
	}
}
