package domain

// Label is a single detection returned by a label-detection service.
type Label struct {
	Name       string  `json:"Name"`
	Confidence float64 `json:"Confidence"`
}

// Field names of the detection result as seen by the workflow.
const (
	FieldLabels     = "Labels"
	FieldName       = "Name"
	FieldConfidence = "Confidence"
)

// LabelsResult shapes labels as the workflow consumes them:
// {"Labels": [{"Name": ..., "Confidence": ...}, ...]}.
func LabelsResult(labels []Label) map[string]any {
	items := make([]any, 0, len(labels))
	for _, l := range labels {
		items = append(items, map[string]any{
			FieldName:       l.Name,
			FieldConfidence: l.Confidence,
		})
	}
	return map[string]any{FieldLabels: items}
}
