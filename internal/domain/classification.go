package domain

// ClassificationLabel is the appropriateness verdict for a ticket.
type ClassificationLabel string

const (
	LabelInScope    ClassificationLabel = "IN_SCOPE"
	LabelOutOfScope ClassificationLabel = "OUT_OF_SCOPE"
	LabelUnsafe     ClassificationLabel = "UNSAFE"
)

// Valid reports whether l is one of the three known labels.
func (l ClassificationLabel) Valid() bool {
	switch l {
	case LabelInScope, LabelOutOfScope, LabelUnsafe:
		return true
	}
	return false
}

// ClassificationResult is produced fresh for every request.
type ClassificationResult struct {
	Label      ClassificationLabel
	Confidence float64
	Category   string
	Rationale  string
}
