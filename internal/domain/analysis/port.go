package analysis

import "context"

// Analyzer submits one file to the analysis service.
type Analyzer interface {
	Analyze(ctx context.Context, f File) (*Result, error)
}

// Picker opens the host's file-selection surface and waits for the user.
// It returns ErrSelectionCancelled when nothing was chosen.
type Picker interface {
	Pick(ctx context.Context) (File, error)
}

// PickerFunc adapts a function to Picker.
type PickerFunc func(ctx context.Context) (File, error)

func (f PickerFunc) Pick(ctx context.Context) (File, error) { return f(ctx) }
