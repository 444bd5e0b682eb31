package models

// StatusMessage is one entry on the conversion log, keyed by the step index
// that produced it.
type StatusMessage struct {
	Index   int    `json:"index"`
	Message string `json:"message"`
}

// ConversionStatus accumulates warnings and errors across a job run. Warnings
// never halt the pipeline; errors are fatal for the run but leave the job
// resumable from its last persisted state.
type ConversionStatus struct {
	Warnings []StatusMessage `json:"warnings"`
	Errors   []StatusMessage `json:"errors"`
}

func (s *ConversionStatus) AddWarning(index int, message string) {
	s.Warnings = append(s.Warnings, StatusMessage{Index: index, Message: message})
}

func (s *ConversionStatus) AddError(index int, message string) {
	s.Errors = append(s.Errors, StatusMessage{Index: index, Message: message})
}

// HasErrors reports whether a fatal error was recorded.
func (s *ConversionStatus) HasErrors() bool {
	return len(s.Errors) > 0
}
