package sheets

import "fmt"

// IOError represents a failed spreadsheet read, append, clear or list
// call. Every IOError is fatal to the enclosing pipeline stage.
type IOError struct {
	Op            string
	SpreadsheetID string
	Range         string
	StatusCode    int
	Err           error
}

// Error implements the error interface.
func (e *IOError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("sheet %s %s %s: status %d", e.Op, e.SpreadsheetID, e.Range, e.StatusCode)
	}
	return fmt.Sprintf("sheet %s %s %s: %v", e.Op, e.SpreadsheetID, e.Range, e.Err)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *IOError) Unwrap() error {
	return e.Err
}
