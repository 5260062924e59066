package testutil

import "testing"

// Given opens a scenario by naming the state the gate starts in, e.g. "a
// resident who is outside".
func Given(t *testing.T, desc string, fn func(t *testing.T)) {
	t.Helper()
	t.Run("Given "+desc, fn)
}

// When names the action under test inside a Given.
func When(t *testing.T, desc string, fn func(t *testing.T)) {
	t.Helper()
	t.Run("When "+desc, fn)
}

// Then names one expected outcome. Nest several under a Given or When so each
// outcome fails on its own line.
func Then(t *testing.T, desc string, fn func(t *testing.T)) {
	t.Helper()
	t.Run("Then "+desc, fn)
}
