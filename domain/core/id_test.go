package core

import (
	"errors"
	"testing"
)

// TestNewIDUniqueness tests that NewID generates unique identifiers
func TestNewIDUniqueness(t *testing.T) {
	const numIDs = 10000

	ids := make(map[ID]bool, numIDs)
	for i := 0; i < numIDs; i++ {
		id := NewID()
		if id.IsEmpty() {
			t.Errorf("Generated empty ID at iteration %d", i)
		}
		if ids[id] {
			t.Errorf("Generated duplicate ID: %s", id)
		}
		ids[id] = true
	}

	if len(ids) != numIDs {
		t.Errorf("Expected %d unique IDs, got %d", numIDs, len(ids))
	}
}

// TestIDIsEmpty tests ID emptiness check
func TestIDIsEmpty(t *testing.T) {
	if !ID("").IsEmpty() {
		t.Error("Expected empty ID to be empty")
	}
	if ID("not-empty").IsEmpty() {
		t.Error("Expected non-empty ID to not be empty")
	}
}

// TestParseVariableKey tests identifier validation of variable names
func TestParseVariableKey(t *testing.T) {
	tests := []struct {
		input    string
		expected VariableKey
		hasError bool
	}{
		{"m", VariableKey("m"), false},
		{"t_1", VariableKey("t_1"), false},
		{"_x2", VariableKey("_x2"), false},
		{"", "", true},
		{"   ", "", true},
		{"1x", "", true},
		{"a+b", "", true},
	}

	for _, test := range tests {
		result, err := ParseVariableKey(test.input)
		if test.hasError {
			if err == nil {
				t.Errorf("Expected error for input %q", test.input)
			}
			continue
		}
		if err != nil {
			t.Errorf("Unexpected error for input %q: %v", test.input, err)
		}
		if result != test.expected {
			t.Errorf("Expected %q, got %q", test.expected, result)
		}
	}
}

func TestParseRunID(t *testing.T) {
	if _, err := ParseRunID(" "); err == nil {
		t.Error("Expected error for blank run ID")
	}
	id, err := ParseRunID("run-1")
	if err != nil || id != RunID("run-1") {
		t.Errorf("Expected run-1, got %q (%v)", id, err)
	}
}

func TestErrorClassification(t *testing.T) {
	decl := NewUndeclaredError("formulas", "x")
	if !IsDeclarationError(decl) || IsEvaluationError(decl) {
		t.Errorf("Expected declaration error classification for %v", decl)
	}
	if !errors.Is(decl, ErrUndeclaredVariable) {
		t.Errorf("Expected wrapped ErrUndeclaredVariable, got %v", decl)
	}

	eval := NewDivisionByZeroError("relative error")
	if !IsEvaluationError(eval) || IsDeclarationError(eval) {
		t.Errorf("Expected evaluation error classification for %v", eval)
	}
}

func TestInputHash_Deterministic(t *testing.T) {
	a := NewInputHash([]byte(`{"variables":["m"]}`))
	b := NewInputHash([]byte(`{"variables":["m"]}`))
	c := NewInputHash([]byte(`{"variables":["a"]}`))
	if a != b {
		t.Errorf("Hashes not identical: %s vs %s", a, b)
	}
	if a == c {
		t.Error("Different inputs produced identical hashes")
	}
	if len(a.Short()) != 12 {
		t.Errorf("Expected 12-character short hash, got %q", a.Short())
	}
}
