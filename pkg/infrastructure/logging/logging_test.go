package logging

import (
	"testing"

	"github.com/sirupsen/logrus"
)

func TestSetLogLevel(t *testing.T) {
	defer Log.SetLevel(logrus.InfoLevel)

	testCases := []struct {
		input    string
		expected logrus.Level
	}{
		{"debug", logrus.DebugLevel},
		{"INFO", logrus.InfoLevel},
		{"warning", logrus.WarnLevel},
		{"warn", logrus.WarnLevel},
		{"error", logrus.ErrorLevel},
		{"fatal", logrus.FatalLevel},
	}

	for _, tc := range testCases {
		if err := SetLogLevel(tc.input); err != nil {
			t.Fatalf("Unexpected error for %q: %v", tc.input, err)
		}
		if Log.GetLevel() != tc.expected {
			t.Errorf("Expected level %s for %q, got %s", tc.expected, tc.input, Log.GetLevel())
		}
	}

	if err := SetLogLevel("verbose"); err == nil {
		t.Errorf("Expected error for unknown level")
	}
}
