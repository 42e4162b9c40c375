package analyzer_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aqasim81/fly/internal/analyzer"
)

func TestSeverity_String_allLevels(t *testing.T) {
	t.Parallel()

	tests := []struct {
		severity analyzer.Severity
		expected string
	}{
		{analyzer.Safe, "SAFE"},
		{analyzer.Low, "LOW"},
		{analyzer.Medium, "MEDIUM"},
		{analyzer.High, "HIGH"},
		{analyzer.Critical, "CRITICAL"},
		{analyzer.Severity(99), "UNKNOWN"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, tt.severity.String())
		})
	}
}

func TestSeverity_Color_allLevels(t *testing.T) {
	t.Parallel()

	tests := []struct {
		severity analyzer.Severity
		expected string
		name     string
	}{
		{analyzer.Safe, "\x1b[32m", "Safe_green"},
		{analyzer.Low, "\x1b[36m", "Low_cyan"},
		{analyzer.Medium, "\x1b[33m", "Medium_yellow"},
		{analyzer.High, "\x1b[31m", "High_red"},
		{analyzer.Critical, "\x1b[91;1m", "Critical_boldBrightRed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			c := tt.severity.Color()
			c.EnableColor()
			out := c.Sprint("x")
			assert.True(t, strings.HasPrefix(out, tt.expected), "got %q", out)
			assert.Contains(t, out, "x")
		})
	}
}
