/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: logger_test.go
Description: Tests for the dual-stream logger: stream separation between the
operational and narrative sinks, section and step formatting, and config
validation.
*/

package logging_test

import (
	"bytes"
	"testing"

	"github.com/kleascm/hackbench/pkg/logging"
	"github.com/stretchr/testify/assert"
)

// TestStreamsAreSeparate verifies operational entries never leak into the
// narrative sink and vice versa.
func TestStreamsAreSeparate(t *testing.T) {
	var op, nar bytes.Buffer
	logger := logging.NewWithWriters(&op, &nar)

	logger.Info("technical entry", map[string]interface{}{"key": "value"})
	logger.Narrative("a sentence for the learner")

	assert.Contains(t, op.String(), "technical entry")
	assert.NotContains(t, op.String(), "a sentence for the learner")

	assert.Contains(t, nar.String(), "a sentence for the learner")
	assert.NotContains(t, nar.String(), "technical entry")
}

// TestSectionAndStepFormatting verifies the walkthrough structure markers.
func TestSectionAndStepFormatting(t *testing.T) {
	var op, nar bytes.Buffer
	logger := logging.NewWithWriters(&op, &nar)

	logger.Section("Reflected XSS")
	logger.Step(2, "Baseline probe", "send a benign value")
	logger.ExplainSuccess("it worked", "because the input was echoed raw")
	logger.ExplainFailure("it failed", "the input was encoded", "trying the next variant")

	out := nar.String()
	assert.Contains(t, out, "Reflected XSS")
	assert.Contains(t, out, "[Step 2]")
	assert.Contains(t, out, "Baseline probe")
	assert.Contains(t, out, "[+] it worked")
	assert.Contains(t, out, "[-] it failed")
	assert.Contains(t, out, "trying the next variant")
}

// TestConfigValidate verifies configuration validation errors.
func TestConfigValidate(t *testing.T) {
	valid := &logging.Config{
		Level:  logging.LogLevelInfo,
		Format: logging.LogFormatText,
		Dir:    "./logs",
	}
	assert.NoError(t, valid.Validate())

	noDir := *valid
	noDir.Dir = ""
	assert.Error(t, noDir.Validate())

	badLevel := *valid
	badLevel.Level = "verbose"
	assert.Error(t, badLevel.Validate())

	badFormat := *valid
	badFormat.Format = "xml"
	assert.Error(t, badFormat.Validate())
}
