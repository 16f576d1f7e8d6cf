package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExitError(t *testing.T) {
	err := NewExitError(ExitFailure, "validation failed")
	assert.Equal(t, "validation failed", err.Error())
	assert.Equal(t, ExitFailure, GetExitCode(err))

	inner := errors.New("disk full")
	wrapped := WrapExitError(ExitCommandError, "writing catalog", inner)
	assert.Equal(t, "writing catalog: disk full", wrapped.Error())
	assert.Equal(t, ExitCommandError, GetExitCode(wrapped))
	assert.ErrorIs(t, wrapped, inner)

	// Further wrapping still surfaces the code.
	assert.Equal(t, ExitCommandError, GetExitCode(fmt.Errorf("outer: %w", wrapped)))

	// Unknown errors default to failure.
	assert.Equal(t, ExitFailure, GetExitCode(errors.New("plain")))
}

func TestOutputFormatterSuccess(t *testing.T) {
	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		f := &OutputFormatter{Format: "json", Writer: &buf}
		require.NoError(t, f.Success(map[string]any{"count": 2}))

		var resp CLIResponse
		require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
		assert.Equal(t, "ok", resp.Status)
		assert.Nil(t, resp.Error)
	})

	t.Run("text", func(t *testing.T) {
		var buf bytes.Buffer
		f := &OutputFormatter{Format: "text", Writer: &buf}
		require.NoError(t, f.Success("done"))
		assert.Equal(t, "done\n", buf.String())
	})
}

func TestOutputFormatterError(t *testing.T) {
	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		f := &OutputFormatter{Format: "json", Writer: &buf}
		require.NoError(t, f.Error("E101", "title is required", nil))

		var resp CLIResponse
		require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
		assert.Equal(t, "error", resp.Status)
		require.NotNil(t, resp.Error)
		assert.Equal(t, "E101", resp.Error.Code)
		assert.Equal(t, "title is required", resp.Error.Message)
	})

	t.Run("text", func(t *testing.T) {
		var buf bytes.Buffer
		f := &OutputFormatter{Format: "text", Writer: &buf}
		require.NoError(t, f.Error("E101", "title is required", nil))
		assert.Equal(t, "Error [E101]: title is required\n", buf.String())
	})

	t.Run("text verbose details", func(t *testing.T) {
		var buf bytes.Buffer
		f := &OutputFormatter{Format: "text", Writer: &buf, Verbose: true}
		require.NoError(t, f.Error("E001", "boom", "stack"))
		assert.Contains(t, buf.String(), "Details: stack")
	})
}

func TestVerboseLog(t *testing.T) {
	var out, errOut bytes.Buffer

	f := &OutputFormatter{Format: "json", Writer: &out, ErrWriter: &errOut, Verbose: true}
	f.VerboseLog("compiled %d templates", 3)
	assert.Empty(t, out.String(), "verbose output never corrupts JSON on stdout")
	assert.Equal(t, "compiled 3 templates\n", errOut.String())

	quiet := &OutputFormatter{Format: "text", Writer: &out}
	quiet.VerboseLog("hidden")
	assert.Empty(t, out.String())
}

func TestMapFieldToErrorCode(t *testing.T) {
	tests := []struct {
		field string
		want  string
	}{
		{"title", ErrCodeTemplateTitle},
		{"narrative", ErrCodeTemplateNarrative},
		{"choices", ErrCodeTemplateChoices},
		{"effects", ErrCodeRuleEffects},
		{"conditions", ErrCodeRuleConditions},
		{"cue", ErrCodeLoadFailed},
		{"anything-else", ErrCodeGeneric},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, MapFieldToErrorCode(tt.field), tt.field)
	}
}

func TestLoadErrorFormatting(t *testing.T) {
	err := &LoadError{Code: "E101", Message: "title is required"}
	assert.Equal(t, "E101: title is required", err.Error())
}
