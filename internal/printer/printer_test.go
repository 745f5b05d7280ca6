package printer

import (
	"bytes"
	"errors"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError(t *testing.T) {
	t.Run("returns error with title", func(t *testing.T) {
		err := Error("Test Error", "This is a test error", []string{})
		require.Error(t, err)
		require.Equal(t, "Test Error", err.Error())
	})

	t.Run("returns error with title when including suggestions", func(t *testing.T) {
		err := Error("Test Error", "Explanation", []string{"Try this fix"})
		require.Error(t, err)
		require.Equal(t, "Test Error", err.Error())
	})

	t.Run("returns error with title for multiple suggestions", func(t *testing.T) {
		err := Error("Test Error", "Explanation", []string{
			"First option",
			"Second option",
		})
		require.Error(t, err)
		require.Equal(t, "Test Error", err.Error())
	})
}

func TestErrorWithContext(t *testing.T) {
	t.Run("returns error with title", func(t *testing.T) {
		context := map[string]string{
			"Board":     "b1",
			"Namespace": "default",
		}
		err := ErrorWithContext("Test Error", "Explanation", context, []string{})
		require.Error(t, err)
		require.Equal(t, "Test Error", err.Error())
	})

	t.Run("returns error with title when including suggestions", func(t *testing.T) {
		context := map[string]string{"Key": "Value"}
		err := ErrorWithContext("Test Error", "Explanation", context, []string{"Fix it"})
		require.Error(t, err)
		require.Equal(t, "Test Error", err.Error())
	})
}

// Note: The Error and ErrorWithContext functions print formatted output to stderr
// with colors. The error object returned only contains the title for Cobra's error handling.
// This is intentional to avoid duplicate output while providing rich formatted errors.

func TestToaster(t *testing.T) {
	var buf bytes.Buffer
	toaster := NewToaster(&buf)

	toaster.Toast("", "Failed to subscribe to realtime updates. Retry attempt 1", "info")
	toaster.Toast("Subscription Error", "Failed to reconnect after multiple attempts.", "error")

	out := buf.String()
	assert.Contains(t, out, "Failed to subscribe to realtime updates. Retry attempt 1\n")
	assert.Contains(t, out, "Subscription Error: Failed to reconnect after multiple attempts.")
	assert.Contains(t, out, "✗")
}

func TestIsPrinted(t *testing.T) {
	assert.True(t, IsPrinted(Error("Title", "Explanation", nil)))
	assert.True(t, IsPrinted(ErrorWithContext("Title", "", map[string]string{"k": "v"}, nil)))
	assert.False(t, IsPrinted(errors.New("plain")))
}

func TestColoredMessages(t *testing.T) {
	var buf bytes.Buffer
	saved := color.Output
	color.Output = &buf
	defer func() { color.Output = saved }()

	Success("Created board %s\n", "b1")
	Warning("Board %s stopped\n", "b1")
	Step("Seeding %d columns\n", 6)

	out := buf.String()
	assert.Contains(t, out, "✓ Created board b1")
	assert.Contains(t, out, "⚠️  Board b1 stopped")
	assert.Contains(t, out, "→ Seeding 6 columns")
}
