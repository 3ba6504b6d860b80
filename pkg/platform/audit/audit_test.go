package audit

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeviceSummary(t *testing.T) {
	t.Run("empty input yields empty output", func(t *testing.T) {
		assert.Empty(t, DeviceSummary(""))
	})

	t.Run("condenses a browser user agent", func(t *testing.T) {
		summary := DeviceSummary("Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
		assert.Contains(t, summary, "Chrome")
		assert.Contains(t, summary, "on Windows")
	})

	t.Run("condenses a mobile user agent", func(t *testing.T) {
		summary := DeviceSummary("Mozilla/5.0 (Linux; Android 14; Pixel 8) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.6099.144 Mobile Safari/537.36")
		assert.Contains(t, summary, "Chrome")
		assert.Contains(t, summary, "on Android")
	})
}
