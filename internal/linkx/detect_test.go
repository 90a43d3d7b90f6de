package linkx

import (
	"testing"

	"github.com/dmitrijs2005/chatkeeper/internal/client/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetect(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"none", "buy milk", nil},
		{"single https", "see https://example.com/a?b=1 now", []string{"https://example.com/a?b=1"}},
		{"duplicates collapsed", "https://a.io and again https://a.io", []string{"https://a.io"}},
		{"order kept", "http://b.io then https://a.io", []string{"http://b.io", "https://a.io"}},
		{"scheme-less gets http", "check example.com/page", []string{"http://example.com/page"}},
		{"email skipped", "mail bob@example.com", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Detect(tt.text)
			require.Len(t, got, len(tt.want))
			for i, u := range tt.want {
				assert.Equal(t, u, got[i].URL)
				assert.True(t, got[i].Loading)
				assert.False(t, got[i].Error)
			}
		})
	}
}

func TestRender(t *testing.T) {
	assert.Equal(t, "", Render(models.LinkPreview{URL: "https://x.io", Error: true}))
	assert.Contains(t, Render(models.LinkPreview{URL: "https://x.io", Loading: true}), "https://x.io")
	assert.Equal(t, "https://x.io", Render(models.LinkPreview{URL: "https://x.io"}))

	out := Render(models.LinkPreview{URL: "https://x.io", Title: "T", Description: "D", Image: "https://x.io/i.png"})
	assert.Equal(t, "T\nD\nimage: https://x.io/i.png", out)
}
