package langdetect

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/coverage-cli/internal/model"
)

func TestGate_NilAdmitsAll(t *testing.T) {
	g := NewGate("  ")
	assert.Nil(t, g)
	assert.True(t, g.Allow(model.Article{Lang: "deu"}))
	assert.Empty(t, g.Language())
}

func TestGate_UsesTag(t *testing.T) {
	detected := false
	g := NewGate("ENG", WithDetector(func(string) string { detected = true; return "eng" }))
	assert.Equal(t, "eng", g.Language())
	assert.True(t, g.Allow(model.Article{Lang: "eng"}))
	assert.True(t, g.Allow(model.Article{Lang: "Eng"}))
	assert.False(t, g.Allow(model.Article{Lang: "spa", Title: "English words here"}))
	assert.False(t, detected)
}

func TestGate_DetectsUntagged(t *testing.T) {
	var got string
	g := NewGate("eng", WithDetector(func(s string) string {
		got = s
		if s == "Hello world Body text" {
			return "eng"
		}
		return "fra"
	}))
	assert.True(t, g.Allow(model.Article{Title: "Hello world", Body: "Body text"}))
	assert.Equal(t, "Hello world Body text", got)
	assert.False(t, g.Allow(model.Article{Title: "Bonjour"}))
}

func TestDetectISO6393(t *testing.T) {
	assert.Empty(t, DetectISO6393("ok"))
	assert.Equal(t, "eng", DetectISO6393("The government announced new measures to support households this winter."))
	assert.Equal(t, "deu", DetectISO6393("Die Bundesregierung hat heute neue Maßnahmen für die Wirtschaft angekündigt."))
}
