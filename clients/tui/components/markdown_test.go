package components

import (
	"strings"
	"testing"
)

func TestRenderMarkdown_Empty(t *testing.T) {
	if got := RenderMarkdown("  \n", 40); got != "" {
		t.Fatalf("expected empty output, got %q", got)
	}
}

func TestRenderMarkdown_KeepsText(t *testing.T) {
	got := RenderMarkdown("Buy **milk** and eggs", 40)
	if !strings.Contains(got, "milk") || !strings.Contains(got, "eggs") {
		t.Fatalf("rendered text lost content: %q", got)
	}
	if strings.Contains(got, "**") {
		t.Fatalf("emphasis markers not rendered: %q", got)
	}
}

func TestRenderMarkdown_RendererCachedPerWidth(t *testing.T) {
	RenderMarkdown("a", 33)
	RenderMarkdown("b", 33)
	renderersMu.Lock()
	defer renderersMu.Unlock()
	if _, ok := renderers[33]; !ok {
		t.Fatal("expected renderer cached for width 33")
	}
}
