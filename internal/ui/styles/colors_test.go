// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
)

// =============================================================================
// COLOR DEFINITION TESTS
// =============================================================================

func TestAccentColors(t *testing.T) {
	colors := []struct {
		name  string
		color lipgloss.AdaptiveColor
	}{
		{"Purple", Purple},
		{"Cyan", Cyan},
		{"Emerald", Emerald},
		{"Rose", Rose},
		{"Amber", Amber},
	}

	for _, c := range colors {
		if c.color.Light == "" || c.color.Dark == "" {
			t.Errorf("%s should define both light and dark variants", c.name)
		}
	}
}

func TestSurfaceColors(t *testing.T) {
	colors := []struct {
		name  string
		color lipgloss.AdaptiveColor
	}{
		{"Surface", Surface},
		{"SurfaceDim", SurfaceDim},
		{"SurfaceBright", SurfaceBright},
		{"Overlay", Overlay},
		{"OverlayDim", OverlayDim},
	}

	for _, c := range colors {
		if c.color.Light == "" || c.color.Dark == "" {
			t.Errorf("%s should define both light and dark variants", c.name)
		}
	}
}

func TestBubbleColors(t *testing.T) {
	colors := []struct {
		name  string
		color lipgloss.AdaptiveColor
	}{
		{"UserBubbleBg", UserBubbleBg},
		{"UserBubbleFg", UserBubbleFg},
		{"UserBubbleBorder", UserBubbleBorder},
		{"AssistantBubbleBg", AssistantBubbleBg},
		{"AssistantBubbleFg", AssistantBubbleFg},
		{"AssistantBubbleBorder", AssistantBubbleBorder},
		{"NoticeBubbleBg", NoticeBubbleBg},
		{"NoticeBubbleFg", NoticeBubbleFg},
		{"NoticeBubbleBorder", NoticeBubbleBorder},
	}

	for _, c := range colors {
		if c.color.Light == "" || c.color.Dark == "" {
			t.Errorf("%s should define both light and dark variants", c.name)
		}
	}
}

func TestHexFormat(t *testing.T) {
	// All adaptive colors carry #RRGGBB values so degradation to lower
	// color profiles is deterministic.
	colors := map[string]lipgloss.AdaptiveColor{
		"Purple":       Purple,
		"Cyan":         Cyan,
		"Emerald":      Emerald,
		"Rose":         Rose,
		"Amber":        Amber,
		"TextPrimary":  TextPrimary,
		"TextMuted":    TextMuted,
		"SelectionBg":  SelectionBg,
		"LinkColor":    LinkColor,
		"UserBubbleBg": UserBubbleBg,
	}

	for name, c := range colors {
		for _, v := range []string{c.Light, c.Dark} {
			if !strings.HasPrefix(v, "#") || len(v) != 7 {
				t.Errorf("%s has non-hex value %q", name, v)
			}
		}
	}
}

// =============================================================================
// ACCESSIBILITY TESTS
// =============================================================================

func TestStatusIndicatorsAreASCII(t *testing.T) {
	indicators := []struct {
		name  string
		value string
	}{
		{"Success", StatusIndicators.Success},
		{"Error", StatusIndicators.Error},
		{"Warning", StatusIndicators.Warning},
		{"Info", StatusIndicators.Info},
		{"Pending", StatusIndicators.Pending},
		{"Active", StatusIndicators.Active},
	}

	for _, ind := range indicators {
		if ind.value == "" {
			t.Errorf("indicator %s should not be empty", ind.name)
		}
		for _, r := range ind.value {
			if r > 127 {
				t.Errorf("indicator %s contains non-ASCII rune %q", ind.name, r)
			}
		}
	}
}

func TestStatusIndicatorsAreDistinct(t *testing.T) {
	seen := map[string]string{}
	for name, v := range map[string]string{
		"Success": StatusIndicators.Success,
		"Error":   StatusIndicators.Error,
		"Warning": StatusIndicators.Warning,
		"Info":    StatusIndicators.Info,
		"Pending": StatusIndicators.Pending,
		"Active":  StatusIndicators.Active,
	} {
		if prev, ok := seen[v]; ok {
			t.Errorf("indicator %s duplicates %s (%q)", name, prev, v)
		}
		seen[v] = name
	}
}

// =============================================================================
// RENDER HELPER TESTS
// =============================================================================

func TestRenderHelpersIncludeIndicator(t *testing.T) {
	tests := []struct {
		name      string
		render    func(string) string
		indicator string
	}{
		{"RenderSuccess", RenderSuccess, StatusIndicators.Success},
		{"RenderError", RenderError, StatusIndicators.Error},
		{"RenderWarning", RenderWarning, StatusIndicators.Warning},
		{"RenderInfo", RenderInfo, StatusIndicators.Info},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := tt.render("message")
			if !strings.Contains(out, tt.indicator) {
				t.Errorf("%s output %q should contain indicator %q", tt.name, out, tt.indicator)
			}
			if !strings.Contains(out, "message") {
				t.Errorf("%s output %q should contain the message", tt.name, out)
			}
		})
	}
}

func TestRenderLinkKeepsText(t *testing.T) {
	out := RenderLink("https://example.test/docs")
	if !strings.Contains(out, "https://example.test/docs") {
		t.Errorf("RenderLink should preserve the link text, got %q", out)
	}
}
