package resolve

import "github.com/kryonlabs/kryon-runtime/krb"

// getColorValue decodes a 4-byte RGBA property value. Grounded on the
// teacher's styling_resolver.go getColorValue: KRB always stores color as
// 4 raw bytes regardless of ValueType tagging quirks in the wild.
func getColorValue(v []byte) (Color, bool) {
	if len(v) < 4 {
		return Color{}, false
	}
	return Color{R: v[0], G: v[1], B: v[2], A: v[3], Set: true}, true
}

func getByteValue(v []byte) (uint8, bool) {
	if len(v) < 1 {
		return 0, false
	}
	return v[0], true
}

func getShortValue(v []byte) (uint16, bool) {
	if len(v) < 2 {
		return 0, false
	}
	return krb.ReadU16LE(v), true
}

// getEdgeInsetsValue decodes either a single uniform byte or 4 explicit
// edge bytes (top, right, bottom, left) — the same byte-or-edges ambiguity
// the teacher's applyDirectPropertiesToElement resolves by value size.
func getEdgeInsetsValue(v []byte) ([4]uint8, bool) {
	switch len(v) {
	case 1:
		return [4]uint8{v[0], v[0], v[0], v[0]}, true
	case 4:
		return [4]uint8{v[0], v[1], v[2], v[3]}, true
	default:
		return [4]uint8{}, false
	}
}

func getStringValue(doc *krb.Document, v []byte) (string, bool) {
	if len(v) < 1 {
		return "", false
	}
	idx := int(v[0])
	if idx >= len(doc.Strings) {
		return "", false
	}
	return doc.Strings[idx], true
}

// applyPropertyToElement mutates el for a single decoded property,
// regardless of whether it came from a style or a direct assignment —
// cascade order (which wins) is the caller's responsibility, this just
// applies one property.
func applyPropertyToElement(doc *krb.Document, el *RenderElement, p krb.Property) {
	switch p.ID {
	case krb.PropIDBgColor:
		if c, ok := getColorValue(p.Value); ok {
			el.BgColor = c
		}
	case krb.PropIDFgColor:
		if c, ok := getColorValue(p.Value); ok {
			el.FgColor = c
		}
	case krb.PropIDBorderColor:
		if c, ok := getColorValue(p.Value); ok {
			el.BorderColor = c
		}
	case krb.PropIDBorderWidth:
		if e, ok := getEdgeInsetsValue(p.Value); ok {
			el.BorderWidths = e
		}
	case krb.PropIDPadding:
		if e, ok := getEdgeInsetsValue(p.Value); ok {
			el.Padding = e
		}
	case krb.PropIDTextContent:
		if s, ok := getStringValue(doc, p.Value); ok {
			el.Text = s
		}
	case krb.PropIDImageSource:
		if s, ok := getStringValue(doc, p.Value); ok {
			el.ImageSource = s
		} else if b, ok := getByteValue(p.Value); ok {
			el.ResourceIndex = b
		}
	case krb.PropIDFontSize:
		if b, ok := getByteValue(p.Value); ok {
			el.FontSize = b
		}
	case krb.PropIDTextAlignment:
		if b, ok := getByteValue(p.Value); ok {
			el.TextAlignment = b
		}
	case krb.PropIDMaxWidth:
		if s, ok := getShortValue(p.Value); ok {
			el.MaxW = s
		}
	case krb.PropIDMaxHeight:
		if s, ok := getShortValue(p.Value); ok {
			el.MaxH = s
		}
	case krb.PropIDMinWidth:
		if s, ok := getShortValue(p.Value); ok {
			el.MinW = s
		}
	case krb.PropIDMinHeight:
		if s, ok := getShortValue(p.Value); ok {
			el.MinH = s
		}
	case krb.PropIDVisibility:
		if b, ok := getByteValue(p.Value); ok {
			el.IsVisible = b != 0
		}
	}
}

// applyPropertyToWindowConfig handles the App-element-only subset of
// properties that configure the window rather than any visible element.
// ScaleFactor and the like use an 8.8 fixed-point encoding (raw/256.0),
// matching the teacher's applyDirectPropertiesToWindowConfig.
func applyPropertyToWindowConfig(doc *krb.Document, cfg *WindowConfig, p krb.Property) {
	switch p.ID {
	case krb.PropIDWindowWidth:
		if s, ok := getShortValue(p.Value); ok {
			cfg.Width = int(s)
		}
	case krb.PropIDWindowHeight:
		if s, ok := getShortValue(p.Value); ok {
			cfg.Height = int(s)
		}
	case krb.PropIDWindowTitle:
		if s, ok := getStringValue(doc, p.Value); ok {
			cfg.Title = s
		}
	case krb.PropIDResizable:
		if b, ok := getByteValue(p.Value); ok {
			cfg.Resizable = b != 0
		}
	case krb.PropIDScaleFactor:
		if s, ok := getShortValue(p.Value); ok {
			cfg.ScaleFactor = float32(s) / 256.0
		}
	case krb.PropIDBgColor:
		if c, ok := getColorValue(p.Value); ok {
			cfg.DefaultBg = c
		}
	case krb.PropIDFgColor:
		if c, ok := getColorValue(p.Value); ok {
			cfg.DefaultFg = c
		}
	case krb.PropIDBorderColor:
		if c, ok := getColorValue(p.Value); ok {
			cfg.DefaultBorderColor = c
		}
	}
}

// applyContextualDefaults fills in the border-color/border-width
// default-fill pair the spec calls out explicitly: a border color with no
// declared width defaults to 1px on every side, and a declared width with
// no color falls back to the window's default border color.
func applyContextualDefaults(el *RenderElement, cfg WindowConfig) {
	hasWidth := el.BorderWidths != [4]uint8{}
	if el.BorderColor.Set && !hasWidth {
		el.BorderWidths = [4]uint8{1, 1, 1, 1}
	}
	if hasWidth && !el.BorderColor.Set {
		el.BorderColor = cfg.DefaultBorderColor
	}
}

// isTextBearing reports whether an element kind participates in the
// FgColor inheritance cascade.
func isTextBearing(k krb.ElementType) bool {
	switch k {
	case krb.ElemTypeText, krb.ElemTypeButton, krb.ElemTypeInput:
		return true
	default:
		return false
	}
}

// applyInheritanceRecursive cascades Bg/Fg/Border colors, FontSize, and
// TextAlignment down the tree to any descendant that didn't set its own
// value, root fallback being the window defaults. Bg and Border apply to
// every element kind (a Container inherits its ancestor's background same
// as a Text node inherits its foreground); FontSize/TextAlignment still
// only matter for text-bearing kinds.
func applyInheritanceRecursive(el *RenderElement, inheritedBg, inheritedFg, inheritedBorder Color, inheritedFontSize uint8, inheritedAlign uint8) {
	if !el.BgColor.Set {
		el.BgColor = inheritedBg
	}
	if !el.BorderColor.Set {
		el.BorderColor = inheritedBorder
	}
	if isTextBearing(el.Kind) {
		if !el.FgColor.Set {
			el.FgColor = inheritedFg
		}
		if el.FontSize == 0 {
			el.FontSize = inheritedFontSize
		}
		if el.TextAlignment == 0 {
			el.TextAlignment = inheritedAlign
		}
	}
	nextBg := el.BgColor
	nextBorder := el.BorderColor
	nextFg := inheritedFg
	if el.FgColor.Set {
		nextFg = el.FgColor
	}
	nextFontSize := inheritedFontSize
	if el.FontSize != 0 {
		nextFontSize = el.FontSize
	}
	nextAlign := inheritedAlign
	if el.TextAlignment != 0 {
		nextAlign = el.TextAlignment
	}
	for _, c := range el.Children {
		applyInheritanceRecursive(c, nextBg, nextFg, nextBorder, nextFontSize, nextAlign)
	}
}
