// Package termbackend implements backend.Backend as a terminal-grid
// renderer: resolved pixel geometry is mapped onto a character grid
// (one cell ~= cellW x cellH "pixels"), each cell styled via lipgloss
// and composited into one frame string bubbletea's program redraws.
// There is no pointer in a terminal, so the Idle->Hover->Pressed->Idle
// state machine is driven by keyboard focus instead: Tab/Shift+Tab
// moves focus among interactive elements in tree order, Enter/Space
// fires Click on the focused element.
package termbackend

import (
	"strings"
	"sync"

	"charm.land/bubbles/v2/key"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	colorful "github.com/lucasb-eyer/go-colorful"
	"github.com/mattn/go-runewidth"
	"go.uber.org/zap"

	"github.com/kryonlabs/kryon-runtime/backend"
	"github.com/kryonlabs/kryon-runtime/krb"
	"github.com/kryonlabs/kryon-runtime/registry"
	"github.com/kryonlabs/kryon-runtime/resolve"
)

// cellW/cellH are the pixel-to-cell scale factors used to map the
// layout engine's float pixel geometry onto a character grid; a
// terminal cell is roughly twice as tall as it is wide, so an 8x16
// ratio keeps docked elements (tab bars, borders) from looking
// squashed relative to a windowed backend's proportions.
const (
	cellW = 8.0
	cellH = 16.0
)

// textureHandle is a no-op backend.TextureHandle: the terminal grid has
// no native image support, so a "loaded" texture here just means the
// element's background cells fall back to its resolved BgColor.
type textureHandle struct{}

func (textureHandle) Valid() bool { return false }

// Key bindings for keyboard-driven focus, the terminal analogue of
// pointer hover/click in a windowed backend.
var (
	keyFocusNext = key.NewBinding(key.WithKeys("tab"))
	keyFocusPrev = key.NewBinding(key.WithKeys("shift+tab"))
	keyActivate  = key.NewBinding(key.WithKeys("enter", " "))
)

type model struct {
	view    string
	keys    chan tea.KeyMsg
	done    chan struct{}
	width   int
	height  int
}

func (m *model) Init() tea.Cmd { return nil }

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
	case tea.KeyMsg:
		select {
		case m.keys <- msg:
		default:
		}
		if msg.String() == "ctrl+c" {
			close(m.done)
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m *model) View() string { return m.view }

// Backend is the termbackend backend.Backend implementation.
type Backend struct {
	log    *zap.Logger
	reg    *registry.Registry
	config backend.Config

	prog  *tea.Program
	model *model

	mu         sync.Mutex
	focusables []*resolve.RenderElement
	focusIdx   int
	closed     bool
}

func New(reg *registry.Registry, log *zap.Logger) *Backend {
	if log == nil {
		log = zap.NewNop()
	}
	return &Backend{log: log, reg: reg}
}

func (b *Backend) Init(cfg backend.Config) error {
	b.config = cfg
	b.model = &model{
		keys: make(chan tea.KeyMsg, 16),
		done: make(chan struct{}),
	}
	b.prog = tea.NewProgram(b.model, tea.WithAltScreen())
	go func() {
		if _, err := b.prog.Run(); err != nil {
			b.log.Warn("terminal program exited with error", zap.Error(err))
		}
		b.mu.Lock()
		b.closed = true
		b.mu.Unlock()
	}()
	return nil
}

func (b *Backend) ShouldClose() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}

func (b *Backend) BeginFrame() {}
func (b *Backend) EndFrame()   {}

func (b *Backend) Cleanup() {
	if b.prog != nil {
		b.prog.Quit()
	}
}

// MeasureText returns the rune-display width of text in cells, scaled
// to the pixel units layout.Layout works in (cellW pixels per column) —
// the terminal analogue of a windowed backend's glyph-metrics measure.
func (b *Backend) MeasureText(text string, fontSize uint8) float32 {
	return float32(runewidth.StringWidth(text)) * cellW
}

func (b *Backend) LoadTexture(resourceIndex uint8, pixelsRGBA []byte, width, height int) (backend.TextureHandle, error) {
	return textureHandle{}, nil
}

func (b *Backend) PollEvents() {
	for {
		select {
		case k := <-b.model.keys:
			b.handleKey(k)
		default:
			return
		}
	}
}

func (b *Backend) handleKey(k tea.KeyMsg) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.focusables) == 0 {
		return
	}
	switch {
	case key.Matches(k, keyFocusNext):
		b.focusIdx = (b.focusIdx + 1) % len(b.focusables)
	case key.Matches(k, keyFocusPrev):
		b.focusIdx = (b.focusIdx - 1 + len(b.focusables)) % len(b.focusables)
	case key.Matches(k, keyActivate):
		b.fireClick(b.focusables[b.focusIdx])
	}
}

func (b *Backend) fireClick(el *resolve.RenderElement) {
	if b.reg == nil {
		return
	}
	for _, eb := range el.EventHandlers {
		if eb.EventType != krb.EventTypeClick {
			continue
		}
		if fn, ok := b.reg.LookupEventHandler(eb.HandlerName); ok {
			fn()
		} else {
			b.log.Warn("click handler not registered", zap.String("handler", eb.HandlerName))
		}
	}
}

// Draw composites the resolved tree onto a character grid and hands
// bubbletea the resulting frame string to redraw.
func (b *Backend) Draw(roots []*resolve.RenderElement) {
	b.mu.Lock()
	b.focusables = collectFocusables(roots)
	if b.focusIdx >= len(b.focusables) {
		b.focusIdx = 0
	}
	var focused *resolve.RenderElement
	if len(b.focusables) > 0 {
		focused = b.focusables[b.focusIdx]
	}
	b.mu.Unlock()

	cols, rows := b.model.width, b.model.height
	if cols <= 0 || rows <= 0 {
		cols, rows = 80, 24
	}
	g := newGrid(cols, rows)
	if b.config.ClearColor.Set {
		g.fillRect(0, 0, cols, rows, ' ', lipgloss.NewStyle().Background(rgbColor(b.config.ClearColor)))
	}
	for _, root := range roots {
		drawRecursive(g, root, focused)
	}
	b.model.view = g.render()
	if b.prog != nil {
		b.prog.Send(nil)
	}
}

func collectFocusables(roots []*resolve.RenderElement) []*resolve.RenderElement {
	var out []*resolve.RenderElement
	var walk func(el *resolve.RenderElement)
	walk = func(el *resolve.RenderElement) {
		if el == nil || !el.IsVisible {
			return
		}
		if el.IsInteractive {
			out = append(out, el)
		}
		for _, c := range el.Children {
			walk(c)
		}
	}
	for _, r := range roots {
		walk(r)
	}
	return out
}

func toCell(x, y float32) (int, int) {
	return int(x / cellW), int(y / cellH)
}

func drawRecursive(g *grid, el *resolve.RenderElement, focused *resolve.RenderElement) {
	if el == nil || !el.IsVisible || el.RenderW <= 0 || el.RenderH <= 0 {
		for _, c := range el.Children {
			drawRecursive(g, c, focused)
		}
		return
	}

	x0, y0 := toCell(el.RenderX, el.RenderY)
	x1, y1 := toCell(el.RenderX+el.RenderW, el.RenderY+el.RenderH)

	style := lipgloss.NewStyle()
	if el.BgColor.Set {
		style = style.Background(rgbColor(el.BgColor))
	}
	if el.FgColor.Set {
		style = style.Foreground(rgbColor(el.FgColor))
	}
	if el == focused {
		style = style.Reverse(true)
	}

	if el.Kind != krb.ElemTypeText && el.Kind != krb.ElemTypeApp && el.BgColor.Set {
		g.fillRect(x0, y0, x1, y1, ' ', style)
	}
	if el.BorderColor.Set && (el.BorderWidths[0] > 0 || el.BorderWidths[1] > 0 || el.BorderWidths[2] > 0 || el.BorderWidths[3] > 0) {
		g.drawBox(x0, y0, x1, y1, lipgloss.NewStyle().Foreground(rgbColor(el.BorderColor)))
	}
	if el.Text != "" {
		g.writeText(x0, y0, el.Text, style)
	}

	for _, c := range el.Children {
		drawRecursive(g, c, focused)
	}
}

// rgbColor converts a resolved 8-bit-per-channel color into the hex
// string lipgloss.Color expects, via go-colorful rather than a
// hand-rolled hex formatter.
func rgbColor(c resolve.Color) lipgloss.Color {
	cf := colorful.Color{R: float64(c.R) / 255, G: float64(c.G) / 255, B: float64(c.B) / 255}
	return lipgloss.Color(cf.Hex())
}

// grid is a cell buffer: each cell a single rune plus the lipgloss
// style to render it with, composited row by row into the final frame
// string bubbletea redraws.
type grid struct {
	cols, rows int
	runes      [][]rune
	styles     [][]lipgloss.Style
}

func newGrid(cols, rows int) *grid {
	g := &grid{cols: cols, rows: rows}
	g.runes = make([][]rune, rows)
	g.styles = make([][]lipgloss.Style, rows)
	for y := 0; y < rows; y++ {
		g.runes[y] = make([]rune, cols)
		g.styles[y] = make([]lipgloss.Style, cols)
		for x := 0; x < cols; x++ {
			g.runes[y][x] = ' '
		}
	}
	return g
}

func (g *grid) set(x, y int, r rune, style lipgloss.Style) {
	if x < 0 || y < 0 || x >= g.cols || y >= g.rows {
		return
	}
	g.runes[y][x] = r
	g.styles[y][x] = style
}

func (g *grid) fillRect(x0, y0, x1, y1 int, r rune, style lipgloss.Style) {
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			g.set(x, y, r, style)
		}
	}
}

func (g *grid) drawBox(x0, y0, x1, y1 int, style lipgloss.Style) {
	for x := x0; x < x1; x++ {
		g.set(x, y0, '─', style)
		g.set(x, y1-1, '─', style)
	}
	for y := y0; y < y1; y++ {
		g.set(x0, y, '│', style)
		g.set(x1-1, y, '│', style)
	}
	g.set(x0, y0, '┌', style)
	g.set(x1-1, y0, '┐', style)
	g.set(x0, y1-1, '└', style)
	g.set(x1-1, y1-1, '┘', style)
}

func (g *grid) writeText(x0, y0 int, text string, style lipgloss.Style) {
	x := x0
	for _, r := range text {
		g.set(x, y0, r, style)
		x += runewidth.RuneWidth(r)
	}
}

func (g *grid) render() string {
	var b strings.Builder
	for y := 0; y < g.rows; y++ {
		for x := 0; x < g.cols; x++ {
			b.WriteString(g.styles[y][x].Render(string(g.runes[y][x])))
		}
		if y < g.rows-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}
