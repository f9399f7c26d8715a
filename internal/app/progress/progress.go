// Package progress renders terminal progress bars: one percentage bar for a
// single transcription, a counter bar for batch runs.
package progress

import (
	"io"
	"os"
	"sync"
	"time"

	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
)

// Config controls rendering. A nil Writer means stderr.
type Config struct {
	Enabled bool
	Writer  io.Writer
}

// Manager owns one mpb container. A disabled Manager hands out no-op bars,
// so callers never branch on verbosity.
type Manager struct {
	container *mpb.Progress
	enabled   bool
	mu        sync.Mutex
}

func NewManager(cfg Config) *Manager {
	if !cfg.Enabled {
		return &Manager{}
	}
	writer := cfg.Writer
	if writer == nil {
		writer = os.Stderr
	}
	return &Manager{
		container: mpb.New(
			mpb.WithOutput(writer),
			mpb.WithRefreshRate(120*time.Millisecond),
		),
		enabled: true,
	}
}

// BatchBar counts completed files out of total.
func (m *Manager) BatchBar(total int, label string) *Bar {
	if !m.enabled || m.container == nil {
		return &Bar{}
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	bar := m.container.AddBar(int64(total),
		mpb.PrependDecorators(
			decor.Name(label+" ", decor.WC{W: len(label) + 1, C: decor.DindentRight}),
			decor.CountersNoUnit("(%d/%d)", decor.WCSyncWidth),
		),
		mpb.AppendDecorators(
			decor.Percentage(decor.WCSyncSpace),
			decor.OnComplete(decor.EwmaETA(decor.ET_STYLE_GO, 30, decor.WCSyncWidth), "done"),
		),
	)
	return &Bar{bar: bar, enabled: true}
}

// FileBar tracks a single transcription from 0 to 100 percent.
func (m *Manager) FileBar(label string) *Bar {
	if !m.enabled || m.container == nil {
		return &Bar{}
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	bar := m.container.AddBar(100,
		mpb.PrependDecorators(
			decor.Name(label+" ", decor.WC{W: len(label) + 1, C: decor.DindentRight}),
		),
		mpb.AppendDecorators(
			decor.Percentage(decor.WCSyncSpace),
		),
	)
	return &Bar{bar: bar, enabled: true}
}

// ByteBar tracks a download of total bytes. A zero total renders a running
// byte counter without a percentage.
func (m *Manager) ByteBar(total int64, label string) *Bar {
	if !m.enabled || m.container == nil {
		return &Bar{}
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	bar := m.container.AddBar(total,
		mpb.PrependDecorators(
			decor.Name(label+" ", decor.WC{W: len(label) + 1, C: decor.DindentRight}),
			decor.CountersKibiByte("% .2f / % .2f", decor.WCSyncWidth),
		),
		mpb.AppendDecorators(
			decor.Percentage(decor.WCSyncSpace),
			decor.OnComplete(decor.AverageSpeed(decor.SizeB1024(0), "% .2f", decor.WCSyncWidth), "done"),
		),
	)
	return &Bar{bar: bar, enabled: true}
}

// Wait blocks until every bar completes.
func (m *Manager) Wait() {
	if m.enabled && m.container != nil {
		m.container.Wait()
	}
}

// Shutdown tears the container down even with unfinished bars.
func (m *Manager) Shutdown() {
	if m.enabled && m.container != nil {
		m.container.Shutdown()
	}
}

// Bar is one rendered progress line. The zero value is a no-op.
type Bar struct {
	bar     *mpb.Bar
	enabled bool

	mu      sync.Mutex
	current int64
}

// Increment marks one unit of work done.
func (b *Bar) Increment() {
	if b.enabled && b.bar != nil {
		b.bar.Increment()
	}
}

// Percent moves a FileBar forward. It never moves backwards, matching the
// provider progress contract.
func (b *Bar) Percent(p float64) {
	if !b.enabled || b.bar == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	v := int64(p)
	if v > 100 {
		v = 100
	}
	if v <= b.current {
		return
	}
	b.current = v
	b.bar.SetCurrent(v)
}

// Callback adapts the bar to a provider progress function.
func (b *Bar) Callback() func(float64) {
	return func(p float64) { b.Percent(p) }
}

// Complete finishes the bar at its current position.
func (b *Bar) Complete() {
	if b.enabled && b.bar != nil {
		b.bar.SetTotal(b.bar.Current(), true)
	}
}

// ProxyReader counts bytes through the bar as they are read. With bars
// disabled the reader passes through untouched.
func (b *Bar) ProxyReader(r io.ReadCloser) io.ReadCloser {
	if !b.enabled || b.bar == nil {
		return r
	}
	return b.bar.ProxyReader(r)
}

// IsTTY reports whether the writer is an interactive terminal.
func IsTTY(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	stat, err := file.Stat()
	if err != nil {
		return false
	}
	return stat.Mode()&os.ModeCharDevice != 0
}

// ShouldShow enables bars when forced or when stderr is a terminal.
func ShouldShow(forced bool) bool {
	return forced || IsTTY(os.Stderr)
}
