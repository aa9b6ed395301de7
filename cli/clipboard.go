package cli

import (
	"sync"
	"time"

	"github.com/atotto/clipboard"
	"github.com/rs/zerolog/log"
)

type Clipboard interface {
	WriteAll(text string) error
}

type systemClipboard struct{}

func (systemClipboard) WriteAll(text string) error { return clipboard.WriteAll(text) }

// SystemClipboard is the OS clipboard.
var SystemClipboard Clipboard = systemClipboard{}

// pendingClear tracks the secret last put on a clipboard so it can be
// blanked on a timer or, at the latest, by Flush.
type pendingClear struct {
	mu    sync.Mutex
	c     Clipboard
	timer *time.Timer
}

// copy puts secret on c and blanks it after d. A newer copy replaces the
// pending clear of an older one.
func (p *pendingClear) copy(c Clipboard, secret string, d time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := c.WriteAll(secret); err != nil {
		return err
	}
	if p.timer != nil {
		p.timer.Stop()
	}
	p.c = c
	var t *time.Timer
	t = time.AfterFunc(d, func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		if p.timer == t {
			p.clearLocked()
		}
	})
	p.timer = t
	return nil
}

// Flush blanks the clipboard now if a clear is still pending.
func (p *pendingClear) Flush() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.timer == nil {
		return
	}
	p.timer.Stop()
	p.clearLocked()
}

func (p *pendingClear) clearLocked() {
	p.timer = nil
	if err := p.c.WriteAll(""); err != nil {
		log.Warn().Err(err).Msg("clearing clipboard failed")
	}
}
