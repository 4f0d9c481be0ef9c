package browser

import (
	"context"
	"math/rand"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

// Humanizer produces the randomized delays, pointer movement and scrolling
// that pad every navigation. The delays are not just decorative waits: DHL's
// client-side scripts watch for inhumanly fast interaction.
type Humanizer struct {
	rng *rand.Rand
}

// NewHumanizer returns a Humanizer with its own random source.
func NewHumanizer() *Humanizer {
	return &Humanizer{
		rng: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Delay sleeps a random duration in [min, max], or returns early with the
// context error if ctx is done first.
func (h *Humanizer) Delay(ctx context.Context, min, max time.Duration) error {
	d := min
	if max > min {
		d += time.Duration(h.rng.Int63n(int64(max - min + 1)))
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// randomInt returns a random int in [min, max].
func (h *Humanizer) randomInt(min, max int) int {
	return min + h.rng.Intn(max-min+1)
}

// LandingPreamble simulates a visitor settling into the landing page: a
// pair of curved pointer moves toward the center, a smooth scroll down and
// back up. Errors from individual gestures are ignored; the gestures are
// best effort and the page may navigate underneath them.
func (h *Humanizer) LandingPreamble(ctx context.Context, page *rod.Page) error {
	centerX := float64(viewportWidth) / 2
	centerY := float64(viewportHeight) / 2

	_ = page.Mouse.MoveLinear(proto.NewPoint(centerX-100, centerY-50), 10)
	if err := h.Delay(ctx, 500*time.Millisecond, time.Second); err != nil {
		return err
	}
	_ = page.Mouse.MoveLinear(proto.NewPoint(centerX, centerY), 10)
	if err := h.Delay(ctx, 500*time.Millisecond, time.Second); err != nil {
		return err
	}

	h.smoothScrollTo(page, 300)
	if err := h.Delay(ctx, time.Second, 2*time.Second); err != nil {
		return err
	}
	h.smoothScrollTo(page, 0)
	return h.Delay(ctx, 800*time.Millisecond, 1500*time.Millisecond)
}

// PointerRounds moves the pointer to n random points on the page with long
// pauses between moves.
func (h *Humanizer) PointerRounds(ctx context.Context, page *rod.Page, n int) error {
	for i := 0; i < n; i++ {
		x := float64(h.randomInt(100, 800))
		y := float64(h.randomInt(100, 600))
		_ = page.Mouse.MoveLinear(proto.NewPoint(x, y), 25)
		if err := h.Delay(ctx, 1500*time.Millisecond, 3*time.Second); err != nil {
			return err
		}
	}
	return nil
}

// ReadingScroll walks the page in half-viewport steps with reading pauses,
// occasionally nudging the pointer, then returns to the top and settles at
// the middle. This triggers lazy-loaded content and reads like a person
// scanning for their shipment.
func (h *Humanizer) ReadingScroll(ctx context.Context, page *rod.Page) error {
	scrollHeight := 0
	if res, err := page.Eval(`() => document.body.scrollHeight`); err == nil {
		scrollHeight = res.Value.Int()
	}

	step := viewportHeight / 2
	steps := scrollHeight/step + 1

	for i := 0; i <= steps; i++ {
		pos := i * step
		if pos > scrollHeight {
			pos = scrollHeight
		}
		h.smoothScrollTo(page, pos)
		if err := h.Delay(ctx, 800*time.Millisecond, 1500*time.Millisecond); err != nil {
			return err
		}
		if i%3 == 0 {
			x := float64(h.randomInt(100, 800))
			y := float64(h.randomInt(100, 600))
			_ = page.Mouse.MoveLinear(proto.NewPoint(x, y), 15)
		}
	}

	h.smoothScrollTo(page, 0)
	if err := h.Delay(ctx, 5*time.Second, 8*time.Second); err != nil {
		return err
	}

	h.smoothScrollTo(page, scrollHeight/2)
	return h.Delay(ctx, 5*time.Second, 8*time.Second)
}

// smoothScrollTo asks the page itself to scroll so the browser animates it.
func (h *Humanizer) smoothScrollTo(page *rod.Page, top int) {
	_, _ = page.Eval(`(top) => window.scrollTo({ top: top, behavior: 'smooth' })`, top)
}
