package synth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/leandrodaf/synthctl/sdk/contracts"
	"github.com/leandrodaf/synthctl/sdk/midi"
)

// SweepVelocity is the velocity of the note played by TestAllPatches.
const SweepVelocity = 100

// Output is the part of midi.Device a Controller drives.
type Output interface {
	ProgramChange(program, channel int) error
	ControlChange(controller, value, channel int) error
	NoteOn(note, velocity, channel int) error
	NoteOff(note, channel int) error
	Panic() error
}

var _ Output = (*midi.Device)(nil)

// Controller resolves names through a Profile and sends the matching
// messages to an Output on the profile's default channel.
type Controller struct {
	logger  contracts.Logger
	out     Output
	profile *Profile
	timing  contracts.SweepTiming

	mu      sync.Mutex
	lastErr error
	cancel  context.CancelFunc // Set while TestAllPatches runs.
}

// NewController binds p to out. The controller does not own out.
func NewController(out Output, p *Profile, opts ...contracts.Option) (*Controller, error) {
	options, err := midi.ApplyOptions(opts...)
	if err != nil {
		return nil, err
	}
	log := options.Logger.Named("synth")
	return &Controller{
		logger:  log.With(log.Field().String("profile", p.DisplayName())),
		out:     out,
		profile: p,
		timing:  *options.SweepTiming,
	}, nil
}

// Profile returns the bound profile.
func (c *Controller) Profile() *Profile {
	return c.profile
}

// LastError returns the most recent error recorded by the controller.
func (c *Controller) LastError() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

func (c *Controller) record(err error) error {
	c.mu.Lock()
	c.lastErr = err
	c.mu.Unlock()
	c.logger.Error(err.Error())
	return err
}

// SelectPatch sends the Program Change for a named patch. An unknown name
// returns a *NotFoundError and sends nothing.
func (c *Controller) SelectPatch(name, patchType string) error {
	program, ok := c.profile.PatchValue(name, patchType)
	if !ok {
		return c.record(&NotFoundError{Kind: "patch", Name: name, PatchType: patchType})
	}
	c.logger.Info("Selecting patch",
		c.logger.Field().String("type", patchType),
		c.logger.Field().String("patch", name),
		c.logger.Field().String("program", fmt.Sprintf("0x%02X", program)))
	if err := c.out.ProgramChange(program, c.profile.DefaultChannel); err != nil {
		return c.record(err)
	}
	return nil
}

// SelectEffect sends the Program Change for a named effect. An unknown name
// returns a *NotFoundError and sends nothing.
func (c *Controller) SelectEffect(name string) error {
	code, ok := c.profile.EffectValue(name)
	if !ok {
		return c.record(&NotFoundError{Kind: "effect", Name: name})
	}
	c.logger.Info("Selecting effect",
		c.logger.Field().String("effect", name),
		c.logger.Field().String("code", fmt.Sprintf("0x%02X", code)))
	if err := c.out.ProgramChange(code, c.profile.DefaultChannel); err != nil {
		return c.record(err)
	}
	return nil
}

// SetController clamps value into the controller's range, sends it and
// returns the value sent.
func (c *Controller) SetController(name string, value int) (int, error) {
	info, ok := c.profile.Controller(name)
	if !ok {
		return 0, c.record(&NotFoundError{Kind: "controller", Name: name})
	}
	sent := clamp(value, info.MinValue, info.MaxValue)
	c.logger.Info("Setting controller",
		c.logger.Field().String("controller", name),
		c.logger.Field().Int("cc", info.CCNumber),
		c.logger.Field().Int("value", sent))
	if sent != value {
		c.logger.Debug("Controller value clamped",
			c.logger.Field().Int("requested", value),
			c.logger.Field().Int("min", info.MinValue),
			c.logger.Field().Int("max", info.MaxValue))
	}
	if err := c.out.ControlChange(info.CCNumber, sent, c.profile.DefaultChannel); err != nil {
		return 0, c.record(err)
	}
	return sent, nil
}

func clamp(value, lo, hi int) int {
	return max(lo, min(value, hi))
}

// TestAllPatches plays note on every patch of patchType in listing order:
// select, settle, note on, hold for duration, note off, gap. It stops at the
// next wait once ctx is done or Panic is called and returns the context
// error. A sounding note is always released before returning.
func (c *Controller) TestAllPatches(ctx context.Context, patchType string, note int, duration time.Duration) error {
	if _, err := midi.NoteOn(note, SweepVelocity, c.profile.DefaultChannel); err != nil {
		return err
	}
	if duration < 0 {
		return fmt.Errorf("%w: negative duration %s", ErrInvalidValue, duration)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	c.mu.Lock()
	if c.cancel != nil {
		c.mu.Unlock()
		return ErrSweepRunning
	}
	c.cancel = cancel
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.cancel = nil
		c.mu.Unlock()
	}()

	channel := c.profile.DefaultChannel
	c.logger.Info("Testing patches",
		c.logger.Field().String("type", patchType),
		c.logger.Field().Int("count", c.profile.PatchCount(patchType)))

	for name := range c.profile.PatchNames(patchType) {
		if err := c.SelectPatch(name, patchType); err != nil {
			var notFound *NotFoundError
			if errors.As(err, &notFound) {
				continue
			}
			return err
		}
		if err := sleep(ctx, c.timing.Settle); err != nil {
			return c.stopped(err)
		}

		c.logger.Info("Playing note", c.logger.Field().String("patch", name))
		if err := c.out.NoteOn(note, SweepVelocity, channel); err != nil {
			return c.record(err)
		}
		held := sleep(ctx, duration)
		if err := c.out.NoteOff(note, channel); err != nil {
			return c.record(err)
		}
		if held != nil {
			return c.stopped(held)
		}

		if err := sleep(ctx, c.timing.Gap); err != nil {
			return c.stopped(err)
		}
	}
	c.logger.Info("Patch test completed", c.logger.Field().String("type", patchType))
	return nil
}

func (c *Controller) stopped(err error) error {
	c.logger.Info("Patch test stopped", c.logger.Field().Error("reason", err))
	return err
}

// sleep waits for d or until ctx is done, whichever comes first.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
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

// Panic stops a running patch test and sends All Notes Off on every channel.
func (c *Controller) Panic() error {
	c.mu.Lock()
	cancel := c.cancel
	c.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	c.logger.Warn("Panic")
	if err := c.out.Panic(); err != nil {
		return c.record(err)
	}
	return nil
}
