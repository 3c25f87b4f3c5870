// Package animation drives object attributes from small named scripts.
package animation

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/Faultbox/anchorview/internal/engine/object"
)

var (
	ErrUnknownScript = errors.New("unknown animation script")
	ErrNoTarget      = errors.New("animation has no target")
)

// Script names.
const (
	ScriptLinearTime = "linearTime"
	ScriptSinWave    = "sinWave"
)

// ScriptConfig selects a script and holds its parameters. Parameters a
// script does not use are ignored.
type ScriptConfig struct {
	Name       string  `yaml:"name" json:"name"`
	Multiply   float32 `yaml:"multiply,omitempty" json:"multiply,omitempty"`
	Wavelength float32 `yaml:"wavelength,omitempty" json:"wavelength,omitempty"`
	Offset     float32 `yaml:"offset,omitempty" json:"offset,omitempty"`
	Amplitude  float32 `yaml:"amplitude,omitempty" json:"amplitude,omitempty"`
}

// Script computes the next attribute value.
type Script interface {
	// Step returns the new value given the current value, the step and the
	// total time the animation has been playing.
	Step(value float32, dt, elapsed time.Duration) float32
}

// LinearTime advances the value at a constant rate of Multiply per second.
type LinearTime struct {
	Multiply float32
}

func (s LinearTime) Step(value float32, dt, _ time.Duration) float32 {
	return value + float32(dt.Seconds())*s.Multiply
}

// SinWave sets the value to Offset + Amplitude*sin(Wavelength*t).
type SinWave struct {
	Wavelength float32
	Offset     float32
	Amplitude  float32
}

func (s SinWave) Step(_ float32, _, elapsed time.Duration) float32 {
	return s.Offset + s.Amplitude*float32(math.Sin(float64(s.Wavelength)*elapsed.Seconds()))
}

// NewScript builds the script named in cfg.
func NewScript(cfg ScriptConfig) (Script, error) {
	switch cfg.Name {
	case ScriptLinearTime:
		return LinearTime{Multiply: cfg.Multiply}, nil
	case ScriptSinWave:
		wl := cfg.Wavelength
		if wl == 0 {
			wl = 1
		}
		amp := cfg.Amplitude
		if amp == 0 {
			amp = 1
		}
		return SinWave{Wavelength: wl, Offset: cfg.Offset, Amplitude: amp}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownScript, cfg.Name)
	}
}

// ScriptAnimation binds a script to one attribute of one object.
type ScriptAnimation struct {
	ID        string
	TargetID  string
	Attribute string
	Script    Script
	Playing   bool

	field   *float32
	elapsed time.Duration
}

// New resolves attribute on target and returns a playing animation.
func New(id string, target *object.Object, attribute string, cfg ScriptConfig) (*ScriptAnimation, error) {
	if target == nil {
		return nil, fmt.Errorf("animation %s: %w", id, ErrNoTarget)
	}
	field, err := target.Field(attribute)
	if err != nil {
		return nil, fmt.Errorf("animation %s: %w", id, err)
	}
	script, err := NewScript(cfg)
	if err != nil {
		return nil, fmt.Errorf("animation %s: %w", id, err)
	}
	return &ScriptAnimation{
		ID:        id,
		TargetID:  target.ID,
		Attribute: attribute,
		Script:    script,
		Playing:   true,
		field:     field,
	}, nil
}

// Elapsed returns how long the animation has played.
func (a *ScriptAnimation) Elapsed() time.Duration {
	return a.elapsed
}

// Update advances the animation by dt. Stopped animations do nothing.
func (a *ScriptAnimation) Update(dt time.Duration) {
	if !a.Playing {
		return
	}
	a.elapsed += dt
	*a.field = a.Script.Step(*a.field, dt, a.elapsed)
}

// Mixer updates a group of animations together.
type Mixer struct {
	anims []*ScriptAnimation
}

// Add registers an animation.
func (m *Mixer) Add(a *ScriptAnimation) {
	m.anims = append(m.anims, a)
}

// Remove drops the animation with id. It reports whether one was found.
func (m *Mixer) Remove(id string) bool {
	for i, a := range m.anims {
		if a.ID == id {
			m.anims = append(m.anims[:i], m.anims[i+1:]...)
			return true
		}
	}
	return false
}

// Len returns the number of registered animations.
func (m *Mixer) Len() int {
	return len(m.anims)
}

// Update advances every animation by dt.
func (m *Mixer) Update(dt time.Duration) {
	for _, a := range m.anims {
		a.Update(dt)
	}
}
