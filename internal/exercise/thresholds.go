package exercise

import (
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/ayusman/repcount/internal/pose"
)

// BandRule arms when the signal drops below Enter and completes a rep when
// it rises above Exit. Enter must be below Exit.
type BandRule struct {
	Enter    float64
	Exit     float64
	Cooldown time.Duration
	Confirm  int
}

func (r BandRule) validate(name string) error {
	if r.Enter >= r.Exit {
		return fmt.Errorf("%s: enter threshold %.2f must be below exit threshold %.2f", name, r.Enter, r.Exit)
	}
	return validateTiming(name, r.Cooldown, r.Confirm)
}

// CurlRule arms when the elbow opens past Extended and completes a rep when
// it closes below Flexed.
type CurlRule struct {
	Side     pose.Side
	Extended float64
	Flexed   float64
	Cooldown time.Duration
	Confirm  int
}

func (r CurlRule) validate() error {
	if r.Flexed >= r.Extended {
		return fmt.Errorf("curl: flexed threshold %.2f must be below extended threshold %.2f", r.Flexed, r.Extended)
	}
	if r.Side != pose.Left && r.Side != pose.Right {
		return fmt.Errorf("curl: unknown side %q", r.Side)
	}
	return validateTiming("curl", r.Cooldown, r.Confirm)
}

// SpreadRule describes jumping jacks. Hand spread is measured in shoulder
// widths and foot spread in hip widths.
type SpreadRule struct {
	HandsApart    float64
	FeetApart     float64
	HandsTogether float64
	FeetTogether  float64
	// Overhead additionally requires both wrists above the shoulders to arm.
	Overhead bool
	Cooldown time.Duration
	Confirm  int
}

func (r SpreadRule) validate() error {
	if r.HandsTogether >= r.HandsApart {
		return fmt.Errorf("jumping_jack: hands together %.2f must be below hands apart %.2f", r.HandsTogether, r.HandsApart)
	}
	if r.FeetTogether >= r.FeetApart {
		return fmt.Errorf("jumping_jack: feet together %.2f must be below feet apart %.2f", r.FeetTogether, r.FeetApart)
	}
	return validateTiming("jumping_jack", r.Cooldown, r.Confirm)
}

// CrunchVariant selects how crunches are measured.
type CrunchVariant string

const (
	// CrunchTorso tracks the torso tilt from vertical.
	CrunchTorso CrunchVariant = "torso"
	// CrunchToeTouch tracks the wrist to opposite ankle distance.
	CrunchToeTouch CrunchVariant = "toe_touch"
)

// CrunchRule holds both crunch variants; Variant picks the active one.
type CrunchRule struct {
	Variant  CrunchVariant
	Torso    BandRule
	ToeTouch BandRule
}

// Thresholds configures every detector.
type Thresholds struct {
	// MinJointVisibility is the visibility below which a joint counts as missing.
	MinJointVisibility float64
	// MinAverageVisibility is the lowest acceptable mean visibility of the
	// joints a detector uses.
	MinAverageVisibility float64

	Squat       BandRule
	Pushup      BandRule
	JumpingJack SpreadRule
	Crunch      CrunchRule
	Curl        CurlRule
}

// DefaultThresholds returns the thresholds for normalized image coordinates.
func DefaultThresholds() Thresholds {
	return Thresholds{
		MinJointVisibility:   0.5,
		MinAverageVisibility: 0.7,
		Squat: BandRule{
			Enter:    110,
			Exit:     160,
			Cooldown: 800 * time.Millisecond,
			Confirm:  1,
		},
		Pushup: BandRule{
			Enter:    110,
			Exit:     160,
			Cooldown: 800 * time.Millisecond,
			Confirm:  1,
		},
		JumpingJack: SpreadRule{
			HandsApart:    1.8,
			FeetApart:     1.5,
			HandsTogether: 1.2,
			FeetTogether:  1.2,
			Overhead:      true,
			Cooldown:      500 * time.Millisecond,
			Confirm:       1,
		},
		Crunch: CrunchRule{
			Variant: CrunchTorso,
			Torso: BandRule{
				Enter:    130,
				Exit:     160,
				Cooldown: 500 * time.Millisecond,
				Confirm:  1,
			},
			ToeTouch: BandRule{
				Enter:    0.25,
				Exit:     0.6,
				Cooldown: 500 * time.Millisecond,
				Confirm:  1,
			},
		},
		Curl: CurlRule{
			Side:     pose.Right,
			Extended: 160,
			Flexed:   30,
			Cooldown: 500 * time.Millisecond,
			Confirm:  2,
		},
	}
}

// Validate checks that every rule keeps a hysteresis band and sane timing.
func (t Thresholds) Validate() error {
	if t.MinJointVisibility < 0 || t.MinJointVisibility > 1 {
		return fmt.Errorf("min joint visibility %.2f out of [0,1]", t.MinJointVisibility)
	}
	if t.MinAverageVisibility < 0 || t.MinAverageVisibility > 1 {
		return fmt.Errorf("min average visibility %.2f out of [0,1]", t.MinAverageVisibility)
	}

	err := multierr.Combine(
		t.Squat.validate("squat"),
		t.Pushup.validate("pushup"),
		t.JumpingJack.validate(),
		t.Curl.validate(),
		t.Crunch.Torso.validate("crunch"),
		t.Crunch.ToeTouch.validate("toe_touch"),
	)
	if t.Crunch.Variant != CrunchTorso && t.Crunch.Variant != CrunchToeTouch {
		err = multierr.Append(err, fmt.Errorf("crunch: unknown variant %q", t.Crunch.Variant))
	}
	return err
}

func validateTiming(name string, cooldown time.Duration, confirm int) error {
	if cooldown <= 0 {
		return fmt.Errorf("%s: cooldown must be positive, got %s", name, cooldown)
	}
	if confirm < 1 {
		return fmt.Errorf("%s: confirm must be at least 1, got %d", name, confirm)
	}
	return nil
}
