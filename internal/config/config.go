package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/ayusman/repcount/internal/exercise"
	"github.com/ayusman/repcount/internal/pose"
)

type Config struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
	// logging
	LogLevel      string `toml:"log_level"`
	LogsPath      string `toml:"logs_path"`
	LogToStdout   bool   `toml:"log_to_stdout"`
	LogFormatJSON bool   `toml:"log_format_json"`
	// session
	Exercise  string     `toml:"exercise"`
	Estimator []string   `toml:"estimator"`
	Tuning    Thresholds `toml:"thresholds"`
}

// Toml is the layout of the config file: one section per environment.
type Toml struct {
	Development Config
	Production  Config
}

// Default returns the settings used for anything the file leaves out.
func Default() Config {
	return Config{
		Host:     "127.0.0.1",
		Port:     8080,
		LogLevel: "info",
		Exercise: string(exercise.KindSquat),
	}
}

func (t *Toml) Get(env string) (*Config, error) {
	switch strings.ToLower(env) {
	case "dev", "development":
		return &t.Development, nil
	case "prod", "production":
		return &t.Production, nil
	default:
		return nil, fmt.Errorf("unknown env: %s", env)
	}
}

// Load reads the config file at path and returns the section for env.
func Load(path, env string) (*Config, error) {
	t := Toml{Development: Default(), Production: Default()}
	if _, err := toml.DecodeFile(path, &t); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return t.Get(env)
}

// Parse is Load for an in-memory document.
func Parse(doc, env string) (*Config, error) {
	t := Toml{Development: Default(), Production: Default()}
	if _, err := toml.Decode(doc, &t); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return t.Get(env)
}

// Addr returns the listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// InitialExercise parses the configured starting exercise.
func (c *Config) InitialExercise() (exercise.Kind, error) {
	return exercise.ParseKind(c.Exercise)
}

// Thresholds returns the detector thresholds: the defaults with the file's
// overrides applied, validated.
func (c *Config) Thresholds() (exercise.Thresholds, error) {
	t := c.Tuning.ApplyTo(exercise.DefaultThresholds())
	if err := t.Validate(); err != nil {
		return t, err
	}
	return t, nil
}

// Duration is a time.Duration written as a string ("800ms") in TOML.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", text, err)
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Thresholds overrides detector thresholds. Nil fields keep their default.
type Thresholds struct {
	MinJointVisibility   *float64 `toml:"min_joint_visibility"`
	MinAverageVisibility *float64 `toml:"min_average_visibility"`

	Squat       *Band   `toml:"squat"`
	Pushup      *Band   `toml:"pushup"`
	JumpingJack *Spread `toml:"jumping_jack"`
	Crunch      *Band   `toml:"crunch"`
	ToeTouch    *Band   `toml:"toe_touch"`
	Curl        *Curl   `toml:"curl"`

	// CrunchVariant is "torso" or "toe_touch".
	CrunchVariant *string `toml:"crunch_variant"`
}

type Band struct {
	Enter    *float64  `toml:"enter"`
	Exit     *float64  `toml:"exit"`
	Cooldown *Duration `toml:"cooldown"`
	Confirm  *int      `toml:"confirm"`
}

type Spread struct {
	HandsApart    *float64  `toml:"hands_apart"`
	FeetApart     *float64  `toml:"feet_apart"`
	HandsTogether *float64  `toml:"hands_together"`
	FeetTogether  *float64  `toml:"feet_together"`
	Overhead      *bool     `toml:"overhead"`
	Cooldown      *Duration `toml:"cooldown"`
	Confirm       *int      `toml:"confirm"`
}

type Curl struct {
	Side     *string   `toml:"side"`
	Extended *float64  `toml:"extended"`
	Flexed   *float64  `toml:"flexed"`
	Cooldown *Duration `toml:"cooldown"`
	Confirm  *int      `toml:"confirm"`
}

// ApplyTo returns base with every set field overridden.
func (o Thresholds) ApplyTo(base exercise.Thresholds) exercise.Thresholds {
	setFloat(&base.MinJointVisibility, o.MinJointVisibility)
	setFloat(&base.MinAverageVisibility, o.MinAverageVisibility)

	o.Squat.applyTo(&base.Squat)
	o.Pushup.applyTo(&base.Pushup)
	o.Crunch.applyTo(&base.Crunch.Torso)
	o.ToeTouch.applyTo(&base.Crunch.ToeTouch)
	if o.CrunchVariant != nil {
		base.Crunch.Variant = exercise.CrunchVariant(*o.CrunchVariant)
	}

	if s := o.JumpingJack; s != nil {
		r := &base.JumpingJack
		setFloat(&r.HandsApart, s.HandsApart)
		setFloat(&r.FeetApart, s.FeetApart)
		setFloat(&r.HandsTogether, s.HandsTogether)
		setFloat(&r.FeetTogether, s.FeetTogether)
		if s.Overhead != nil {
			r.Overhead = *s.Overhead
		}
		setTiming(&r.Cooldown, &r.Confirm, s.Cooldown, s.Confirm)
	}

	if c := o.Curl; c != nil {
		r := &base.Curl
		if c.Side != nil {
			r.Side = pose.Side(strings.ToLower(*c.Side))
		}
		setFloat(&r.Extended, c.Extended)
		setFloat(&r.Flexed, c.Flexed)
		setTiming(&r.Cooldown, &r.Confirm, c.Cooldown, c.Confirm)
	}
	return base
}

func (b *Band) applyTo(r *exercise.BandRule) {
	if b == nil {
		return
	}
	setFloat(&r.Enter, b.Enter)
	setFloat(&r.Exit, b.Exit)
	setTiming(&r.Cooldown, &r.Confirm, b.Cooldown, b.Confirm)
}

func setFloat(dst *float64, v *float64) {
	if v != nil {
		*dst = *v
	}
}

func setTiming(cooldown *time.Duration, confirm *int, c *Duration, n *int) {
	if c != nil {
		*cooldown = c.Duration
	}
	if n != nil {
		*confirm = *n
	}
}
