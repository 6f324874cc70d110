package app

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Diagram variants.
const (
	VariantDetailed = "detailed"
	VariantOverview = "overview"
	VariantBoth     = "both"
)

// Output formats.
const (
	FormatMermaid = "mermaid"
	FormatJSON    = "json"
)

// DefaultOutPath is the --out default. Only its directory is used.
const DefaultOutPath = "flow.mmd"

// DefaultDebounce is how long watch mode waits for file events to settle.
const DefaultDebounce = 300 * time.Millisecond

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	ObjectPath string `validate:"required"`
	OutPath    string
	Variant    string `validate:"oneof=detailed overview both"`
	Format     string `validate:"oneof=mermaid json"`
	Scheme     string `validate:"oneof=default dark"`
	Direction  string `validate:"omitempty,oneof=TD LR BT"`
	// Labels labels edges with the display name of the source task type.
	Labels bool
	// HideUtility hides utility tasks in detailed diagrams. Overview
	// diagrams always hide them.
	HideUtility bool

	PNG           bool
	PNGScale      float64 `validate:"gte=0"`
	PNGWidth      int     `validate:"gte=0"`
	PNGHeight     int     `validate:"gte=0"`
	PNGBackground string

	RegistryDir string
	LogFormat   string `validate:"oneof=text json"`
	LogLevel    string `validate:"oneof=debug info warn error"`

	Watch         bool
	WatchDebounce time.Duration `validate:"gte=0"`
}

var configValidate = validator.New(validator.WithRequiredStructEnabled())

// NewConfig fills defaults, normalizes case and validates cfg.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.ObjectPath == "" {
		return nil, errors.New("ObjectPath is a required configuration field and cannot be empty")
	}

	cfg.Variant = orDefault(strings.ToLower(cfg.Variant), VariantDetailed)
	cfg.Format = orDefault(strings.ToLower(cfg.Format), FormatMermaid)
	cfg.Scheme = orDefault(strings.ToLower(cfg.Scheme), "default")
	cfg.Direction = strings.ToUpper(cfg.Direction)
	cfg.LogFormat = orDefault(strings.ToLower(cfg.LogFormat), "text")
	cfg.LogLevel = orDefault(strings.ToLower(cfg.LogLevel), "warn")
	cfg.OutPath = orDefault(cfg.OutPath, DefaultOutPath)
	if cfg.WatchDebounce == 0 {
		cfg.WatchDebounce = DefaultDebounce
	}

	if err := configValidate.Struct(&cfg); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return nil, err
		}
		fe := verrs[0]
		return nil, fmt.Errorf("invalid %s %q: must satisfy %s", fe.Field(), fmt.Sprint(fe.Value()), constraint(fe))
	}
	return &cfg, nil
}

func constraint(fe validator.FieldError) string {
	if fe.Param() == "" {
		return fe.Tag()
	}
	return fe.Tag() + " " + fe.Param()
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

// Variant is one diagram rendered per run.
type Variant struct {
	Name        string
	Details     bool
	HideUtility bool
}

// Variants returns the diagrams selected by cfg.Variant, detailed first.
func (c *Config) Variants() []Variant {
	var out []Variant
	if c.Variant == VariantDetailed || c.Variant == VariantBoth {
		out = append(out, Variant{Name: VariantDetailed, Details: true, HideUtility: c.HideUtility})
	}
	if c.Variant == VariantOverview || c.Variant == VariantBoth {
		out = append(out, Variant{Name: VariantOverview, HideUtility: true})
	}
	return out
}
