package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/angas/riskplot-go/dataset"
	"github.com/angas/riskplot-go/logging"
	"github.com/angas/riskplot-go/render"
	"github.com/angas/riskplot-go/scale"
	"github.com/angas/riskplot-go/selection"
	"github.com/angas/riskplot-go/types"
)

type AppConfigApi struct {
	Address string
	Port    int16
	// If not assigned, the server will serve embedded files.
	// If assigned, the server will serve files from the directory,
	// that must contain a "static" and "templates" directory.
	// This is useful for development.
	WwwDir *string `mapstructure:"www_dir"`
	// Origins allowed to call the JSON and snapshot endpoints, default: all
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

func (a AppConfigApi) GetAllowedOrigins() []string {
	if len(a.AllowedOrigins) == 0 {
		return []string{"*"}
	}
	return a.AllowedOrigins
}

type AppConfigDatabase struct {
	Path string
	// How many days daily backup files should be stored before they gets deleted
	BackupRetentionDays *int `mapstructure:"backup_retention_days"`
}

func (d AppConfigDatabase) GetBackupRetentionDays() int {
	if d.BackupRetentionDays == nil {
		return 30
	}
	return *d.BackupRetentionDays
}

type AppConfigLogging struct {
	// Min log level for database : "DEBUG", "INFO", "WARN", "ERROR", default: "INFO"
	DbLevel *string `mapstructure:"db_level"`
	// Log attributes format: "TEXT", "JSON", default: "JSON"
	DbAttrsFormat *string `mapstructure:"db_attrs_format"`
	// Maximum number of log entries in the database, default: 10000
	DbMaxEntries *int `mapstructure:"db_max_entries"`
	// Min log level for database console: "DEBUG", "INFO", "WARN", "ERROR", default: "INFO"
	ConsoleLevel *string `mapstructure:"console_level"`
}

func (l AppConfigLogging) GetDbLevel() slog.Level {
	return logging.LevelOrDefault(l.DbLevel, slog.LevelInfo)
}

func (l AppConfigLogging) GetDbAttrsFormat() logging.LogAttrFormat {
	if l.DbAttrsFormat != nil && strings.EqualFold(*l.DbAttrsFormat, "text") {
		return logging.LogAttrFormatText
	}
	return logging.LogAttrFormatJSON
}

func (l AppConfigLogging) GetDbMaxEntries() int {
	if l.DbMaxEntries == nil {
		return 10000
	}
	return *l.DbMaxEntries
}

func (l AppConfigLogging) GetConsoleLevel() slog.Level {
	return logging.LevelOrDefault(l.ConsoleLevel, slog.LevelInfo)
}

type AppConfigDataset struct {
	Path string
	// What to do with a malformed row: "abort" or "skip", default: "abort"
	OnMalformed *string `mapstructure:"on_malformed"`
	// Reload the dataset when the file changes
	Watch bool
}

func (d AppConfigDataset) GetOnMalformed() dataset.Policy {
	if d.OnMalformed == nil {
		return dataset.PolicyAbort
	}
	return dataset.Policy(strings.ToLower(*d.OnMalformed))
}

type AppConfigMargin struct {
	Top    float64
	Right  float64
	Bottom float64
	Left   float64
}

type AppConfigPad struct {
	PadLow  *float64 `mapstructure:"pad_low"`  // Factor applied to the smallest value, default: 0.9
	PadHigh *float64 `mapstructure:"pad_high"` // Factor applied to the largest value, default: 1.1
}

func (p AppConfigPad) GetPadLow() float64 {
	if p.PadLow == nil {
		return 0.9
	}
	return *p.PadLow
}

func (p AppConfigPad) GetPadHigh() float64 {
	if p.PadHigh == nil {
		return 1.1
	}
	return *p.PadHigh
}

type AppConfigChart struct {
	Width        *float64         // SVG width in pixels, default: 1000
	Height       *float64         // SVG height in pixels, default: 750
	Margin       *AppConfigMargin // default: 50, 50, 100, 100
	TransitionMs *int             `mapstructure:"transition_ms"` // default: 1000
	// What identifies a state in its tooltip: "abbr" or "name", default: "abbr"
	TooltipTitle *string  `mapstructure:"tooltip_title"`
	InitialX     *string  `mapstructure:"initial_x"`    // default: "poverty"
	InitialY     *string  `mapstructure:"initial_y"`    // default: "healthcare"
	LabelOffset  *float64 `mapstructure:"label_offset"` // Vertical offset of the state label, default: 4
	X            AppConfigPad
	Y            AppConfigPad
}

func (c AppConfigChart) GetWidth() float64 {
	if c.Width == nil {
		return 1000
	}
	return *c.Width
}

func (c AppConfigChart) GetHeight() float64 {
	if c.Height == nil {
		return 750
	}
	return *c.Height
}

func (c AppConfigChart) GetMargin() AppConfigMargin {
	if c.Margin == nil {
		return AppConfigMargin{Top: 50, Right: 50, Bottom: 100, Left: 100}
	}
	return *c.Margin
}

func (c AppConfigChart) GetTransition() time.Duration {
	if c.TransitionMs == nil {
		return time.Second
	}
	return time.Duration(*c.TransitionMs) * time.Millisecond
}

func (c AppConfigChart) GetTooltipTitle() string {
	if c.TooltipTitle == nil {
		return string(render.TitleAbbr)
	}
	return *c.TooltipTitle
}

func (c AppConfigChart) GetInitialX() types.Field {
	if c.InitialX == nil {
		return types.FieldPoverty
	}
	return types.Field(strings.ToLower(*c.InitialX))
}

func (c AppConfigChart) GetInitialY() types.Field {
	if c.InitialY == nil {
		return types.FieldHealthcare
	}
	return types.Field(strings.ToLower(*c.InitialY))
}

func (c AppConfigChart) GetLabelOffset() float64 {
	if c.LabelOffset == nil {
		return 4
	}
	return *c.LabelOffset
}

// InnerWidth is the width of the plot area inside the margins.
func (c AppConfigChart) InnerWidth() float64 {
	m := c.GetMargin()
	return c.GetWidth() - m.Left - m.Right
}

// InnerHeight is the height of the plot area inside the margins.
func (c AppConfigChart) InnerHeight() float64 {
	m := c.GetMargin()
	return c.GetHeight() - m.Top - m.Bottom
}

func (c AppConfigChart) XScale() scale.Config {
	return scale.Config{PadLow: c.X.GetPadLow(), PadHigh: c.X.GetPadHigh(), RangeLow: 0, RangeHigh: c.InnerWidth()}
}

// YScale maps the domain min to the bottom of the plot area.
func (c AppConfigChart) YScale() scale.Config {
	return scale.Config{PadLow: c.Y.GetPadLow(), PadHigh: c.Y.GetPadHigh(), RangeLow: c.InnerHeight(), RangeHigh: 0}
}

// RenderOptions returns the coordinator options for the chart.
func (c AppConfigChart) RenderOptions() (render.Options, error) {
	title, err := render.ParseTitleMode(c.GetTooltipTitle())
	if err != nil {
		return render.Options{}, err
	}
	initial, err := selection.New(c.GetInitialX(), c.GetInitialY())
	if err != nil {
		return render.Options{}, err
	}
	return render.Options{
		X:             c.XScale(),
		Y:             c.YScale(),
		XAxisPosition: render.Point{X: 0, Y: c.InnerHeight()},
		YAxisPosition: render.Point{X: 0, Y: 0},
		LabelOffset:   render.Point{X: 0, Y: c.GetLabelOffset()},
		Duration:      c.GetTransition(),
		TooltipTitle:  title,
		Initial:       initial,
	}, nil
}

type AppConfigEvents struct {
	// MQTT broker host, events are not published when empty
	Broker      string
	Port        *int // default: 1883
	Username    string
	Password    string
	ClientID    *string `mapstructure:"client_id"`    // default: "riskplot"
	TopicPrefix *string `mapstructure:"topic_prefix"` // default: "riskplot"
}

func (e AppConfigEvents) Enabled() bool {
	return e.Broker != ""
}

func (e AppConfigEvents) GetPort() int {
	if e.Port == nil {
		return 1883
	}
	return *e.Port
}

func (e AppConfigEvents) GetClientID() string {
	if e.ClientID == nil {
		return "riskplot"
	}
	return *e.ClientID
}

func (e AppConfigEvents) GetTopicPrefix() string {
	if e.TopicPrefix == nil {
		return "riskplot"
	}
	return strings.TrimSuffix(*e.TopicPrefix, "/")
}

type AppConfigMaintenance struct {
	RunAt *string `mapstructure:"run_at"` // Cron spec, default: "0 3 * * *"
}

func (m AppConfigMaintenance) GetRunAt() string {
	if m.RunAt == nil {
		return "0 3 * * *"
	}
	return *m.RunAt
}

type AppConfig struct {
	Api         AppConfigApi
	Database    AppConfigDatabase
	Logging     AppConfigLogging     `mapstructure:"logging"`
	Dataset     AppConfigDataset     `mapstructure:"dataset"`
	Chart       AppConfigChart       `mapstructure:"chart"`
	Events      AppConfigEvents      `mapstructure:"events"`
	Maintenance AppConfigMaintenance `mapstructure:"maintenance"`
}

// Validate reports every invalid setting at once.
func (c *AppConfig) Validate() error {
	var errs []error

	if c.Dataset.Path == "" {
		errs = append(errs, errors.New("dataset.path is required"))
	}
	switch c.Dataset.GetOnMalformed() {
	case dataset.PolicyAbort, dataset.PolicySkip:
	default:
		errs = append(errs, fmt.Errorf("dataset.on_malformed must be abort or skip, got %q", *c.Dataset.OnMalformed))
	}

	for key, lvl := range map[string]*string{"db_level": c.Logging.DbLevel, "console_level": c.Logging.ConsoleLevel} {
		if lvl == nil {
			continue
		}
		if _, err := logging.ParseLevel(*lvl); err != nil {
			errs = append(errs, fmt.Errorf("logging.%s: %w", key, err))
		}
	}

	ch := c.Chart
	if ch.InnerWidth() <= 0 || ch.InnerHeight() <= 0 {
		errs = append(errs, fmt.Errorf("chart margins leave no plot area in %vx%v", ch.GetWidth(), ch.GetHeight()))
	}
	if ch.GetTransition() < 0 {
		errs = append(errs, errors.New("chart.transition_ms must not be negative"))
	}
	for axis, pad := range map[string]AppConfigPad{"x": ch.X, "y": ch.Y} {
		lo, hi := pad.GetPadLow(), pad.GetPadHigh()
		if !(lo > 0 && lo <= 1 && hi >= 1) {
			errs = append(errs, fmt.Errorf("chart.%s pads must satisfy 0 < pad_low <= 1 <= pad_high, got %v and %v", axis, lo, hi))
		}
	}
	if _, err := ch.RenderOptions(); err != nil {
		errs = append(errs, fmt.Errorf("chart: %w", err))
	}

	return errors.Join(errs...)
}

func Load(path string) (*AppConfig, error) {
	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath("config")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	var c AppConfig

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("unable to read config file: %w", err)
	}

	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unable to unmarshal config file: %w", err)
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &c, nil
}
