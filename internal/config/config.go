package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hostguard/agent/internal/domain"
)

// Build-time variables injected via -ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

// TickInterval is the base cadence of the monitor scheduler. Per-rule
// cadences are multiples of this tick.
const TickInterval = 60 * time.Second

// DefaultWindow is the sliding lookback applied to every rule.
const DefaultWindow = 5 * time.Minute

// Config holds all agent configuration loaded from environment variables.
type Config struct {
	// BotToken is the Telegram Bot API token.
	BotToken string

	// AdminIDs is the static operator allow-list. Must not be empty.
	AdminIDs []int64

	// ComposeFile is the path to the managed docker-compose file.
	ComposeFile string

	// Fail2banLog, AuthLog and KernLog are the monitored log sources.
	// Each is optional at runtime; absence is handled per scan.
	Fail2banLog string
	AuthLog     string
	KernLog     string

	// BanThreshold, LoginThreshold and DropThreshold are the per-source
	// alert limits. An alert fires when the windowed count strictly
	// exceeds the threshold.
	BanThreshold   int
	LoginThreshold int
	DropThreshold  int

	// RulesFile optionally points to a YAML file overriding the built-in
	// alert rules.
	RulesFile string

	// HTTPAddr is the bind address of the local ops HTTP server.
	HTTPAddr string

	// LogDir is the directory for log files.
	LogDir string

	// Debug enables verbose logging.
	Debug bool
}

// DefaultConfig returns a Config populated with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		ComposeFile:    "/home/user/docker-compose.yml",
		Fail2banLog:    "/var/log/fail2ban.log",
		AuthLog:        "/var/log/auth.log",
		KernLog:        "/var/log/kern.log",
		BanThreshold:   5,
		LoginThreshold: 10,
		DropThreshold:  50,
		HTTPAddr:       "127.0.0.1:8844",
		LogDir:         "/var/log/hostguard",
	}
}

// Load reads configuration from environment variables, applying defaults
// for anything not explicitly set. Returns an error if required values
// are missing or malformed.
func Load() (*Config, error) {
	cfg := DefaultConfig()

	cfg.BotToken = strings.TrimSpace(os.Getenv("HOSTGUARD_BOT_TOKEN"))
	if cfg.BotToken == "" {
		return nil, fmt.Errorf("HOSTGUARD_BOT_TOKEN is required")
	}

	cfg.AdminIDs = parseAdminIDs(os.Getenv("HOSTGUARD_ADMIN_IDS"))
	if len(cfg.AdminIDs) == 0 {
		return nil, fmt.Errorf("HOSTGUARD_ADMIN_IDS is required and must contain at least one operator id")
	}

	if v := os.Getenv("HOSTGUARD_COMPOSE_FILE"); v != "" {
		cfg.ComposeFile = v
	}

	if v := os.Getenv("HOSTGUARD_FAIL2BAN_LOG"); v != "" {
		cfg.Fail2banLog = v
	}

	if v := os.Getenv("HOSTGUARD_AUTH_LOG"); v != "" {
		cfg.AuthLog = v
	}

	if v := os.Getenv("HOSTGUARD_KERN_LOG"); v != "" {
		cfg.KernLog = v
	}

	var err error
	if cfg.BanThreshold, err = intEnv("HOSTGUARD_BAN_THRESHOLD", cfg.BanThreshold); err != nil {
		return nil, err
	}
	if cfg.LoginThreshold, err = intEnv("HOSTGUARD_LOGIN_THRESHOLD", cfg.LoginThreshold); err != nil {
		return nil, err
	}
	if cfg.DropThreshold, err = intEnv("HOSTGUARD_DROP_THRESHOLD", cfg.DropThreshold); err != nil {
		return nil, err
	}

	if v := os.Getenv("HOSTGUARD_RULES_FILE"); v != "" {
		cfg.RulesFile = v
	}

	if v := os.Getenv("HOSTGUARD_HTTP_ADDR"); v != "" {
		cfg.HTTPAddr = v
	}

	if v := os.Getenv("HOSTGUARD_LOG_DIR"); v != "" {
		cfg.LogDir = v
	}

	cfg.Debug = os.Getenv("HOSTGUARD_DEBUG") == "true"

	return cfg, nil
}

// parseAdminIDs splits a comma-separated id list, skipping malformed and
// zero entries.
func parseAdminIDs(raw string) []int64 {
	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil || id == 0 {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

func intEnv(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return n, nil
}

// Rules builds the alert rule set from thresholds and log paths. When a
// rules file is configured it overrides the built-in set entirely.
func (c *Config) Rules() ([]domain.AlertRule, error) {
	if c.RulesFile != "" {
		return loadRulesFile(c.RulesFile)
	}

	return []domain.AlertRule{
		{
			Kind:      domain.SourceFail2ban,
			Path:      c.Fail2banLog,
			Window:    DefaultWindow,
			Threshold: c.BanThreshold,
			Cadence:   TickInterval,
			TopN:      5,
		},
		{
			Kind:      domain.SourceSSHAuth,
			Path:      c.AuthLog,
			Window:    DefaultWindow,
			Threshold: c.LoginThreshold,
			Cadence:   TickInterval,
			TopN:      5,
		},
		{
			Kind:      domain.SourceFirewallDrop,
			Path:      c.KernLog,
			Window:    DefaultWindow,
			Threshold: c.DropThreshold,
			Cadence:   2 * TickInterval,
			TopN:      5,
		},
	}, nil
}

// ruleSpec is the YAML schema of one rule. Durations are Go duration
// strings ("5m", "90s").
type ruleSpec struct {
	Kind      string `yaml:"kind"`
	Path      string `yaml:"path"`
	Window    string `yaml:"window"`
	Threshold int    `yaml:"threshold"`
	Cadence   string `yaml:"cadence"`
	TopN      int    `yaml:"top_n"`
}

type rulesFile struct {
	Rules []ruleSpec `yaml:"rules"`
}

func loadRulesFile(path string) ([]domain.AlertRule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules file: %w", err)
	}

	var rf rulesFile
	if err := yaml.Unmarshal(data, &rf); err != nil {
		return nil, fmt.Errorf("parse rules file %s: %w", path, err)
	}
	if len(rf.Rules) == 0 {
		return nil, fmt.Errorf("rules file %s defines no rules", path)
	}

	rules := make([]domain.AlertRule, 0, len(rf.Rules))
	for i, spec := range rf.Rules {
		kind := domain.SourceKind(spec.Kind)
		switch kind {
		case domain.SourceFail2ban, domain.SourceSSHAuth, domain.SourceFirewallDrop:
		default:
			return nil, fmt.Errorf("rules file %s: unknown source kind %q", path, spec.Kind)
		}

		window, err := durationSpec(spec.Window, DefaultWindow)
		if err != nil {
			return nil, fmt.Errorf("rules file %s: rule %d window: %w", path, i, err)
		}
		cadence, err := durationSpec(spec.Cadence, TickInterval)
		if err != nil {
			return nil, fmt.Errorf("rules file %s: rule %d cadence: %w", path, i, err)
		}

		topN := spec.TopN
		if topN <= 0 {
			topN = 5
		}

		rules = append(rules, domain.AlertRule{
			Kind:      kind,
			Path:      spec.Path,
			Window:    window,
			Threshold: spec.Threshold,
			Cadence:   cadence,
			TopN:      topN,
		})
	}
	return rules, nil
}

func durationSpec(raw string, def time.Duration) (time.Duration, error) {
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return def, nil
	}
	return d, nil
}

// NewLogger creates a structured logger that writes to a log file.
func NewLogger(cfg *Config, name string) (*slog.Logger, error) {
	if err := os.MkdirAll(cfg.LogDir, 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}

	logPath := cfg.LogDir + "/" + name + ".log"
	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file %s: %w", logPath, err)
	}

	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
	}

	handler := slog.NewJSONHandler(file, &slog.HandlerOptions{Level: level})
	return slog.New(handler), nil
}
