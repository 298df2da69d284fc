// Package config loads fingerpick settings from YAML, the environment and
// an optional .env file, and validates them against an embedded CUE schema.
//
// Precedence, lowest first: Default(), the YAML file, .env (only for keys
// not already set in the process environment), process environment.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/roach88/fingerpick/internal/interaction"
)

// Environment variables read by ApplyEnv.
const (
	EnvThreshold = "FINGERPICK_THRESHOLD"
	EnvMode      = "FINGERPICK_MODE"
	EnvTeamCount = "FINGERPICK_TEAM_COUNT"
	EnvAddr      = "FINGERPICK_ADDR"
	EnvLanguage  = "FINGERPICK_LANG"
	EnvNATSURL   = "NATS_URL"
)

// Config is the on-disk configuration. Keys are snake_case in both YAML
// and the CUE schema.
type Config struct {
	Threshold  int    `yaml:"threshold" json:"threshold"`
	Mode       string `yaml:"mode" json:"mode"`
	TeamCount  int    `yaml:"team_count" json:"team_count"`
	Capacity   int    `yaml:"capacity" json:"capacity"`
	MovePolicy string `yaml:"move_policy" json:"move_policy"`
	KeepLocked bool   `yaml:"keep_locked" json:"keep_locked"`
	Explain    bool   `yaml:"explain" json:"explain"`
	// Language is the BCP-47 tag used for notification text.
	Language string `yaml:"language" json:"language"`
	Delays   Delays `yaml:"delays" json:"delays"`
	Server   Server `yaml:"server" json:"server"`
	Bus      Bus    `yaml:"bus" json:"bus"`
}

// Delays are timer lengths in milliseconds.
type Delays struct {
	PickMs          int `yaml:"pick_ms" json:"pick_ms"`
	SoundCueMs      int `yaml:"sound_cue_ms" json:"sound_cue_ms"`
	AnimStartMs     int `yaml:"anim_start_ms" json:"anim_start_ms"`
	AnimRepeatMs    int `yaml:"anim_repeat_ms" json:"anim_repeat_ms"`
	AnimAfterPickMs int `yaml:"anim_after_pick_ms" json:"anim_after_pick_ms"`
	PickResetMs     int `yaml:"pick_reset_ms" json:"pick_reset_ms"`
	TeamResetMs     int `yaml:"team_reset_ms" json:"team_reset_ms"`
	ExplainMs       int `yaml:"explain_ms" json:"explain_ms"`
}

// Server configures the websocket surface.
type Server struct {
	Addr           string   `yaml:"addr" json:"addr"`
	AllowedOrigins []string `yaml:"allowed_origins" json:"allowed_origins"`
}

// Bus configures the NATS intent bus. An empty NATSURL disables it.
type Bus struct {
	NATSURL       string `yaml:"nats_url" json:"nats_url"`
	SubjectPrefix string `yaml:"subject_prefix" json:"subject_prefix"`
}

// Default returns the stock configuration.
func Default() Config {
	d := interaction.DefaultDelays()
	return Config{
		Threshold:  1,
		Mode:       "pick",
		TeamCount:  2,
		Capacity:   10,
		MovePolicy: "ignore_when_locked",
		KeepLocked: true,
		Explain:    true,
		Language:   "en",
		Delays: Delays{
			PickMs:          int(d.Pick.Milliseconds()),
			SoundCueMs:      int(d.SoundCue.Milliseconds()),
			AnimStartMs:     int(d.AnimStart.Milliseconds()),
			AnimRepeatMs:    int(d.AnimRepeat.Milliseconds()),
			AnimAfterPickMs: int(d.AnimAfterPick.Milliseconds()),
			PickResetMs:     int(d.PickReset.Milliseconds()),
			TeamResetMs:     int(d.TeamReset.Milliseconds()),
			ExplainMs:       int(d.Explain.Milliseconds()),
		},
		Server: Server{
			Addr:           ":8080",
			AllowedOrigins: []string{"*"},
		},
		Bus: Bus{SubjectPrefix: "fingerpick.intents"},
	}
}

// Load reads path (if non-empty) over Default, applies environment
// overrides and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := decodeInto(&cfg, data); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := ApplyEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Parse decodes YAML over Default and validates it. The environment is not
// consulted.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	if err := decodeInto(&cfg, data); err != nil {
		return Config{}, err
	}
	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// decodeInto rejects unknown keys so typos fail loudly.
func decodeInto(cfg *Config, data []byte) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// LoadDotEnv loads the given .env files (".env" when none are named) into
// the process environment without overriding variables that are already
// set. Missing files are not an error.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

// ApplyEnv overrides cfg from the process environment.
func ApplyEnv(cfg *Config) error {
	var err error
	if cfg.Threshold, err = getEnvAsInt(EnvThreshold, cfg.Threshold); err != nil {
		return err
	}
	if cfg.TeamCount, err = getEnvAsInt(EnvTeamCount, cfg.TeamCount); err != nil {
		return err
	}
	cfg.Mode = getEnv(EnvMode, cfg.Mode)
	cfg.Language = getEnv(EnvLanguage, cfg.Language)
	cfg.Server.Addr = getEnv(EnvAddr, cfg.Server.Addr)
	cfg.Bus.NATSURL = getEnv(EnvNATSURL, cfg.Bus.NATSURL)
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s: %q is not an integer", key, value)
	}
	return n, nil
}

func ms(n int) time.Duration { return time.Duration(n) * time.Millisecond }

// Machine converts cfg to the state machine's configuration. Animation
// radii and vibration come from interaction.DefaultConfig.
func (c Config) Machine() (interaction.Config, error) {
	mode, err := interaction.ParseMode(c.Mode)
	if err != nil {
		return interaction.Config{}, err
	}
	policy, err := interaction.ParseMovePolicy(c.MovePolicy)
	if err != nil {
		return interaction.Config{}, err
	}

	out := interaction.DefaultConfig()
	out.Threshold = c.Threshold
	out.Mode = mode
	out.TeamCount = c.TeamCount
	out.Capacity = c.Capacity
	out.MovePolicy = policy
	out.KeepLocked = c.KeepLocked
	out.Explain = c.Explain
	out.Delays = interaction.Delays{
		Pick:          ms(c.Delays.PickMs),
		SoundCue:      ms(c.Delays.SoundCueMs),
		AnimStart:     ms(c.Delays.AnimStartMs),
		AnimRepeat:    ms(c.Delays.AnimRepeatMs),
		AnimAfterPick: ms(c.Delays.AnimAfterPickMs),
		PickReset:     ms(c.Delays.PickResetMs),
		TeamReset:     ms(c.Delays.TeamResetMs),
		Explain:       ms(c.Delays.ExplainMs),
	}
	return out, nil
}
