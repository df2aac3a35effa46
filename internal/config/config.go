package config

import (
	"fmt"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Listen    string    `yaml:"listen" env:"PULSE_LISTEN"`
	DataDir   string    `yaml:"data_dir" env:"PULSE_DATA_DIR"`
	Storage   Storage   `yaml:"storage"`
	Reminders Reminders `yaml:"reminders"`
	Streak    Streak    `yaml:"streak"`
}

type Storage struct {
	// Backend selects the key-value store: "file" or "sqlite".
	Backend string `yaml:"backend" env:"PULSE_STORAGE_BACKEND"`
}

type Reminders struct {
	// Backend selects the delivery surface ("desktop", "log", "noop").
	// Empty picks the first enabled backend.
	Backend string `yaml:"backend" env:"PULSE_NOTIFY_BACKEND"`
	// PermissionGranted models the notification authorization prompt.
	PermissionGranted bool `yaml:"permission_granted" env:"PULSE_NOTIFY_PERMISSION"`
	// Hours are the local reminder times on a task's due date.
	Hours []int `yaml:"hours"`
}

type Streak struct {
	// RestDayPolicy decides what a day with no tasks due does to the
	// streak: "hold" leaves it untouched, "reset" breaks it.
	RestDayPolicy string `yaml:"rest_day_policy" env:"PULSE_STREAK_REST_DAY_POLICY"`
}

func Default() Config {
	return Config{
		Listen:  ":8404",
		DataDir: "data",
		Storage: Storage{Backend: "file"},
		Reminders: Reminders{
			PermissionGranted: true,
			Hours:             []int{6, 12, 18},
		},
		Streak: Streak{RestDayPolicy: "hold"},
	}
}

// Load reads the YAML config file, then applies environment overrides.
// A missing file is not an error; defaults apply.
func Load(path string) (*Config, error) {
	cfg := Default()

	b, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	if err == nil {
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	}

	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("reading environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case "file", "sqlite":
	default:
		return fmt.Errorf("storage.backend must be file or sqlite, got %q", c.Storage.Backend)
	}

	switch c.Streak.RestDayPolicy {
	case "hold", "reset":
	default:
		return fmt.Errorf("streak.rest_day_policy must be hold or reset, got %q", c.Streak.RestDayPolicy)
	}

	for _, h := range c.Reminders.Hours {
		if h < 0 || h > 23 {
			return fmt.Errorf("reminders.hours entries must be 0..23, got %d", h)
		}
	}
	return nil
}
