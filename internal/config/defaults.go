package config

import (
	"github.com/knadh/koanf/providers/confmap"
)

func DefaultConfig() map[string]interface{} {
	return map[string]interface{}{
		"user_id": "local",
		"database": map[string]interface{}{
			"path": "~/.mindsync/mindsync.db",
		},
		"log": map[string]interface{}{
			"path": "~/.mindsync/mindsync.log",
		},
		"scheduler": map[string]interface{}{
			"horizon":         "24h",
			"catch_up_window": "60s",
			"sweep_interval":  "30s",
			"max_lateness":    "0s", // 0 delivers overdue reminders however late
			"buffer":          64,
		},
		"notify": map[string]interface{}{
			"desktop":    true,
			"sound":      true,
			"icon":       "bell-icon.png",
			"sound_file": "",
		},
	}
}

func NewDefaultProvider() *confmap.Confmap {
	return confmap.Provider(DefaultConfig(), ".")
}

func GetDefaultConfigPath() string {
	return "~/.mindsync/config.yaml"
}
