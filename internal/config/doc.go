// Package config provides the configuration for respacer.
//
// Configuration is organized in layers with higher layers overriding lower:
//
//	┌─────────────────────────────┐
//	│  3. Environment Variables   │  ← RESPACER_SYNC__DEBOUNCE=1s
//	├─────────────────────────────┤
//	│  2. Config File             │  ← ~/.config/respacer/respacer.toml
//	├─────────────────────────────┤
//	│  1. Built-in Defaults       │  ← Lowest priority
//	└─────────────────────────────┘
//
// # Basic Usage
//
//	cfg, err := config.Load("")
//	if err != nil {
//	    return err
//	}
//	debounce := cfg.Sync.Debounce
//
// # File Format
//
//	[settings]
//	file_name = "text.settings.json"
//	global_dir = "/home/me/.config/respacer"
//
//	[sync]
//	debounce = "300ms"
//	throttle = "500ms"
//
//	[watcher]
//	retry_interval = "1s"
package config
