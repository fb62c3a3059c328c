// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// config.go - Config command implementation for askdesk.
//
// CLI: Comprehensive help and examples for all commands
//
// Command: config [subcommand]
// Short:   View and modify configuration
//
// Subcommands:
//   show (default)      Display current configuration
//   get <key>           Print one value
//   set <key> <value>   Set a configuration value and save
//   reset               Reset to default configuration
//   path                Show configuration file locations
//
// Examples:
//   askdesk config                          Show current config (default)
//   askdesk config get chat.locale
//   askdesk config set chat.locale kz
//   askdesk config set server.base_url https://askdesk.example.kz
//   askdesk config set ui.markdown false
//   askdesk config reset
//   askdesk config path
//
// Keys use dot notation over the config sections: server.*, chat.*,
// storage.*, ui.*. Run "config show" for the full list with values.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/askdesk/askdesk-tui/internal/config"
)

// Config is an alias to the main config type.
type Config = config.Config

// ConfigPath returns the path to the TOML config file.
func ConfigPath() string {
	path, err := config.ConfigPathTOML()
	if err != nil {
		return ""
	}
	return path
}

// LoadConfig loads the configuration from disk.
// Returns default config if no file exists.
func LoadConfig() (*Config, error) {
	return config.Load()
}

// SaveConfig saves the configuration to the config file.
func SaveConfig(cfg *Config) error {
	return config.Save(cfg)
}

// =============================================================================
// HANDLE CONFIG
// =============================================================================

// HandleConfig handles the "config" command.
func HandleConfig(args Args) error {
	switch args.Subcommand {
	case "", "show":
		return handleConfigShow(args.JSON)

	case "get":
		return handleConfigGet(args.ConfigKey, args.JSON)

	case "set":
		return handleConfigSet(args.ConfigKey, args.ConfigVal)

	case "reset":
		return handleConfigReset(args.Confirm, args.JSON)

	case "path":
		return handleConfigPath(args.JSON)

	default:
		return NewValidationErrorWithExample(
			"subcommand", args.Subcommand, "unknown config subcommand",
			"askdesk config [show|get|set|path|reset]")
	}
}

// handleConfigShow displays every configuration key and its current value.
func handleConfigShow(jsonMode bool) error {
	cfg, err := LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %s (using defaults)\n", err)
		cfg = config.Default()
	}

	if jsonMode {
		values := make(map[string]interface{})
		for _, key := range config.GetAllKeys() {
			v, gerr := cfg.Get(key)
			if gerr != nil {
				continue
			}
			values[key] = maskIfSecret(key, v)
		}
		return NewJSONResponse("config show", map[string]interface{}{
			"values": values,
			"path":   ConfigPath(),
		}).Print()
	}

	fmt.Println()
	fmt.Println(TitleStyle.Render("askdesk Configuration"))

	section := ""
	for _, key := range config.GetAllKeys() {
		prefix := key[:strings.Index(key, ".")]
		if prefix != section {
			section = prefix
			fmt.Println(SectionStyle.Render(strings.ToUpper(section[:1]) + section[1:]))
		}
		v, gerr := cfg.Get(key)
		if gerr != nil {
			continue
		}
		fmt.Printf("  %s %s\n",
			RenderLabel(key, 26),
			HighlightStyle.Render(fmt.Sprintf("%v", maskIfSecret(key, v))))
	}

	fmt.Println()
	fmt.Printf("%s %s\n", DimStyle.Render("Config file:"), DimStyle.Render(ConfigPath()))
	fmt.Println()
	return nil
}

// handleConfigGet prints a single configuration value.
func handleConfigGet(key string, jsonMode bool) error {
	if key == "" {
		return ErrMissingArgument("key", "askdesk config get chat.locale")
	}

	cfg, err := LoadConfig()
	if err != nil {
		return WrapError(err, "loading configuration")
	}

	v, err := cfg.Get(key)
	if err != nil {
		return NewValidationErrorWithExample("key", key, "unknown configuration key",
			strings.Join(config.GetAllKeys(), ", "))
	}

	if jsonMode {
		return NewJSONResponse("config get", map[string]interface{}{
			"key":   key,
			"value": maskIfSecret(key, v),
		}).Print()
	}
	fmt.Printf("%v\n", maskIfSecret(key, v))
	return nil
}

// handleConfigSet sets a configuration value and saves the file.
func handleConfigSet(key, value string) error {
	if key == "" || value == "" {
		return ErrMissingArgument("key and value", "askdesk config set chat.locale kz")
	}

	cfg, err := LoadConfig()
	if err != nil {
		return WrapError(err, "loading configuration")
	}

	if err := cfg.Set(key, value); err != nil {
		return NewValidationErrorWithExample("key", key, err.Error(),
			strings.Join(config.GetAllKeys(), ", "))
	}

	// Validation runs against the updated config as a whole so that
	// cross-field rules (stream timeout >= request timeout) hold.
	if err := cfg.Validate(); err != nil {
		return WrapError(err, "invalid configuration")
	}

	if err := SaveConfig(cfg); err != nil {
		return WrapError(err, "saving configuration")
	}
	config.SetGlobal(cfg)

	fmt.Printf("%s %s = %v\n", SuccessStyle.Render("[OK]"), key, maskIfSecret(key, value))
	return nil
}

// handleConfigReset restores the default configuration.
func handleConfigReset(confirmFlag, jsonMode bool) error {
	confirmed, err := RequireConfirmation(confirmFlag, "reset configuration to defaults", jsonMode)
	if err != nil {
		return err
	}
	if !confirmed {
		ShowCancellationMessage()
		return nil
	}

	cfg := config.Default()
	if err := SaveConfig(cfg); err != nil {
		return WrapError(err, "saving configuration")
	}
	config.SetGlobal(cfg)

	if jsonMode {
		return NewJSONResponse("config reset", map[string]string{"path": ConfigPath()}).Print()
	}
	fmt.Printf("%s configuration reset to defaults\n", SuccessStyle.Render("[OK]"))
	return nil
}

// handleConfigPath shows where the configuration lives.
func handleConfigPath(jsonMode bool) error {
	tomlPath := ConfigPath()
	jsonPath, _ := config.ConfigPathJSON()

	_, err := os.Stat(tomlPath)
	exists := err == nil

	if jsonMode {
		return NewJSONResponse("config path", map[string]interface{}{
			"toml":   tomlPath,
			"json":   jsonPath,
			"exists": exists,
		}).Print()
	}

	fmt.Printf("%s %s\n", RenderLabel("TOML:", 8), tomlPath)
	fmt.Printf("%s %s\n", RenderLabel("JSON:", 8), jsonPath)
	if !exists {
		fmt.Println(DimStyle.Render("(no config file yet; defaults are in effect)"))
	}
	return nil
}

// maskIfSecret masks values of secret-bearing keys for display.
func maskIfSecret(key string, value interface{}) interface{} {
	if !strings.Contains(key, "password") {
		return value
	}
	s := fmt.Sprintf("%v", value)
	if s == "" {
		return "(not set)"
	}
	return "[REDACTED]"
}
