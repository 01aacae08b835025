package app

import (
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"portide/internal/codex"
)

// Config holds the persisted shell preferences. Sandbox and approval store
// the preferred flag values; whether the installed agent version supports
// the flags at all is rediscovered at runtime and never persisted.
type Config struct {
	SandboxMode    string `yaml:"sandbox_mode"`
	ApprovalPolicy string `yaml:"approval_policy"`
	DeviceAuth     bool   `yaml:"device_auth"`
	CompactView    bool   `yaml:"compact_view"`
	AgentPackage   string `yaml:"agent_package"`
	PythonTools    string `yaml:"python_tools"`
}

func DefaultConfig() Config {
	return Config{
		SandboxMode:    codex.SandboxWorkspaceWrite.String(),
		ApprovalPolicy: codex.ApprovalNever.String(),
		DeviceAuth:     false,
		CompactView:    true,
		AgentPackage:   "@openai/codex",
		PythonTools:    "ruff black pyinstaller",
	}
}

// LoadConfig reads the YAML config, treating a missing file as defaults.
// Environment overrides (PORTIDE_SANDBOX, PORTIDE_APPROVAL,
// PORTIDE_DEVICE_AUTH) win over the file.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return cfg, err
			}
		} else if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, err
		}
	}

	if _, ok := codex.ParseSandboxMode(cfg.SandboxMode); !ok {
		cfg.SandboxMode = codex.SandboxWorkspaceWrite.String()
	}
	if _, ok := codex.ParseApprovalPolicy(cfg.ApprovalPolicy); !ok {
		cfg.ApprovalPolicy = codex.ApprovalNever.String()
	}
	if cfg.AgentPackage == "" {
		cfg.AgentPackage = "@openai/codex"
	}

	if mode, ok := codex.ParseSandboxMode(os.Getenv("PORTIDE_SANDBOX")); ok {
		cfg.SandboxMode = mode.String()
	}
	if policy, ok := codex.ParseApprovalPolicy(os.Getenv("PORTIDE_APPROVAL")); ok {
		cfg.ApprovalPolicy = policy.String()
	}
	switch os.Getenv("PORTIDE_DEVICE_AUTH") {
	case "1", "true", "yes", "on":
		cfg.DeviceAuth = true
	}
	return cfg, nil
}

func SaveConfig(cfg Config, path string) error {
	if path == "" {
		return errors.New("no path provided for config")
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func DefaultConfigPath() string {
	base, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(base, "portide", "config.yml")
}
