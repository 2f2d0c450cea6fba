package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

type testConfig struct {
	Database struct {
		DSN      string `yaml:"dsn" json:"dsn" toml:"dsn"`
		MaxConns int    `yaml:"max_conns" json:"max_conns" toml:"max_conns"`
	} `yaml:"database" json:"database" toml:"database"`
	Server struct {
		Port    int           `yaml:"port" json:"port" toml:"port"`
		Host    string        `yaml:"host" json:"host" toml:"host"`
		Timeout time.Duration `yaml:"timeout" json:"timeout" toml:"timeout"`
		Tags    []string      `yaml:"tags" json:"tags" toml:"tags"`
	} `yaml:"server" json:"server" toml:"server"`
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoad_DispatchesOnExtension(t *testing.T) {
	files := map[string]string{
		"app.yaml": `
database:
  dsn: "postgres://localhost/test"
  max_conns: 25
server:
  port: 8080
`,
		"app.json": `{"database": {"dsn": "postgres://localhost/test", "max_conns": 25}, "server": {"port": 8080}}`,
		"app.toml": `
[database]
dsn = "postgres://localhost/test"
max_conns = 25

[server]
port = 8080
`,
	}

	for name, content := range files {
		t.Run(name, func(t *testing.T) {
			var cfg testConfig
			if err := Load(writeFile(t, name, content), &cfg); err != nil {
				t.Fatalf("Load failed: %v", err)
			}
			if cfg.Database.DSN != "postgres://localhost/test" {
				t.Errorf("Database.DSN = %v, want postgres://localhost/test", cfg.Database.DSN)
			}
			if cfg.Database.MaxConns != 25 {
				t.Errorf("Database.MaxConns = %v, want 25", cfg.Database.MaxConns)
			}
			if cfg.Server.Port != 8080 {
				t.Errorf("Server.Port = %v, want 8080", cfg.Server.Port)
			}
		})
	}
}

func TestLoad_RejectsUnknownKeys(t *testing.T) {
	files := map[string]string{
		"bad.yaml": "database:\n  dns: typo\n",
		"bad.json": `{"database": {"dns": "typo"}}`,
		"bad.toml": "[database]\ndns = \"typo\"\n",
	}
	for name, content := range files {
		var cfg testConfig
		if err := Load(writeFile(t, name, content), &cfg); err == nil {
			t.Errorf("%s: expected an unknown key error", name)
		}
	}
}

func TestLoad_MissingFile(t *testing.T) {
	var cfg testConfig
	err := Load(filepath.Join(t.TempDir(), "missing.yaml"), &cfg)
	if err == nil || !strings.Contains(err.Error(), "failed to read YAML file") {
		t.Fatalf("err = %v", err)
	}
}

func TestLoadWithEnv(t *testing.T) {
	path := writeFile(t, "app.yaml", `
database:
  dsn: "postgres://localhost/test"
  max_conns: 25
server:
  port: 8080
  host: "localhost"
`)

	t.Setenv("APP_DATABASE_DSN", "postgres://env/test")
	t.Setenv("APP_SERVER_PORT", "9090")
	t.Setenv("APP_SERVER_TIMEOUT", "1500ms")
	t.Setenv("APP_SERVER_TAGS", "a, b")

	var cfg testConfig
	if err := LoadWithEnv(path, "APP", &cfg); err != nil {
		t.Fatalf("LoadWithEnv failed: %v", err)
	}

	if cfg.Database.DSN != "postgres://env/test" {
		t.Errorf("Database.DSN = %v, want postgres://env/test", cfg.Database.DSN)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %v, want 9090", cfg.Server.Port)
	}
	if cfg.Server.Host != "localhost" {
		t.Errorf("Server.Host = %v, want localhost", cfg.Server.Host)
	}
	if cfg.Server.Timeout != 1500*time.Millisecond {
		t.Errorf("Server.Timeout = %v, want 1.5s", cfg.Server.Timeout)
	}
	if len(cfg.Server.Tags) != 2 || cfg.Server.Tags[1] != "b" {
		t.Errorf("Server.Tags = %v, want [a b]", cfg.Server.Tags)
	}
}

func TestApplyEnvOverrides_Errors(t *testing.T) {
	var cfg testConfig
	if err := ApplyEnvOverrides("APP", cfg); err == nil {
		t.Error("expected an error for a non-pointer target")
	}

	t.Setenv("APP_SERVER_PORT", "eighty")
	if err := ApplyEnvOverrides("APP", &cfg); err == nil {
		t.Error("expected an error for an invalid integer")
	}
}

func TestRequiredFields(t *testing.T) {
	var cfg testConfig
	cfg.Database.MaxConns = 25

	validator := RequiredFields("Database.DSN")
	if err := validator.Validate(&cfg); err == nil {
		t.Error("RequiredFields should fail for empty DSN")
	}

	cfg.Database.DSN = "postgres://localhost/test"
	if err := validator.Validate(&cfg); err != nil {
		t.Errorf("RequiredFields should pass for valid config: %v", err)
	}

	if err := RequiredFields("Database.Nope").Validate(&cfg); err == nil {
		t.Error("RequiredFields should fail for an unknown field")
	}
}

func TestRangeValidator(t *testing.T) {
	var cfg testConfig
	cfg.Database.MaxConns = 5

	validator := RangeValidator("Database.MaxConns", 10, 100)
	if err := validator.Validate(&cfg); err == nil {
		t.Error("RangeValidator should fail for value below minimum")
	}

	cfg.Database.MaxConns = 50
	if err := validator.Validate(&cfg); err != nil {
		t.Errorf("RangeValidator should pass for value in range: %v", err)
	}

	if err := RangeValidator("Server.Host", 0, 1).Validate(&cfg); err == nil {
		t.Error("RangeValidator should fail for a string field")
	}
}

func TestOneOfValidator(t *testing.T) {
	var cfg testConfig
	cfg.Server.Host = "localhost"

	if err := OneOfValidator("Server.Host", "localhost", "0.0.0.0").Validate(cfg); err != nil {
		t.Errorf("OneOfValidator should pass: %v", err)
	}
	if err := OneOfValidator("Server.Host", "example.com").Validate(cfg); err == nil {
		t.Error("OneOfValidator should fail")
	}
}
