package config

import "testing"

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(NewViper())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.HTTPAddress != defaultHTTPAddress {
		t.Fatalf("unexpected http address: %s", cfg.HTTPAddress)
	}
	if cfg.DatabasePath != defaultDatabasePath {
		t.Fatalf("unexpected database path: %s", cfg.DatabasePath)
	}
	if cfg.SnapshotKey != defaultSnapshotKey {
		t.Fatalf("unexpected snapshot key: %s", cfg.SnapshotKey)
	}
	if cfg.LogLevel != defaultLogLevel {
		t.Fatalf("unexpected log level: %s", cfg.LogLevel)
	}
}

func TestLoadRejectsBlankDatabasePath(t *testing.T) {
	configViper := NewViper()
	configViper.Set("database.path", "   ")
	if _, err := Load(configViper); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestLoadRejectsBlankSnapshotKey(t *testing.T) {
	configViper := NewViper()
	configViper.Set("snapshot.key", "")
	if _, err := Load(configViper); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestLoadHonorsOverrides(t *testing.T) {
	configViper := NewViper()
	configViper.Set("http.address", "127.0.0.1:9000")
	configViper.Set("log.level", "debug")
	cfg, err := Load(configViper)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.HTTPAddress != "127.0.0.1:9000" || cfg.LogLevel != "debug" {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
}
