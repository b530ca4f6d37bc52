package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	body := `{"bot_token":"123:abc","data_dir":"` + dir + `","owner_ids":[100,200]}`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.BotToken != "123:abc" {
		t.Errorf("token = %q", cfg.BotToken)
	}
	if cfg.DataDir != dir {
		t.Errorf("data dir = %q", cfg.DataDir)
	}
	if !reflect.DeepEqual(cfg.OwnerIDs, []int64{100, 200}) {
		t.Errorf("owners = %v", cfg.OwnerIDs)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	if err := os.WriteFile(path, []byte(`{"bot_token":"from-file"}`), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("MSB_BOT_TOKEN", "from-env")
	t.Setenv("MSB_DATA_DIR", dir)

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.BotToken != "from-env" {
		t.Errorf("token = %q, env did not win", cfg.BotToken)
	}
	if cfg.DataDir != dir {
		t.Errorf("data dir = %q", cfg.DataDir)
	}
}

func TestMissingTokenFails(t *testing.T) {
	t.Setenv("BOT_TOKEN", "")
	t.Setenv("MSB_BOT_TOKEN", "")
	if _, err := Load(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Fatal("config without a token was accepted")
	}
}

func TestParseIDList(t *testing.T) {
	got := parseIDList(" 1, 2,,bad, 3 ")
	if !reflect.DeepEqual(got, []int64{1, 2, 3}) {
		t.Fatalf("parseIDList = %v", got)
	}
}
