package settings

import (
	"errors"
	"reflect"
	"testing"
)

func TestCoerceBoolIsStrict(t *testing.T) {
	d := Descriptor{Key: "X", Group: "var", Kind: KindBool, Default: false}
	for _, raw := range []string{"true", "TRUE", "False"} {
		if _, err := d.Coerce(raw); err != nil {
			t.Errorf("Coerce(%q) rejected: %v", raw, err)
		}
	}
	for _, raw := range []string{"yes", "1", "on", ""} {
		if _, err := d.Coerce(raw); !errors.Is(err, ErrBadInput) {
			t.Errorf("Coerce(%q) = %v, want ErrBadInput", raw, err)
		}
	}
	// Lenient mode does not soften bools.
	if _, err := d.CoerceLenient("yes"); err == nil {
		t.Error("CoerceLenient accepted a non-bool for a bool setting")
	}
}

func TestCoerceIntFallsBackToDefault(t *testing.T) {
	d := Descriptor{Key: "MERGE_THREAD_NUMBER", Group: "merge", Kind: KindInt, Default: int64(4)}
	v, err := d.CoerceLenient("not-a-number")
	if err != nil {
		t.Fatalf("CoerceLenient returned error: %v", err)
	}
	if v != int64(4) {
		t.Fatalf("bad input resolved to %v, want default 4", v)
	}
	v, err = d.CoerceLenient("12")
	if err != nil || v != int64(12) {
		t.Fatalf("CoerceLenient(12) = %v, %v", v, err)
	}
}

func TestCoerceSizeAcceptsHumanForms(t *testing.T) {
	d := Descriptor{Key: "LEECH_SPLIT_SIZE", Group: "var", Kind: KindSize, Default: int64(2097152000)}
	cases := map[string]int64{
		"2097152000": 2097152000,
		"512 MiB":    536870912,
		"2GB":        2000000000,
	}
	for raw, want := range cases {
		v, err := d.Coerce(raw)
		if err != nil {
			t.Errorf("Coerce(%q) rejected: %v", raw, err)
			continue
		}
		if v != want {
			t.Errorf("Coerce(%q) = %v, want %d", raw, v, want)
		}
	}
	if v, _ := d.CoerceLenient("garbage"); v != int64(2097152000) {
		t.Errorf("bad size resolved to %v, want the default", v)
	}
}

func TestCoerceSizeRejectsNegatives(t *testing.T) {
	d := Descriptor{Key: "LEECH_SPLIT_SIZE", Group: "var", Kind: KindSize, Default: int64(2097152000)}
	if _, err := d.Coerce("-5"); !errors.Is(err, ErrBadInput) {
		t.Fatalf("Coerce(-5) = %v, want ErrBadInput", err)
	}
	if v, _ := d.CoerceLenient("-5"); v != int64(2097152000) {
		t.Errorf("negative size resolved to %v, want the default", v)
	}
}

func TestCoerceEnumFallsBackToDefault(t *testing.T) {
	d := Descriptor{
		Key: "RCLONE_SERVE_PROTO", Group: "rclone", Kind: KindEnum,
		Default: "http", Options: []string{"http", "webdav", "ftp"},
	}
	if v, _ := d.Coerce("webdav"); v != "webdav" {
		t.Fatalf("valid option rejected, got %v", v)
	}
	if v, _ := d.CoerceLenient("gopher"); v != "http" {
		t.Fatalf("unknown option resolved to %v, want default http", v)
	}
}

func TestCoerceListForms(t *testing.T) {
	d := Descriptor{Key: "NOTIFY_URLS", Group: "var", Kind: KindList, Default: []string{}}
	cases := map[string][]string{
		"[a, b, c]":     {"a", "b", "c"},
		"a b c":         {"a", "b", "c"},
		"a,b,c":         {"a", "b", "c"},
		"'a' \"b\"":     {"a", "b"},
		"one\ntwo":      {"one", "two"},
		"  [ spaced ] ": {"spaced"},
		"":              {},
	}
	for raw, want := range cases {
		v, err := d.Coerce(raw)
		if err != nil {
			t.Errorf("Coerce(%q) rejected: %v", raw, err)
			continue
		}
		if !reflect.DeepEqual(v, want) {
			t.Errorf("Coerce(%q) = %v, want %v", raw, v, want)
		}
	}
}

func TestFormatValueSizes(t *testing.T) {
	d := Descriptor{Key: "X", Group: "var", Kind: KindSize, Default: int64(0)}
	if got := d.FormatValue(int64(536870912)); got != "512 MiB" {
		t.Errorf("FormatValue(512MiB) = %q", got)
	}
	if got := d.FormatValue(int64(0)); got != "0" {
		t.Errorf("FormatValue(0) = %q", got)
	}
}

func TestMaskSecret(t *testing.T) {
	cases := map[string]string{
		"":                 "—",
		"abc":              "******",
		"secret-token-123": "sec…23",
	}
	for in, want := range cases {
		if got := MaskSecret(in); got != want {
			t.Errorf("MaskSecret(%q) = %q, want %q", in, got, want)
		}
	}
}
