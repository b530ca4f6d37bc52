package settings

import (
	"strings"
	"testing"
)

func TestDefaultsTableIsValid(t *testing.T) {
	reg, err := NewRegistry(Defaults())
	if err != nil {
		t.Fatalf("default table did not validate: %v", err)
	}
	if reg.Len() == 0 {
		t.Fatal("default table is empty")
	}
	// Every group should render somewhere.
	for _, g := range reg.Groups() {
		if len(reg.GroupKeys(g)) == 0 {
			t.Errorf("group %s has no keys", g)
		}
	}
}

func TestRegistryRejectsDuplicateKeys(t *testing.T) {
	_, err := NewRegistry([]Descriptor{
		{Key: "A", Group: "var", Kind: KindString, Default: ""},
		{Key: "A", Group: "var", Kind: KindString, Default: ""},
	})
	if err == nil || !strings.Contains(err.Error(), "duplicate") {
		t.Fatalf("duplicate key accepted: %v", err)
	}
}

func TestRegistryRejectsMismatchedDefaults(t *testing.T) {
	cases := []Descriptor{
		{Key: "A", Group: "g", Kind: KindBool, Default: "true"},
		{Key: "B", Group: "g", Kind: KindInt, Default: 5}, // int, not int64
		{Key: "C", Group: "g", Kind: KindEnum, Default: "x", Options: []string{"y"}},
		{Key: "D", Group: "g", Kind: KindEnum, Default: "x"}, // no options
		{Key: "E", Group: "g", Kind: KindList, Default: "a,b"},
		{Key: "F", Group: "g", Kind: KindInt, Default: int64(1), ExclusiveWith: "grp"},
	}
	for _, d := range cases {
		if _, err := NewRegistry([]Descriptor{d}); err == nil {
			t.Errorf("descriptor %s with invalid shape was accepted", d.Key)
		}
	}
}

func TestExclusiveSiblings(t *testing.T) {
	reg, err := NewRegistry(Defaults())
	if err != nil {
		t.Fatal(err)
	}
	sibs := reg.ExclusiveSiblings("MEGA_UPLOAD_PRIVATE")
	want := map[string]bool{"MEGA_UPLOAD_PUBLIC": true, "MEGA_UPLOAD_UNLISTED": true}
	if len(sibs) != len(want) {
		t.Fatalf("siblings = %v, want 2 keys", sibs)
	}
	for _, k := range sibs {
		if !want[k] {
			t.Errorf("unexpected sibling %s", k)
		}
	}
	if got := reg.ExclusiveSiblings("OWNER_ID"); got != nil {
		t.Errorf("key without exclusion group returned siblings: %v", got)
	}
}

func TestEnableKeyPerGroup(t *testing.T) {
	reg, err := NewRegistry(Defaults())
	if err != nil {
		t.Fatal(err)
	}
	cases := map[string]string{
		GroupAria2:   "ARIA2_ENABLED",
		GroupQbit:    "QBIT_ENABLED",
		GroupSabnzbd: "SABNZBD_ENABLED",
		GroupRclone:  "RCLONE_ENABLED",
		GroupMega:    "MEGA_ENABLED",
		GroupJD:      "JD_ENABLED",
	}
	for group, want := range cases {
		key, ok := reg.EnableKey(group)
		if !ok || key != want {
			t.Errorf("EnableKey(%s) = %q, %v; want %q", group, key, ok, want)
		}
	}
	if _, ok := reg.EnableKey(GroupVar); ok {
		t.Error("var group should not have a feature toggle")
	}
}
