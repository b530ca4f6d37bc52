package sideeffect

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/mirrorops/settings-bot/internal/clients"
	"github.com/mirrorops/settings-bot/internal/settings"
)

type memPersister struct{ saved map[string]string }

func (m *memPersister) LoadSettings(ctx context.Context) (map[string]string, error) {
	return m.saved, nil
}

func (m *memPersister) SaveSettings(ctx context.Context, kv map[string]string) error {
	for k, v := range kv {
		m.saved[k] = v
	}
	return nil
}

func (m *memPersister) DeleteSettings(ctx context.Context, keys []string) error {
	for _, k := range keys {
		delete(m.saved, k)
	}
	return nil
}

type fakeAria2 struct {
	opts map[string]string
	err  error
}

func (f *fakeAria2) SetGlobalOption(ctx context.Context, key, value string) error {
	if f.err != nil {
		return f.err
	}
	f.opts[key] = value
	return nil
}

type fakeServe struct {
	started  int
	stopped  int
	lastOpts clients.ServeOptions
}

func (f *fakeServe) Restart(opts clients.ServeOptions) error {
	f.started++
	f.lastOpts = opts
	return nil
}

func (f *fakeServe) Stop() { f.stopped++ }

type fakeDocs struct{ cleared []string }

func (f *fakeDocs) DeleteUserDocField(ctx context.Context, field string) error {
	f.cleared = append(f.cleared, field)
	return nil
}

func newTestDispatcher(t *testing.T) (*Dispatcher, *settings.Store, *fakeAria2, *fakeServe, *fakeDocs) {
	t.Helper()
	reg, err := settings.NewRegistry(settings.Defaults())
	if err != nil {
		t.Fatal(err)
	}
	store, err := settings.NewStore(context.Background(), reg, &memPersister{saved: map[string]string{}})
	if err != nil {
		t.Fatal(err)
	}
	docs := &fakeDocs{}
	d := NewDispatcher(reg, store, docs)
	aria := &fakeAria2{opts: map[string]string{}}
	serve := &fakeServe{}
	d.Aria2 = func() Aria2Client { return aria }
	d.Qbit = nil
	d.Sab = nil
	d.JD = nil
	d.Serve = serve
	d.Attach()
	return d, store, aria, serve, docs
}

func TestAria2OptionNameMapping(t *testing.T) {
	cases := map[string]string{
		"ARIA2_MAX_CONCURRENT_DOWNLOADS": "max-concurrent-downloads",
		"ARIA2_MIN_SPLIT_SIZE":           "min-split-size",
		"ARIA2_SPLIT":                    "split",
	}
	for key, want := range cases {
		if got := aria2Option(key); got != want {
			t.Errorf("aria2Option(%s) = %q, want %q", key, got, want)
		}
	}
}

func TestEveryTableEffectIsHandled(t *testing.T) {
	handled := map[string]bool{
		settings.EffectAria2:       true,
		settings.EffectQbit:        true,
		settings.EffectSabnzbd:     true,
		settings.EffectRcloneServe: true,
		settings.EffectJD:          true,
		settings.EffectCascade:     true,
		settings.EffectThumb:       true,
	}
	for _, d := range settings.Defaults() {
		if d.SideEffect != "" && !handled[d.SideEffect] {
			t.Errorf("%s has unhandled side effect %q", d.Key, d.SideEffect)
		}
	}
}

func TestCommitPushesAria2Option(t *testing.T) {
	_, store, aria, _, _ := newTestDispatcher(t)
	if err := store.Set(context.Background(), "ARIA2_SPLIT", int64(32)); err != nil {
		t.Fatal(err)
	}
	if got := aria.opts["split"]; got != "32" {
		t.Fatalf("aria2 received split=%q, want 32", got)
	}
}

func TestDisabledFeatureSkipsPush(t *testing.T) {
	_, store, aria, _, _ := newTestDispatcher(t)
	ctx := context.Background()
	if err := store.Set(ctx, "ARIA2_ENABLED", false); err != nil {
		t.Fatal(err)
	}
	aria.opts = map[string]string{}
	if err := store.Set(ctx, "ARIA2_SPLIT", int64(8)); err != nil {
		t.Fatal(err)
	}
	if len(aria.opts) != 0 {
		t.Fatalf("disabled feature still pushed options: %v", aria.opts)
	}
	// The stored value changed regardless.
	if got := store.GetInt("ARIA2_SPLIT"); got != 8 {
		t.Fatalf("value = %d, want 8", got)
	}
}

func TestClientFailureDoesNotAffectStoredValue(t *testing.T) {
	_, store, aria, _, _ := newTestDispatcher(t)
	aria.err = errors.New("rpc unreachable")
	if err := store.Set(context.Background(), "ARIA2_SPLIT", int64(64)); err != nil {
		t.Fatalf("client failure leaked into Set: %v", err)
	}
	if got := store.GetInt("ARIA2_SPLIT"); got != 64 {
		t.Fatalf("value = %d, want 64 despite client failure", got)
	}
}

func TestDisablingFeatureCascadesGroupReset(t *testing.T) {
	_, store, aria, _, _ := newTestDispatcher(t)
	ctx := context.Background()

	if err := store.Set(ctx, "ARIA2_SPLIT", int64(64)); err != nil {
		t.Fatal(err)
	}
	if err := store.Set(ctx, "ARIA2_RPC_URL", "http://other:6800/jsonrpc"); err != nil {
		t.Fatal(err)
	}

	aria.opts = map[string]string{}
	if err := store.Set(ctx, "ARIA2_ENABLED", false); err != nil {
		t.Fatal(err)
	}
	if got := store.GetInt("ARIA2_SPLIT"); got != 16 {
		t.Fatalf("ARIA2_SPLIT after disable = %d, want default 16", got)
	}
	if got := store.GetString("ARIA2_RPC_URL"); got != "http://localhost:6800/jsonrpc" {
		t.Fatalf("ARIA2_RPC_URL after disable = %q", got)
	}
	if store.GetBool("ARIA2_ENABLED") {
		t.Fatal("toggle itself was reset back to its default")
	}
	// Cascade resets bypass per-key hooks.
	if len(aria.opts) != 0 {
		t.Fatalf("cascade pushed options: %v", aria.opts)
	}

	// Disabling again changes nothing.
	if err := store.Set(ctx, "ARIA2_ENABLED", false); err != nil {
		t.Fatal(err)
	}
	if got := store.GetInt("ARIA2_SPLIT"); got != 16 {
		t.Fatalf("second disable changed ARIA2_SPLIT to %d", got)
	}
}

func TestDisablingRcloneStopsServe(t *testing.T) {
	_, store, _, serve, _ := newTestDispatcher(t)
	ctx := context.Background()
	if err := store.Set(ctx, "RCLONE_ENABLED", true); err != nil {
		t.Fatal(err)
	}
	if err := store.Set(ctx, "RCLONE_ENABLED", false); err != nil {
		t.Fatal(err)
	}
	if serve.stopped == 0 {
		t.Error("serve process not stopped when rclone was disabled")
	}
}

func TestServeRestartUsesCurrentSettings(t *testing.T) {
	_, store, _, serve, _ := newTestDispatcher(t)
	ctx := context.Background()
	if err := store.Set(ctx, "RCLONE_ENABLED", true); err != nil {
		t.Fatal(err)
	}
	if err := store.Set(ctx, "RCLONE_SERVE_URL", "gdrive:mirror"); err != nil {
		t.Fatal(err)
	}
	if serve.started == 0 {
		t.Fatal("serve was not restarted")
	}
	if serve.lastOpts.Remote != "gdrive:mirror" || serve.lastOpts.Port != 8080 {
		t.Fatalf("serve options = %+v", serve.lastOpts)
	}
}

func TestClearingFileSettingDropsStoredBlobs(t *testing.T) {
	_, store, _, _, docs := newTestDispatcher(t)
	ctx := context.Background()
	if err := store.Set(ctx, "THUMBNAIL", "file-id-123"); err != nil {
		t.Fatal(err)
	}
	if len(docs.cleared) != 0 {
		t.Fatalf("setting a file cleared blobs: %v", docs.cleared)
	}
	if err := store.Set(ctx, "THUMBNAIL", ""); err != nil {
		t.Fatal(err)
	}
	if len(docs.cleared) != 1 || docs.cleared[0] != "THUMBNAIL" {
		t.Fatalf("cleared = %v, want [THUMBNAIL]", docs.cleared)
	}
}

func TestMutualExclusionEndToEnd(t *testing.T) {
	_, store, _, _, _ := newTestDispatcher(t)
	ctx := context.Background()

	if err := store.Set(ctx, "MEGA_UPLOAD_UNLISTED", true); err != nil {
		t.Fatal(err)
	}
	if store.GetBool("MEGA_UPLOAD_PRIVATE") {
		t.Error("default-on sibling survived an exclusive set")
	}
	if err := store.Set(ctx, "MEGA_UPLOAD_PUBLIC", true); err != nil {
		t.Fatal(err)
	}
	on := 0
	for _, k := range []string{"MEGA_UPLOAD_PUBLIC", "MEGA_UPLOAD_PRIVATE", "MEGA_UPLOAD_UNLISTED"} {
		if store.GetBool(k) {
			on++
		}
	}
	if on != 1 {
		t.Fatalf("%d privacy flags on, want exactly 1", on)
	}
}

type fakeSab struct{ items map[string]string }

func (f *fakeSab) SetConfig(ctx context.Context, section, keyword, value string) error {
	f.items[section+"/"+keyword] = value
	return nil
}

func TestCredentialChangeLogsInWithNewPassword(t *testing.T) {
	var (
		mu        sync.Mutex
		passwords []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v2/auth/login":
			mu.Lock()
			passwords = append(passwords, r.FormValue("password"))
			mu.Unlock()
			http.SetCookie(w, &http.Cookie{Name: "SID", Value: "s1", Path: "/"})
		case "/api/v2/app/setPreferences":
			if _, err := r.Cookie("SID"); err != nil {
				w.WriteHeader(http.StatusForbidden)
			}
		}
	}))
	defer srv.Close()

	_, store, _, _, _ := newTestDispatcher(t)
	ctx := context.Background()
	d := NewDispatcher(mustRegistry(t), store, &fakeDocs{})
	d.Aria2, d.Sab, d.JD, d.Serve = nil, nil, nil, nil
	d.Attach()

	if err := store.Set(ctx, "QBIT_ENABLED", true); err != nil {
		t.Fatal(err)
	}
	if err := store.Set(ctx, "QBIT_BASE_URL", srv.URL); err != nil {
		t.Fatal(err)
	}
	if err := store.Set(ctx, "QBIT_PASSWORD", "new-password"); err != nil {
		t.Fatal(err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(passwords) == 0 {
		t.Fatal("no login attempts reached the server")
	}
	if got := passwords[len(passwords)-1]; got != "new-password" {
		t.Fatalf("last login used password %q, want the edited one", got)
	}
}

func TestRPCSecretChangeResyncsAria2(t *testing.T) {
	_, store, aria, _, _ := newTestDispatcher(t)
	ctx := context.Background()

	d := NewDispatcher(mustRegistry(t), store, &fakeDocs{})
	var secrets []string
	d.Aria2 = func() Aria2Client {
		secrets = append(secrets, store.GetString("ARIA2_RPC_SECRET"))
		return aria
	}
	d.Qbit, d.Sab, d.JD, d.Serve = nil, nil, nil, nil
	d.Attach()

	if err := store.Set(ctx, "ARIA2_RPC_SECRET", "s3cret-xyz"); err != nil {
		t.Fatal(err)
	}
	if len(secrets) == 0 || secrets[len(secrets)-1] != "s3cret-xyz" {
		t.Fatalf("client built with secrets %v, want the edited one", secrets)
	}
	if got := aria.opts["split"]; got != "16" {
		t.Fatalf("split not re-applied after endpoint change, opts = %v", aria.opts)
	}
}

func TestSabnzbdConnectionChangeResyncs(t *testing.T) {
	_, store, _, _, _ := newTestDispatcher(t)
	ctx := context.Background()

	sab := &fakeSab{items: map[string]string{}}
	d := NewDispatcher(mustRegistry(t), store, &fakeDocs{})
	d.Sab = func() SabClient { return sab }
	d.Aria2, d.Qbit, d.JD, d.Serve = nil, nil, nil, nil
	d.Attach()

	if err := store.Set(ctx, "SABNZBD_ENABLED", true); err != nil {
		t.Fatal(err)
	}
	if err := store.Set(ctx, "SABNZBD_API_KEY", "key-123"); err != nil {
		t.Fatal(err)
	}
	for _, item := range []string{"misc/bandwidth_max", "misc/cache_limit", "misc/direct_unpack"} {
		if _, ok := sab.items[item]; !ok {
			t.Errorf("%s not re-applied after key change, items = %v", item, sab.items)
		}
	}
}

func mustRegistry(t *testing.T) *settings.Registry {
	t.Helper()
	reg, err := settings.NewRegistry(settings.Defaults())
	if err != nil {
		t.Fatal(err)
	}
	return reg
}
