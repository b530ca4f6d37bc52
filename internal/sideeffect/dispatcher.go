// Package sideeffect reacts to committed setting changes: pushing options
// to running downloaders, restarting managed processes, cascading resets
// when a feature is switched off, and notifying admins of sensitive
// changes. Hook failures are logged and swallowed; the stored value is
// already durable by the time a hook runs, so the UI never sees them.
package sideeffect

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/containrrr/shoutrrr"

	"github.com/mirrorops/settings-bot/internal/clients"
	"github.com/mirrorops/settings-bot/internal/log"
	"github.com/mirrorops/settings-bot/internal/settings"
)

const hookTimeout = 30 * time.Second

// Aria2Client pushes global options to aria2c.
type Aria2Client interface {
	SetGlobalOption(ctx context.Context, key, value string) error
}

// QbitClient pushes preferences to qBittorrent.
type QbitClient interface {
	SetPreferences(ctx context.Context, prefs map[string]any) error
}

// SabClient writes SABnzbd config items.
type SabClient interface {
	SetConfig(ctx context.Context, section, keyword, value string) error
}

// ServeManager controls the rclone serve child process.
type ServeManager interface {
	Restart(opts clients.ServeOptions) error
	Stop()
}

// JDClient verifies My.JDownloader credentials.
type JDClient interface {
	Connect(ctx context.Context) (string, error)
}

// DocStore clears stored per-user blobs when a file setting is reset.
type DocStore interface {
	DeleteUserDocField(ctx context.Context, field string) error
}

type Dispatcher struct {
	reg   *settings.Registry
	store *settings.Store
	docs  DocStore

	// Client factories run at dispatch time so every push uses the
	// endpoint and credentials currently in the store. The rclone serve
	// manager is long-lived because it owns a child process.
	Aria2 func() Aria2Client
	Qbit  func() QbitClient
	Sab   func() SabClient
	JD    func() JDClient
	Serve ServeManager
}

func NewDispatcher(reg *settings.Registry, store *settings.Store, docs DocStore) *Dispatcher {
	d := &Dispatcher{reg: reg, store: store, docs: docs}
	d.Aria2 = func() Aria2Client {
		return &clients.Aria2{
			URL:    store.GetString("ARIA2_RPC_URL"),
			Secret: store.GetString("ARIA2_RPC_SECRET"),
		}
	}
	d.Qbit = func() QbitClient {
		return clients.NewQbit(
			store.GetString("QBIT_BASE_URL"),
			store.GetString("QBIT_USERNAME"),
			store.GetString("QBIT_PASSWORD"),
		)
	}
	d.Sab = func() SabClient {
		return &clients.Sabnzbd{
			BaseURL: store.GetString("SABNZBD_BASE_URL"),
			APIKey:  store.GetString("SABNZBD_API_KEY"),
		}
	}
	d.JD = func() JDClient {
		return &clients.JDownloader{
			Email:    store.GetString("JD_EMAIL"),
			Password: store.GetString("JD_PASS"),
		}
	}
	return d
}

// Attach registers the dispatcher as the store's commit hook.
func (d *Dispatcher) Attach() {
	d.store.OnCommit(d.Dispatch)
}

// Dispatch runs the hook for one committed change. It never returns an
// error; failures are logged and the stored value stands.
func (d *Dispatcher) Dispatch(key string, value any) {
	desc, ok := d.reg.Get(key)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), hookTimeout)
	defer cancel()

	if desc.Sensitive {
		d.notifySensitive(key)
	}

	var err error
	switch desc.SideEffect {
	case settings.EffectCascade:
		err = d.cascade(ctx, desc, value)
	case settings.EffectAria2:
		err = d.pushAria2(ctx, desc, value)
	case settings.EffectQbit:
		err = d.pushQbit(ctx)
	case settings.EffectSabnzbd:
		err = d.pushSabnzbd(ctx, desc, value)
	case settings.EffectRcloneServe:
		err = d.restartServe()
	case settings.EffectJD:
		err = d.verifyJD(ctx)
	case settings.EffectThumb:
		err = d.clearDoc(ctx, desc, value)
	case "":
		return
	}
	if err != nil {
		log.Warn("sideeffect").Str("key", key).Str("effect", desc.SideEffect).
			Err(err).Msg("hook failed, stored value kept")
	}
}

// cascade handles a feature toggle. Turning a feature off resets the rest
// of its group to defaults and stops anything the group was running.
func (d *Dispatcher) cascade(ctx context.Context, desc settings.Descriptor, value any) error {
	on, _ := value.(bool)
	if on {
		return nil
	}
	if desc.Group == settings.GroupRclone && d.Serve != nil {
		d.Serve.Stop()
	}
	return d.store.ResetGroup(ctx, desc.Group, desc.Key)
}

// aria2Option maps a setting key to its aria2c global-option name, e.g.
// ARIA2_MAX_CONCURRENT_DOWNLOADS becomes max-concurrent-downloads.
func aria2Option(key string) string {
	opt := strings.TrimPrefix(key, "ARIA2_")
	return strings.ReplaceAll(strings.ToLower(opt), "_", "-")
}

// optionString renders a stored value for an RPC option push.
func optionString(value any) (string, error) {
	switch v := value.(type) {
	case int64:
		return strconv.FormatInt(v, 10), nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	case bool:
		return strconv.FormatBool(v), nil
	case string:
		return v, nil
	}
	return "", fmt.Errorf("unsupported value type %T", value)
}

func (d *Dispatcher) pushAria2(ctx context.Context, desc settings.Descriptor, value any) error {
	if d.Aria2 == nil || !d.store.GetBool("ARIA2_ENABLED") {
		return nil
	}
	client := d.Aria2()
	switch desc.Key {
	case "ARIA2_RPC_URL", "ARIA2_RPC_SECRET":
		// Connection change: re-apply every option against the new endpoint.
		return d.resyncAria2(ctx, client)
	}
	raw, err := optionString(value)
	if err != nil {
		return err
	}
	return client.SetGlobalOption(ctx, aria2Option(desc.Key), raw)
}

func (d *Dispatcher) resyncAria2(ctx context.Context, client Aria2Client) error {
	for _, o := range d.reg.All() {
		if o.SideEffect != settings.EffectAria2 {
			continue
		}
		if o.Key == "ARIA2_RPC_URL" || o.Key == "ARIA2_RPC_SECRET" {
			continue
		}
		raw, err := optionString(d.store.Get(o.Key))
		if err != nil {
			continue
		}
		if err := client.SetGlobalOption(ctx, aria2Option(o.Key), raw); err != nil {
			return err
		}
	}
	return nil
}

func (d *Dispatcher) pushQbit(ctx context.Context) error {
	if d.Qbit == nil || !d.store.GetBool("QBIT_ENABLED") {
		return nil
	}
	// qBittorrent takes a whole preferences object, so push the full set.
	// Credential keys carry this effect too, which doubles as the re-login
	// since the client is rebuilt from the store on every dispatch.
	return d.Qbit().SetPreferences(ctx, map[string]any{
		"max_active_downloads": d.store.GetInt("QBIT_MAX_ACTIVE_DOWNLOADS"),
		"max_active_torrents":  d.store.GetInt("QBIT_MAX_ACTIVE_TORRENTS"),
		"max_ratio":            d.store.GetFloat("QBIT_MAX_RATIO"),
		"max_ratio_enabled":    d.store.GetFloat("QBIT_MAX_RATIO") >= 0,
		"max_seeding_time":     d.store.GetInt("QBIT_MAX_SEEDING_TIME"),
		"dl_limit":             d.store.GetInt("QBIT_DL_LIMIT"),
		"up_limit":             d.store.GetInt("QBIT_UP_LIMIT"),
	})
}

func (d *Dispatcher) pushSabnzbd(ctx context.Context, desc settings.Descriptor, value any) error {
	if d.Sab == nil || !d.store.GetBool("SABNZBD_ENABLED") {
		return nil
	}
	client := d.Sab()
	switch desc.Key {
	case "SABNZBD_BASE_URL", "SABNZBD_API_KEY":
		return d.resyncSabnzbd(ctx, client)
	case "SABNZBD_BANDWIDTH_MAX":
		n, _ := value.(int64)
		return client.SetConfig(ctx, "misc", "bandwidth_max", strconv.FormatInt(n, 10))
	case "SABNZBD_CACHE_LIMIT":
		n, _ := value.(int64)
		return client.SetConfig(ctx, "misc", "cache_limit", strconv.FormatInt(n, 10))
	case "SABNZBD_DIRECT_UNPACK":
		b, _ := value.(bool)
		v := "0"
		if b {
			v = "1"
		}
		return client.SetConfig(ctx, "misc", "direct_unpack", v)
	}
	return nil
}

func (d *Dispatcher) resyncSabnzbd(ctx context.Context, client SabClient) error {
	if err := client.SetConfig(ctx, "misc", "bandwidth_max",
		strconv.FormatInt(d.store.GetInt("SABNZBD_BANDWIDTH_MAX"), 10)); err != nil {
		return err
	}
	if err := client.SetConfig(ctx, "misc", "cache_limit",
		strconv.FormatInt(d.store.GetInt("SABNZBD_CACHE_LIMIT"), 10)); err != nil {
		return err
	}
	v := "0"
	if d.store.GetBool("SABNZBD_DIRECT_UNPACK") {
		v = "1"
	}
	return client.SetConfig(ctx, "misc", "direct_unpack", v)
}

func (d *Dispatcher) restartServe() error {
	if d.Serve == nil {
		return nil
	}
	if !d.store.GetBool("RCLONE_ENABLED") {
		d.Serve.Stop()
		return nil
	}
	return d.Serve.Restart(clients.ServeOptions{
		Remote:     d.store.GetString("RCLONE_SERVE_URL"),
		Port:       d.store.GetInt("RCLONE_SERVE_PORT"),
		User:       d.store.GetString("RCLONE_SERVE_USER"),
		Pass:       d.store.GetString("RCLONE_SERVE_PASS"),
		ConfigPath: d.store.GetString("RCLONE_PATH"),
	})
}

func (d *Dispatcher) verifyJD(ctx context.Context) error {
	if d.JD == nil || !d.store.GetBool("JD_ENABLED") {
		return nil
	}
	if d.store.GetString("JD_EMAIL") == "" || d.store.GetString("JD_PASS") == "" {
		return nil
	}
	_, err := d.JD().Connect(ctx)
	if err == nil {
		log.Info("sideeffect").Msg("jdownloader credentials verified")
	}
	return err
}

// clearDoc drops stored per-user blobs when a file setting is cleared, so
// a reset thumbnail does not linger in the database.
func (d *Dispatcher) clearDoc(ctx context.Context, desc settings.Descriptor, value any) error {
	s, _ := value.(string)
	if s != "" || d.docs == nil {
		return nil
	}
	return d.docs.DeleteUserDocField(ctx, desc.Key)
}

// notifySensitive pings the configured notification URLs when a sensitive
// value changes. The value itself is never included.
func (d *Dispatcher) notifySensitive(key string) {
	urls := d.store.GetList("NOTIFY_URLS")
	if len(urls) == 0 {
		return
	}
	sender, err := shoutrrr.CreateSender(urls...)
	if err != nil {
		log.Warn("sideeffect").Err(err).Msg("bad notification urls")
		return
	}
	msg := fmt.Sprintf("Sensitive setting %s was changed", key)
	for _, err := range sender.Send(msg, nil) {
		if err != nil {
			log.Warn("sideeffect").Str("key", key).Err(err).Msg("notify failed")
		}
	}
}
