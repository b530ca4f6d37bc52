package settings

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/mirrorops/settings-bot/internal/log"
)

// Persister is the durable backend for the key-value map. *db.DB satisfies
// it; tests use an in-memory fake.
type Persister interface {
	LoadSettings(ctx context.Context) (map[string]string, error)
	SaveSettings(ctx context.Context, kv map[string]string) error
	DeleteSettings(ctx context.Context, keys []string) error
}

// CommitHook runs after a value is durably persisted. The dispatcher
// registers itself here; hook failures never propagate back into Set.
type CommitHook func(key string, value any)

// Store owns the canonical runtime values. The in-memory mirror is the UI's
// source of truth; persistence is retried in the background on failure.
type Store struct {
	reg     *Registry
	persist Persister

	mu   sync.RWMutex
	vals map[string]any

	hookMu sync.Mutex
	hook   CommitHook
	warn   func(msg string)

	attempts int
	backoff  time.Duration
}

func NewStore(ctx context.Context, reg *Registry, persist Persister) (*Store, error) {
	s := &Store{
		reg:      reg,
		persist:  persist,
		vals:     map[string]any{},
		attempts: 3,
		backoff:  250 * time.Millisecond,
	}
	saved, err := persist.LoadSettings(ctx)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	for k, raw := range saved {
		d, ok := reg.Get(k)
		if !ok {
			log.Warn("store").Str("key", k).Msg("ignoring persisted value for undeclared key")
			continue
		}
		v, err := decodeValue(d, raw)
		if err != nil {
			log.Warn("store").Str("key", k).Err(err).Msg("persisted value did not decode, using default")
			continue
		}
		s.vals[k] = v
	}
	return s, nil
}

// OnCommit registers the post-persist hook. At most one is supported.
func (s *Store) OnCommit(h CommitHook) {
	s.hookMu.Lock()
	s.hook = h
	s.hookMu.Unlock()
}

// OnWarn registers the non-blocking persistent-failure warning sink.
func (s *Store) OnWarn(w func(msg string)) {
	s.hookMu.Lock()
	s.warn = w
	s.hookMu.Unlock()
}

// Get returns the current value, or the descriptor default when the key has
// never been set. Unknown keys return nil.
func (s *Store) Get(key string) any {
	d, ok := s.reg.Get(key)
	if !ok {
		return nil
	}
	s.mu.RLock()
	v, ok := s.vals[key]
	s.mu.RUnlock()
	if !ok {
		return d.Default
	}
	return v
}

func (s *Store) GetBool(key string) bool {
	b, _ := s.Get(key).(bool)
	return b
}

func (s *Store) GetInt(key string) int64 {
	n, _ := s.Get(key).(int64)
	return n
}

func (s *Store) GetFloat(key string) float64 {
	f, _ := s.Get(key).(float64)
	return f
}

func (s *Store) GetString(key string) string {
	v, _ := s.Get(key).(string)
	return v
}

func (s *Store) GetList(key string) []string {
	l, _ := s.Get(key).([]string)
	return l
}

// Snapshot returns a copy of every declared key's current value.
func (s *Store) Snapshot() map[string]any {
	out := make(map[string]any, s.reg.Len())
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, d := range s.reg.All() {
		if v, ok := s.vals[d.Key]; ok {
			out[d.Key] = v
		} else {
			out[d.Key] = d.Default
		}
	}
	return out
}

// Set commits one value: memory first, then a durable upsert, then the
// commit hook. Setting a bool true inside a mutual-exclusion group clears
// its siblings in the same batch. Unknown keys log and no-op.
func (s *Store) Set(ctx context.Context, key string, value any) error {
	d, ok := s.reg.Get(key)
	if !ok {
		log.Warn("store").Str("key", key).Msg("set on undeclared key ignored")
		return nil
	}
	value, err := normalize(d, value)
	if err != nil {
		return err
	}

	changed := map[string]any{key: value}
	if d.ExclusiveWith != "" {
		if on, _ := value.(bool); on {
			for _, sib := range s.reg.ExclusiveSiblings(key) {
				changed[sib] = false
			}
		}
	}

	s.mu.Lock()
	for k, v := range changed {
		s.vals[k] = v
	}
	s.mu.Unlock()

	if err := s.persistValues(ctx, changed); err != nil {
		// Memory already moved; the UI keeps showing the new value.
		s.warnf("saving %s failed after retries: %v", key, err)
		return nil
	}
	s.fireHook(key, value)
	return nil
}

// Reset sets the key back to its descriptor default through the normal Set
// path, so side effects still fire.
func (s *Store) Reset(ctx context.Context, key string) error {
	d, ok := s.reg.Get(key)
	if !ok {
		log.Warn("store").Str("key", key).Msg("reset on undeclared key ignored")
		return nil
	}
	return s.Set(ctx, key, d.Default)
}

// ResetGroup restores every key of a group to its default as one batched,
// atomic persist. Keys listed in except are left alone. Commit hooks do not
// fire (cascades would recurse); callers re-render instead.
func (s *Store) ResetGroup(ctx context.Context, group string, except ...string) error {
	skip := map[string]bool{}
	for _, k := range except {
		skip[k] = true
	}
	changed := map[string]any{}
	for _, k := range s.reg.GroupKeys(group) {
		if skip[k] {
			continue
		}
		d, _ := s.reg.Get(k)
		changed[k] = d.Default
	}
	if len(changed) == 0 {
		return nil
	}
	s.mu.Lock()
	for k, v := range changed {
		s.vals[k] = v
	}
	s.mu.Unlock()
	if err := s.persistValues(ctx, changed); err != nil {
		s.warnf("saving group %s reset failed after retries: %v", group, err)
	}
	return nil
}

func (s *Store) persistValues(ctx context.Context, changed map[string]any) error {
	kv := make(map[string]string, len(changed))
	for k, v := range changed {
		d, _ := s.reg.Get(k)
		kv[k] = encodeValue(d, v)
	}
	var err error
	delay := s.backoff
	for attempt := 0; attempt < s.attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return ctx.Err()
			}
			delay *= 2
		}
		if err = s.persist.SaveSettings(ctx, kv); err == nil {
			return nil
		}
		log.Warn("store").Err(err).Int("attempt", attempt+1).Msg("settings upsert failed")
	}
	return err
}

func (s *Store) fireHook(key string, value any) {
	s.hookMu.Lock()
	h := s.hook
	s.hookMu.Unlock()
	if h != nil {
		h(key, value)
	}
}

func (s *Store) warnf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	log.Error("store").Msg(msg)
	s.hookMu.Lock()
	w := s.warn
	s.hookMu.Unlock()
	if w != nil {
		w(msg)
	}
}

// ExportJSON serializes the whole map for the panel's export button.
func (s *Store) ExportJSON() ([]byte, error) {
	snap := s.Snapshot()
	enc := make(map[string]string, len(snap))
	for k, v := range snap {
		d, _ := s.reg.Get(k)
		enc[k] = encodeValue(d, v)
	}
	payload := map[string]any{
		"version":  1,
		"settings": enc,
	}
	return json.MarshalIndent(payload, "", "  ")
}

// ImportJSON applies an exported map: known keys are decoded and persisted
// as one batch, unknown keys are skipped. No commit hooks fire; the caller
// is expected to restart dependent clients explicitly.
func (s *Store) ImportJSON(ctx context.Context, data []byte) error {
	var payload struct {
		Version  int               `json:"version"`
		Settings map[string]string `json:"settings"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return err
	}
	if payload.Version != 1 {
		return fmt.Errorf("unsupported settings version: %d", payload.Version)
	}
	changed := map[string]any{}
	for k, raw := range payload.Settings {
		d, ok := s.reg.Get(k)
		if !ok {
			log.Warn("store").Str("key", k).Msg("import: skipping undeclared key")
			continue
		}
		v, err := decodeValue(d, raw)
		if err != nil {
			log.Warn("store").Str("key", k).Err(err).Msg("import: skipping undecodable value")
			continue
		}
		changed[k] = v
	}
	if len(changed) == 0 {
		return nil
	}
	s.applyExclusions(changed)
	s.mu.Lock()
	for k, v := range changed {
		s.vals[k] = v
	}
	s.mu.Unlock()
	return s.persistValues(ctx, changed)
}

// applyExclusions enforces mutual-exclusion groups on an imported batch the
// same way Set does: a true flag switches its siblings off, whether they
// arrived in the batch or were already on. Keys are walked in sorted order
// so a batch with several conflicting flags resolves deterministically.
func (s *Store) applyExclusions(changed map[string]any) {
	keys := make([]string, 0, len(changed))
	for k := range changed {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		on, ok := changed[k].(bool)
		if !ok || !on {
			continue
		}
		for _, sib := range s.reg.ExclusiveSiblings(k) {
			if sv, present := changed[sib]; present {
				if sb, _ := sv.(bool); sb {
					changed[sib] = false
				}
			} else if cur, _ := s.Get(sib).(bool); cur {
				changed[sib] = false
			}
		}
	}
}

// normalize coerces convenient caller types (int, float32) into the stored
// representation and rejects type mismatches.
func normalize(d Descriptor, v any) (any, error) {
	switch d.Kind {
	case KindBool:
		if b, ok := v.(bool); ok {
			return b, nil
		}
	case KindInt, KindSize:
		switch n := v.(type) {
		case int64:
			return n, nil
		case int:
			return int64(n), nil
		}
	case KindFloat:
		switch f := v.(type) {
		case float64:
			return f, nil
		case int:
			return float64(f), nil
		}
	case KindEnum:
		if sv, ok := v.(string); ok {
			for _, o := range d.Options {
				if o == sv {
					return sv, nil
				}
			}
			return nil, fmt.Errorf("%s: %q not in options %v", d.Key, sv, d.Options)
		}
	case KindString, KindSecret, KindPath, KindFile:
		if sv, ok := v.(string); ok {
			return sv, nil
		}
	case KindList:
		if l, ok := v.([]string); ok {
			return l, nil
		}
	}
	return nil, fmt.Errorf("%s: value %T does not match kind %s", d.Key, v, d.Kind)
}

func encodeValue(d Descriptor, v any) string {
	switch d.Kind {
	case KindBool:
		b, _ := v.(bool)
		return strconv.FormatBool(b)
	case KindInt, KindSize:
		n, _ := v.(int64)
		return strconv.FormatInt(n, 10)
	case KindFloat:
		f, _ := v.(float64)
		return strconv.FormatFloat(f, 'g', -1, 64)
	case KindList:
		l, _ := v.([]string)
		b, _ := json.Marshal(l)
		return string(b)
	}
	s, _ := v.(string)
	return s
}

func decodeValue(d Descriptor, raw string) (any, error) {
	switch d.Kind {
	case KindBool:
		return strconv.ParseBool(raw)
	case KindInt, KindSize:
		return strconv.ParseInt(raw, 10, 64)
	case KindFloat:
		return strconv.ParseFloat(raw, 64)
	case KindEnum:
		for _, o := range d.Options {
			if o == raw {
				return raw, nil
			}
		}
		return nil, fmt.Errorf("%q not in options %v", raw, d.Options)
	case KindList:
		var l []string
		if err := json.Unmarshal([]byte(raw), &l); err != nil {
			return nil, err
		}
		return l, nil
	}
	return raw, nil
}
