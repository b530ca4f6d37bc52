package settings

import "fmt"

// Kind is the declared value type of a setting. It decides how raw input is
// coerced, how the value is rendered, and what the edit prompt accepts.
type Kind string

const (
	KindBool   Kind = "bool"
	KindInt    Kind = "int"
	KindFloat  Kind = "float"
	KindString Kind = "string"
	KindEnum   Kind = "enum"
	KindList   Kind = "list"
	KindSecret Kind = "secret"
	KindPath   Kind = "path"
	// KindSize is an int64 byte count entered either as a plain number or a
	// humanized suffix form ("2GB", "512 MiB").
	KindSize Kind = "size"
	// KindFile expects a document/photo reply; the blob is stored per user,
	// not in the key-value map.
	KindFile Kind = "file"
)

// Menu groups. Group membership is the single source of truth for which menu
// a key renders in, which back target it uses, and which cascade boundary it
// belongs to.
const (
	GroupVar       = "var"
	GroupAria2     = "aria2"
	GroupQbit      = "qbit"
	GroupSabnzbd   = "sab"
	GroupJD        = "jd"
	GroupRclone    = "rclone"
	GroupMega      = "mega"
	GroupWatermark = "watermark"
	GroupMerge     = "merge"
	GroupStreamrip = "streamrip"
	GroupMetadata  = "metadata"
)

// Side-effect hook ids, resolved by the dispatcher after a durable commit.
const (
	EffectAria2       = "aria2"
	EffectQbit        = "qbit"
	EffectSabnzbd     = "sab"
	EffectRcloneServe = "rclone_serve"
	EffectJD          = "jd"
	EffectCascade     = "cascade"
	EffectThumb       = "thumb"
)

type Descriptor struct {
	Key     string
	Group   string
	Kind    Kind
	Default any
	Help    string

	// Options is the allowed value set for KindEnum.
	Options []string

	// ExclusiveWith names a mutual-exclusion group: committing true to a
	// bool key clears every sibling with the same name.
	ExclusiveWith string

	// SideEffect is the dispatcher hook id, empty for none.
	SideEffect string

	// Sensitive values are masked in view mode and trigger an admin
	// notification with a restart warning when changed.
	Sensitive bool

	// NoReset hides the reset-to-default button (tokens, owner id).
	NoReset bool
}

// Registry holds the full descriptor table, indexed by key and by group.
// It is built once at startup and never mutated afterwards.
type Registry struct {
	byKey  map[string]Descriptor
	groups map[string][]string // group -> keys in table order
	order  []string            // group names in first-seen order
}

func NewRegistry(descs []Descriptor) (*Registry, error) {
	r := &Registry{
		byKey:  make(map[string]Descriptor, len(descs)),
		groups: map[string][]string{},
	}
	for _, d := range descs {
		if d.Key == "" || d.Group == "" {
			return nil, fmt.Errorf("descriptor with empty key or group: %+v", d)
		}
		if _, dup := r.byKey[d.Key]; dup {
			return nil, fmt.Errorf("duplicate descriptor key %s", d.Key)
		}
		if err := validateDescriptor(d); err != nil {
			return nil, err
		}
		r.byKey[d.Key] = d
		if _, seen := r.groups[d.Group]; !seen {
			r.order = append(r.order, d.Group)
		}
		r.groups[d.Group] = append(r.groups[d.Group], d.Key)
	}
	return r, nil
}

func validateDescriptor(d Descriptor) error {
	switch d.Kind {
	case KindBool:
		if _, ok := d.Default.(bool); !ok {
			return fmt.Errorf("%s: bool default must be bool, got %T", d.Key, d.Default)
		}
	case KindInt, KindSize:
		if _, ok := d.Default.(int64); !ok {
			return fmt.Errorf("%s: %s default must be int64, got %T", d.Key, d.Kind, d.Default)
		}
	case KindFloat:
		if _, ok := d.Default.(float64); !ok {
			return fmt.Errorf("%s: float default must be float64, got %T", d.Key, d.Default)
		}
	case KindEnum:
		def, ok := d.Default.(string)
		if !ok {
			return fmt.Errorf("%s: enum default must be string, got %T", d.Key, d.Default)
		}
		if len(d.Options) == 0 {
			return fmt.Errorf("%s: enum without options", d.Key)
		}
		found := false
		for _, o := range d.Options {
			if o == def {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("%s: enum default %q not in options", d.Key, def)
		}
	case KindString, KindSecret, KindPath, KindFile:
		if _, ok := d.Default.(string); !ok {
			return fmt.Errorf("%s: %s default must be string, got %T", d.Key, d.Kind, d.Default)
		}
	case KindList:
		if _, ok := d.Default.([]string); !ok {
			return fmt.Errorf("%s: list default must be []string, got %T", d.Key, d.Default)
		}
	default:
		return fmt.Errorf("%s: unknown kind %q", d.Key, d.Kind)
	}
	if d.ExclusiveWith != "" && d.Kind != KindBool {
		return fmt.Errorf("%s: exclusion groups only apply to bool keys", d.Key)
	}
	return nil
}

func (r *Registry) Get(key string) (Descriptor, bool) {
	d, ok := r.byKey[key]
	return d, ok
}

// GroupKeys returns the group's keys in table order.
func (r *Registry) GroupKeys(group string) []string {
	keys := r.groups[group]
	out := make([]string, len(keys))
	copy(out, keys)
	return out
}

// Groups returns group names in table order.
func (r *Registry) Groups() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Len returns the number of declared keys.
func (r *Registry) Len() int { return len(r.byKey) }

// All returns every descriptor, grouped in table order.
func (r *Registry) All() []Descriptor {
	out := make([]Descriptor, 0, len(r.byKey))
	for _, g := range r.order {
		for _, k := range r.groups[g] {
			out = append(out, r.byKey[k])
		}
	}
	return out
}

// ExclusiveSiblings returns the keys sharing the descriptor's exclusion
// group, excluding the key itself.
func (r *Registry) ExclusiveSiblings(key string) []string {
	d, ok := r.byKey[key]
	if !ok || d.ExclusiveWith == "" {
		return nil
	}
	var out []string
	for _, g := range r.order {
		for _, k := range r.groups[g] {
			if k == key {
				continue
			}
			if r.byKey[k].ExclusiveWith == d.ExclusiveWith {
				out = append(out, k)
			}
		}
	}
	return out
}

// EnableKey returns the feature toggle key gating the group, if the group
// declares one ("<GROUP>_ENABLED" by convention of the table, found by its
// cascade side effect).
func (r *Registry) EnableKey(group string) (string, bool) {
	for _, k := range r.groups[group] {
		d := r.byKey[k]
		if d.Kind == KindBool && d.SideEffect == EffectCascade {
			return k, true
		}
	}
	return "", false
}
