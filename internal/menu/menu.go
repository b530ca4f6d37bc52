// Package menu renders the settings panel: a tree of paginated inline
// keyboards derived entirely from the descriptor table. Callback data is a
// space-delimited command string, "botset <action> [args...]", parsed
// positionally by the bot layer.
package menu

import (
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/mirrorops/settings-bot/internal/settings"
)

const (
	Namespace = "botset"

	// 5 rows x 2 columns of item buttons per page.
	pageSize = 10

	// Values longer than this are sent as a document, not an alert.
	InlineValueLimit = 200
)

const MainMenu = "main"

var groupTitles = map[string]string{
	settings.GroupVar:       "⚙️ Config Variables",
	settings.GroupAria2:     "🔻 Aria2 Options",
	settings.GroupQbit:      "🔻 qBittorrent Options",
	settings.GroupSabnzbd:   "🔻 Sabnzbd Options",
	settings.GroupJD:        "🔻 JDownloader",
	settings.GroupRclone:    "☁️ Rclone",
	settings.GroupMega:      "☁️ MEGA",
	settings.GroupWatermark: "🎨 Watermark",
	settings.GroupMerge:     "🧬 Merge",
	settings.GroupStreamrip: "🎵 Streamrip",
	settings.GroupMetadata:  "📝 Metadata",
}

type stateKey struct {
	chatID int64
	menu   string
}

// menuState remembers where a chat last was inside one menu. Scoped per
// (chat, menu) so two admins never see each other's page or mode.
type menuState struct {
	page int
	edit bool
}

type Tree struct {
	reg   *settings.Registry
	store *settings.Store
	state *lru.Cache[stateKey, *menuState]
}

func NewTree(reg *settings.Registry, store *settings.Store) (*Tree, error) {
	// Bounded: eviction only forgets a remembered page, falling back to 0.
	cache, err := lru.New[stateKey, *menuState](2048)
	if err != nil {
		return nil, err
	}
	return &Tree{reg: reg, store: store, state: cache}, nil
}

func (t *Tree) stateOf(chatID int64, menu string) *menuState {
	k := stateKey{chatID, menu}
	if st, ok := t.state.Get(k); ok {
		return st
	}
	st := &menuState{}
	t.state.Add(k, st)
	return st
}

// PageOf returns the remembered page for a chat's menu.
func (t *Tree) PageOf(chatID int64, menu string) int {
	return t.stateOf(chatID, menu).page
}

// SetPage remembers the page, normalized against the menu's page count.
func (t *Tree) SetPage(chatID int64, menu string, page int) {
	t.stateOf(chatID, menu).page = t.normalizePage(chatID, menu, page)
}

// EditMode reports whether the chat's menu is in edit (vs view) mode.
func (t *Tree) EditMode(chatID int64, menu string) bool {
	return t.stateOf(chatID, menu).edit
}

// ToggleMode flips the chat's menu between view and edit.
func (t *Tree) ToggleMode(chatID int64, menu string) {
	st := t.stateOf(chatID, menu)
	st.edit = !st.edit
}

// VisibleKeys lists the keys a group menu renders. When the group has a
// feature toggle and it is off, only the toggle shows; enabling it reveals
// the gated controls.
func (t *Tree) VisibleKeys(group string) []string {
	keys := t.reg.GroupKeys(group)
	enableKey, ok := t.reg.EnableKey(group)
	if ok && !t.store.GetBool(enableKey) {
		return []string{enableKey}
	}
	return keys
}

func (t *Tree) pageCount(group string) int {
	n := len(t.VisibleKeys(group))
	if n == 0 {
		return 1
	}
	return (n + pageSize - 1) / pageSize
}

// normalizePage applies the wraparound policy: one past the last page wraps
// to 0, page -1 wraps to the last page.
func (t *Tree) normalizePage(chatID int64, menu string, page int) int {
	if menu == MainMenu {
		return 0
	}
	total := t.pageCount(menu)
	return ((page % total) + total) % total
}

// RenderMain builds the root menu.
func (t *Tree) RenderMain(chatID int64) (string, tgbotapi.InlineKeyboardMarkup) {
	var rows [][]tgbotapi.InlineKeyboardButton
	row := []tgbotapi.InlineKeyboardButton{}
	for _, g := range t.reg.Groups() {
		title := groupTitles[g]
		if title == "" {
			title = g
		}
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(title, cmd("menu", g, "0")))
		if len(row) == 2 {
			rows = append(rows, row)
			row = []tgbotapi.InlineKeyboardButton{}
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	rows = append(rows,
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📤 Export", cmd("export")),
			tgbotapi.NewInlineKeyboardButtonData("📥 Import", cmd("import")),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🛟 Backup", cmd("backup")),
			tgbotapi.NewInlineKeyboardButtonData("👥 Admins", cmd("admins")),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("❌ Close", cmd("close")),
		),
	)
	text := "⚙️ Bot Settings\n\nPick a section. View mode shows values, edit mode opens an edit prompt."
	return text, tgbotapi.InlineKeyboardMarkup{InlineKeyboard: rows}
}

// RenderGroup builds one paginated group menu at the given page.
func (t *Tree) RenderGroup(chatID int64, group string, page int) (string, tgbotapi.InlineKeyboardMarkup) {
	keys := t.VisibleKeys(group)
	total := t.pageCount(group)
	page = t.normalizePage(chatID, group, page)
	t.stateOf(chatID, group).page = page

	start := page * pageSize
	end := start + pageSize
	if start > len(keys) {
		start = len(keys)
	}
	if end > len(keys) {
		end = len(keys)
	}

	edit := t.EditMode(chatID, group)

	var rows [][]tgbotapi.InlineKeyboardButton
	row := []tgbotapi.InlineKeyboardButton{}
	for _, key := range keys[start:end] {
		d, _ := t.reg.Get(key)
		row = append(row, t.itemButton(d, edit))
		if len(row) == 2 {
			rows = append(rows, row)
			row = []tgbotapi.InlineKeyboardButton{}
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}

	if total > 1 {
		pageRow := []tgbotapi.InlineKeyboardButton{}
		for p := 0; p < total; p++ {
			label := fmt.Sprintf("%d", p+1)
			if p == page {
				label = fmt.Sprintf("[%d]", p+1)
			}
			pageRow = append(pageRow, tgbotapi.NewInlineKeyboardButtonData(label, cmd("page", group, fmt.Sprintf("%d", p))))
		}
		rows = append(rows, pageRow)
	}

	modeLabel := "✏️ Edit"
	if edit {
		modeLabel = "👁 View"
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData(modeLabel, cmd("mode", group)),
		tgbotapi.NewInlineKeyboardButtonData("⬅️ Back", cmd("menu", MainMenu, "0")),
		tgbotapi.NewInlineKeyboardButtonData("❌ Close", cmd("close")),
	))

	title := groupTitles[group]
	if title == "" {
		title = group
	}
	mode := "view"
	if edit {
		mode = "edit"
	}
	text := fmt.Sprintf("%s\n\nMode: %s\nPage: %d/%d", title, mode, page+1, total)
	return text, tgbotapi.InlineKeyboardMarkup{InlineKeyboard: rows}
}

func (t *Tree) itemButton(d settings.Descriptor, edit bool) tgbotapi.InlineKeyboardButton {
	if d.Kind == settings.KindBool {
		mark := "⬜️"
		if t.store.GetBool(d.Key) {
			mark = "✅"
		}
		return tgbotapi.NewInlineKeyboardButtonData(mark+" "+truncate(d.Key, 26), cmd("toggle", d.Key))
	}
	action := "view"
	if edit {
		action = "edit"
	}
	return tgbotapi.NewInlineKeyboardButtonData(truncate(d.Key, 28), cmd(action, d.Key))
}

// RenderPrompt builds the edit-prompt message for one key.
func (t *Tree) RenderPrompt(chatID int64, key string) (string, tgbotapi.InlineKeyboardMarkup) {
	d, _ := t.reg.Get(key)

	var b strings.Builder
	fmt.Fprintf(&b, "✏️ %s (%s)\n\n", d.Key, d.Kind)
	fmt.Fprintf(&b, "Current: %s\n", t.DisplayValue(key))
	if d.Help != "" {
		fmt.Fprintf(&b, "\n%s\n", d.Help)
	}
	if len(d.Options) > 0 {
		fmt.Fprintf(&b, "\nOptions: %s\n", strings.Join(d.Options, ", "))
	}
	if d.Kind == settings.KindFile {
		b.WriteString("\nSend the file as a photo or document.")
	} else {
		b.WriteString("\nSend the new value as a message.")
	}
	b.WriteString("\nTimeout: 60s")
	if d.Sensitive {
		b.WriteString("\n\n⚠️ Sensitive value. A restart may be required to take effect.")
	}

	var rows [][]tgbotapi.InlineKeyboardButton
	navRow := []tgbotapi.InlineKeyboardButton{
		tgbotapi.NewInlineKeyboardButtonData("⬅️ Back", cmd("menu", d.Group, fmt.Sprintf("%d", t.PageOf(chatID, d.Group)))),
	}
	if !d.NoReset {
		navRow = append(navRow, tgbotapi.NewInlineKeyboardButtonData("🔄 Reset", cmd("reset", d.Key)))
	}
	navRow = append(navRow, tgbotapi.NewInlineKeyboardButtonData("❌ Close", cmd("close")))
	rows = append(rows, navRow)
	return b.String(), tgbotapi.InlineKeyboardMarkup{InlineKeyboard: rows}
}

// DisplayValue renders a key's current value for the UI. Secret kinds and
// sensitive keys are masked.
func (t *Tree) DisplayValue(key string) string {
	d, ok := t.reg.Get(key)
	if !ok {
		return ""
	}
	v := t.store.Get(key)
	if d.Sensitive || d.Kind == settings.KindSecret {
		return settings.MaskSecret(d.FormatValue(v))
	}
	out := d.FormatValue(v)
	if out == "" {
		return "—"
	}
	return out
}

// Overflows reports whether a key's display value is too long for an inline
// alert and must be sent as a document.
func (t *Tree) Overflows(key string) bool {
	return len([]rune(t.DisplayValue(key))) > InlineValueLimit
}

func cmd(action string, args ...string) string {
	parts := append([]string{Namespace, action}, args...)
	return strings.Join(parts, " ")
}

func truncate(s string, n int) string {
	rs := []rune(s)
	if len(rs) <= n {
		return s
	}
	return string(rs[:n-1]) + "…"
}
