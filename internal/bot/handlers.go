package bot

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/mirrorops/settings-bot/internal/db"
	"github.com/mirrorops/settings-bot/internal/log"
	"github.com/mirrorops/settings-bot/internal/menu"
	"github.com/mirrorops/settings-bot/internal/session"
	"github.com/mirrorops/settings-bot/internal/settings"
)

func (a *App) handleCallback(q tgbotapi.CallbackQuery) {
	if q.Message == nil || q.From == nil {
		return
	}
	chatID := q.Message.Chat.ID
	msgID := q.Message.MessageID
	userID := q.From.ID

	admin, super := a.authorize(userID, q.Message.Chat.Type == "private")
	if !admin {
		_ = a.tr.Answer(q.ID, "Not authorized", true)
		return
	}

	parts := strings.Fields(q.Data)
	if len(parts) < 2 || parts[0] != menu.Namespace {
		_ = a.tr.Answer(q.ID, "", false)
		return
	}
	action, args := parts[1], parts[2:]

	ack := ""
	alert := false

	switch action {
	case "menu":
		a.sessions.Cancel(chatID)
		name := menu.MainMenu
		page := 0
		if len(args) > 0 {
			name = args[0]
		}
		if len(args) > 1 {
			page, _ = strconv.Atoi(args[1])
		}
		if name == menu.MainMenu {
			a.sendMainMenu(chatID, msgID)
		} else {
			a.sendGroupMenu(chatID, msgID, name, page)
		}

	case "page":
		if len(args) < 2 {
			break
		}
		p, _ := strconv.Atoi(args[1])
		a.tree.SetPage(chatID, args[0], p)
		a.sendGroupMenu(chatID, msgID, args[0], a.tree.PageOf(chatID, args[0]))

	case "mode":
		if len(args) < 1 {
			break
		}
		a.tree.ToggleMode(chatID, args[0])
		a.sendGroupMenu(chatID, msgID, args[0], a.tree.PageOf(chatID, args[0]))

	case "toggle":
		if len(args) < 1 {
			break
		}
		ack = a.toggleBool(chatID, msgID, args[0])

	case "view":
		if len(args) < 1 {
			break
		}
		ack, alert = a.viewValue(chatID, args[0])

	case "edit":
		if len(args) < 1 {
			break
		}
		a.beginEdit(chatID, msgID, userID, args[0])

	case "reset":
		if len(args) < 1 {
			break
		}
		ack = a.resetKey(chatID, msgID, args[0])

	case "close":
		a.sessions.Cancel(chatID)
		a.tr.Delete(chatID, msgID)

	case "export":
		a.exportSettings(chatID)
		ack = "Exported"

	case "import":
		a.beginFlow(chatID, msgID, userID, awaitImport,
			"📥 Import Settings\n\nSend the exported JSON as a document or message text.\nUnknown keys are skipped.\nTimeout: 60s")

	case "backup":
		a.sendBackupMenu(chatID, msgID)

	case "dbbackup":
		a.sendDBBackup(chatID)
		ack = "Backup sent"

	case "dbrestore":
		if !super {
			ack, alert = "Super admin only", true
			break
		}
		a.beginFlow(chatID, msgID, userID, awaitRestore,
			"♻️ Restore Database\n\nSend a bot.db file. The current database is kept aside as a rollback copy.\nTimeout: 60s")

	case "admins":
		a.sendAdminsMenu(chatID, msgID)

	case "adminadd":
		if !super {
			ack, alert = "Super admin only", true
			break
		}
		a.beginFlow(chatID, msgID, userID, awaitAdminAdd,
			"👥 Add Admin\n\nSend the numeric Telegram user ID.\nTimeout: 60s")

	case "adminrm":
		if !super {
			ack, alert = "Super admin only", true
			break
		}
		if len(args) < 1 {
			break
		}
		id, _ := strconv.ParseInt(args[0], 10, 64)
		if err := a.db.RemoveAdmin(context.Background(), id); err != nil {
			log.Warn("bot").Err(err).Msg("remove admin failed")
		}
		a.sendAdminsMenu(chatID, msgID)
		ack = "Removed"

	case "noop":
	default:
		log.Debug("bot").Str("action", action).Msg("unknown callback action")
	}

	_ = a.tr.Answer(q.ID, ack, alert)
}

func (a *App) toggleBool(chatID int64, msgID int, key string) string {
	d, ok := a.reg.Get(key)
	if !ok || d.Kind != settings.KindBool {
		return ""
	}
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	next := !a.store.GetBool(key)
	if err := a.store.Set(ctx, key, next); err != nil {
		log.Warn("bot").Str("key", key).Err(err).Msg("toggle failed")
	}
	a.sendGroupMenu(chatID, msgID, d.Group, a.tree.PageOf(chatID, d.Group))
	if next {
		return key + ": on"
	}
	return key + ": off"
}

func (a *App) viewValue(chatID int64, key string) (string, bool) {
	d, ok := a.reg.Get(key)
	if !ok {
		return "", false
	}
	val := a.tree.DisplayValue(key)
	if a.tree.Overflows(key) {
		name := strings.ToLower(key) + ".txt"
		if err := a.tr.SendDocument(chatID, name, []byte(val), "📄 "+key); err != nil {
			log.Warn("bot").Str("key", key).Err(err).Msg("send value document failed")
		}
		return "Value sent as file", false
	}
	return fmt.Sprintf("%s = %s", d.Key, val), true
}

func (a *App) beginEdit(chatID int64, msgID int, userID int64, key string) {
	d, ok := a.reg.Get(key)
	if !ok {
		return
	}
	text, kb := a.tree.RenderPrompt(chatID, key)
	a.editOrSend(chatID, msgID, text, &kb)
	s := a.sessions.Begin(chatID, userID, key, d.Group, a.tree.PageOf(chatID, d.Group), msgID)
	go a.awaitReply(s)
}

// beginFlow opens a pseudo-key session (import, restore, add admin) whose
// prompt replaces the current menu message.
func (a *App) beginFlow(chatID int64, msgID int, userID int64, key, prompt string) {
	kb := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("⬅️ Back", "botset menu main 0"),
			tgbotapi.NewInlineKeyboardButtonData("❌ Close", "botset close"),
		),
	)
	a.editOrSend(chatID, msgID, prompt, &kb)
	s := a.sessions.Begin(chatID, userID, key, menu.MainMenu, 0, msgID)
	go a.awaitReply(s)
}

func (a *App) resetKey(chatID int64, msgID int, key string) string {
	d, ok := a.reg.Get(key)
	if !ok || d.NoReset {
		return ""
	}
	a.sessions.Cancel(chatID)
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := a.store.Reset(ctx, key); err != nil {
		log.Warn("bot").Str("key", key).Err(err).Msg("reset failed")
		return "Reset failed"
	}
	a.sendGroupMenu(chatID, msgID, d.Group, a.tree.PageOf(chatID, d.Group))
	return "Reset to default"
}

func (a *App) exportSettings(chatID int64) {
	data, err := a.store.ExportJSON()
	if err != nil {
		log.Warn("bot").Err(err).Msg("export failed")
		_, _ = a.tr.Send(chatID, "❌ Export failed: "+err.Error(), nil)
		return
	}
	name := fmt.Sprintf("settings_%s.json", time.Now().Format("20060102_150405"))
	if err := a.tr.SendDocument(chatID, name, data, "📤 Settings export"); err != nil {
		log.Warn("bot").Err(err).Msg("send export failed")
	}
}

func (a *App) finishImport(ctx context.Context, s *session.Session, r session.Reply) {
	data := []byte(r.Text)
	if r.FileID != "" {
		b, err := a.tr.Download(r.FileID)
		if err != nil {
			log.Warn("bot").Err(err).Msg("import download failed")
			_, _ = a.tr.Send(s.ChatID, "❌ Import failed: could not download file", nil)
			return
		}
		data = b
	}
	if err := a.store.ImportJSON(ctx, data); err != nil {
		_, _ = a.tr.Send(s.ChatID, "❌ Import failed: "+err.Error(), nil)
		return
	}
	a.sendMainMenu(s.ChatID, s.PromptID)
	_, _ = a.tr.Send(s.ChatID, "✅ Settings imported", nil)
}

func (a *App) sendBackupMenu(chatID int64, msgID int) {
	text := "🛟 Backup / Restore\n\n• Backup DB sends a consistent snapshot of bot.db.\n• Restore DB replaces the database with a file you send."
	kb := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📦 Backup DB", "botset dbbackup"),
			tgbotapi.NewInlineKeyboardButtonData("♻️ Restore DB", "botset dbrestore"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("⬅️ Back", "botset menu main 0"),
		),
	)
	a.editOrSend(chatID, msgID, text, &kb)
}

func (a *App) sendDBBackup(chatID int64) {
	// VACUUM INTO produces a consistent snapshot even under WAL.
	tmp := filepath.Join(a.dataDir, fmt.Sprintf("backup_%d_bot.db", time.Now().Unix()))
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := a.db.BackupTo(ctx, tmp); err != nil {
		log.Warn("bot").Err(err).Msg("vacuum backup failed")
		_, _ = a.tr.Send(chatID, "❌ Backup failed: "+err.Error(), nil)
		return
	}
	if err := a.tr.SendDocumentPath(chatID, tmp, "📦 Database backup"); err != nil {
		log.Warn("bot").Err(err).Msg("send backup failed")
	}
	_ = os.Remove(tmp)
}

func (a *App) finishRestore(ctx context.Context, s *session.Session, r session.Reply) {
	if r.FileID == "" {
		_, _ = a.tr.Send(s.ChatID, "❌ Restore needs a database file", nil)
		return
	}
	if err := a.restoreDB(ctx, r.FileID); err != nil {
		_, _ = a.tr.Send(s.ChatID, "❌ Restore failed: "+err.Error(), nil)
		return
	}
	a.sendMainMenu(s.ChatID, s.PromptID)
	_, _ = a.tr.Send(s.ChatID, "✅ Database restored", nil)
}

// restoreDB swaps bot.db for a downloaded file, keeping the old database
// as a rollback copy, then rebuilds the settings stack on the new handle.
func (a *App) restoreDB(ctx context.Context, fileID string) error {
	data, err := a.tr.Download(fileID)
	if err != nil {
		return err
	}
	tmp := filepath.Join(a.dataDir, "restore_tmp.db")
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}

	_ = a.db.Close()
	_ = os.Remove(a.dbPath + "-wal")
	_ = os.Remove(a.dbPath + "-shm")

	rollback := filepath.Join(a.dataDir, fmt.Sprintf("pre_restore_%d.db", time.Now().Unix()))
	_ = os.Rename(a.dbPath, rollback)

	if err := os.Rename(tmp, a.dbPath); err != nil {
		_ = os.Rename(rollback, a.dbPath)
		return a.reopenDB(ctx)
	}
	if err := a.reopenDB(ctx); err != nil {
		// Bad file: put the old database back.
		_ = os.Rename(a.dbPath, tmp)
		_ = os.Rename(rollback, a.dbPath)
		if rerr := a.reopenDB(ctx); rerr != nil {
			return rerr
		}
		return err
	}
	return nil
}

func (a *App) reopenDB(ctx context.Context) error {
	database, err := db.Open(a.dbPath)
	if err != nil {
		return err
	}
	a.db = database
	return a.buildSettings(ctx)
}

func (a *App) finishAdminAdd(ctx context.Context, s *session.Session, r session.Reply) {
	id, err := strconv.ParseInt(strings.TrimSpace(r.Text), 10, 64)
	if err != nil || id == 0 {
		_, _ = a.tr.Send(s.ChatID, "❌ Send a numeric user ID", nil)
		return
	}
	if err := a.db.AddAdmin(ctx, id, false); err != nil {
		_, _ = a.tr.Send(s.ChatID, "❌ Could not add admin: "+err.Error(), nil)
		return
	}
	a.sendAdminsMenu(s.ChatID, s.PromptID)
}

func (a *App) sendAdminsMenu(chatID int64, msgID int) {
	ctx := context.Background()
	admins, err := a.db.ListAdmins(ctx)
	if err != nil {
		log.Warn("bot").Err(err).Msg("list admins failed")
		return
	}

	var b strings.Builder
	b.WriteString("👥 Admins\n\n")
	for _, ad := range admins {
		tag := ""
		if ad.IsSuper {
			tag = " (super)"
		}
		fmt.Fprintf(&b, "• %d%s\n", ad.UserID, tag)
	}

	rows := [][]tgbotapi.InlineKeyboardButton{
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("➕ Add Admin", "botset adminadd"),
		),
	}
	rows = append(rows, removeAdminRows(admins)...)
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("⬅️ Back", "botset menu main 0"),
	))
	kb := tgbotapi.InlineKeyboardMarkup{InlineKeyboard: rows}
	a.editOrSend(chatID, msgID, b.String(), &kb)
}

func removeAdminRows(admins []db.Admin) [][]tgbotapi.InlineKeyboardButton {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, ad := range admins {
		if ad.IsSuper {
			continue
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(
				fmt.Sprintf("❌ Remove %d", ad.UserID),
				fmt.Sprintf("botset adminrm %d", ad.UserID)),
		))
	}
	return rows
}
