// Package bot wires the settings panel together: long-poll update loop,
// admin gating, callback routing, and the await-one-reply edit flow.
package bot

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/mirrorops/settings-bot/internal/clients"
	"github.com/mirrorops/settings-bot/internal/config"
	"github.com/mirrorops/settings-bot/internal/db"
	"github.com/mirrorops/settings-bot/internal/log"
	"github.com/mirrorops/settings-bot/internal/menu"
	"github.com/mirrorops/settings-bot/internal/session"
	"github.com/mirrorops/settings-bot/internal/settings"
	"github.com/mirrorops/settings-bot/internal/sideeffect"
)

// Pseudo session keys for flows that await a reply but are not settings.
const (
	awaitImport   = "import_settings"
	awaitRestore  = "restore_db"
	awaitAdminAdd = "add_admin"
)

type App struct {
	cfg config.Config

	db       *db.DB
	reg      *settings.Registry
	store    *settings.Store
	tree     *menu.Tree
	sessions *session.Manager
	effects  *sideeffect.Dispatcher

	bot *tgbotapi.BotAPI
	tr  Transport

	dataDir string
	dbPath  string
}

func New(cfg config.Config) (*App, error) {
	if err := os.MkdirAll(cfg.DataDir, 0o750); err != nil {
		return nil, err
	}
	dbPath := filepath.Join(cfg.DataDir, "bot.db")
	database, err := db.Open(dbPath)
	if err != nil {
		return nil, err
	}
	if err := database.SeedAdmins(context.Background(), cfg.OwnerIDs); err != nil {
		_ = database.Close()
		return nil, err
	}

	b, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		_ = database.Close()
		return nil, err
	}
	b.Debug = cfg.Debug

	app := &App{
		cfg:      cfg,
		db:       database,
		bot:      b,
		tr:       newTransport(b, cfg.BotToken),
		sessions: session.NewManager(),
		dataDir:  cfg.DataDir,
		dbPath:   dbPath,
	}
	if err := app.buildSettings(context.Background()); err != nil {
		_ = database.Close()
		return nil, err
	}
	return app, nil
}

// buildSettings constructs the registry, store, menu tree and side-effect
// dispatcher against the current database handle. Called at startup and
// again after a database restore.
func (a *App) buildSettings(ctx context.Context) error {
	reg, err := settings.NewRegistry(settings.Defaults())
	if err != nil {
		return err
	}
	store, err := settings.NewStore(ctx, reg, a.db)
	if err != nil {
		return err
	}
	store.OnWarn(func(msg string) {
		log.Warn("store").Msg(msg)
	})
	tree, err := menu.NewTree(reg, store)
	if err != nil {
		return err
	}

	// The dispatcher builds its RPC clients from the store at dispatch
	// time, so edited endpoints and credentials take effect immediately.
	eff := sideeffect.NewDispatcher(reg, store, a.db)
	eff.Serve = &clients.RcloneServe{}
	eff.Attach()

	a.reg = reg
	a.store = store
	a.tree = tree
	a.effects = eff
	return nil
}

func (a *App) Close() {
	if a.effects != nil && a.effects.Serve != nil {
		a.effects.Serve.Stop()
	}
	_ = a.db.Close()
}

func (a *App) Run(ctx context.Context) error {
	log.Info("bot").Str("username", a.bot.Self.UserName).Msg("authorized")

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	u.AllowedUpdates = []string{"message", "callback_query"}
	updates := a.bot.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			a.bot.StopReceivingUpdates()
			return ctx.Err()
		case upd, ok := <-updates:
			if !ok {
				return nil
			}
			a.handleUpdate(upd)
		}
	}
}

func (a *App) handleUpdate(upd tgbotapi.Update) {
	if upd.Message != nil {
		a.handleMessage(*upd.Message)
		return
	}
	if upd.CallbackQuery != nil {
		a.handleCallback(*upd.CallbackQuery)
	}
}

// authorize gates every interaction. The first user to talk to the bot in
// private becomes the super admin when no owners were configured.
func (a *App) authorize(userID int64, private bool) (admin, super bool) {
	ctx := context.Background()
	isAdmin, isSuper, err := a.db.IsAdmin(ctx, userID)
	if err != nil {
		log.Error("bot").Err(err).Msg("admin lookup failed")
		return false, false
	}
	if isAdmin {
		return true, isSuper
	}
	if !private {
		return false, false
	}
	n, err := a.db.AdminCount(ctx)
	if err != nil || n > 0 {
		return false, false
	}
	if err := a.db.AddAdmin(ctx, userID, true); err != nil {
		log.Error("bot").Err(err).Msg("bootstrap admin failed")
		return false, false
	}
	log.Info("bot").Int64("user", userID).Msg("first user became super admin")
	return true, true
}

func (a *App) handleMessage(msg tgbotapi.Message) {
	if msg.Chat == nil || msg.Chat.Type != "private" || msg.From == nil {
		return
	}
	chatID := msg.Chat.ID
	userID := msg.From.ID

	admin, _ := a.authorize(userID, true)
	if !admin {
		return
	}

	// A live edit prompt consumes the next matching message from its
	// opener. A text message while the prompt expects a file is left
	// alone so the user can retry within the timeout.
	if key, ok := a.sessions.ActiveKey(chatID); ok {
		r := session.Reply{MessageID: msg.MessageID, Text: msg.Text}
		if msg.Document != nil {
			r.FileID = msg.Document.FileID
			r.FileName = msg.Document.FileName
		} else if len(msg.Photo) > 0 {
			r.FileID = msg.Photo[len(msg.Photo)-1].FileID
		}
		mismatch := a.expectsFile(key) && r.FileID == ""
		if !mismatch && a.sessions.Deliver(chatID, userID, r) {
			return
		}
	}

	switch msg.Command() {
	case "start", "settings", "bsettings":
		a.sendMainMenu(chatID, 0)
	case "id":
		_, _ = a.tr.Send(chatID, "Your ID: "+strconv.FormatInt(userID, 10), nil)
	}
}

// expectsFile reports whether a prompt for the given session key only
// accepts a document or photo reply.
func (a *App) expectsFile(key string) bool {
	if key == awaitRestore {
		return true
	}
	d, ok := a.reg.Get(key)
	return ok && d.Kind == settings.KindFile
}

func (a *App) sendMainMenu(chatID int64, msgID int) {
	text, kb := a.tree.RenderMain(chatID)
	a.editOrSend(chatID, msgID, text, &kb)
}

func (a *App) sendGroupMenu(chatID int64, msgID int, group string, page int) {
	text, kb := a.tree.RenderGroup(chatID, group, page)
	a.editOrSend(chatID, msgID, text, &kb)
}

func (a *App) editOrSend(chatID int64, msgID int, text string, kb *tgbotapi.InlineKeyboardMarkup) {
	if msgID != 0 {
		if err := a.tr.Edit(chatID, msgID, text, kb); err == nil {
			return
		}
	}
	if _, err := a.tr.Send(chatID, text, kb); err != nil {
		log.Warn("bot").Int64("chat", chatID).Err(err).Msg("send menu failed")
	}
}

// awaitReply runs in a goroutine per edit session. On timeout or
// supersession nothing visible changes; the prompt simply stops listening.
func (a *App) awaitReply(s *session.Session) {
	r, err := s.Wait()
	a.sessions.Finish(s)
	if err != nil {
		if errors.Is(err, session.ErrTimeout) {
			log.Debug("bot").Str("key", s.Key).Int64("chat", s.ChatID).Msg("edit prompt timed out")
		}
		return
	}
	a.applyReply(s, r)
}

func (a *App) applyReply(s *session.Session, r session.Reply) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	defer a.tr.Delete(s.ChatID, r.MessageID)

	switch s.Key {
	case awaitImport:
		a.finishImport(ctx, s, r)
		return
	case awaitRestore:
		a.finishRestore(ctx, s, r)
		return
	case awaitAdminAdd:
		a.finishAdminAdd(ctx, s, r)
		return
	}

	d, ok := a.reg.Get(s.Key)
	if !ok {
		return
	}
	if d.Kind == settings.KindFile {
		if r.FileID == "" {
			a.sendGroupMenu(s.ChatID, s.PromptID, s.OriginMenu, s.OriginPage)
			return
		}
		data, err := a.tr.Download(r.FileID)
		if err != nil {
			log.Warn("bot").Str("key", s.Key).Err(err).Msg("file download failed")
			a.sendGroupMenu(s.ChatID, s.PromptID, s.OriginMenu, s.OriginPage)
			return
		}
		if err := a.db.SetUserDoc(ctx, s.UserID, d.Key, data); err != nil {
			log.Warn("bot").Str("key", s.Key).Err(err).Msg("store file failed")
		}
		if err := a.store.Set(ctx, d.Key, r.FileID); err != nil {
			log.Warn("bot").Str("key", s.Key).Err(err).Msg("set failed")
		}
	} else {
		v, err := d.CoerceLenient(r.Text)
		if err != nil {
			// Strict kinds reject silently; the old value stands.
			log.Debug("bot").Str("key", s.Key).Err(err).Msg("reply rejected")
			a.sendGroupMenu(s.ChatID, s.PromptID, s.OriginMenu, s.OriginPage)
			return
		}
		if err := a.store.Set(ctx, d.Key, v); err != nil {
			log.Warn("bot").Str("key", s.Key).Err(err).Msg("set failed")
		}
	}
	a.sendGroupMenu(s.ChatID, s.PromptID, s.OriginMenu, s.OriginPage)
}
