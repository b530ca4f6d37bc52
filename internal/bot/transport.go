package bot

import (
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Transport is the slice of the Telegram API the panel uses. Handlers talk
// to this instead of *tgbotapi.BotAPI so tests can run against a fake.
type Transport interface {
	Send(chatID int64, text string, kb *tgbotapi.InlineKeyboardMarkup) (int, error)
	Edit(chatID int64, msgID int, text string, kb *tgbotapi.InlineKeyboardMarkup) error
	Delete(chatID int64, msgID int)
	SendDocument(chatID int64, name string, data []byte, caption string) error
	SendDocumentPath(chatID int64, path, caption string) error
	Answer(callbackID, text string, alert bool) error
	Download(fileID string) ([]byte, error)
}

type tgTransport struct {
	bot   *tgbotapi.BotAPI
	token string
}

func newTransport(b *tgbotapi.BotAPI, token string) *tgTransport {
	return &tgTransport{bot: b, token: token}
}

func (t *tgTransport) Send(chatID int64, text string, kb *tgbotapi.InlineKeyboardMarkup) (int, error) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.DisableWebPagePreview = true
	if kb != nil {
		msg.ReplyMarkup = *kb
	}
	sent, err := t.bot.Send(msg)
	if err != nil {
		return 0, err
	}
	return sent.MessageID, nil
}

func (t *tgTransport) Edit(chatID int64, msgID int, text string, kb *tgbotapi.InlineKeyboardMarkup) error {
	edit := tgbotapi.NewEditMessageText(chatID, msgID, text)
	edit.DisableWebPagePreview = true
	edit.ReplyMarkup = kb
	_, err := t.bot.Request(edit)
	if err != nil && strings.Contains(err.Error(), "message is not modified") {
		return nil
	}
	return err
}

func (t *tgTransport) Delete(chatID int64, msgID int) {
	_, _ = t.bot.Request(tgbotapi.NewDeleteMessage(chatID, msgID))
}

func (t *tgTransport) SendDocument(chatID int64, name string, data []byte, caption string) error {
	doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{Name: name, Bytes: data})
	doc.Caption = caption
	_, err := t.bot.Send(doc)
	return err
}

func (t *tgTransport) SendDocumentPath(chatID int64, path, caption string) error {
	doc := tgbotapi.NewDocument(chatID, tgbotapi.FilePath(path))
	doc.Caption = caption
	_, err := t.bot.Send(doc)
	return err
}

func (t *tgTransport) Answer(callbackID, text string, alert bool) error {
	cb := tgbotapi.NewCallback(callbackID, text)
	cb.ShowAlert = alert
	_, err := t.bot.Request(cb)
	return err
}

func (t *tgTransport) Download(fileID string) ([]byte, error) {
	f, err := t.bot.GetFile(tgbotapi.FileConfig{FileID: fileID})
	if err != nil {
		return nil, err
	}
	client := &http.Client{Timeout: 60 * time.Second}
	resp, err := client.Get(f.Link(t.token))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("download status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}
	// Telegram bot API caps downloads at 20 MiB, keep a margin.
	return io.ReadAll(io.LimitReader(resp.Body, 32<<20))
}
