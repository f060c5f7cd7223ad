package reporter

import (
	"context"
	"fmt"
	"strings"

	"go-recruit-crawler/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// TelegramNotifier posts the summary and the first topN records to one chat.
type TelegramNotifier struct {
	api    *tgbotapi.BotAPI
	chatID int64
	topN   int
	logger *zap.Logger
}

func NewTelegramNotifier(token string, chatID int64, topN int, logger *zap.Logger) (*TelegramNotifier, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to init telegram bot: %w", err)
	}

	//turn this on in case of debug
	//api.Debug = true

	return &TelegramNotifier{api: api, chatID: chatID, topN: topN, logger: logger}, nil
}

func (t *TelegramNotifier) Name() string { return "telegram" }

func (t *TelegramNotifier) Send(ctx context.Context, r Report) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(t.chatID, FormatTelegram(r, t.topN))
	msg.ParseMode = tgbotapi.ModeMarkdownV2
	msg.DisableWebPagePreview = true
	if _, err := t.api.Send(msg); err != nil {
		return err
	}
	return nil
}

var markdownEscaper = strings.NewReplacer(
	"\\", "\\\\",
	"_", "\\_", "*", "\\*", "[", "\\[", "]", "\\]", "(", "\\(",
	")", "\\)", "~", "\\~", "`", "\\`", ">", "\\>", "#", "\\#",
	"+", "\\+", "-", "\\-", "=", "\\=", "|", "\\|", "{", "\\{",
	"}", "\\}", ".", "\\.", "!", "\\!",
)

func escapeMarkdown(text string) string {
	return markdownEscaper.Replace(text)
}

// FormatTelegram renders a MarkdownV2 message. topN <= 0 lists nothing but the summary.
func FormatTelegram(r Report, topN int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📋 *%s*\n%s\n", escapeMarkdown(r.Subject), escapeMarkdown(r.Summary))

	shown := r.Records
	if topN < len(shown) {
		shown = shown[:max(topN, 0)]
	}
	for _, rec := range shown {
		b.WriteString("\n")
		b.WriteString(formatRecord(rec))
	}
	if rest := len(r.Records) - len(shown); rest > 0 {
		fmt.Fprintf(&b, "\n%s\n", escapeMarkdown(fmt.Sprintf("…另有 %d 条，详见邮件附件", rest)))
	}
	return b.String()
}

func formatRecord(rec models.Record) string {
	var b strings.Builder
	status := ""
	if rec.Status != models.StatusUnchanged {
		status = fmt.Sprintf(" \\[%s\\]", escapeMarkdown(string(rec.Status)))
	}
	fmt.Fprintf(&b, "🏢 *%s*%s\n", escapeMarkdown(rec.Company), status)
	fmt.Fprintf(&b, "💼 %s\n", escapeMarkdown(orNA(rec.Position)))
	fmt.Fprintf(&b, "📍 %s\n", escapeMarkdown(orNA(rec.Location)))
	if rec.Deadline != "" {
		fmt.Fprintf(&b, "📅 %s\n", escapeMarkdown(rec.Deadline))
	}
	if strings.HasPrefix(rec.Links, "http") {
		//inside the link target only ) and \ need escaping
		link := strings.NewReplacer("\\", "\\\\", ")", "\\)").Replace(rec.Links)
		fmt.Fprintf(&b, "🔗 [投递](%s)\n", link)
	}
	return b.String()
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
