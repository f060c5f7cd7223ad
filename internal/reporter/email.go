package reporter

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"mime"
	"mime/multipart"
	"net/smtp"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go-recruit-crawler/internal/config"

	"go.uber.org/zap"
)

// SendFunc matches smtp.SendMail. It is swapped out in tests.
type SendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// EmailNotifier mails reports over SMTP. smtp.SendMail upgrades to STARTTLS when
// the server offers it, which is the case for smtp.qq.com:587.
type EmailNotifier struct {
	cfg        config.EmailConfig
	recipients []string
	send       SendFunc
	logger     *zap.Logger
}

func NewEmailNotifier(cfg config.EmailConfig, logger *zap.Logger) *EmailNotifier {
	return &EmailNotifier{
		cfg:        cfg,
		recipients: dedupe(cfg.Receivers),
		send:       smtp.SendMail,
		logger:     logger,
	}
}

// WithSender replaces the SMTP transport.
func (e *EmailNotifier) WithSender(fn SendFunc) *EmailNotifier {
	e.send = fn
	return e
}

func (e *EmailNotifier) Name() string { return "email" }

func (e *EmailNotifier) Recipients() []string { return e.recipients }

// Send mails r to the configured receivers.
func (e *EmailNotifier) Send(ctx context.Context, r Report) error {
	return e.SendTo(ctx, e.recipients, r)
}

// SendTo mails r to an explicit recipient list.
func (e *EmailNotifier) SendTo(ctx context.Context, to []string, r Report) error {
	to = dedupe(to)
	if len(to) == 0 {
		return fmt.Errorf("no email recipients")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	msg, err := BuildMessage(e.cfg.User, to, r, time.Now())
	if err != nil {
		return err
	}

	addr := fmt.Sprintf("%s:%d", e.cfg.SMTPServer, e.cfg.SMTPPort)
	auth := smtp.PlainAuth("", e.cfg.User, e.cfg.Password, e.cfg.SMTPServer)
	if err := e.send(addr, auth, e.cfg.User, to, msg); err != nil {
		return fmt.Errorf("smtp send to %s: %w", addr, err)
	}
	e.logger.Debug("📧 email delivered", zap.Strings("to", to), zap.String("subject", r.Subject))
	return nil
}

// SendVerification mails a registration link to a single address.
func (e *EmailNotifier) SendVerification(ctx context.Context, email, link string) error {
	body, err := RenderHTML("邮箱验证", "请点击下面的链接完成订阅验证：", nil, link)
	if err != nil {
		return err
	}
	return e.SendTo(ctx, []string{email}, Report{
		Subject: "招聘信息订阅验证",
		Summary: "请打开以下链接完成订阅验证: " + link,
		HTML:    body,
	})
}

// BuildMessage assembles a multipart/mixed message: an alternative part with the
// plain summary and the HTML body, then the attachment if any.
func BuildMessage(from string, to []string, r Report, now time.Time) ([]byte, error) {
	var buf bytes.Buffer
	mixed := multipart.NewWriter(&buf)

	header := textproto.MIMEHeader{}
	header.Set("From", from)
	header.Set("To", strings.Join(to, ", "))
	header.Set("Subject", mime.BEncoding.Encode("UTF-8", r.Subject))
	header.Set("Date", now.Format(time.RFC1123Z))
	header.Set("MIME-Version", "1.0")
	header.Set("Content-Type", "multipart/mixed; boundary="+mixed.Boundary())
	for _, k := range []string{"From", "To", "Subject", "Date", "MIME-Version", "Content-Type"} {
		fmt.Fprintf(&buf, "%s: %s\r\n", k, header.Get(k))
	}
	buf.WriteString("\r\n")

	//text + html alternative
	var alt bytes.Buffer
	altW := multipart.NewWriter(&alt)
	if err := writeBase64Part(altW, "text/plain; charset=UTF-8", nil, []byte(r.Summary)); err != nil {
		return nil, err
	}
	html := r.HTML
	if html == "" {
		html = "<p>" + r.Summary + "</p>"
	}
	if err := writeBase64Part(altW, "text/html; charset=UTF-8", nil, []byte(html)); err != nil {
		return nil, err
	}
	if err := altW.Close(); err != nil {
		return nil, err
	}

	altHeader := textproto.MIMEHeader{}
	altHeader.Set("Content-Type", "multipart/alternative; boundary="+altW.Boundary())
	part, err := mixed.CreatePart(altHeader)
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(alt.Bytes()); err != nil {
		return nil, err
	}

	if r.Attachment != "" {
		data, err := os.ReadFile(r.Attachment)
		if err != nil {
			return nil, fmt.Errorf("read attachment: %w", err)
		}
		name := mime.BEncoding.Encode("UTF-8", filepath.Base(r.Attachment))
		extra := textproto.MIMEHeader{}
		extra.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
		if err := writeBase64Part(mixed, contentType(r.Attachment), extra, data); err != nil {
			return nil, err
		}
	}

	if err := mixed.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeBase64Part(w *multipart.Writer, ctype string, extra textproto.MIMEHeader, data []byte) error {
	h := textproto.MIMEHeader{}
	h.Set("Content-Type", ctype)
	h.Set("Content-Transfer-Encoding", "base64")
	for k, v := range extra {
		h[k] = v
	}
	part, err := w.CreatePart(h)
	if err != nil {
		return err
	}
	enc := base64.StdEncoding.EncodeToString(data)
	//RFC 2045 line length
	for len(enc) > 76 {
		if _, err := fmt.Fprintf(part, "%s\r\n", enc[:76]); err != nil {
			return err
		}
		enc = enc[76:]
	}
	_, err = fmt.Fprintf(part, "%s\r\n", enc)
	return err
}

func contentType(path string) string {
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	if t := mime.TypeByExtension(filepath.Ext(path)); t != "" {
		return t
	}
	return "application/octet-stream"
}

func dedupe(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		k := strings.ToLower(s)
		if s == "" || seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, s)
	}
	return out
}
