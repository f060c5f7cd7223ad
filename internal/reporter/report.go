package reporter

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"time"

	"go-recruit-crawler/internal/dedup"
	"go-recruit-crawler/internal/models"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	SubjectUpdate  = "招聘信息更新"
	SubjectFailure = "招聘信息爬取失败"
	SubjectDigest  = "招聘信息周报"
	dateLayout     = "2006-01-02"
)

// Report is what every notifier sends. Records are the rows worth showing in the body,
// usually the added and updated ones.
type Report struct {
	Subject    string
	Summary    string
	HTML       string
	Attachment string
	Records    []models.Record
}

type Notifier interface {
	Name() string
	Send(ctx context.Context, r Report) error
}

// Broadcast sends r through every notifier concurrently. One failing channel does not
// stop the others; all failures are joined into the returned error.
func Broadcast(ctx context.Context, logger *zap.Logger, r Report, notifiers ...Notifier) error {
	var g errgroup.Group
	errs := make([]error, len(notifiers))
	for i, n := range notifiers {
		g.Go(func() error {
			if err := n.Send(ctx, r); err != nil {
				logger.Warn("⚠️ notifier failed", zap.String("notifier", n.Name()), zap.Error(err))
				errs[i] = fmt.Errorf("%s: %w", n.Name(), err)
				return nil
			}
			logger.Info("📨 report sent", zap.String("notifier", n.Name()), zap.String("subject", r.Subject))
			return nil
		})
	}
	_ = g.Wait()
	return errors.Join(errs...)
}

var reportTmpl = template.Must(template.New("report").Parse(`<html><body>
<h3>{{.Title}}</h3>
<p>{{.Summary}}</p>
{{- if .Groups}}
{{- range .Groups}}
{{- if .Name}}<h4>{{.Name}}</h4>{{end}}
<table border="1" cellspacing="0" cellpadding="4">
<tr><th>公司名称</th><th>岗位</th><th>工作地点</th><th>招聘对象</th><th>截止时间</th><th>状态</th><th>投递链接</th></tr>
{{- range .Records}}
<tr><td>{{.Company}}</td><td>{{.Position}}</td><td>{{.Location}}</td><td>{{.Target}}</td><td>{{.Deadline}}</td><td>{{.Status}}</td><td>{{if .Links}}<a href="{{.Links}}">投递</a>{{end}}</td></tr>
{{- end}}
</table>
{{- end}}
{{- else}}
<p>本次没有新增或更新的岗位。</p>
{{- end}}
{{- if .Footer}}<p>{{.Footer}}</p>{{end}}
</body></html>`))

// Group is a titled block of rows in the HTML body. An empty Name renders a bare table.
type Group struct {
	Name    string
	Records []models.Record
}

type page struct {
	Title   string
	Summary string
	Groups  []Group
	Footer  string
}

// RenderHTML renders the report body. Field values are escaped by html/template.
func RenderHTML(title, summary string, groups []Group, footer string) (string, error) {
	var buf bytes.Buffer
	if err := reportTmpl.Execute(&buf, page{Title: title, Summary: summary, Groups: groups, Footer: footer}); err != nil {
		return "", fmt.Errorf("render report: %w", err)
	}
	return buf.String(), nil
}

// Summary is the one-line count used as the plain-text part of every update report.
func Summary(c dedup.Counts) string {
	return fmt.Sprintf("新增 %d 条，更新 %d 条，未变化 %d 条，过期删除 %d 条，当前共 %d 条。",
		c.Added, c.Updated, c.Unchanged, c.Expired, c.Total)
}

// UpdateReport builds the per-run report from a reconciliation result.
func UpdateReport(res *dedup.Result, attachment string, now time.Time) (Report, error) {
	changed := res.Changed()
	summary := Summary(res.Counts())
	var groups []Group
	if len(changed) > 0 {
		groups = []Group{{Records: changed}}
	}
	body, err := RenderHTML(SubjectUpdate, summary, groups, "完整列表见附件，黄色高亮为新增或更新的岗位。")
	if err != nil {
		return Report{}, err
	}
	return Report{
		Subject:    SubjectUpdate + " " + now.Format(dateLayout),
		Summary:    summary,
		HTML:       body,
		Attachment: attachment,
		Records:    changed,
	}, nil
}

// FailureReport is sent when a run produced no data at all.
func FailureReport(cause error, now time.Time) Report {
	summary := fmt.Sprintf("%s 爬取未获得任何数据", now.Format("2006-01-02 15:04"))
	if cause != nil {
		summary += ": " + cause.Error()
	}
	body, err := RenderHTML(SubjectFailure, summary, nil, "请检查网站结构或网络状况。")
	if err != nil {
		body = "<p>" + template.HTMLEscapeString(summary) + "</p>"
	}
	return Report{Subject: SubjectFailure, Summary: summary, HTML: body}
}

// ForRecipient narrows a report to the records passing keep. The attachment is
// dropped since it holds the unfiltered listing.
func ForRecipient(r Report, keep func(models.Record) bool) (Report, error) {
	var picked []models.Record
	for _, rec := range r.Records {
		if keep(rec) {
			picked = append(picked, rec)
		}
	}
	summary := fmt.Sprintf("%s 符合您偏好的岗位 %d 条。", r.Summary, len(picked))
	var groups []Group
	if len(picked) > 0 {
		groups = []Group{{Records: picked}}
	}
	body, err := RenderHTML(r.Subject, summary, groups, "")
	if err != nil {
		return Report{}, err
	}
	return Report{Subject: r.Subject, Summary: summary, HTML: body, Records: picked}, nil
}
