package sendgrid

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"
	"time"

	"go.uber.org/zap"

	"priorify/application/ports"
	pkgerrors "priorify/pkg/errors"
)

//go:embed templates/*
var templateFS embed.FS

// Subject lines
const (
	TopPrioritySubject = "🔥 Priorify: 오늘의 최우선 처리 업무!"
	reminderSubjectFmt = "📅 Priorify: %s 일정 알림"
)

// Priority label thresholds
const (
	reminderHighPriority   = 5.0
	reminderMediumPriority = 3.0
	topHighPriority        = 7.0
)

var koreanWeekdays = [...]string{"일", "월", "화", "수", "목", "금", "토"}

// Sender delivers a rendered message
type Sender interface {
	Send(ctx context.Context, msg Message) (*SendResult, error)
}

// Dispatcher renders digests and hands them to SendGrid. It implements
// ports.MailDispatcher.
type Dispatcher struct {
	sender Sender
	html   *htmltemplate.Template
	text   *texttemplate.Template
	loc    *time.Location
	ctaURL string
	now    func() time.Time
	logger *zap.Logger
}

var _ ports.MailDispatcher = (*Dispatcher)(nil)

// NewDispatcher parses the embedded templates. Dates are shown in loc and the
// call to action points at appBaseURL.
func NewDispatcher(sender Sender, loc *time.Location, appBaseURL string, logger *zap.Logger) (*Dispatcher, error) {
	html, err := htmltemplate.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse html templates: %w", err)
	}
	text, err := texttemplate.ParseFS(templateFS, "templates/*.txt")
	if err != nil {
		return nil, fmt.Errorf("parse text templates: %w", err)
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Dispatcher{
		sender: sender,
		html:   html,
		text:   text,
		loc:    loc,
		ctaURL: strings.TrimRight(appBaseURL, "/") + "/schedule",
		now:    time.Now,
		logger: logger,
	}, nil
}

type itemView struct {
	Rank     int
	Title    string
	Start    string
	End      string
	Status   string
	Priority string
	Label    string
	Class    string
}

type sectionView struct {
	Heading string
	Items   []itemView
}

type reminderView struct {
	Heading  string
	Sections []sectionView
	CTA      string
}

type topPriorityView struct {
	Name  string
	Items []itemView
	CTA   string
}

// SendReminderDigest mails the urgent and upcoming schedules of one user
func (d *Dispatcher) SendReminderDigest(ctx context.Context, to ports.Recipient, digest ports.ReminderDigest) error {
	if digest.IsEmpty() {
		return nil
	}

	generated := digest.GeneratedAt
	if generated.IsZero() {
		generated = d.now()
	}

	view := reminderView{CTA: d.ctaURL}
	if len(digest.Urgent) > 0 {
		view.Heading = dayHeading(digest.Urgent[0].DaysUntilStart)
		view.Sections = append(view.Sections, sectionView{
			Heading: "긴급 처리 필요",
			Items:   d.reminderItems(digest.Urgent),
		})
	}
	for _, group := range groupByDay(digest.Upcoming) {
		if view.Heading == "" {
			view.Heading = dayHeading(group[0].DaysUntilStart)
		}
		view.Sections = append(view.Sections, sectionView{
			Heading: dayHeading(group[0].DaysUntilStart),
			Items:   d.reminderItems(group),
		})
	}

	subject := fmt.Sprintf(reminderSubjectFmt, formatMonthDay(generated.In(d.loc)))
	return d.send(ctx, to, subject, "reminder", view, "daily-reminder")
}

// SendTopPriorityDigest mails the highest ranked schedules of one user
func (d *Dispatcher) SendTopPriorityDigest(ctx context.Context, to ports.Recipient, schedules []ports.RankedSchedule) error {
	if len(schedules) == 0 {
		return nil
	}

	name := strings.TrimSpace(to.Name)
	if name == "" {
		name = to.Email
	}
	view := topPriorityView{Name: name, CTA: d.ctaURL}
	for i, rs := range schedules {
		item := d.item(rs)
		item.Rank = i + 1
		item.Label, item.Class = "중요", "priority-medium"
		if rs.Score.Priority >= topHighPriority {
			item.Label, item.Class = "매우 중요", "priority-high"
		}
		view.Items = append(view.Items, item)
	}

	return d.send(ctx, to, TopPrioritySubject, "top_priority", view, "top-priority-digest")
}

func (d *Dispatcher) send(ctx context.Context, to ports.Recipient, subject, template string, view any, category string) error {
	var html, text bytes.Buffer
	if err := d.html.ExecuteTemplate(&html, template+".html", view); err != nil {
		return pkgerrors.NewInternalError("render mail").WithCause(err).WithDetail("template", template)
	}
	if err := d.text.ExecuteTemplate(&text, template+".txt", view); err != nil {
		return pkgerrors.NewInternalError("render mail").WithCause(err).WithDetail("template", template)
	}

	result, err := d.sender.Send(ctx, Message{
		To:         Address{Email: to.Email, Name: to.Name},
		Subject:    subject,
		Text:       text.String(),
		HTML:       html.String(),
		Categories: []string{category},
	})
	if err != nil {
		d.logger.Error("Failed to send mail",
			zap.String("userID", to.UserID),
			zap.String("template", template),
			zap.Error(err),
		)
		if pkgerrors.IsAppError(err) {
			return err
		}
		return pkgerrors.NewExternalError("sendgrid", err).WithCode(pkgerrors.CodeMailDispatchError)
	}

	d.logger.Info("Mail sent",
		zap.String("userID", to.UserID),
		zap.String("template", template),
		zap.String("messageID", result.MessageID),
	)
	return nil
}

func (d *Dispatcher) reminderItems(schedules []ports.RankedSchedule) []itemView {
	items := make([]itemView, 0, len(schedules))
	for _, rs := range schedules {
		item := d.item(rs)
		switch p := rs.Score.Priority; {
		case p >= reminderHighPriority:
			item.Label, item.Class = "매우 중요", "high-priority"
		case p >= reminderMediumPriority:
			item.Label, item.Class = "중요", "medium-priority"
		default:
			item.Label = "보통"
		}
		items = append(items, item)
	}
	return items
}

func (d *Dispatcher) item(rs ports.RankedSchedule) itemView {
	s := rs.Schedule
	title := strings.TrimSpace(s.Title)
	if title == "" {
		title = "제목 없음"
	}
	item := itemView{
		Title:    title,
		Status:   string(s.Status),
		Priority: fmt.Sprintf("%.2f", rs.Score.Priority),
	}
	if s.StartAt != nil {
		item.Start = formatKorean(s.StartAt.In(d.loc))
	}
	if s.EndAt != nil {
		item.End = formatKorean(s.EndAt.In(d.loc))
	}
	return item
}

// groupByDay splits schedules into runs of equal DaysUntilStart, keeping order
func groupByDay(schedules []ports.RankedSchedule) [][]ports.RankedSchedule {
	var groups [][]ports.RankedSchedule
	index := make(map[int]int)
	for _, rs := range schedules {
		i, ok := index[rs.DaysUntilStart]
		if !ok {
			i = len(groups)
			index[rs.DaysUntilStart] = i
			groups = append(groups, nil)
		}
		groups[i] = append(groups[i], rs)
	}
	return groups
}

func dayHeading(days int) string {
	switch days {
	case 0:
		return "오늘 처리해야 할 중요한 작업이 있습니다!"
	case 1:
		return "내일 마감되는 주요 스케줄을 확인하세요!"
	default:
		return fmt.Sprintf("%d일 후 시작되거나 마감되는 스케줄 알림입니다.", days)
	}
}

// formatKorean renders "5월 12일 (월) 09:30"
func formatKorean(t time.Time) string {
	return fmt.Sprintf("%s (%s) %02d:%02d", formatMonthDay(t), koreanWeekdays[t.Weekday()], t.Hour(), t.Minute())
}

func formatMonthDay(t time.Time) string {
	return fmt.Sprintf("%d월 %d일", int(t.Month()), t.Day())
}
