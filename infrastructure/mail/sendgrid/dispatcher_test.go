package sendgrid

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"priorify/application/ports"
	"priorify/domain/core/entities"
	"priorify/domain/core/scoring"
	pkgerrors "priorify/pkg/errors"
)

type mockSender struct {
	mock.Mock
}

func (m *mockSender) Send(ctx context.Context, msg Message) (*SendResult, error) {
	args := m.Called(ctx, msg)
	if args.Get(0) != nil {
		return args.Get(0).(*SendResult), args.Error(1)
	}
	return nil, args.Error(1)
}

func seoul(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Asia/Seoul")
	require.NoError(t, err)
	return loc
}

func ranked(title string, start time.Time, priority float64, days int) ports.RankedSchedule {
	return ports.RankedSchedule{
		Schedule: &entities.Schedule{
			ID:      title,
			OwnerID: "u1",
			Title:   title,
			StartAt: &start,
			Status:  entities.ScheduleActive,
		},
		Score:          scoring.Score{Priority: priority},
		DaysUntilStart: days,
	}
}

func newTestDispatcher(t *testing.T, sender Sender) *Dispatcher {
	t.Helper()
	d, err := NewDispatcher(sender, seoul(t), "https://priorify.example/", zap.NewNop())
	require.NoError(t, err)
	return d
}

func TestFormatKorean(t *testing.T) {
	loc := seoul(t)
	// 2025-05-12 is a Monday
	at := time.Date(2025, 5, 12, 0, 30, 0, 0, time.UTC).In(loc)

	assert.Equal(t, "5월 12일 (월) 09:30", formatKorean(at))
	assert.Equal(t, "5월 12일", formatMonthDay(at))
}

func TestDayHeading(t *testing.T) {
	assert.Equal(t, "오늘 처리해야 할 중요한 작업이 있습니다!", dayHeading(0))
	assert.Equal(t, "내일 마감되는 주요 스케줄을 확인하세요!", dayHeading(1))
	assert.Equal(t, "3일 후 시작되거나 마감되는 스케줄 알림입니다.", dayHeading(3))
}

func TestDispatcher_SendReminderDigest(t *testing.T) {
	sender := new(mockSender)
	d := newTestDispatcher(t, sender)
	loc := seoul(t)
	now := time.Date(2025, 5, 12, 8, 0, 0, 0, loc)

	digest := ports.ReminderDigest{
		Urgent: []ports.RankedSchedule{ranked("데모 발표", now.Add(2*time.Hour), 6.5, 0)},
		Upcoming: []ports.RankedSchedule{
			ranked("주간 회의", now.AddDate(0, 0, 3), 3.2, 3),
			ranked("", now.AddDate(0, 0, 7), 1.0, 7),
		},
		GeneratedAt: now,
	}

	var sent Message
	sender.On("Send", mock.Anything, mock.AnythingOfType("sendgrid.Message")).
		Run(func(args mock.Arguments) { sent = args.Get(1).(Message) }).
		Return(&SendResult{StatusCode: 202, MessageID: "m-1"}, nil)

	err := d.SendReminderDigest(context.Background(), ports.Recipient{UserID: "u1", Name: "지민", Email: "jimin@example.com"}, digest)
	require.NoError(t, err)

	assert.Equal(t, "📅 Priorify: 5월 12일 일정 알림", sent.Subject)
	assert.Equal(t, "jimin@example.com", sent.To.Email)
	assert.Equal(t, []string{"daily-reminder"}, sent.Categories)

	assert.Contains(t, sent.Text, "오늘 처리해야 할 중요한 작업이 있습니다!")
	assert.Contains(t, sent.Text, "데모 발표 / 시작: 5월 12일 (월) 10:00")
	assert.Contains(t, sent.Text, "매우 중요 (6.50)")
	assert.Contains(t, sent.Text, "3일 후 시작되거나 마감되는 스케줄 알림입니다.")
	assert.Contains(t, sent.Text, "중요 (3.20)")
	assert.Contains(t, sent.Text, "제목 없음")
	assert.Contains(t, sent.Text, "보통 (1.00)")
	assert.Contains(t, sent.Text, "https://priorify.example/schedule")

	assert.Contains(t, sent.HTML, `<li class="high-priority">`)
	assert.Contains(t, sent.HTML, `<li class="medium-priority">`)
	sender.AssertExpectations(t)
}

func TestDispatcher_SendReminderDigestSkipsEmpty(t *testing.T) {
	sender := new(mockSender)
	d := newTestDispatcher(t, sender)

	err := d.SendReminderDigest(context.Background(), ports.Recipient{Email: "a@example.com"}, ports.ReminderDigest{})

	require.NoError(t, err)
	sender.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
}

func TestDispatcher_SendTopPriorityDigest(t *testing.T) {
	sender := new(mockSender)
	d := newTestDispatcher(t, sender)
	now := time.Date(2025, 5, 12, 9, 0, 0, 0, seoul(t))

	var sent Message
	sender.On("Send", mock.Anything, mock.AnythingOfType("sendgrid.Message")).
		Run(func(args mock.Arguments) { sent = args.Get(1).(Message) }).
		Return(&SendResult{StatusCode: 202}, nil)

	err := d.SendTopPriorityDigest(context.Background(), ports.Recipient{UserID: "u1", Email: "jimin@example.com"}, []ports.RankedSchedule{
		ranked("보고서 제출", now.Add(time.Hour), 8.25, 0),
		ranked("코드 리뷰", now.Add(3*time.Hour), 4.0, 0),
	})
	require.NoError(t, err)

	assert.Equal(t, TopPrioritySubject, sent.Subject)
	assert.Contains(t, sent.Text, "안녕하세요, jimin@example.com님!")
	assert.Contains(t, sent.Text, "1순위: 보고서 제출")
	assert.Contains(t, sent.Text, "매우 중요 (8.25)")
	assert.Contains(t, sent.Text, "2순위: 코드 리뷰")
	assert.Contains(t, sent.Text, "중요 (4.00)")
	assert.Contains(t, sent.HTML, `class="priority-badge priority-high"`)
	assert.Contains(t, sent.HTML, `class="priority-badge priority-medium"`)
}

func TestDispatcher_SendFailureIsExternal(t *testing.T) {
	sender := new(mockSender)
	d := newTestDispatcher(t, sender)
	sender.On("Send", mock.Anything, mock.Anything).Return(nil, errors.New("connection reset"))

	err := d.SendTopPriorityDigest(context.Background(), ports.Recipient{Email: "a@example.com"}, []ports.RankedSchedule{
		ranked("x", time.Now(), 1, 0),
	})

	require.Error(t, err)
	assert.True(t, pkgerrors.IsExternal(err))
	assert.Equal(t, pkgerrors.CodeMailDispatchError, pkgerrors.GetAppError(err).Code)
}

func TestGroupByDay(t *testing.T) {
	now := time.Now()
	groups := groupByDay([]ports.RankedSchedule{
		ranked("a", now, 1, 3),
		ranked("b", now, 1, 7),
		ranked("c", now, 1, 3),
	})

	require.Len(t, groups, 2)
	assert.Len(t, groups[0], 2)
	assert.Equal(t, 7, groups[1][0].DaysUntilStart)
}
