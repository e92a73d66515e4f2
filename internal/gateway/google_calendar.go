package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/k-negishi/event-scheduler/internal/domain"
)

const (
	untitledEventName = "（無題）"
	labelsPropertyKey = "labels"
	maxEventsPerDay   = 50
)

// EventsProvider Google Calendar API からイベント一覧を取得するポート
type EventsProvider interface {
	ListEvents(ctx context.Context, calendarID, timeMin, timeMax string) ([]*calendar.Event, error)
}

// calendarServiceProvider *calendar.Service を使った EventsProvider の実装
type calendarServiceProvider struct {
	service *calendar.Service
}

func (p *calendarServiceProvider) ListEvents(ctx context.Context, calendarID, timeMin, timeMax string) ([]*calendar.Event, error) {
	events, err := p.service.Events.List(calendarID).
		TimeMin(timeMin).
		TimeMax(timeMax).
		SingleEvents(true).
		OrderBy("startTime").
		MaxResults(maxEventsPerDay).
		Context(ctx).
		Do()
	if err != nil {
		return nil, err
	}
	return events.Items, nil
}

// GoogleCalendarRepository Google Calendar APIを使用したCalendarRepositoryの実装
type GoogleCalendarRepository struct {
	provider   EventsProvider
	calendarID string
	timezone   *time.Location
	logger     *slog.Logger
}

// NewGoogleCalendarRepository Google Calendarリポジトリを作成
func NewGoogleCalendarRepository(ctx context.Context, credentialsJSON []byte, calendarID string, timezone *time.Location) (*GoogleCalendarRepository, error) {
	// サービスアカウント認証でCalendar APIクライアントを作成
	creds, err := google.CredentialsFromJSON(ctx, credentialsJSON, calendar.CalendarReadonlyScope)
	if err != nil {
		return nil, fmt.Errorf("google認証情報の読み込みに失敗しました: %w", err)
	}

	service, err := calendar.NewService(ctx, option.WithCredentials(creds))
	if err != nil {
		return nil, fmt.Errorf("google Calendar APIサービスの作成に失敗しました: %w", err)
	}

	return NewGoogleCalendarRepositoryWithProvider(&calendarServiceProvider{service: service}, calendarID, timezone), nil
}

// NewGoogleCalendarRepositoryWithProvider 任意の EventsProvider でリポジトリを作成
func NewGoogleCalendarRepositoryWithProvider(provider EventsProvider, calendarID string, timezone *time.Location) *GoogleCalendarRepository {
	return &GoogleCalendarRepository{
		provider:   provider,
		calendarID: calendarID,
		timezone:   timezone,
		logger:     slog.Default(),
	}
}

// WithLogger ロガーを差し替える
func (r *GoogleCalendarRepository) WithLogger(logger *slog.Logger) *GoogleCalendarRepository {
	r.logger = logger
	return r
}

// GetEvents 指定された日の予定を取得
func (r *GoogleCalendarRepository) GetEvents(ctx context.Context, targetDate time.Time) ([]*domain.Event, error) {
	// 開始時刻: 指定日の00:00:00 - inclusive
	dayStart := time.Date(
		targetDate.Year(), targetDate.Month(), targetDate.Day(),
		0, 0, 0, 0, r.timezone,
	)
	// 終了時刻: 翌日の00:00:00 - exclusive
	dayEnd := dayStart.AddDate(0, 0, 1)

	items, err := r.provider.ListEvents(ctx, r.calendarID, dayStart.Format(time.RFC3339), dayEnd.Format(time.RFC3339))
	if err != nil {
		return nil, fmt.Errorf("カレンダーイベントの取得に失敗しました: %w", err)
	}

	domainEvents := make([]*domain.Event, 0, len(items))
	for _, item := range items {
		event, err := r.convertToEvent(item)
		if err != nil {
			r.logger.Warn("イベントの変換をスキップしました", "id", item.Id, "error", err)
			continue
		}
		domainEvents = append(domainEvents, event)
	}

	r.logger.Debug("カレンダーイベントを取得しました", "date", dayStart.Format(time.DateOnly), "count", len(domainEvents))
	return domainEvents, nil
}

// convertToEvent Google Calendar APIのイベントをドメインエンティティに変換
func (r *GoogleCalendarRepository) convertToEvent(item *calendar.Event) (*domain.Event, error) {
	if item.Start == nil {
		return nil, fmt.Errorf("開始時刻が設定されていません")
	}
	if item.End == nil {
		return nil, fmt.Errorf("終了時刻が設定されていません")
	}

	startTime, err := r.parseEventDateTime(item.Start)
	if err != nil {
		return nil, fmt.Errorf("開始時刻の解析に失敗しました: %w", err)
	}
	endTime, err := r.parseEventDateTime(item.End)
	if err != nil {
		return nil, fmt.Errorf("終了時刻の解析に失敗しました: %w", err)
	}

	name := item.Summary
	if name == "" {
		name = untitledEventName
	}

	// Google Calendar 側には上限が無いため、ドメインの上限に合わせて切り詰める
	name = r.truncate(item.Id, "name", name, domain.MaxNameLength)
	description := r.truncate(item.Id, "description", item.Description, domain.MaxDescriptionLength)

	labels := labelsOf(item)
	if len(labels) > domain.MaxLabels {
		r.logger.Debug("ラベル数を上限に合わせて切り詰めました", "id", item.Id, "labels", len(labels), "limit", domain.MaxLabels)
		labels = labels[:domain.MaxLabels]
	}

	return domain.NewEvent(
		name,
		startTime,
		endTime.Sub(startTime),
		domain.WithDescription(description),
		domain.WithLabels(labels...),
		domain.WithAttendees(attendeesOf(item)...),
	)
}

// truncate s を limit 文字（rune）以内に切り詰める
func (r *GoogleCalendarRepository) truncate(id, field, s string, limit int) string {
	n := utf8.RuneCountInString(s)
	if n <= limit {
		return s
	}
	r.logger.Debug("文字数を上限に合わせて切り詰めました", "id", id, "field", field, "length", n, "limit", limit)
	return string([]rune(s)[:limit])
}

// parseEventDateTime 時刻指定イベントと終日イベントの両方を解析
func (r *GoogleCalendarRepository) parseEventDateTime(dt *calendar.EventDateTime) (time.Time, error) {
	switch {
	case dt.DateTime != "":
		t, err := time.Parse(time.RFC3339, dt.DateTime)
		if err != nil {
			return time.Time{}, err
		}
		return t.In(r.timezone), nil
	case dt.Date != "":
		return time.ParseInLocation(time.DateOnly, dt.Date, r.timezone)
	default:
		return time.Time{}, fmt.Errorf("日時が設定されていません")
	}
}

// attendeesOf メールアドレスを優先し、無ければ表示名を使う
func attendeesOf(item *calendar.Event) []string {
	attendees := make([]string, 0, len(item.Attendees))
	for _, a := range item.Attendees {
		switch {
		case a.Email != "":
			attendees = append(attendees, a.Email)
		case a.DisplayName != "":
			attendees = append(attendees, a.DisplayName)
		}
	}
	return attendees
}

// labelsOf 非公開拡張プロパティ "labels"（カンマ区切り）を出現順・重複なしで読み取る
func labelsOf(item *calendar.Event) []string {
	if item.ExtendedProperties == nil || item.ExtendedProperties.Private == nil {
		return nil
	}
	raw := item.ExtendedProperties.Private[labelsPropertyKey]
	var labels []string
	for _, l := range strings.Split(raw, ",") {
		if l = strings.TrimSpace(l); l != "" && !slices.Contains(labels, l) {
			labels = append(labels, l)
		}
	}
	return labels
}
