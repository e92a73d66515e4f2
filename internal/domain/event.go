package domain

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	MaxNameLength        = 25
	MaxLabels            = 10
	MaxDescriptionLength = 500
)

// Event カレンダーイベントのドメインエンティティ
//
// 並行アクセスには対応していない。複数の goroutine から変更する場合は呼び出し側で排他制御すること。
type Event struct {
	name        string
	startTime   time.Time
	duration    time.Duration
	labels      stringSet
	description string
	attendees   stringSet
}

// EventOption NewEvent の任意項目
type EventOption func(*eventParams)

type eventParams struct {
	labels      []string
	description string
	attendees   []string
}

// WithLabels ラベルを指定
func WithLabels(labels ...string) EventOption {
	return func(p *eventParams) {
		p.labels = append(p.labels, labels...)
	}
}

// WithDescription 説明を指定
func WithDescription(description string) EventOption {
	return func(p *eventParams) {
		p.description = description
	}
}

// WithAttendees 参加者を指定
func WithAttendees(attendees ...string) EventOption {
	return func(p *eventParams) {
		p.attendees = append(p.attendees, attendees...)
	}
}

// NewEvent イベントを生成する。
// 名前・ラベル数・説明の上限を超えた場合は *ValidationError を返す。
func NewEvent(name string, startTime time.Time, duration time.Duration, opts ...EventOption) (*Event, error) {
	var p eventParams
	for _, opt := range opts {
		opt(&p)
	}

	labels := newStringSet(p.labels...)
	attendees := newStringSet(p.attendees...)

	if err := validate(name, labels, p.description); err != nil {
		return nil, err
	}

	return &Event{
		name:        name,
		startTime:   startTime,
		duration:    duration,
		labels:      labels,
		description: p.description,
		attendees:   attendees,
	}, nil
}

func validate(name string, labels stringSet, description string) error {
	var errs []FieldError
	if n := utf8.RuneCountInString(name); n > MaxNameLength {
		errs = append(errs, tooLong("name", MaxNameLength, n))
	}
	if n := len(labels); n > MaxLabels {
		errs = append(errs, tooMany("labels", MaxLabels, n))
	}
	if n := utf8.RuneCountInString(description); n > MaxDescriptionLength {
		errs = append(errs, tooLong("description", MaxDescriptionLength, n))
	}
	if len(errs) > 0 {
		return &ValidationError{Errors: errs}
	}
	return nil
}

func (e *Event) Name() string { return e.name }
func (e *Event) StartTime() time.Time { return e.startTime }
func (e *Event) Duration() time.Duration { return e.duration }
func (e *Event) Description() string { return e.description }
func (e *Event) EndTime() time.Time { return e.startTime.Add(e.duration) }
func (e *Event) HasLabel(l string) bool { return e.labels.has(l) }
func (e *Event) HasAttendee(a string) bool { return e.attendees.has(a) }

// Labels ラベルを昇順のスライスで返す
func (e *Event) Labels() []string { return e.labels.sorted() }

// Attendees 参加者を昇順のスライスで返す
func (e *Event) Attendees() []string { return e.attendees.sorted() }

// AddAttendee 参加者を追加。登録済みの場合は何もしない
func (e *Event) AddAttendee(attendee string) {
	e.attendees.add(attendee)
}

// AddAttendees 参加者をまとめて追加
func (e *Event) AddAttendees(attendees ...string) {
	for _, a := range attendees {
		e.AddAttendee(a)
	}
}

// RemoveAttendee 参加者を削除。存在しなかった場合は false
func (e *Event) RemoveAttendee(attendee string) bool {
	return e.attendees.remove(attendee)
}

// RemoveAttendees 参加者をまとめて削除する。
// 存在しない参加者があっても残りの削除は続行し、その場合は false を返す（ロールバックはしない）。
func (e *Event) RemoveAttendees(attendees ...string) bool {
	ok := true
	for _, a := range attendees {
		if !e.RemoveAttendee(a) {
			ok = false
		}
	}
	return ok
}

// AddLabel ラベルを追加。上限 MaxLabels は生成時のみ検証する
func (e *Event) AddLabel(label string) {
	e.labels.add(label)
}

// AddLabels ラベルをまとめて追加
func (e *Event) AddLabels(labels ...string) {
	for _, l := range labels {
		e.AddLabel(l)
	}
}

// RemoveLabel ラベルを削除。存在しなかった場合は false
func (e *Event) RemoveLabel(label string) bool {
	return e.labels.remove(label)
}

// RemoveLabels ラベルをまとめて削除。RemoveAttendees と同じく途中で止めない
func (e *Event) RemoveLabels(labels ...string) bool {
	ok := true
	for _, l := range labels {
		if !e.RemoveLabel(l) {
			ok = false
		}
	}
	return ok
}

// ChangeTime 開始時刻・所要時間を変更する。nil の項目は変更しない。
// ゼロ値（所要時間 0 など）が渡された場合はそのまま反映する。
func (e *Event) ChangeTime(newTime *time.Time, newDuration *time.Duration) {
	if newTime != nil {
		e.startTime = *newTime
	}
	if newDuration != nil {
		e.duration = *newDuration
	}
}

// String 人が読むための複数行表現
func (e *Event) String() string {
	var b strings.Builder
	b.WriteString("Event:\n")
	fmt.Fprintf(&b, "\tName:        %s\n", e.name)
	fmt.Fprintf(&b, "\tTime:        %s\n", e.startTime.Format(time.DateTime))
	fmt.Fprintf(&b, "\tDuration:    %s\n", e.duration)
	fmt.Fprintf(&b, "\tLabels:      %s\n", formatSet(e.labels))
	fmt.Fprintf(&b, "\tDescription: %s\n", e.description)
	fmt.Fprintf(&b, "\tAttendees:   %s\n", formatSet(e.attendees))
	return b.String()
}

// GoString %#v 用の1行表現
func (e *Event) GoString() string {
	return fmt.Sprintf("Event(%q, %q, %q, %q, %q, %q)",
		e.name,
		e.startTime.Format(time.DateTime),
		e.duration.String(),
		formatSet(e.labels),
		e.description,
		formatSet(e.attendees),
	)
}

func formatSet(s stringSet) string {
	return "{" + strings.Join(s.sorted(), ", ") + "}"
}

type stringSet map[string]struct{}

// newStringSet は毎回新しい map を返す。呼び出し元のスライスとは共有しない
func newStringSet(items ...string) stringSet {
	s := make(stringSet, len(items))
	for _, item := range items {
		s.add(item)
	}
	return s
}

func (s stringSet) add(item string) { s[item] = struct{}{} }

func (s stringSet) has(item string) bool {
	_, ok := s[item]
	return ok
}

func (s stringSet) remove(item string) bool {
	if !s.has(item) {
		return false
	}
	delete(s, item)
	return true
}

func (s stringSet) sorted() []string {
	return slices.Sorted(maps.Keys(s))
}
