package gateway

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/emersion/go-ical"
	"github.com/google/uuid"

	"github.com/k-negishi/event-scheduler/internal/domain"
)

// ICalExporter ドメインイベントを iCalendar 形式で書き出す Exporter の実装
type ICalExporter struct {
	productID string
	clock     func() time.Time
	newUID    func() string
}

// NewICalExporter エクスポーターを作成
func NewICalExporter(productID string) *ICalExporter {
	return &ICalExporter{
		productID: productID,
		clock:     time.Now,
		newUID:    uuid.NewString,
	}
}

// Export VCALENDAR を1つ書き出す。イベントごとに VEVENT を1つ含む
func (x *ICalExporter) Export(w io.Writer, events []*domain.Event) error {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, x.productID)

	stamp := x.clock().UTC()
	for _, event := range events {
		cal.Children = append(cal.Children, x.toVEvent(event, stamp))
	}

	if err := ical.NewEncoder(w).Encode(cal); err != nil {
		return fmt.Errorf("iCalendarの書き出しに失敗しました: %w", err)
	}
	return nil
}

// toVEvent ドメインイベントを VEVENT に変換
func (x *ICalExporter) toVEvent(event *domain.Event, stamp time.Time) *ical.Component {
	ve := ical.NewComponent(ical.CompEvent)
	ve.Props.SetText(ical.PropUID, x.newUID())
	ve.Props.SetDateTime(ical.PropDateTimeStamp, stamp)
	// TZID を付けると VTIMEZONE が必要になるため UTC で書き出す
	ve.Props.SetDateTime(ical.PropDateTimeStart, event.StartTime().UTC())
	ve.Props.SetDateTime(ical.PropDateTimeEnd, event.EndTime().UTC())
	ve.Props.SetText(ical.PropSummary, event.Name())

	if event.Description() != "" {
		ve.Props.SetText(ical.PropDescription, event.Description())
	}

	for _, label := range event.Labels() {
		p := ical.NewProp(ical.PropCategories)
		p.SetText(label)
		ve.Props.Add(p)
	}

	for _, attendee := range event.Attendees() {
		p := ical.NewProp(ical.PropAttendee)
		p.Params.Set(ical.ParamCommonName, attendee)
		p.Value = attendeeAddress(attendee)
		ve.Props.Add(p)
	}

	return ve
}

// attendeeAddress メールアドレスらしい参加者は mailto: にする。それ以外はアドレス無しを表す invalid:nomail
func attendeeAddress(attendee string) string {
	if strings.Contains(attendee, "@") && !strings.ContainsAny(attendee, " \t") {
		return "mailto:" + attendee
	}
	return "invalid:nomail"
}
