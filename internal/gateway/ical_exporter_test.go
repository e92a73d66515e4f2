package gateway

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/emersion/go-ical"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/k-negishi/event-scheduler/internal/domain"
)

// newTestICalExporter UID と時刻を固定したエクスポーター
func newTestICalExporter() *ICalExporter {
	n := 0
	return &ICalExporter{
		productID: "-//test//JP",
		clock: func() time.Time {
			return time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
		},
		newUID: func() string {
			n++
			return []string{"uid-1", "uid-2", "uid-3"}[n-1]
		},
	}
}

func decodeCalendar(t *testing.T, data []byte) *ical.Calendar {
	t.Helper()
	cal, err := ical.NewDecoder(bytes.NewReader(data)).Decode()
	require.NoError(t, err)
	return cal
}

func propText(t *testing.T, props ical.Props, name string) string {
	t.Helper()
	p := props.Get(name)
	require.NotNil(t, p, "property %s is missing", name)
	text, err := p.Text()
	require.NoError(t, err)
	return text
}

// --- attendeeAddress テスト ---

func TestAttendeeAddress(t *testing.T) {
	tests := []struct {
		attendee string
		expected string
	}{
		{"jo@example.com", "mailto:jo@example.com"},
		{"Jo Mo", "invalid:nomail"},
		{"Jo Mo <jo@example.com>", "invalid:nomail"},
	}

	for _, tt := range tests {
		t.Run(tt.attendee, func(t *testing.T) {
			assert.Equal(t, tt.expected, attendeeAddress(tt.attendee))
		})
	}
}

// --- Export テスト ---

func TestExport_FullEvent(t *testing.T) {
	event, err := domain.NewEvent(
		"def",
		time.Date(2025, 1, 31, 21, 0, 0, 0, time.UTC),
		2*time.Hour,
		domain.WithLabels("outdoors", "food"),
		domain.WithDescription("a description"),
		domain.WithAttendees("Jo Mo", "ana@example.com"),
	)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, newTestICalExporter().Export(&buf, []*domain.Event{event}))

	cal := decodeCalendar(t, buf.Bytes())
	assert.Equal(t, "2.0", propText(t, cal.Props, ical.PropVersion))
	assert.Equal(t, "-//test//JP", propText(t, cal.Props, ical.PropProductID))

	events := cal.Events()
	require.Len(t, events, 1)
	ve := events[0]

	assert.Equal(t, "uid-1", propText(t, ve.Props, ical.PropUID))
	assert.Equal(t, "def", propText(t, ve.Props, ical.PropSummary))
	assert.Equal(t, "a description", propText(t, ve.Props, ical.PropDescription))

	start, err := ve.Props.Get(ical.PropDateTimeStart).DateTime(time.UTC)
	require.NoError(t, err)
	assert.True(t, start.Equal(event.StartTime()))

	end, err := ve.Props.Get(ical.PropDateTimeEnd).DateTime(time.UTC)
	require.NoError(t, err)
	assert.True(t, end.Equal(time.Date(2025, 1, 31, 23, 0, 0, 0, time.UTC)))

	var categories []string
	for _, p := range ve.Props.Values(ical.PropCategories) {
		text, err := p.Text()
		require.NoError(t, err)
		categories = append(categories, text)
	}
	assert.Equal(t, []string{"food", "outdoors"}, categories)

	attendees := ve.Props.Values(ical.PropAttendee)
	require.Len(t, attendees, 2)
	assert.Equal(t, "Jo Mo", attendees[0].Params.Get(ical.ParamCommonName))
	assert.Equal(t, "invalid:nomail", attendees[0].Value)
	assert.Equal(t, "ana@example.com", attendees[1].Params.Get(ical.ParamCommonName))
	assert.Equal(t, "mailto:ana@example.com", attendees[1].Value)
}

func TestExport_OmitsEmptyDescription(t *testing.T) {
	event, err := domain.NewEvent("abc", time.Date(2025, 1, 29, 18, 30, 0, 0, time.UTC), 90*time.Minute)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, newTestICalExporter().Export(&buf, []*domain.Event{event}))

	ve := decodeCalendar(t, buf.Bytes()).Events()[0]
	assert.Nil(t, ve.Props.Get(ical.PropDescription))
	assert.Empty(t, ve.Props.Values(ical.PropAttendee))
}

func TestExport_WritesLocalTimesAsUTC(t *testing.T) {
	jst := time.FixedZone("Asia/Tokyo", 9*60*60)
	event, err := domain.NewEvent("standup", time.Date(2025, 2, 3, 9, 30, 0, 0, jst), 15*time.Minute)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, newTestICalExporter().Export(&buf, []*domain.Event{event}))

	cal := decodeCalendar(t, buf.Bytes())
	for _, child := range cal.Children {
		assert.NotEqual(t, ical.CompTimezone, child.Name)
	}
	ve := cal.Events()[0]

	for _, name := range []string{ical.PropDateTimeStart, ical.PropDateTimeEnd} {
		p := ve.Props.Get(name)
		require.NotNil(t, p)
		assert.Empty(t, p.Params.Get(ical.ParamTimezoneID), name)
		assert.True(t, strings.HasSuffix(p.Value, "Z"), "%s = %s", name, p.Value)
	}

	start, err := ve.Props.Get(ical.PropDateTimeStart).DateTime(time.UTC)
	require.NoError(t, err)
	assert.Equal(t, "20250203T003000Z", ve.Props.Get(ical.PropDateTimeStart).Value)
	assert.True(t, start.Equal(event.StartTime()))

	end, err := ve.Props.Get(ical.PropDateTimeEnd).DateTime(time.UTC)
	require.NoError(t, err)
	assert.True(t, end.Equal(event.EndTime()))
}

func TestExport_MultipleEventsGetDistinctUIDs(t *testing.T) {
	a, err := domain.NewEvent("a", time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC), time.Hour)
	require.NoError(t, err)
	b, err := domain.NewEvent("b", time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC), time.Hour)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, newTestICalExporter().Export(&buf, []*domain.Event{a, b}))

	events := decodeCalendar(t, buf.Bytes()).Events()
	require.Len(t, events, 2)
	assert.Equal(t, "uid-1", propText(t, events[0].Props, ical.PropUID))
	assert.Equal(t, "uid-2", propText(t, events[1].Props, ical.PropUID))
}

func TestNewICalExporter_GeneratesUUIDs(t *testing.T) {
	x := NewICalExporter("-//test//JP")
	assert.Len(t, x.newUID(), 36)
	assert.NotEqual(t, x.newUID(), x.newUID())
}
