package usecase

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/k-negishi/event-scheduler/internal/domain"
)

// CalendarRepository カレンダーからイベントを取得するポート
type CalendarRepository interface {
	GetEvents(ctx context.Context, targetDate time.Time) ([]*domain.Event, error)
}

// Exporter イベントを書き出すポート
type Exporter interface {
	Export(w io.Writer, events []*domain.Event) error
}

// ExportScheduleUseCase 予定エクスポートユースケース
type ExportScheduleUseCase struct {
	calendarRepo CalendarRepository
	exporter     Exporter
	logger       *slog.Logger
}

// NewExportScheduleUseCase ユースケースを生成
func NewExportScheduleUseCase(calendarRepo CalendarRepository, exporter Exporter, logger *slog.Logger) *ExportScheduleUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExportScheduleUseCase{
		calendarRepo: calendarRepo,
		exporter:     exporter,
		logger:       logger,
	}
}

// Execute 指定日の予定を取得して w に書き出す。予定が1件も無ければ何も書き出さない
func (uc *ExportScheduleUseCase) Execute(ctx context.Context, w io.Writer, days ...time.Time) (int, error) {
	var events []*domain.Event
	for _, day := range days {
		dayEvents, err := uc.calendarRepo.GetEvents(ctx, day)
		if err != nil {
			uc.logger.Error("予定の取得に失敗しました", "date", day.Format(time.DateOnly), "error", err)
			return 0, fmt.Errorf("%s の予定取得に失敗しました: %w", day.Format(time.DateOnly), err)
		}
		events = append(events, dayEvents...)
	}

	if len(events) == 0 {
		uc.logger.Info("予定なしのためエクスポートをスキップしました")
		return 0, nil
	}

	if err := uc.exporter.Export(w, events); err != nil {
		uc.logger.Error("予定のエクスポートに失敗しました", "error", err)
		return 0, err
	}

	uc.logger.Info("予定をエクスポートしました", "count", len(events))
	return len(events), nil
}
