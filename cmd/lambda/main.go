package main

import (
	"bytes"
	"context"
	"log/slog"
	"time"

	"github.com/aws/aws-lambda-go/lambda"

	"github.com/k-negishi/event-scheduler/internal/config"
	"github.com/k-negishi/event-scheduler/internal/gateway"
	"github.com/k-negishi/event-scheduler/internal/logging"
	"github.com/k-negishi/event-scheduler/internal/usecase"
)

// LambdaEvent Lambda実行時のイベント構造体
type LambdaEvent struct {
	// EventBridge Schedulerからの実行なので特に使用しない
}

// LambdaResponse Lambda実行結果のレスポンス
type LambdaResponse struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
	Count      int    `json:"count"`
	Body       string `json:"body,omitempty"`
}

func failure(message string, err error) (LambdaResponse, error) {
	slog.Error(message, "error", err)
	return LambdaResponse{StatusCode: 500, Message: message}, err
}

// handler Lambda関数のメインハンドラー
func handler(ctx context.Context, _ LambdaEvent) (LambdaResponse, error) {
	// 設定を読み込み
	cfg, err := config.Load()
	if err != nil {
		return failure("設定読み込みエラー", err)
	}
	logger := logging.Setup(cfg.LogLevel)

	loc, err := cfg.Location()
	if err != nil {
		return failure("タイムゾーン設定エラー", err)
	}

	// Google Calendarリポジトリを初期化
	repo, err := gateway.NewGoogleCalendarRepository(ctx, []byte(cfg.GoogleCredentials), cfg.CalendarID, loc)
	if err != nil {
		return failure("Google Calendar初期化エラー", err)
	}

	uc := usecase.NewExportScheduleUseCase(repo.WithLogger(logger), gateway.NewICalExporter(cfg.ExportProductID), logger)

	now := time.Now().In(loc)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
	tomorrow := today.AddDate(0, 0, 1)

	var body bytes.Buffer
	count, err := uc.Execute(ctx, &body, today, tomorrow)
	if err != nil {
		return failure("予定エクスポートエラー", err)
	}

	if count == 0 {
		return LambdaResponse{
			StatusCode: 200,
			Message:    "予定なしのためエクスポートスキップ",
		}, nil
	}

	return LambdaResponse{
		StatusCode: 200,
		Message:    "エクスポート完了",
		Count:      count,
		Body:       body.String(),
	}, nil
}

func main() {
	lambda.Start(handler)
}
