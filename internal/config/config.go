package config

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/aws-sdk-go-v2/service/ssm/types"
	"github.com/joho/godotenv"
)

// SSMParameterGetter Parameter Store からの取得に使うポート（*ssm.Client が満たす）
type SSMParameterGetter interface {
	GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

// Config アプリケーション設定構造体
type Config struct {
	// Google Calendar設定
	GoogleCredentials string
	CalendarID        string

	// その他設定
	LogLevel        string
	Timezone        string
	ExportProductID string

	// AWS関連（本番環境でのみ使用）
	ssmClient SSMParameterGetter
}

// Load 環境に応じて設定を読み込み
func Load() (*Config, error) {
	// AWS Lambda環境かどうか判定
	if os.Getenv("AWS_LAMBDA_FUNCTION_NAME") != "" {
		return loadAWSConfig(context.Background())
	}
	return loadLocalConfig()
}

// loadLocalConfig ローカル開発環境用の設定読み込み
func loadLocalConfig() (*Config, error) {
	// .envファイルを読み込み（存在する場合のみ）
	if err := godotenv.Load(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: .envファイルが見つかりません: %v\n", err)
	}

	cfg := newBaseConfig()
	cfg.GoogleCredentials = getEnvOrDefault("GOOGLE_CREDENTIALS", "")

	// 必須設定項目の確認
	if cfg.GoogleCredentials == "" {
		return nil, fmt.Errorf("GOOGLE_CREDENTIALS環境変数が設定されていません")
	}

	return cfg, nil
}

// loadAWSConfig AWS Lambda環境用の設定読み込み
func loadAWSConfig(ctx context.Context) (*Config, error) {
	awsConfig, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("AWS設定の読み込みに失敗しました: %w", err)
	}

	cfg := newBaseConfig()
	cfg.ssmClient = ssm.NewFromConfig(awsConfig)

	// Parameter Storeから機密情報を取得
	if err := cfg.loadFromParameterStore(ctx); err != nil {
		return nil, fmt.Errorf("Parameter Storeからの設定読み込みに失敗しました: %w", err)
	}

	return cfg, nil
}

func newBaseConfig() *Config {
	return &Config{
		CalendarID:      getEnvOrDefault("CALENDAR_ID", "primary"),
		LogLevel:        getEnvOrDefault("LOG_LEVEL", "INFO"),
		Timezone:        getEnvOrDefault("TIMEZONE", "Asia/Tokyo"),
		ExportProductID: getEnvOrDefault("EXPORT_PRODUCT_ID", "-//event-scheduler//JP"),
	}
}

// loadFromParameterStore Parameter Storeから機密情報を読み込み
func (c *Config) loadFromParameterStore(ctx context.Context) error {
	// Google認証情報を取得
	googleCredsParam := getEnvOrDefault("SSM_GOOGLE_CREDS_PARAM", "/event-scheduler/google-creds")
	googleCreds, err := c.getParameter(ctx, googleCredsParam, true)
	if err != nil {
		return fmt.Errorf("Google認証情報の取得に失敗しました: %w", err)
	}
	c.GoogleCredentials = googleCreds

	// カレンダーIDは任意。未登録（ParameterNotFound）ならデフォルトのまま
	calendarIDParam := getEnvOrDefault("SSM_CALENDAR_ID_PARAM", "/event-scheduler/calendar-id")
	calendarID, err := c.getParameter(ctx, calendarIDParam, false)
	var notFound *types.ParameterNotFound
	switch {
	case err == nil:
		c.CalendarID = calendarID
	case errors.As(err, &notFound):
	default:
		return fmt.Errorf("カレンダーIDの取得に失敗しました: %w", err)
	}

	return nil
}

// getParameter Parameter Storeから指定されたパラメータを取得
func (c *Config) getParameter(ctx context.Context, paramName string, withDecryption bool) (string, error) {
	input := &ssm.GetParameterInput{
		Name:           aws.String(paramName),
		WithDecryption: aws.Bool(withDecryption),
	}

	result, err := c.ssmClient.GetParameter(ctx, input)
	if err != nil {
		return "", fmt.Errorf("パラメータ %s の取得に失敗しました: %w", paramName, err)
	}

	if result.Parameter == nil || result.Parameter.Value == nil || *result.Parameter.Value == "" {
		return "", fmt.Errorf("パラメータ %s が空の値です", paramName)
	}

	return *result.Parameter.Value, nil
}

// GetGoogleCredentialsJSON Google認証情報をJSONとして解析
func (c *Config) GetGoogleCredentialsJSON() (map[string]interface{}, error) {
	var credentials map[string]interface{}
	if err := json.Unmarshal([]byte(c.GoogleCredentials), &credentials); err != nil {
		return nil, fmt.Errorf("Google認証情報のJSON解析に失敗しました: %w", err)
	}
	return credentials, nil
}

// Location Timezone を *time.Location に変換
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("タイムゾーン %s の読み込みに失敗しました: %w", c.Timezone, err)
	}
	return loc, nil
}

// getEnvOrDefault 環境変数を取得し、存在しない場合はデフォルト値を返す
func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}
