package domain

import (
	"errors"
	"fmt"
)

// ErrValidation イベント生成時の入力検証エラー
var ErrValidation = errors.New("イベントの入力値が不正です")

// FieldError 特定フィールドの検証エラー
type FieldError struct {
	Field   string
	Message string
	Limit   int
	Current int
}

// ValidationError NewEvent が返す検証エラー。違反したフィールドを全て保持する
type ValidationError struct {
	Errors []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return ErrValidation.Error()
	}
	detail := fmt.Sprintf("%s: %s", e.Errors[0].Field, e.Errors[0].Message)
	if len(e.Errors) > 1 {
		detail = fmt.Sprintf("%s (他 %d 件)", detail, len(e.Errors)-1)
	}
	return fmt.Sprintf("%v: %s", ErrValidation, detail)
}

// Is errors.Is(err, ErrValidation) を満たす
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// Field 指定フィールドのエラーを返す
func (e *ValidationError) Field(name string) (FieldError, bool) {
	for _, fe := range e.Errors {
		if fe.Field == name {
			return fe, true
		}
	}
	return FieldError{}, false
}

func tooLong(field string, limit, current int) FieldError {
	return FieldError{
		Field:   field,
		Message: fmt.Sprintf("%d 文字以内で指定してください (現在 %d 文字)", limit, current),
		Limit:   limit,
		Current: current,
	}
}

func tooMany(field string, limit, current int) FieldError {
	return FieldError{
		Field:   field,
		Message: fmt.Sprintf("%d 件以内で指定してください (現在 %d 件)", limit, current),
		Limit:   limit,
		Current: current,
	}
}
