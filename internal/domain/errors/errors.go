package errors

import (
	"net/http"

	"github.com/pkg/errors"
)

// AppError defines the interface for application-specific errors
type AppError interface {
	error
	HTTPCode() int     // HTTP status code
	ErrorCode() string // Business error code
	Message() string   // User-friendly error message
	Details() string   // Detailed error information (optional)
}

// BaseError is a basic error structure that implements the AppError interface
type BaseError struct {
	httpCode  int
	errorCode string
	message   string
	details   string
}

// NewBaseError creates a new base error
func NewBaseError(httpCode int, errorCode, message, details string) *BaseError {
	return &BaseError{
		httpCode:  httpCode,
		errorCode: errorCode,
		message:   message,
		details:   details,
	}
}

// Error implements the error interface
func (e *BaseError) Error() string {
	if e.details != "" {
		return e.message + ": " + e.details
	}

	return e.message
}

// Is matches any BaseError carrying the same error code, so copies made by WithDetails
// still satisfy errors.Is against the predefined values.
func (e *BaseError) Is(target error) bool {
	t, ok := target.(*BaseError)
	if !ok {
		return false
	}

	return e.errorCode == t.errorCode
}

// WrapMessage wraps the error with additional context message
func (e *BaseError) WrapMessage(message string) error {
	return errors.Wrap(e, message)
}

// HTTPCode returns the HTTP status code
func (e *BaseError) HTTPCode() int {
	return e.httpCode
}

// ErrorCode returns the business error code
func (e *BaseError) ErrorCode() string {
	return e.errorCode
}

// Message returns the user-friendly error message
func (e *BaseError) Message() string {
	return e.message
}

// Details returns detailed error information
func (e *BaseError) Details() string {
	return e.details
}

// WithDetails adds detailed error information
func (e *BaseError) WithDetails(details string) *BaseError {
	return &BaseError{
		httpCode:  e.httpCode,
		errorCode: e.errorCode,
		message:   e.message,
		details:   details,
	}
}

// Predefined error types
var (
	// Validation errors
	ErrValidationFailed = NewBaseError(
		http.StatusBadRequest,
		"VALIDATION_FAILED",
		"輸入資料驗證失敗",
		"",
	)

	ErrInvalidDateRange = NewBaseError(
		http.StatusBadRequest,
		"INVALID_DATE_RANGE",
		"開始日期必須早於結束日期",
		"",
	)

	// Not found errors
	ErrNotFound = NewBaseError(
		http.StatusNotFound,
		"NOT_FOUND",
		"找不到該資源",
		"",
	)

	ErrUserNotFound = NewBaseError(
		http.StatusNotFound,
		"USER_NOT_FOUND",
		"找不到該使用者",
		"",
	)

	ErrMerchantNotFound = NewBaseError(
		http.StatusNotFound,
		"MERCHANT_NOT_FOUND",
		"找不到該商家",
		"",
	)

	ErrStoreNotFound = NewBaseError(
		http.StatusNotFound,
		"STORE_NOT_FOUND",
		"找不到該門市或門市未營業",
		"",
	)

	ErrCampaignNotFound = NewBaseError(
		http.StatusNotFound,
		"CAMPAIGN_NOT_FOUND",
		"找不到該活動",
		"",
	)

	ErrQRCodeNotFound = NewBaseError(
		http.StatusNotFound,
		"QRCODE_NOT_FOUND",
		"找不到該 QR Code",
		"",
	)

	ErrCheckinNotFound = NewBaseError(
		http.StatusNotFound,
		"CHECKIN_NOT_FOUND",
		"找不到該打卡紀錄",
		"",
	)

	ErrSettingNotFound = NewBaseError(
		http.StatusNotFound,
		"SETTING_NOT_FOUND",
		"找不到該設定",
		"",
	)

	// Campaign lifecycle errors
	ErrInvalidTransition = NewBaseError(
		http.StatusBadRequest,
		"INVALID_TRANSITION",
		"活動狀態無法如此轉換",
		"",
	)

	ErrFieldLocked = NewBaseError(
		http.StatusBadRequest,
		"FIELD_LOCKED",
		"進行中的活動無法修改類型或日期",
		"",
	)

	ErrDeleteNotAllowed = NewBaseError(
		http.StatusBadRequest,
		"DELETE_NOT_ALLOWED",
		"只有草稿狀態的活動可以刪除",
		"",
	)

	ErrExpiredCampaign = NewBaseError(
		http.StatusBadRequest,
		"EXPIRED_CAMPAIGN",
		"活動已過期，無法啟用",
		"",
	)

	// Check-in errors
	ErrDuplicateCheckin = NewBaseError(
		http.StatusConflict,
		"DUPLICATE_CHECKIN",
		"今天已在此門市打卡",
		"",
	)

	ErrCheckinConflict = NewBaseError(
		http.StatusConflict,
		"CHECKIN_CONFLICT",
		"打卡請求衝突，今天已在此門市打卡",
		"",
	)

	ErrCampaignNotActive = NewBaseError(
		http.StatusBadRequest,
		"CAMPAIGN_NOT_ACTIVE",
		"活動目前未進行",
		"",
	)

	ErrQRCodeExpired = NewBaseError(
		http.StatusBadRequest,
		"QRCODE_EXPIRED",
		"QR Code 已過期",
		"",
	)

	ErrQRCodeInactive = NewBaseError(
		http.StatusBadRequest,
		"QRCODE_INACTIVE",
		"QR Code 已停用",
		"",
	)

	ErrQRCodeStoreMismatch = NewBaseError(
		http.StatusBadRequest,
		"QRCODE_STORE_MISMATCH",
		"QR Code 不屬於此門市",
		"",
	)

	ErrQRCodeCampaignMismatch = NewBaseError(
		http.StatusBadRequest,
		"QRCODE_CAMPAIGN_MISMATCH",
		"QR Code 不屬於此活動",
		"",
	)

	ErrQRCodeScanLimitReached = NewBaseError(
		http.StatusBadRequest,
		"QRCODE_SCAN_LIMIT_REACHED",
		"QR Code 已達掃描上限",
		"",
	)

	// Authentication and authorization errors
	ErrUnauthenticated = NewBaseError(
		http.StatusUnauthorized,
		"UNAUTHENTICATED",
		"請先登入",
		"",
	)

	ErrInvalidCredentials = NewBaseError(
		http.StatusUnauthorized,
		"INVALID_CREDENTIALS",
		"帳號或密碼錯誤",
		"",
	)

	ErrUserInactive = NewBaseError(
		http.StatusForbidden,
		"USER_INACTIVE",
		"帳號已停用",
		"",
	)

	ErrForbidden = NewBaseError(
		http.StatusForbidden,
		"FORBIDDEN",
		"存取被拒絕",
		"",
	)

	ErrUserAlreadyExists = NewBaseError(
		http.StatusConflict,
		"USER_ALREADY_EXISTS",
		"此帳號或電子郵件已被註冊",
		"",
	)

	ErrMerchantAlreadyExists = NewBaseError(
		http.StatusConflict,
		"MERCHANT_ALREADY_EXISTS",
		"此使用者已有商家資料",
		"",
	)

	ErrPasswordHashFailed = NewBaseError(
		http.StatusInternalServerError,
		"PASSWORD_HASH_FAILED",
		"密碼處理錯誤",
		"",
	)

	// Store errors
	ErrWriteConflict = NewBaseError(
		http.StatusConflict,
		"WRITE_CONFLICT",
		"資料已被其他請求修改，請稍後再試",
		"",
	)

	// General errors
	ErrInternalError = NewBaseError(
		http.StatusInternalServerError,
		"INTERNAL_ERROR",
		"系統內部錯誤",
		"",
	)
)

// DatabaseExecuteError represents a failure of the underlying store, implementing the AppError interface.
// It is kept apart from business rule errors so callers can retry it.
type DatabaseExecuteError struct {
	err       error
	details   string
	transient bool
}

// NewDatabaseExecuteError creates a database-related error
func NewDatabaseExecuteError(err error, details string) AppError {
	return &DatabaseExecuteError{
		err:     err,
		details: details,
	}
}

// NewTransientDatabaseError creates a database error that is safe to retry, such as a lost connection
func NewTransientDatabaseError(err error, details string) AppError {
	return &DatabaseExecuteError{
		err:       err,
		details:   details,
		transient: true,
	}
}

// Error implements the error interface
func (e *DatabaseExecuteError) Error() string {
	return errors.Wrap(e.err, "database execution failed").Error()
}

// Unwrap exposes the driver error
func (e *DatabaseExecuteError) Unwrap() error {
	return e.err
}

// HTTPCode returns the HTTP status code
func (e *DatabaseExecuteError) HTTPCode() int {
	return http.StatusServiceUnavailable
}

// ErrorCode returns the business error code
func (e *DatabaseExecuteError) ErrorCode() string {
	return "DATABASE_EXECUTE_FAILED"
}

// Message returns the user-friendly error message
func (e *DatabaseExecuteError) Message() string {
	return "資料庫執行失敗，請稍後再試"
}

// Details returns detailed error information
func (e *DatabaseExecuteError) Details() string {
	return e.details
}

// Transient reports whether the failure is safe to retry
func (e *DatabaseExecuteError) Transient() bool {
	return e.transient
}

// IsTransientStoreFailure reports whether err wraps a retryable DatabaseExecuteError
func IsTransientStoreFailure(err error) bool {
	var dbErr *DatabaseExecuteError
	if errors.As(err, &dbErr) {
		return dbErr.Transient()
	}

	return false
}

// IsCheckinConflict reports whether err means another request already recorded the check-in
func IsCheckinConflict(err error) bool {
	return errors.Is(err, ErrDuplicateCheckin) || errors.Is(err, ErrCheckinConflict)
}

// IsWriteConflict reports whether err means a concurrent transaction won a serialization or lock race.
// Re-running the transaction may succeed.
func IsWriteConflict(err error) bool {
	return errors.Is(err, ErrWriteConflict)
}
