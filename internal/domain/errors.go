package domain

import (
	"fmt"
)

type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Err        error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is matches two AppErrors by code so that errors produced with WithError
// still satisfy errors.Is against the predefined value.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

func (e *AppError) WithError(err error) *AppError {
	return &AppError{
		Code:       e.Code,
		Message:    e.Message,
		StatusCode: e.StatusCode,
		Err:        err,
	}
}

// Pre-defined errors
var (
	ErrInternal = &AppError{
		Code:       "INTERNAL_ERROR",
		Message:    "An unexpected error occurred",
		StatusCode: 500,
	}

	ErrBadRequest = &AppError{
		Code:       "BAD_REQUEST",
		Message:    "Invalid request",
		StatusCode: 400,
	}

	ErrNotFound = &AppError{
		Code:       "NOT_FOUND",
		Message:    "Resource not found",
		StatusCode: 404,
	}

	ErrValidationFailed = &AppError{
		Code:       "VALIDATION_FAILED",
		Message:    "Request validation failed",
		StatusCode: 422,
	}

	ErrRateLimitExceeded = &AppError{
		Code:       "RATE_LIMIT_EXCEEDED",
		Message:    "Rate limit exceeded, please try again later",
		StatusCode: 429,
	}

	// Configuration errors are fatal: no partial gallery is ever used.
	ErrConfiguration = &AppError{
		Code:       "CONFIGURATION_ERROR",
		Message:    "Invalid configuration",
		StatusCode: 500,
	}

	ErrDimensionMismatch = &AppError{
		Code:       "EMBEDDING_DIMENSION_MISMATCH",
		Message:    "Embedding dimensionality does not match the gallery",
		StatusCode: 500,
	}

	ErrReferenceDirInvalid = &AppError{
		Code:       "REFERENCE_DIR_INVALID",
		Message:    "Reference image directory is missing or unreadable",
		StatusCode: 500,
	}

	ErrInvalidImage = &AppError{
		Code:       "INVALID_IMAGE",
		Message:    "Invalid image format or corrupted file",
		StatusCode: 422,
	}

	ErrNoFaceDetected = &AppError{
		Code:       "NO_FACE_DETECTED",
		Message:    "No face detected in the image",
		StatusCode: 422,
	}

	ErrMultipleFaces = &AppError{
		Code:       "MULTIPLE_FACES",
		Message:    "Multiple faces detected, please provide image with single face",
		StatusCode: 422,
	}

	ErrDeviceUnavailable = &AppError{
		Code:       "CAMERA_UNAVAILABLE",
		Message:    "Camera device cannot be opened or read",
		StatusCode: 503,
	}

	ErrProviderUnavailable = &AppError{
		Code:       "FACE_PROVIDER_UNAVAILABLE",
		Message:    "Face detection service is unavailable",
		StatusCode: 502,
	}

	ErrAttendanceUnavailable = &AppError{
		Code:       "ATTENDANCE_API_UNREACHABLE",
		Message:    "Attendance service is unreachable",
		StatusCode: 502,
	}

	ErrInvalidSignature = &AppError{
		Code:       "INVALID_SIGNATURE",
		Message:    "Request signature is missing or invalid",
		StatusCode: 401,
	}

	ErrUserNotFound = &AppError{
		Code:       "USER_NOT_FOUND",
		Message:    "Invalid enrollment number",
		StatusCode: 404,
	}

	ErrUserExists = &AppError{
		Code:       "USER_ALREADY_EXISTS",
		Message:    "A user with this enrollment number already exists",
		StatusCode: 409,
	}

	ErrSessionNotFound = &AppError{
		Code:       "SESSION_NOT_FOUND",
		Message:    "Session not found, please log in first",
		StatusCode: 404,
	}

	ErrDayNotFound = &AppError{
		Code:       "DAY_NOT_FOUND",
		Message:    "No timetable for the requested day",
		StatusCode: 404,
	}

	// Same code as ErrValidationFailed, with the message attendance clients expect
	ErrMissingAttendanceFields = &AppError{
		Code:       "VALIDATION_FAILED",
		Message:    "Missing student_id or subject",
		StatusCode: 400,
	}
)
