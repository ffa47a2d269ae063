package core

// # Error Codes Reference
//
// Errors returned to API clients carry a code for support reference.
// Codes are grouped by category:
//
//	IMP001 - Empty file             ErrEmptyInput
//	IMP003 - File too large         ErrFileTooLarge
//	IMP004 - No file                ErrNoFile
//
//	NUT001 - Invalid weight         ErrInvalidWeight
//	NUT002 - Plan not found         ErrPlanNotFound
//	NUT003 - Invalid date range     ErrInvalidRange
//	NUT004 - Weight unknown         ErrWeightUnknown
//
//	SCH001 - Invalid placement      ErrInvalidPlacement
//
//	VAL001 - Invalid date           "invalid date"
//	VAL002 - Invalid time           "invalid time"
//	VAL003 - Invalid request body   ErrInvalidRequest
//
//	UPL001 - System busy            ErrTooManyImports
//	UPL002 - Request cancelled      context.Canceled
//	UPL003 - Request timeout        context.DeadlineExceeded
//
//	DB001  - Duplicate record       SQLSTATE 23505
//	DB002  - Missing reference      SQLSTATE 23503
//	DB003  - Database busy          SQLSTATE 40P01, 40001
//	DB004  - Database unavailable   "connection refused", "connection reset"
//
//	RATE001 - Rate limited          ErrRateLimited
//
//	ERR000 - Unknown error          fallback
//
// Sentinel errors are matched with errors.Is, Postgres errors by SQLSTATE,
// and anything else by case-insensitive substring. The first match wins.
// ERR000 means the technical error is only in the server logs.

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrNoFile is returned when a request carries no upload.
	ErrNoFile = errors.New("no file provided")
	// ErrInvalidRequest is returned for malformed request bodies or parameters.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrRateLimited is returned when a client exceeds its request budget.
	ErrRateLimited = errors.New("rate limit exceeded")
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

type sentinelMessage struct {
	target error
	msg    UserMessage
}

var sentinelMessages = []sentinelMessage{
	{ErrEmptyInput, UserMessage{"The uploaded file has no rows", "Export the workouts again and upload the new file", "IMP001"}},
	{ErrFileTooLarge, UserMessage{"File exceeds the maximum import size", "Export a shorter date range", "IMP003"}},
	{ErrNoFile, UserMessage{"No file was uploaded", "Attach the export as the 'file' form field", "IMP004"}},

	{ErrInvalidWeight, UserMessage{"Weight must be a realistic positive number", "Enter a weight between 0 and 250 kg", "NUT001"}},
	{ErrPlanNotFound, UserMessage{"Nutrition plan not found", "Check the plan ID", "NUT002"}},
	{ErrInvalidRange, UserMessage{"The date range is invalid", "Use start and end dates in YYYY-MM-DD with start before end", "NUT003"}},
	{ErrWeightUnknown, UserMessage{"No weight is on file", "Provide weight_kg in the request", "NUT004"}},

	{ErrInvalidPlacement, UserMessage{"The moved item has an invalid time", "Use a start between 00:00 and 24:00 and a positive duration", "SCH001"}},

	{ErrInvalidRequest, UserMessage{"The request could not be read", "Check the request body and parameters", "VAL003"}},

	{ErrTooManyImports, UserMessage{"Too many imports in progress", "Please wait a moment and try again", "UPL001"}},
	{context.Canceled, UserMessage{"Request was cancelled", "Please try again", "UPL002"}},
	{context.DeadlineExceeded, UserMessage{"Request timed out", "Try a smaller file or try again later", "UPL003"}},

	{ErrRateLimited, UserMessage{"Too many requests", "Please wait a moment before trying again", "RATE001"}},
}

// pgCodeMessages maps Postgres SQLSTATE codes.
var pgCodeMessages = map[string]UserMessage{
	"23505": {"This record already exists", "Review the data for duplicates", "DB001"},
	"23503": {"Referenced record does not exist", "Make sure the user profile exists first", "DB002"},
	"40P01": {"The database was busy", "Please try again", "DB003"},
	"40001": {"The database was busy", "Please try again", "DB003"},
}

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns are matched with strings.Contains against the lowercased
// error text. Specific patterns come before general ones.
var errorPatterns = []errorPattern{
	{"invalid date", UserMessage{"Invalid date", "Use YYYY-MM-DD", "VAL001"}},
	{"invalid time", UserMessage{"Invalid time", "Use HH:MM in 24 hour form", "VAL002"}},
	{"connection refused", UserMessage{"Database unavailable", "Please try again in a few moments", "DB004"}},
	{"connection reset", UserMessage{"Database unavailable", "Please try again", "DB004"}},
}

// defaultMessage is returned when nothing matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message. If
// nothing matches, the generic ERR000 message is returned.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	for _, sm := range sentinelMessages {
		if errors.Is(err, sm.target) {
			return sm.msg
		}
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if msg, ok := pgCodeMessages[pgErr.Code]; ok {
			return msg
		}
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError creates a formatted error string for display.
// The format is: "Message (Code: XXX). Action"
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to a specific message rather than
// the ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}
