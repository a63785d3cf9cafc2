// Package core provides the validation engine and its shared types.
//
// # Error Codes Reference
//
// This file maps pipeline and API errors to user-facing messages with codes
// for support reference. Codes are grouped by category:
//
// # Load Errors (LOAD001-LOAD099)
//
//	LOAD001 - Source not found: A declared source file does not exist
//	          Action: Check the source path and name in the metadata
//	LOAD002 - Malformed record: A source line is not a JSON object
//	          Action: Fix or remove the offending line; the whole source was skipped
//	LOAD003 - Unsupported format: Only line-delimited JSON sources can be read
//	          Action: Convert the source to one JSON object per line
//
// # Input Errors (INP001-INP099)
//
//	INP001 - Inline input: Inline input is not a list of records
//	         Action: Pass input.source as a list of JSON objects
//
// # Configuration Errors (CFG001-CFG099)
//
//	CFG001 - Sink not configured: No sink is declared for a partition
//	         Action: Add a sink with input ok_with_date or validation_ko
//	CFG002 - No metadata: The invocation carries no metadata document
//	         Action: Pass the dataflow metadata with the invocation
//
// # Write Errors (WRT001-WRT099)
//
//	WRT001 - Write failed: A destination could not be written
//	         Action: Check permissions and free space at the destination
//
// # Store Errors (STO001-STO099)
//
//	STO001 - Document store: The document store rejected the request
//	         Action: Check the store connection settings
//
// # Auth Errors (AUTH001-AUTH099)
//
//	AUTH001 - Signature has expired
//	AUTH002 - Malformed JWT
//	AUTH003 - Invalid JWT
//
// # Default Error (ERR000)
//
//	ERR000 - Unknown error: An unexpected error occurred
//
// Sentinels are checked with errors.Is in declaration order, so the first
// match wins. Errors that wrap several sentinels map to the earliest one.
package core

import "errors"

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

type errorMapping struct {
	target error
	msg    UserMessage
}

var errorMappings = []errorMapping{
	{ErrTokenExpired, UserMessage{Message: "Signature has expired", Action: "Request a new token", Code: "AUTH001"}},
	{ErrTokenMalformed, UserMessage{Message: "Malformed JWT", Action: "Send a signed token in the JWT header", Code: "AUTH002"}},
	{ErrTokenInvalid, UserMessage{Message: "Invalid JWT", Action: "Request a new token", Code: "AUTH003"}},

	{ErrSourceNotFound, UserMessage{Message: "A declared source file does not exist", Action: "Check the source path and name in the metadata", Code: "LOAD001"}},
	{ErrMalformedRecord, UserMessage{Message: "A source line is not a JSON object", Action: "Fix or remove the offending line; the whole source was skipped", Code: "LOAD002"}},
	{ErrUnsupportedFormat, UserMessage{Message: "Only line-delimited JSON sources can be read", Action: "Convert the source to one JSON object per line", Code: "LOAD003"}},

	{ErrInlineShape, UserMessage{Message: "Inline input is not a list of records", Action: "Pass input.source as a list of JSON objects", Code: "INP001"}},

	{ErrSinkNotConfigured, UserMessage{Message: "No sink is declared for a partition", Action: "Add a sink with input ok_with_date or validation_ko", Code: "CFG001"}},
	{ErrNoMetadata, UserMessage{Message: "The invocation carries no metadata document", Action: "Pass the dataflow metadata with the invocation", Code: "CFG002"}},

	{ErrWriteFailed, UserMessage{Message: "A destination could not be written", Action: "Check permissions and free space at the destination", Code: "WRT001"}},
	{ErrStore, UserMessage{Message: "The document store rejected the request", Action: "Check the store connection settings", Code: "STO001"}},
}

var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts an error to a user-friendly message.
// Returns an empty UserMessage for nil.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}
	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			return m.msg
		}
	}
	return defaultMessage
}

// ErrorCode returns just the support code for err.
func ErrorCode(err error) string {
	return MapError(err).Code
}
