package errors

import "maps"

// ErrorCategory represents the broad category of an error for classification and routing.
type ErrorCategory string

const (
	// CategoryConfig represents user-facing configuration and input errors.
	CategoryConfig     ErrorCategory = "config"
	CategoryValidation ErrorCategory = "validation"

	// CategoryContent represents problems with a single source post.
	CategoryContent  ErrorCategory = "content"
	CategoryTemplate ErrorCategory = "template"

	// CategoryBuild represents build and processing errors.
	CategoryBuild      ErrorCategory = "build"
	CategoryFileSystem ErrorCategory = "filesystem"
	CategoryEventStore ErrorCategory = "eventstore"
	CategoryNetwork    ErrorCategory = "network"

	// CategoryRuntime represents runtime and infrastructure errors.
	CategoryRuntime  ErrorCategory = "runtime"
	CategoryInternal ErrorCategory = "internal"
)

// ErrorSeverity indicates the impact level of an error.
type ErrorSeverity string

const (
	SeverityFatal   ErrorSeverity = "fatal"   // Stops the build
	SeverityError   ErrorSeverity = "error"   // Fails the current operation
	SeverityWarning ErrorSeverity = "warning" // Build continues, item skipped
	SeverityInfo    ErrorSeverity = "info"
)

// Code is a stable identifier for a specific failure kind.
type Code string

// Per-post codes. A post failing with one of these is skipped.
const (
	CodeMissingFrontMatter   Code = "MissingFrontMatter"
	CodeInvalidFrontMatter   Code = "InvalidFrontMatter"
	CodeMissingRequiredField Code = "MissingRequiredField"
	CodeSourceReadFailed     Code = "SourceReadFailed"
	CodeRenderFailed         Code = "RenderFailed"
)

// Build-level codes. These abort the build.
const (
	CodeTemplateNotFound           Code = "TemplateNotFound"
	CodeTemplateInvalid            Code = "TemplateInvalid"
	CodeOutputDirectoryUnavailable Code = "OutputDirectoryUnavailable"
	CodeAssetSourceUnreadable      Code = "AssetSourceUnreadable"
	CodeSourceUnreadable           Code = "SourceUnreadable"
	CodeDuplicateSlug              Code = "DuplicateSlug"
	CodeOutputWriteFailed          Code = "OutputWriteFailed"
	CodeConfigInvalid              Code = "ConfigInvalid"
	CodeCanceled                   Code = "Canceled"
)

// ErrorContext provides structured context for errors.
type ErrorContext map[string]any

// Set adds or updates a context value.
func (c ErrorContext) Set(key string, value any) ErrorContext {
	if c == nil {
		c = make(ErrorContext)
	}
	c[key] = value
	return c
}

// Get retrieves a context value.
func (c ErrorContext) Get(key string) (any, bool) {
	if c == nil {
		return nil, false
	}
	value, exists := c[key]
	return value, exists
}

// GetString retrieves a string context value.
func (c ErrorContext) GetString(key string) (string, bool) {
	if value, exists := c.Get(key); exists {
		if str, ok := value.(string); ok {
			return str, true
		}
	}
	return "", false
}

// Clone returns a shallow copy so derived errors never share a map.
func (c ErrorContext) Clone() ErrorContext {
	out := make(ErrorContext, len(c))
	maps.Copy(out, c)
	return out
}
