package errors

import "fmt"

// MissingFrontMatter reports a post whose leading metadata block is absent
// or never closed.
func MissingFrontMatter(cause error) *ClassifiedError {
	return ContentError(CodeMissingFrontMatter, "front matter block not found").
		WithCause(cause).
		Build()
}

// InvalidFrontMatter reports a metadata block that is not a key/value mapping.
func InvalidFrontMatter(cause error) *ClassifiedError {
	return ContentError(CodeInvalidFrontMatter, "front matter is not a valid mapping").
		WithCause(cause).
		Build()
}

// MissingRequiredField reports an absent or empty required metadata field.
func MissingRequiredField(field string) *ClassifiedError {
	return ContentError(CodeMissingRequiredField, fmt.Sprintf("missing required field %q", field)).
		WithContext("field", field).
		Build()
}

// SourceReadFailed reports a post file that could not be read.
func SourceReadFailed(path string, cause error) *ClassifiedError {
	return ContentError(CodeSourceReadFailed, "cannot read source file").
		WithCause(cause).
		WithContext("path", path).
		Build()
}

// RenderFailed reports a template execution failure for a single post.
func RenderFailed(slug string, cause error) *ClassifiedError {
	return ContentError(CodeRenderFailed, "cannot render post").
		WithCause(cause).
		WithContext("slug", slug).
		Build()
}

// TemplateNotFound reports a required template file that is missing or unreadable.
func TemplateNotFound(name, path string, cause error) *ClassifiedError {
	return WrapError(cause, CategoryTemplate, fmt.Sprintf("template %s not found", name)).
		WithCode(CodeTemplateNotFound).
		WithContext("name", name).
		WithContext("path", path).
		Fatal().
		Build()
}

// TemplateInvalid reports a template that exists but does not parse.
func TemplateInvalid(name string, cause error) *ClassifiedError {
	return WrapError(cause, CategoryTemplate, fmt.Sprintf("template %s is invalid", name)).
		WithCode(CodeTemplateInvalid).
		WithContext("name", name).
		Fatal().
		Build()
}

// OutputDirectoryUnavailable reports an output root that cannot be cleared or created.
func OutputDirectoryUnavailable(path string, cause error) *ClassifiedError {
	return WrapError(cause, CategoryFileSystem, "output directory unavailable").
		WithCode(CodeOutputDirectoryUnavailable).
		WithContext("path", path).
		Fatal().
		Build()
}

// OutputWriteFailed reports a generated file that could not be written.
func OutputWriteFailed(path string, cause error) *ClassifiedError {
	return WrapError(cause, CategoryFileSystem, "cannot write output file").
		WithCode(CodeOutputWriteFailed).
		WithContext("path", path).
		Fatal().
		Build()
}

// AssetSourceUnreadable reports an asset directory or file that cannot be read.
func AssetSourceUnreadable(path string, cause error) *ClassifiedError {
	return WrapError(cause, CategoryFileSystem, "asset source unreadable").
		WithCode(CodeAssetSourceUnreadable).
		WithContext("path", path).
		Fatal().
		Build()
}

// SourceUnreadable reports a posts directory that cannot be listed.
func SourceUnreadable(path string, cause error) *ClassifiedError {
	return WrapError(cause, CategoryFileSystem, "posts directory unreadable").
		WithCode(CodeSourceUnreadable).
		WithContext("path", path).
		Fatal().
		Build()
}

// DuplicateSlug reports two posts resolving to the same slug.
func DuplicateSlug(slug, first, second string) *ClassifiedError {
	return NewError(CategoryBuild, fmt.Sprintf("slug %q produced by %s and %s", slug, first, second)).
		WithCode(CodeDuplicateSlug).
		WithContext("slug", slug).
		WithContext("first", first).
		WithContext("second", second).
		Fatal().
		Build()
}

// Canceled reports a build interrupted by its context.
func Canceled(stage string, cause error) *ClassifiedError {
	return WrapError(cause, CategoryRuntime, "build canceled").
		WithCode(CodeCanceled).
		WithContext("stage", stage).
		Fatal().
		Build()
}
