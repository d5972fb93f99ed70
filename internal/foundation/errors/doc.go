// Package errors provides the classified error primitives used across the site builder.
//
// Every failure the build pipeline can report is a ClassifiedError carrying a
// category (what part of the system failed), a severity (whether the build
// continues) and, for content and pipeline failures, a stable Code that
// operators can grep for in build reports.
//
// Per-post failures (MissingFrontMatter, InvalidFrontMatter, MissingRequiredField)
// are warnings: the post is skipped and the build goes on. Pipeline failures
// (TemplateNotFound, OutputDirectoryUnavailable, AssetSourceUnreadable,
// DuplicateSlug) are fatal.
//
// Example usage:
//
//	err := errors.NewError(errors.CategoryTemplate, "template not found").
//		WithCode(errors.CodeTemplateNotFound).
//		WithContext("name", "post.html").
//		Fatal().
//		Build()
package errors
