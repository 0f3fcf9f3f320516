/*
Package dsl provides a fluent builder for constructing workflow graphs in Go
instead of external JSON or YAML files. This is particularly useful for
dynamic graph generation, unit testing, and IDE autocompletion.

Example usage:

	g, err := dsl.New().
		Entry("start").To("writer").
		Agent("writer", "Writer", "You write short stories.").To("gate").
		Approval("gate", "Publish the story?").
		OnApprove("publish").OnReject("rewrite").
		Agent("publish", "Publisher", "You format stories for publishing.").
		Agent("rewrite", "Writer", "You rewrite rejected stories.").
		Build()

The resulting graph runs through agentry.New like any parsed workflow.
*/
package dsl
