// Package pipeline runs a warm as a sequence of steps.
//
// A run goes through three stages: seeding the frontier from the base URL,
// the extra seeds and the sitemap; draining the frontier with the spider;
// and, when enabled, archiving the finished report in the history database.
// Each stage is a Step that receives the report of the run and adds to it.
//
// Steps of one run share a frontier and blacklist that are created per
// pipeline, so a Pipeline built by DefaultPipeline must not be executed twice.
package pipeline
