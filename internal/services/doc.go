// Package services defines the shared error taxonomy and context annotations
// used across the generation and import pipelines.
package services
