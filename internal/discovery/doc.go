// Package discovery finds candidate GitHub repositories for the assistants
// catalog. It searches configured categories through the GitHub search API,
// excludes repositories recommended on earlier runs via an explicit state
// file, and emits a capped recommendation list per category.
package discovery
