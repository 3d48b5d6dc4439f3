// Package main provides the entry point for the StudySight CLI.
//
// StudySight classifies the video items of a listing page as educational or
// not and blurs the rest. Pages are local HTML files or http(s) URLs; the
// annotated page is written back out as HTML.
//
// Usage:
//
//	studysight scan <page>...
//	studysight watch <page>
//	studysight settings set --enabled=false
//
// See --help for all available options.
package main

// main is the entry point for StudySight.
func main() {
	Execute()
}
