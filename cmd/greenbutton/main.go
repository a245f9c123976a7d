// Package main provides the entry point for the greenbutton CLI.
//
// greenbutton signs in to the PG&E customer portal with a browser and
// downloads the Green Button usage export for a date range.
//
// Usage:
//
//	greenbutton download --start 2024-01-05 --end 2024-01-31
//	greenbutton history
//
// See --help for all available options.
package main

func main() {
	Execute()
}
