// Package locator finds video cards and their titles in a listing page.
//
// Two strategies exist. The primary one queries the light tree for
// ytd-rich-item-renderer cards. The fallback runs only when the primary one
// finds nothing: it collects title elements across every shadow root and
// walks up to the nearest known card. Both apply the same short-form check
// and title rules.
package locator
