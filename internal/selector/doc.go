// Package selector describes how page elements are located and resolves a
// named element from an ordered list of candidate locators.
//
// Portal markup changes without notice, so every element the automation
// touches is described by several locators. Resolve tries them strictly in
// order and returns the first one whose wait condition is met.
package selector
