// Package portal holds what is known about the PG&E customer portal: the
// login flows, the direct URLs used as navigation fallbacks and the
// candidate locators for every element the automation touches.
package portal
