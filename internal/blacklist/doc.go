// Package blacklist decides which URLs are never fetched during a warm run.
//
// A blacklist is a list of plain substrings. A URL is blacklisted when any
// pattern occurs in it, compared under Unicode case folding. Patterns are
// not globs or regular expressions.
//
// The list normally comes from a "blacklist" file next to the working
// directory, one pattern per line:
//
//	/logout
//	?add-to-cart=
//	/wp-admin
package blacklist
