package utils

import "regexp"

// The password runs up to the last '@', so passwords containing '/' or '@'
// are still covered.
var credentialPattern = regexp.MustCompile(`(://[^:/@]*:).*@`)

// MaskURL hides the password component of a connection string so it can be reported safely.
func MaskURL(raw string) string {
	return credentialPattern.ReplaceAllString(raw, "${1}****@")
}
