package pointers

import "fmt"

// Ptr returns a pointer to a copy of v.
func Ptr[T any](v T) *T {
	return &v
}

// FormatOr renders the value behind ptr with fmt, or placeholder when ptr is nil.
func FormatOr[T any](ptr *T, placeholder string) string {
	if ptr == nil {
		return placeholder
	}
	return fmt.Sprint(*ptr)
}
