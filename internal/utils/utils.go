package utils

import (
	"math"
	"strconv"
	"strings"
	"unicode"
)

// SliceToMap transforms a slice into a map by applying a key function to each element.
//
// If multiple elements produce the same key, the last one encountered in the slice will overwrite previous ones.
//
// param s the input slice to convert
// param key a function that extracts a comparable key from each element
// return a map[K]T representing the slice keyed by the extracted value
func SliceToMap[T any, K comparable](s []T, key func(T) K) map[K]T {
	m := make(map[K]T)

	for _, v := range s {
		m[key(v)] = v
	}

	return m
}

// ToSnakeCase converts a CamelCase string to snake_case.
// It inserts underscores before uppercase letters (except the first one)
// and converts all letters to lowercase.
//
// Examples:
//
//	ToSnakeCase("UpdatedAt")    => "updated_at"
//	ToSnakeCase("HTTPRequest")  => "http_request"
//	ToSnakeCase("OwnerID")      => "owner_id"
func ToSnakeCase(str string) string {
	var result []rune
	for i, r := range str {
		if unicode.IsUpper(r) {
			// Add underscore if:
			// - not the first character
			// - previous character is lower OR next character is lower (end of acronym)
			if i > 0 && (unicode.IsLower(rune(str[i-1])) || (i+1 < len(str) && unicode.IsLower(rune(str[i+1])))) {
				result = append(result, '_')
			}
			result = append(result, unicode.ToLower(r))
			continue
		}

		result = append(result, r)
	}

	return string(result)
}

// CalculateTotalPages computes the total number of pages required to display all elements,
// given the total number of matching elements (`matchCount`) and the number of elements per page (`pageSize`).
//
// If `pageSize` is zero or negative, the function returns 0 to avoid division by zero.
func CalculateTotalPages(matchCount, pageSize int) int {
	if pageSize <= 0 {
		return 0
	}

	exactPageSize := float64(matchCount) / float64(pageSize)
	return int(math.Ceil(exactPageSize))
}

// ParsePositiveInt parses s as an integer greater than zero, returning fallback otherwise.
func ParsePositiveInt(s string, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

// ParseId parses a numeric path or query id. Zero is not a valid id.
func ParseId(s string) (uint, bool) {
	n, err := strconv.ParseUint(strings.TrimSpace(s), 10, 64)
	if err != nil || n == 0 {
		return 0, false
	}
	return uint(n), true
}
