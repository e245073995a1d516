package pagination

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"
)

const timeFormat = time.RFC3339Nano // Use a precise time format

// EncodeMultiFieldToken creates a token with any number of string fields
// This provides flexibility for different pagination strategies
func EncodeMultiFieldToken(fields ...string) string {
	tokenStr := strings.Join(fields, "|")
	return base64.StdEncoding.EncodeToString([]byte(tokenStr))
}

// DecodeMultiFieldToken decodes a token into its component fields
func DecodeMultiFieldToken(token string) ([]string, error) {
	decodedBytes, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return nil, fmt.Errorf("invalid pagination token format (base64 decode): %w", err)
	}

	tokenStr := string(decodedBytes)
	parts := strings.Split(tokenStr, "|")
	return parts, nil
}

// EncodeLineToken creates a keyset token positioned after the line with the given posting date and ID.
func EncodeLineToken(postingDate time.Time, lineID string) string {
	return EncodeMultiFieldToken(postingDate.UTC().Format(timeFormat), lineID)
}

// DecodeLineToken parses a token created by EncodeLineToken.
func DecodeLineToken(token string) (time.Time, string, error) {
	parts, err := DecodeMultiFieldToken(token)
	if err != nil {
		return time.Time{}, "", err
	}
	if len(parts) != 2 || parts[1] == "" {
		return time.Time{}, "", fmt.Errorf("invalid pagination token format (split)")
	}

	postingDate, err := time.Parse(timeFormat, parts[0])
	if err != nil {
		return time.Time{}, "", fmt.Errorf("invalid pagination token format (posting date parse): %w", err)
	}
	return postingDate, parts[1], nil
}
