package pagination

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeLineToken(t *testing.T) {
	postingDate := time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)

	token := EncodeLineToken(postingDate, "line-42")
	assert.NotEmpty(t, token, "Token should not be empty")

	decodedDate, lineID, err := DecodeLineToken(token)
	require.NoError(t, err)
	assert.Equal(t, postingDate, decodedDate, "Posting date should match after decode")
	assert.Equal(t, "line-42", lineID, "Line ID should match after decode")

	// Non-UTC dates are normalised but still denote the same instant
	local := time.Date(2024, 3, 31, 10, 15, 0, 123456789, time.FixedZone("CET", 3600))
	decodedLocal, _, err := DecodeLineToken(EncodeLineToken(local, "x"))
	require.NoError(t, err)
	assert.True(t, local.Equal(decodedLocal), "Instant should survive the round trip")
}

func TestDecodeLineTokenError(t *testing.T) {
	_, _, err := DecodeLineToken("this is not base64!")
	assert.Error(t, err, "Should return an error for invalid base64")
	assert.Contains(t, err.Error(), "base64 decode")

	_, _, err = DecodeLineToken(EncodeMultiFieldToken("2024-03-31T00:00:00Z"))
	assert.Error(t, err, "Should return an error for a missing line ID")
	assert.Contains(t, err.Error(), "split")

	_, _, err = DecodeLineToken(EncodeMultiFieldToken("notadate", "line-1"))
	assert.Error(t, err, "Should return an error for invalid date format")
	assert.Contains(t, err.Error(), "posting date parse")
}

func TestEncodeMultiFieldToken(t *testing.T) {
	// Test with simple fields
	fields := []string{"field1", "field2", "field3"}
	token := EncodeMultiFieldToken(fields...)

	decodedFields, err := DecodeMultiFieldToken(token)
	assert.NoError(t, err, "Decoding should not return an error")
	assert.Equal(t, fields, decodedFields, "Fields should match after decode")

	// Test with empty fields
	emptyToken := EncodeMultiFieldToken()
	decodedEmpty, err := DecodeMultiFieldToken(emptyToken)
	assert.NoError(t, err, "Decoding should not return an error")
	// When splitting an empty string with strings.Split, we get a slice with one empty string
	assert.Equal(t, []string{""}, decodedEmpty, "Should decode to slice with one empty string")

	// Test with special characters
	specialFields := []string{"field|with|pipes", "field with spaces"}
	specialToken := EncodeMultiFieldToken(specialFields...)

	decodedSpecial, err := DecodeMultiFieldToken(specialToken)
	assert.NoError(t, err, "Decoding should not return an error")
	assert.Len(t, decodedSpecial, 4, "Should split on all pipe characters")
}
