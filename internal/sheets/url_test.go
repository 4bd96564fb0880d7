package sheets

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractSheetID(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantID  string
		wantGID string
		wantErr bool
	}{
		{
			name:    "plain edit url",
			url:     "https://docs.google.com/spreadsheets/d/1BxiMVs0XRA5nFMdKvBdBZjgmUUqptlbs74OgvE2upms/edit",
			wantID:  "1BxiMVs0XRA5nFMdKvBdBZjgmUUqptlbs74OgvE2upms",
			wantGID: "0",
		},
		{
			name:    "gid in fragment",
			url:     "https://docs.google.com/spreadsheets/d/1BxiMVs0XRA5nFMdKvBdBZjgmUUqptlbs74OgvE2upms/edit#gid=123456",
			wantID:  "1BxiMVs0XRA5nFMdKvBdBZjgmUUqptlbs74OgvE2upms",
			wantGID: "123456",
		},
		{
			name:    "gid in query",
			url:     "https://docs.google.com/spreadsheets/d/1BxiMVs0XRA5nFMdKvBdBZjgmUUqptlbs74OgvE2upms/edit?gid=77",
			wantID:  "1BxiMVs0XRA5nFMdKvBdBZjgmUUqptlbs74OgvE2upms",
			wantGID: "77",
		},
		{
			name:    "bare id no trailing path",
			url:     "https://docs.google.com/spreadsheets/d/1BxiMVs0XRA5nFMdKvBdBZjgmUUqptlbs74OgvE2upms",
			wantID:  "1BxiMVs0XRA5nFMdKvBdBZjgmUUqptlbs74OgvE2upms",
			wantGID: "0",
		},
		{name: "not a sheets url", url: "https://example.com/doc.csv", wantErr: true},
		{name: "id too short", url: "https://docs.google.com/spreadsheets/d/abc/edit", wantErr: true},
		{name: "empty", url: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, gid, err := ExtractSheetID(tt.url)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, id)
			assert.Equal(t, tt.wantGID, gid)
		})
	}
}

func TestCSVURL(t *testing.T) {
	assert.Equal(t,
		"https://docs.google.com/spreadsheets/d/abc123defg/export?format=csv&gid=0",
		CSVURL("abc123defg", ""))
	assert.Equal(t,
		"https://docs.google.com/spreadsheets/d/abc123defg/export?format=csv&gid=42",
		CSVURL("abc123defg", "42"))
}
