package model

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeGDUN(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{name: "7 digits is padded with two zeros", raw: "1234567", want: "001234567"},
		{name: "8 digits is padded with one zero", raw: "12345678", want: "012345678"},
		{name: "9 digits is returned unchanged", raw: "123456789", want: "123456789"},
		{name: "leading zeros are preserved", raw: "0012345", want: "000012345"},
		{name: "surrounding whitespace is trimmed", raw: " 1234567 ", want: "001234567"},
		{name: "6 digits is malformed", raw: "123456", wantErr: true},
		{name: "10 digits is malformed", raw: "1234567890", wantErr: true},
		{name: "empty string is malformed", raw: "", wantErr: true},
		{name: "non-numeric content is malformed", raw: "12345ab", wantErr: true},
		{name: "embedded sign is malformed", raw: "-1234567", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := NormalizeGDUN(tt.raw)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrMalformedGDUN)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Len(t, got, CanonicalGDUNLen)
			assert.True(t, strings.HasSuffix(got, strings.TrimSpace(tt.raw)))
		})
	}
}
