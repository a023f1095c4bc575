package normalizer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		name          string
		in            string
		convention    string
		want          time.Time
		wantAmbiguous bool
		wantErr       bool
	}{
		{
			name:       "iso format",
			in:         "2023-04-15",
			convention: ConventionDMY,
			want:       date(2023, time.April, 15),
		},
		{
			name:       "textual month",
			in:         "15 Apr 2023",
			convention: ConventionDMY,
			want:       date(2023, time.April, 15),
		},
		{
			name:       "hyphenated textual month",
			in:         "15-Apr-2023",
			convention: ConventionDMY,
			want:       date(2023, time.April, 15),
		},
		{
			name:       "us textual format",
			in:         "Apr 15, 2023",
			convention: ConventionMDY,
			want:       date(2023, time.April, 15),
		},
		{
			name:       "numeric unambiguous by day value",
			in:         "15/04/2023",
			convention: ConventionMDY,
			want:       date(2023, time.April, 15),
		},
		{
			name:       "numeric unambiguous second field",
			in:         "04/15/2023",
			convention: ConventionDMY,
			want:       date(2023, time.April, 15),
		},
		{
			name:          "ambiguous resolved dmy",
			in:            "04/05/2023",
			convention:    ConventionDMY,
			want:          date(2023, time.May, 4),
			wantAmbiguous: true,
		},
		{
			name:          "ambiguous resolved mdy",
			in:            "04/05/2023",
			convention:    ConventionMDY,
			want:          date(2023, time.April, 5),
			wantAmbiguous: true,
		},
		{
			name:       "equal day and month is not ambiguous",
			in:         "03/03/2023",
			convention: ConventionDMY,
			want:       date(2023, time.March, 3),
		},
		{
			name:       "dotted separator",
			in:         "15.04.2023",
			convention: ConventionDMY,
			want:       date(2023, time.April, 15),
		},
		{
			name:       "trailing time component dropped",
			in:         "2023-04-15 10:30:00",
			convention: ConventionDMY,
			want:       date(2023, time.April, 15),
		},
		{
			name:       "both fields above twelve",
			in:         "13/14/2023",
			convention: ConventionDMY,
			wantErr:    true,
		},
		{
			name:       "calendar overflow rejected",
			in:         "31/02/2023",
			convention: ConventionDMY,
			wantErr:    true,
		},
		{
			name:       "empty value",
			in:         "",
			convention: ConventionDMY,
			wantErr:    true,
		},
		{
			name:       "free text",
			in:         "sometime in april",
			convention: ConventionDMY,
			wantErr:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ambiguous, err := ParseDate(tt.in, tt.convention)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, got.Equal(tt.want), "got %s want %s", got, tt.want)
			assert.Equal(t, tt.wantAmbiguous, ambiguous)
		})
	}
}
