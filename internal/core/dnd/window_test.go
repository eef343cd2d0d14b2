package dnd

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/ans/internal/core/anserr"
)

func date(y int, m time.Month, d, hh, mm, ss int) time.Time {
	return time.Date(y, m, d, hh, mm, ss, 0, time.UTC)
}

var fixedNow = date(2026, time.October, 16, 9, 30, 15)

func TestNormalize_NoneIsEpoch(t *testing.T) {
	got, err := Normalize(Window{
		Type:  TypeNone,
		Begin: date(2021, time.December, 22, 20, 18, 0),
		End:   date(2021, time.December, 23, 2, 18, 0),
	}, fixedNow, time.UTC)

	require.NoError(t, err)
	assert.Equal(t, TypeNone, got.Type)
	assert.True(t, got.Begin.Equal(Epoch))
	assert.True(t, got.End.Equal(Epoch))
}

func TestNormalize_OnceAndDaily(t *testing.T) {
	for _, typ := range []Type{TypeOnce, TypeDaily} {
		t.Run(typ.String(), func(t *testing.T) {
			got, err := Normalize(Window{
				Type:  typ,
				Begin: date(2021, time.December, 22, 14, 30, 45),
				End:   date(2021, time.December, 22, 18, 45, 59),
			}, fixedNow, time.UTC)

			require.NoError(t, err)
			assert.Equal(t, typ, got.Type)
			// begin moves to today, end keeps its own date
			assert.Equal(t, date(2026, time.October, 16, 14, 30, 0), got.Begin)
			assert.Equal(t, date(2021, time.December, 22, 18, 45, 0), got.End)
		})
	}
}

func TestNormalize_OnceAcceptsEndBeforeBegin(t *testing.T) {
	got, err := Normalize(Window{
		Type:  TypeOnce,
		Begin: date(2021, time.December, 22, 20, 18, 0),
		End:   date(2021, time.December, 22, 2, 18, 0),
	}, fixedNow, time.UTC)

	require.NoError(t, err)
	assert.Equal(t, date(2026, time.October, 16, 20, 18, 0), got.Begin)
	assert.Equal(t, date(2021, time.December, 22, 2, 18, 0), got.End)
}

func TestNormalize_UsesLocationForToday(t *testing.T) {
	loc := time.FixedZone("UTC+8", 8*3600)
	now := date(2026, time.October, 16, 20, 0, 0) // 2026-10-17 04:00 in loc

	got, err := Normalize(Window{
		Type:  TypeDaily,
		Begin: date(2021, time.December, 22, 1, 5, 0), // 09:05 in loc
		End:   date(2021, time.December, 22, 3, 0, 0),
	}, now, loc)

	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, time.October, 17, 9, 5, 0, 0, loc), got.Begin)
	assert.Equal(t, time.Date(2021, time.December, 22, 11, 0, 0, 0, loc), got.End)
}

func TestNormalize_Clearly(t *testing.T) {
	tests := []struct {
		name    string
		begin   time.Time
		end     time.Time
		wantErr bool
	}{
		{
			name:  "keeps dates and drops seconds",
			begin: date(2021, time.December, 22, 20, 18, 31),
			end:   date(2021, time.December, 23, 2, 18, 59),
		},
		{
			name:    "end before begin on the same day",
			begin:   date(2021, time.December, 22, 20, 18, 0),
			end:     date(2021, time.December, 22, 2, 18, 0),
			wantErr: true,
		},
		{
			name:    "equal instants",
			begin:   date(2021, time.December, 22, 20, 18, 0),
			end:     date(2021, time.December, 22, 20, 18, 0),
			wantErr: true,
		},
		{
			name:    "equal after seconds are dropped",
			begin:   date(2021, time.December, 22, 20, 18, 10),
			end:     date(2021, time.December, 22, 20, 18, 50),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Normalize(Window{Type: TypeClearly, Begin: tt.begin, End: tt.end}, fixedNow, time.UTC)
			if tt.wantErr {
				require.ErrorIs(t, err, anserr.ErrInvalidParam)
				assert.Equal(t, anserr.Code(67108867), anserr.CodeOf(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.begin.Truncate(time.Minute), got.Begin)
			assert.Equal(t, tt.end.Truncate(time.Minute), got.End)
		})
	}
}

func TestNormalize_InvalidType(t *testing.T) {
	_, err := Normalize(Window{Type: 7}, fixedNow, time.UTC)
	assert.ErrorIs(t, err, anserr.ErrInvalidParam)
}

func TestWindow_Contains(t *testing.T) {
	clearly := Window{
		Type:  TypeClearly,
		Begin: date(2026, time.October, 16, 22, 0, 0),
		End:   date(2026, time.October, 17, 7, 0, 0),
	}
	dailyOvernight := Window{
		Type:  TypeDaily,
		Begin: date(2026, time.October, 16, 22, 0, 0),
		End:   date(2020, time.January, 1, 7, 0, 0),
	}
	dailyDaytime := Window{
		Type:  TypeDaily,
		Begin: date(2026, time.October, 16, 9, 0, 0),
		End:   date(2026, time.October, 16, 17, 0, 0),
	}
	dailyAllDay := Window{
		Type:  TypeDaily,
		Begin: date(2026, time.October, 16, 9, 0, 0),
		End:   date(2026, time.October, 16, 9, 0, 0),
	}
	once := Window{
		Type:  TypeOnce,
		Begin: date(2026, time.October, 16, 22, 0, 0),
		End:   date(2020, time.January, 1, 7, 0, 0),
	}

	tests := []struct {
		name string
		w    Window
		at   time.Time
		want bool
	}{
		{"none never", Disabled(), fixedNow, false},
		{"clearly inside", clearly, date(2026, time.October, 17, 1, 0, 0), true},
		{"clearly at begin", clearly, clearly.Begin, true},
		{"clearly at end", clearly, clearly.End, false},
		{"clearly before", clearly, date(2026, time.October, 16, 21, 59, 59), false},
		{"daily overnight late", dailyOvernight, date(2030, time.May, 1, 23, 30, 0), true},
		{"daily overnight early", dailyOvernight, date(2030, time.May, 1, 6, 59, 59), true},
		{"daily overnight midday", dailyOvernight, date(2030, time.May, 1, 12, 0, 0), false},
		{"daily daytime inside", dailyDaytime, date(2019, time.March, 3, 16, 59, 0), true},
		{"daily daytime at end", dailyDaytime, date(2019, time.March, 3, 17, 0, 0), false},
		{"daily equal times cover the day", dailyAllDay, date(2019, time.March, 3, 3, 0, 0), true},
		{"once overnight", once, date(2026, time.October, 17, 6, 0, 0), true},
		{"once next night", once, date(2026, time.October, 17, 23, 0, 0), false},
		{"once before begin", once, date(2026, time.October, 16, 21, 0, 0), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.w.Contains(tt.at, time.UTC))
		})
	}
}

func TestParseType(t *testing.T) {
	typ, err := ParseType("Clearly")
	require.NoError(t, err)
	assert.Equal(t, TypeClearly, typ)

	_, err = ParseType("weekly")
	assert.ErrorIs(t, err, anserr.ErrInvalidParam)
}
