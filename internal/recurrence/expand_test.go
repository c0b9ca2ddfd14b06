package recurrence

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinicore/schedengine/internal/timeutil"
)

func bookingRule() Rule {
	patient := uuid.New()
	return Rule{
		ID:              uuid.New(),
		ClinicID:        uuid.New(),
		Frequency:       FrequencyDaily,
		Interval:        1,
		StartDate:       timeutil.DateYMD(2024, time.January, 1),
		StartTime:       timeutil.MustTimeOfDay("14:00"),
		Active:          true,
		Target:          TargetBooking,
		PatientID:       &patient,
		DurationMinutes: 30,
	}
}

func horizon(year int, month time.Month, day int) time.Time {
	return timeutil.DateYMD(year, month, day)
}

func TestExpandWeeklyMondayWednesdayThreeOccurrences(t *testing.T) {
	rule := bookingRule()
	rule.Frequency = FrequencyWeekly
	rule.Weekdays = []time.Weekday{time.Monday, time.Wednesday}
	count := 3
	rule.Count = &count

	// 2024-01-01 is a Monday.
	dates, err := Expand(rule, horizon(2024, time.December, 31))
	require.NoError(t, err)
	require.Len(t, dates, 3)
	assert.Equal(t, timeutil.DateYMD(2024, time.January, 1), dates[0])
	assert.Equal(t, timeutil.DateYMD(2024, time.January, 3), dates[1])
	assert.Equal(t, timeutil.DateYMD(2024, time.January, 8), dates[2])
}

func TestExpandWeeklyOnlySelectedWeekdays(t *testing.T) {
	rule := bookingRule()
	rule.Frequency = FrequencyWeekly
	rule.Weekdays = []time.Weekday{time.Tuesday, time.Thursday}

	dates, err := Expand(rule, horizon(2024, time.March, 31))
	require.NoError(t, err)
	require.NotEmpty(t, dates)
	for _, d := range dates {
		wd := d.Weekday()
		assert.True(t, wd == time.Tuesday || wd == time.Thursday, "unexpected weekday %s on %s", wd, d)
	}
}

func TestExpandBiweeklyFourteenDaySpacing(t *testing.T) {
	rule := bookingRule()
	rule.Frequency = FrequencyBiweekly
	rule.Weekdays = []time.Weekday{time.Monday}

	dates, err := Expand(rule, horizon(2024, time.June, 30))
	require.NoError(t, err)
	require.Greater(t, len(dates), 2)
	for i := 1; i < len(dates); i++ {
		assert.Equal(t, 14, timeutil.DaysBetween(dates[i-1], dates[i]), "dates %s and %s", dates[i-1], dates[i])
	}
}

func TestExpandBiweeklyParityAnchoredToStartDate(t *testing.T) {
	rule := bookingRule()
	rule.Frequency = FrequencyBiweekly
	rule.Weekdays = []time.Weekday{time.Monday, time.Friday}

	dates, err := Expand(rule, horizon(2024, time.February, 29))
	require.NoError(t, err)
	for _, d := range dates {
		weeks := timeutil.DaysBetween(rule.StartDate, d) / 7
		assert.Zero(t, weeks%2, "date %s falls in an off week", d)
	}
	// Friday of the first week is on; Friday of the second week is off.
	assert.Contains(t, dates, timeutil.DateYMD(2024, time.January, 5))
	assert.NotContains(t, dates, timeutil.DateYMD(2024, time.January, 12))
}

func TestExpandMonthlyClampsToMonthEnd(t *testing.T) {
	rule := bookingRule()
	rule.Frequency = FrequencyMonthly
	rule.DayOfMonth = 31
	rule.StartDate = timeutil.DateYMD(2024, time.January, 31)

	dates, err := Expand(rule, horizon(2024, time.April, 30))
	require.NoError(t, err)
	require.Len(t, dates, 4)
	assert.Equal(t, timeutil.DateYMD(2024, time.January, 31), dates[0])
	assert.Equal(t, timeutil.DateYMD(2024, time.February, 29), dates[1], "2024 is a leap year")
	assert.Equal(t, timeutil.DateYMD(2024, time.March, 31), dates[2], "clamp must not stick at 28")
	assert.Equal(t, timeutil.DateYMD(2024, time.April, 30), dates[3])
}

func TestExpandMonthlyNonLeapFebruary(t *testing.T) {
	rule := bookingRule()
	rule.Frequency = FrequencyMonthly
	rule.DayOfMonth = 30
	rule.StartDate = timeutil.DateYMD(2023, time.January, 30)

	dates, err := Expand(rule, horizon(2023, time.March, 31))
	require.NoError(t, err)
	require.Len(t, dates, 3)
	assert.Equal(t, timeutil.DateYMD(2023, time.February, 28), dates[1])
	assert.Equal(t, timeutil.DateYMD(2023, time.March, 30), dates[2])
}

func TestExpandMonthlyMisalignedStartFiresNextMonth(t *testing.T) {
	rule := bookingRule()
	rule.Frequency = FrequencyMonthly
	rule.DayOfMonth = 20
	rule.StartDate = timeutil.DateYMD(2024, time.January, 5)

	dates, err := Expand(rule, horizon(2024, time.March, 31))
	require.NoError(t, err)
	require.Len(t, dates, 2)
	assert.Equal(t, timeutil.DateYMD(2024, time.February, 20), dates[0],
		"a start off the target day anchors the walk, it does not fire in its own month")
	assert.Equal(t, timeutil.DateYMD(2024, time.March, 20), dates[1])
}

func TestExpandMonthlyInterval(t *testing.T) {
	rule := bookingRule()
	rule.Frequency = FrequencyMonthly
	rule.DayOfMonth = 15
	rule.Interval = 3
	rule.StartDate = timeutil.DateYMD(2024, time.January, 15)

	dates, err := Expand(rule, horizon(2024, time.December, 31))
	require.NoError(t, err)
	require.Len(t, dates, 4)
	assert.Equal(t, time.April, dates[1].Month())
	assert.Equal(t, time.July, dates[2].Month())
	assert.Equal(t, time.October, dates[3].Month())
}

func TestExpandDailyInterval(t *testing.T) {
	rule := bookingRule()
	rule.Interval = 2
	count := 5
	rule.Count = &count

	dates, err := Expand(rule, horizon(2024, time.December, 31))
	require.NoError(t, err)
	require.Len(t, dates, 5)
	for i := 1; i < len(dates); i++ {
		assert.Equal(t, 2, timeutil.DaysBetween(dates[i-1], dates[i]))
	}
}

func TestExpandInactiveRuleYieldsNothing(t *testing.T) {
	rule := bookingRule()
	rule.Active = false

	dates, err := Expand(rule, horizon(2024, time.December, 31))
	require.NoError(t, err)
	assert.Empty(t, dates)
}

func TestExpandRespectsEndDate(t *testing.T) {
	rule := bookingRule()
	end := timeutil.DateYMD(2024, time.January, 10)
	rule.EndDate = &end

	dates, err := Expand(rule, horizon(2024, time.December, 31))
	require.NoError(t, err)
	require.Len(t, dates, 10)
	assert.Equal(t, end, dates[len(dates)-1])
}

func TestExpandEffectiveEndDateOverridesEndDate(t *testing.T) {
	rule := bookingRule()
	end := timeutil.DateYMD(2024, time.January, 31)
	rule.EndDate = &end
	truncated := timeutil.DateYMD(2024, time.January, 5)
	rule.EffectiveEndDate = &truncated

	dates, err := Expand(rule, horizon(2024, time.December, 31))
	require.NoError(t, err)
	require.Len(t, dates, 5)
	assert.Equal(t, truncated, dates[len(dates)-1])
}

func TestExpandCapacityExceeded(t *testing.T) {
	rule := bookingRule()

	_, err := Expand(rule, horizon(2030, time.December, 31))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCapacityExceeded)
}

func TestExpandStopsAtCapBoundary(t *testing.T) {
	rule := bookingRule()
	count := MaxOccurrences
	rule.Count = &count

	dates, err := Expand(rule, horizon(2030, time.December, 31))
	require.NoError(t, err)
	assert.Len(t, dates, MaxOccurrences)
}

func TestExpandIdempotent(t *testing.T) {
	rule := bookingRule()
	rule.Frequency = FrequencyWeekly
	rule.Weekdays = []time.Weekday{time.Tuesday, time.Thursday}

	first, err := Expand(rule, horizon(2024, time.June, 30))
	require.NoError(t, err)
	second, err := Expand(rule, horizon(2024, time.June, 30))
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestExpandRequiresHorizon(t *testing.T) {
	rule := bookingRule()
	_, err := Expand(rule, time.Time{})
	assert.ErrorIs(t, err, ErrHorizonRequired)
}

func TestExpandHorizonBeforeStart(t *testing.T) {
	rule := bookingRule()
	dates, err := Expand(rule, horizon(2023, time.June, 1))
	require.NoError(t, err)
	assert.Empty(t, dates)
}

func TestValidateRejections(t *testing.T) {
	patient := uuid.New()
	base := bookingRule()

	cases := []struct {
		name   string
		mutate func(*Rule)
	}{
		{"missing clinic", func(r *Rule) { r.ClinicID = uuid.Nil }},
		{"zero interval", func(r *Rule) { r.Interval = 0 }},
		{"weekly without weekdays", func(r *Rule) { r.Frequency = FrequencyWeekly; r.Weekdays = nil }},
		{"biweekly without weekdays", func(r *Rule) { r.Frequency = FrequencyBiweekly; r.Weekdays = nil }},
		{"monthly without day", func(r *Rule) { r.Frequency = FrequencyMonthly; r.DayOfMonth = 0 }},
		{"monthly day out of range", func(r *Rule) { r.Frequency = FrequencyMonthly; r.DayOfMonth = 32 }},
		{"unknown frequency", func(r *Rule) { r.Frequency = "hourly" }},
		{"booking without patient", func(r *Rule) { r.PatientID = nil }},
		{"booking without duration", func(r *Rule) { r.DurationMinutes = 0 }},
		{"block without reason", func(r *Rule) {
			r.Target = TargetBlock
			r.BlockReason = ""
			r.EndTime = timeutil.MustTimeOfDay("15:00")
		}},
		{"block with inverted times", func(r *Rule) {
			r.Target = TargetBlock
			r.BlockReason = "maintenance"
			r.EndTime = timeutil.MustTimeOfDay("13:00")
		}},
		{"end date before start", func(r *Rule) {
			d := timeutil.DateYMD(2023, time.December, 1)
			r.EndDate = &d
		}},
		{"end date and count both set", func(r *Rule) {
			d := timeutil.DateYMD(2024, time.June, 1)
			n := 5
			r.EndDate = &d
			r.Count = &n
		}},
		{"non-positive count", func(r *Rule) { n := 0; r.Count = &n }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rule := base
			rule.PatientID = &patient
			tc.mutate(&rule)
			err := rule.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidRule), "expected ErrInvalidRule, got %v", err)
		})
	}
}

func TestValidateAcceptsWellFormedRules(t *testing.T) {
	rule := bookingRule()
	require.NoError(t, rule.Validate())

	block := rule
	block.Target = TargetBlock
	block.PatientID = nil
	block.DurationMinutes = 0
	block.BlockReason = "vacation"
	block.EndTime = timeutil.MustTimeOfDay("18:00")
	require.NoError(t, block.Validate())
}
