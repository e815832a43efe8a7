package appointment

import (
	"time"

	"github.com/rs/zerolog"
)

// TodayKey is the synthetic count of appointments falling on the current day.
const TodayKey = "TODAY"

type MonthlyBucket struct {
	Name        string `json:"name"`
	Appointment int    `json:"appointment"`
	Completed   int    `json:"completed"`
}

type Summary struct {
	AppointmentCounts map[string]int  `json:"appointmentCounts"`
	MonthlyData       []MonthlyBucket `json:"monthlyData"`
}

// Aggregator builds dashboard summaries. It never mutates its input.
type Aggregator struct {
	loc    *time.Location
	logger zerolog.Logger
}

func NewAggregator(loc *time.Location, logger zerolog.Logger) *Aggregator {
	if loc == nil {
		loc = time.UTC
	}
	return &Aggregator{loc: loc, logger: logger}
}

// Aggregate counts appointments per status plus TODAY, and buckets them by
// month from January through the current month of the current year.
// Rows with an unknown status are left out of every count; rows with an
// unreadable date still count towards their status.
func (a *Aggregator) Aggregate(appointments []Appointment, now time.Time) Summary {
	today := Today(now, a.loc)
	year, month := today.Year(), today.Month()

	counts := make(map[string]int, len(Statuses)+1)
	for _, s := range Statuses {
		counts[string(s)] = 0
	}
	counts[TodayKey] = 0

	monthly := make([]MonthlyBucket, int(month))
	for i := range monthly {
		monthly[i].Name = time.Month(i + 1).String()[:3]
	}

	for _, appt := range appointments {
		if !appt.Status.Valid() {
			a.logger.Warn().
				Int64("appointment_id", appt.ID).
				Str("status", string(appt.Status)).
				Msg("skipping appointment with unknown status")
			continue
		}
		counts[string(appt.Status)]++

		date := appt.AppointmentDate
		if date.IsZero() {
			a.logger.Debug().
				Int64("appointment_id", appt.ID).
				Msg("appointment date unreadable, left out of date buckets")
			continue
		}

		if SameDay(date, today) {
			counts[TodayKey]++
		}

		if date.Year() == year && date.Month() <= month {
			b := &monthly[date.Month()-1]
			b.Appointment++
			if appt.Status == StatusCompleted {
				b.Completed++
			}
		}
	}

	return Summary{AppointmentCounts: counts, MonthlyData: monthly}
}
