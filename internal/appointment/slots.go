package appointment

import (
	"fmt"
)

// SlotSet is the ordered list of bookable time-of-day labels.
type SlotSet []string

// GenerateTimes produces "HH:MM" labels from openHour up to, but excluding,
// closeHour in stepMinutes increments.
func GenerateTimes(openHour, closeHour, stepMinutes int) SlotSet {
	if stepMinutes <= 0 || closeHour <= openHour {
		return SlotSet{}
	}

	slots := make(SlotSet, 0, (closeHour-openHour)*60/stepMinutes)
	for m := openHour * 60; m < closeHour*60; m += stepMinutes {
		slots = append(slots, fmt.Sprintf("%02d:%02d", m/60, m%60))
	}
	return slots
}

func (s SlotSet) Contains(label string) bool {
	for _, v := range s {
		if v == label {
			return true
		}
	}
	return false
}
