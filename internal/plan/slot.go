package plan

import (
	"fmt"
	"strings"
	"time"
)

// Slot is a time of day eligible for scheduling.
type Slot string

const (
	SlotMorning   Slot = "Morning"
	SlotAfternoon Slot = "Afternoon"
	SlotEvening   Slot = "Evening"
	SlotNight     Slot = "Night"
)

// AllSlots lists the slots in the order they occur during a day.
var AllSlots = []Slot{SlotMorning, SlotAfternoon, SlotEvening, SlotNight}

// slotStartHours is the local start hour used when a slot is placed on a date.
var slotStartHours = map[Slot]int{
	SlotMorning:   8,
	SlotAfternoon: 13,
	SlotEvening:   18,
	SlotNight:     21,
}

// Valid reports whether s is one of the known slots.
func (s Slot) Valid() bool {
	_, ok := slotStartHours[s]
	return ok
}

// StartHour returns the hour of day at which sessions in this slot begin.
func (s Slot) StartHour() int {
	return slotStartHours[s]
}

// On places the slot on the calendar date of day, in day's location.
func (s Slot) On(day time.Time) time.Time {
	y, m, d := day.Date()
	return time.Date(y, m, d, s.StartHour(), 0, 0, 0, day.Location())
}

// ParseSlot resolves a slot name case-insensitively.
func ParseSlot(name string) (Slot, error) {
	n := strings.TrimSpace(name)
	for _, s := range AllSlots {
		if strings.EqualFold(string(s), n) {
			return s, nil
		}
	}
	return "", fmt.Errorf("unknown time slot %q", name)
}

// SlotForHour maps an hour of day back to the slot that contains it.
func SlotForHour(hour int) Slot {
	switch {
	case hour >= 5 && hour < 12:
		return SlotMorning
	case hour >= 12 && hour < 17:
		return SlotAfternoon
	case hour >= 17 && hour < 21:
		return SlotEvening
	default:
		return SlotNight
	}
}
