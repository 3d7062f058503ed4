package services

import (
	"fmt"
	"time"
)

// Матч занимает один часовой слот; end_time бронирования — start + 1h.
const matchSlotDuration = time.Hour

// parseTimeSlot проверяет формат "HH:MM" и возвращает нормализованное значение.
func parseTimeSlot(slot string) (string, error) {
	t, err := time.Parse("15:04", slot)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidTimeSlot, slot)
	}
	return t.Format("15:04"), nil
}

func slotEndTime(start string) string {
	t, err := time.Parse("15:04", start)
	if err != nil {
		return start
	}
	return t.Add(matchSlotDuration).Format("15:04")
}

// dateOnly усекает время до полуночи UTC — бронирования оперируют датами.
func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func parseDate(value string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date must be in YYYY-MM-DD format, got %q", ErrValidationFailed, value)
	}
	return t, nil
}
