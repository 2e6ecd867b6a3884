package availability

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const DateLayout = "2006-01-02"

// Monday-first, matching MondayIndex.
var (
	dayNames      = [7]string{"Pazartesi", "Salı", "Çarşamba", "Perşembe", "Cuma", "Cumartesi", "Pazar"}
	shortDayNames = [7]string{"Pzt", "Sal", "Çar", "Per", "Cum", "Cmt", "Paz"}
	monthNames    = [12]string{"Ocak", "Şubat", "Mart", "Nisan", "Mayıs", "Haziran", "Temmuz", "Ağustos", "Eylül", "Ekim", "Kasım", "Aralık"}
)

func DayName(index int) string {
	if index < 0 || index > 6 {
		return ""
	}
	return dayNames[index]
}

func ShortDayName(index int) string {
	if index < 0 || index > 6 {
		return ""
	}
	return shortDayNames[index]
}

// MonthName takes a zero-based month.
func MonthName(month0 int) string {
	if month0 < 0 || month0 > 11 {
		return ""
	}
	return monthNames[month0]
}

// LongDate renders "15 Mart 2025, Cumartesi".
func LongDate(d time.Time) string {
	return fmt.Sprintf("%d %s %d, %s", d.Day(), MonthName(int(d.Month())-1), d.Year(), DayName(Weekday(d)))
}

// ShortTime trims seconds: "11:00:00" becomes "11:00".
func ShortTime(t string) string {
	if len(t) >= 5 {
		return t[:5]
	}
	return t
}

// ParseTime accepts H:MM, HH:MM or HH:MM:SS and returns HH:MM:SS.
func ParseTime(s string) (string, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return "", fmt.Errorf("invalid time %q", s)
	}
	limits := []int{23, 59, 59}
	var vals [3]int
	for i, p := range parts {
		if len(p) == 0 || len(p) > 2 || (i > 0 && len(p) != 2) {
			return "", fmt.Errorf("invalid time %q", s)
		}
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 || n > limits[i] {
			return "", fmt.Errorf("invalid time %q", s)
		}
		vals[i] = n
	}
	return fmt.Sprintf("%02d:%02d:%02d", vals[0], vals[1], vals[2]), nil
}

// NormalizeTime is ParseTime that returns the input unchanged when it does
// not parse.
func NormalizeTime(s string) string {
	if t, err := ParseTime(s); err == nil {
		return t
	}
	return s
}

// ParseDate parses a YYYY-MM-DD calendar date at UTC midnight.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, strings.TrimSpace(s))
}

func FormatDate(d time.Time) string {
	return d.Format(DateLayout)
}

// MonthBounds returns the first and last calendar day of a zero-based month.
func MonthBounds(year, month0 int) (first, last time.Time) {
	first = time.Date(year, time.Month(month0+1), 1, 0, 0, 0, 0, time.UTC)
	last = first.AddDate(0, 1, -1)
	return first, last
}
