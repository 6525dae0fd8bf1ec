package award

import (
	"sort"
	"sync"
	"time"
)

// =============================================================================
// HOLIDAY CALENDAR - Company-specific public holidays
// =============================================================================

// Holiday is a public holiday. Recurring holidays repeat on the same month/day
// every year.
type Holiday struct {
	ID        string
	CompanyID string // empty = applies to every company
	Date      time.Time
	Name      string
	Recurring bool
}

// HolidayCalendar answers public holiday lookups for allowance resolution.
type HolidayCalendar interface {
	// IsHoliday checks company-specific and global holidays.
	IsHoliday(companyID string, date time.Time) bool

	// GetHolidays returns company-specific and global holidays for a year.
	GetHolidays(companyID string, year int) []Holiday
}

// DefaultHolidayCalendar is a no-op calendar for when holidays are disabled.
type DefaultHolidayCalendar struct{}

func (DefaultHolidayCalendar) IsHoliday(companyID string, date time.Time) bool { return false }
func (DefaultHolidayCalendar) GetHolidays(companyID string, year int) []Holiday { return nil }

// StaticHolidayCalendar is an in-memory calendar. Safe for concurrent use.
type StaticHolidayCalendar struct {
	mu       sync.RWMutex
	holidays []Holiday
}

func NewStaticHolidayCalendar(holidays ...Holiday) *StaticHolidayCalendar {
	c := &StaticHolidayCalendar{}
	for _, h := range holidays {
		c.Add(h)
	}
	return c
}

func (c *StaticHolidayCalendar) Add(h Holiday) {
	c.mu.Lock()
	defer c.mu.Unlock()
	h.Date = truncateDay(h.Date)
	c.holidays = append(c.holidays, h)
}

func (c *StaticHolidayCalendar) IsHoliday(companyID string, date time.Time) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, h := range c.holidays {
		if h.AppliesTo(companyID) && h.FallsOn(date) {
			return true
		}
	}
	return false
}

func (c *StaticHolidayCalendar) GetHolidays(companyID string, year int) []Holiday {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []Holiday
	for _, h := range c.holidays {
		if !h.AppliesTo(companyID) {
			continue
		}
		if occurrence, ok := h.InYear(year); ok {
			out = append(out, occurrence)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

// AppliesTo reports whether the holiday is global or belongs to companyID.
func (h Holiday) AppliesTo(companyID string) bool {
	return h.CompanyID == "" || h.CompanyID == companyID
}

// FallsOn reports whether the holiday is observed on date.
func (h Holiday) FallsOn(date time.Time) bool {
	if h.Recurring {
		return h.Date.Month() == date.Month() && h.Date.Day() == date.Day()
	}
	return truncateDay(h.Date).Equal(truncateDay(date))
}

// InYear returns the holiday's occurrence in year, if it has one.
func (h Holiday) InYear(year int) (Holiday, bool) {
	if h.Recurring {
		h.Date = time.Date(year, h.Date.Month(), h.Date.Day(), 0, 0, 0, 0, time.UTC)
		return h, true
	}
	return h, h.Date.Year() == year
}

// =============================================================================
// SHIFT CONTEXT
// =============================================================================

func IsWeekend(date time.Time) bool {
	wd := date.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// ShiftContextFor derives the allowance context of a day's entry. A nil
// calendar means no public holidays.
func ShiftContextFor(e TimeEntry, calendar HolidayCalendar, companyID string) ShiftContext {
	day := e.Day()
	ctx := ShiftContext{IsWeekend: IsWeekend(day)}
	if calendar != nil {
		ctx.IsPublicHoliday = calendar.IsHoliday(companyID, day)
	}
	if e.OnCall != nil {
		ctx.WasCalledBack = e.OnCall.WasCalledBack
		ctx.CallbackHours = e.OnCall.CallbackHours
	}
	return ctx
}
