package period

import (
	"fmt"
	"time"
)

// Period is a fixed local-time class slot. Start/End are "HHmm" strings
// resolved against a calendar date at lookup time.
type Period struct {
	ID    string
	Label string
	Start string
	End   string
}

// Window is a Period resolved onto a concrete date.
type Window struct {
	ID    string
	Label string
	Start time.Time
	End   time.Time
}

// DefaultPeriods mirrors the institute timetable.
func DefaultPeriods() []Period {
	return []Period{
		{ID: "P1", Label: "Period 1", Start: "0930", End: "1030"},
		{ID: "P2", Label: "Period 2", Start: "1030", End: "1130"},
		{ID: "P3", Label: "Period 3", Start: "1145", End: "1245"},
		{ID: "P4", Label: "Period 4", Start: "1400", End: "1500"},
		{ID: "P5", Label: "Period 5", Start: "1500", End: "1600"},
		{ID: "P6", Label: "Period 6", Start: "1600", End: "1700"},
	}
}

// Policy resolves the current class period and computes session end
// times. The zone is treated as a fixed offset; daylight-saving shifts
// are a documented limitation, not handled here.
type Policy struct {
	loc           *time.Location
	periods       []Period
	sessionWindow time.Duration
}

func NewPolicy(loc *time.Location, periods []Period, sessionWindow time.Duration) *Policy {
	if loc == nil {
		loc = time.UTC
	}
	if len(periods) == 0 {
		periods = DefaultPeriods()
	}
	if sessionWindow <= 0 {
		sessionWindow = 10 * time.Minute
	}
	return &Policy{loc: loc, periods: periods, sessionWindow: sessionWindow}
}

// LoadPolicy builds a Policy from an IANA zone name.
func LoadPolicy(timezone string, periods []Period, sessionWindow time.Duration) (*Policy, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", timezone, err)
	}
	return NewPolicy(loc, periods, sessionWindow), nil
}

func (p *Policy) Now() time.Time {
	return time.Now().In(p.loc)
}

func (p *Policy) Location() *time.Location {
	return p.loc
}

// Current returns the period window whose [start, end) contains now.
// Periods are a sorted, non-overlapping list, so at most one matches.
func (p *Policy) Current(now time.Time) (Window, bool) {
	local := now.In(p.loc)
	for _, period := range p.periods {
		w := p.window(period, local)
		if !local.Before(w.Start) && local.Before(w.End) {
			return w, true
		}
	}
	return Window{}, false
}

// Window resolves a period id onto the reference date.
func (p *Policy) Window(id string, reference time.Time) (Window, bool) {
	for _, period := range p.periods {
		if period.ID == id {
			return p.window(period, reference.In(p.loc)), true
		}
	}
	return Window{}, false
}

// SessionEnd caps a session at the smaller of now+window and the period
// end, so a session never outlives its period.
func (p *Policy) SessionEnd(now time.Time, w Window) time.Time {
	proposed := now.Add(p.sessionWindow)
	if proposed.Before(w.End) {
		return proposed
	}
	return w.End
}

// LocalDate formats the calendar date in the configured zone.
func (p *Policy) LocalDate(t time.Time) string {
	return t.In(p.loc).Format("2006-01-02")
}

// FormatLocal renders t in the configured zone with the given layout.
func (p *Policy) FormatLocal(t time.Time, layout string) string {
	return t.In(p.loc).Format(layout)
}

func (p *Policy) window(period Period, reference time.Time) Window {
	return Window{
		ID:    period.ID,
		Label: period.Label,
		Start: atClock(reference, period.Start),
		End:   atClock(reference, period.End),
	}
}

func atClock(reference time.Time, hhmm string) time.Time {
	hour := int(hhmm[0]-'0')*10 + int(hhmm[1]-'0')
	minute := int(hhmm[2]-'0')*10 + int(hhmm[3]-'0')
	return time.Date(
		reference.Year(), reference.Month(), reference.Day(),
		hour, minute, 0, 0, reference.Location(),
	)
}
