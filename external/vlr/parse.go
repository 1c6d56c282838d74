package vlr

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

var (
	eventIDRegex     = regexp.MustCompile(`/event/(?:matches/)?(\d+)`)
	matchIDRegex     = regexp.MustCompile(`^/(\d{5,})(?:/|$)`)
	matchPathRegex   = regexp.MustCompile(`/match/(\d{5,})/`)
	yearRegex        = regexp.MustCompile(`\b(20\d{2})\b`)
	singleDigitRegex = regexp.MustCompile(`\b(\d)\b`)
	spaceRegex       = regexp.MustCompile(`\s+`)
)

// firstLine returns the first non-empty line of the selection's text.
// Player and team cells stack the name above a tag or country line.
func firstLine(sel *goquery.Selection) string {
	for _, line := range strings.Split(sel.Text(), "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			return trimmed
		}
	}
	return ""
}

func collapseSpaces(value string) string {
	return strings.TrimSpace(spaceRegex.ReplaceAllString(value, " "))
}

// cellText picks the both-sides value when a stat cell is split by side.
func cellText(cell *goquery.Selection) string {
	if both := cell.Find(".mod-both"); both.Length() > 0 {
		return firstLine(both.First())
	}
	return firstLine(cell)
}

// parseNumber reads a stat cell: "1.23", "74%", "/12", "". Dashes and blanks
// read as zero; anything else unparsable reports ok=false.
func parseNumber(raw string) (float64, bool) {
	value := strings.TrimSpace(raw)
	value = strings.ReplaceAll(value, "/", "")
	value = strings.ReplaceAll(value, "%", "")
	value = strings.TrimSpace(value)
	switch value {
	case "", "-", "–", "—":
		return 0, true
	}
	out, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, false
	}
	return out, true
}

func parseScore(raw string) (int, bool) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return 0, false
	}
	out, err := strconv.Atoi(value)
	if err != nil || out < 0 {
		return 0, false
	}
	return out, true
}

func matchIDFromHref(href string) (string, bool) {
	href = cleanHref(href)
	for _, skip := range []string{"/news/", "/event/", "/rankings/", "/forum/", "/player/", "/team/"} {
		if strings.Contains(href, skip) {
			return "", false
		}
	}
	if m := matchIDRegex.FindStringSubmatch(href); m != nil {
		return m[1], true
	}
	if m := matchPathRegex.FindStringSubmatch(href); m != nil {
		return m[1], true
	}
	return "", false
}

func eventIDFromHref(href string) (string, bool) {
	m := eventIDRegex.FindStringSubmatch(href)
	if m == nil {
		return "", false
	}
	return m[1], true
}

func cleanHref(href string) string {
	href = strings.TrimSpace(href)
	if i := strings.IndexAny(href, "?#"); i >= 0 {
		href = href[:i]
	}
	return href
}

var monthDayLayouts = []string{"Jan 2 2006", "January 2 2006"}

// parseDateRange reads listing ranges such as "Feb 28—Mar 16" or
// "Jan 15 - 23". Listings omit the year, so it is taken from the event name
// or the reference time. A range that wraps the new year ends next year.
func parseDateRange(raw, eventName string, ref time.Time) (*time.Time, *time.Time) {
	raw = collapseSpaces(raw)
	if raw == "" || strings.EqualFold(raw, "TBD") {
		return nil, nil
	}

	year := ref.Year()
	if m := yearRegex.FindStringSubmatch(eventName); m != nil {
		if parsed, err := strconv.Atoi(m[1]); err == nil {
			year = parsed
		}
	}
	if m := yearRegex.FindStringSubmatch(raw); m != nil {
		if parsed, err := strconv.Atoi(m[1]); err == nil {
			year = parsed
		}
		raw = strings.TrimSpace(yearRegex.ReplaceAllString(raw, ""))
		raw = strings.TrimRight(raw, ", ")
	}

	parts := strings.FieldsFunc(raw, func(r rune) bool {
		return r == '—' || r == '–' || r == '-'
	})
	if len(parts) == 0 {
		return nil, nil
	}

	start, ok := parseMonthDay(strings.TrimSpace(parts[0]), year)
	if !ok {
		return nil, nil
	}
	if len(parts) < 2 {
		return &start, nil
	}

	endRaw := strings.TrimSpace(parts[1])
	if _, err := strconv.Atoi(endRaw); err == nil {
		endRaw = start.Format("Jan") + " " + endRaw
	}
	end, ok := parseMonthDay(endRaw, year)
	if !ok {
		return &start, nil
	}
	if end.Before(start) {
		end = end.AddDate(1, 0, 0)
	}
	return &start, &end
}

func parseMonthDay(value string, year int) (time.Time, bool) {
	value = strings.TrimRight(strings.TrimSpace(value), ",")
	for _, layout := range monthDayLayouts {
		if parsed, err := time.Parse(layout, value+" "+strconv.Itoa(year)); err == nil {
			return parsed.UTC(), true
		}
	}
	return time.Time{}, false
}
