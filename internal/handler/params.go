package handler

import (
    "errors"
    "strconv"
    "strings"
    "time"
)

var errBadDate = errors.New("date must be YYYY-MM-DD or RFC 3339")

// parseDate reads a calendar day (interpreted in loc) or an RFC 3339
// instant.
func parseDate(raw string, loc *time.Location) (time.Time, error) {
    raw = strings.TrimSpace(raw)
    if t, err := time.ParseInLocation(time.DateOnly, raw, loc); err == nil {
        return t, nil
    }
    if t, err := time.Parse(time.RFC3339, raw); err == nil {
        return t, nil
    }
    return time.Time{}, errBadDate
}

// splitList splits a comma separated query value, dropping blanks.
func splitList(raw string) []string {
    if strings.TrimSpace(raw) == "" {
        return nil
    }
    parts := strings.Split(raw, ",")
    out := make([]string, 0, len(parts))
    for _, p := range parts {
        if p = strings.TrimSpace(p); p != "" {
            out = append(out, p)
        }
    }
    return out
}

// queryInt parses an optional positive integer; blank yields 0.
func queryInt(raw string) (int, error) {
    if raw == "" {
        return 0, nil
    }
    n, err := strconv.Atoi(raw)
    if err != nil || n < 0 {
        return 0, errors.New("expected a non-negative integer")
    }
    return n, nil
}
