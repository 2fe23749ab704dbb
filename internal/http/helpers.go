package http

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"kakeibo/internal/core"
	"kakeibo/internal/session"
)

// sanitizeInput trims whitespace and strips control characters from
// user-provided form values before they reach the domain layer.
func sanitizeInput(input string) string {
	sanitized := strings.TrimSpace(input)
	sanitized = strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, sanitized)
	return sanitized
}

// generateRequestID returns a random identifier used to correlate log
// lines belonging to one request.
func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

// formatYen renders an amount as "¥1,234" with comma grouping. Yen has
// no fractional unit so there is never a decimal part.
func formatYen(m core.Money) string {
	yen := m.Yen
	sign := ""
	if yen < 0 {
		sign = "-"
		yen = -yen
	}
	digits := strconv.FormatInt(yen, 10)
	var b strings.Builder
	b.WriteString(sign)
	b.WriteString("¥")
	pre := len(digits) % 3
	if pre > 0 {
		b.WriteString(digits[:pre])
		if len(digits) > pre {
			b.WriteString(",")
		}
	}
	for i := pre; i < len(digits); i += 3 {
		b.WriteString(digits[i : i+3])
		if i+3 < len(digits) {
			b.WriteString(",")
		}
	}
	return b.String()
}

// formatPercent renders a 0..1 ratio as an integer percentage.
func formatPercent(ratio float64) string {
	return strconv.Itoa(int(ratio*100)) + "%"
}

// resolvePeriod picks the month a report-facing handler should show.
// An explicit, well-formed "period" parameter wins and is remembered
// on the session; otherwise the session's previous choice (or the
// current month) is used.
func resolvePeriod(r *http.Request, sess *session.Session, now time.Time) core.Period {
	raw := sanitizeInput(r.FormValue("period"))
	if raw != "" {
		if p, err := core.ParsePeriod(raw); err == nil {
			sess.SelectPeriod(p)
			return p
		}
	}
	return sess.SelectedPeriod(now)
}

// parseDraftForm reads the manual-entry fields into a draft. The
// category is coerced rather than rejected so a stale or hand-edited
// form cannot strand the user. Errors carry the message shown in the
// form's flash, so they stay Japanese-only.
func parseDraftForm(r *http.Request) (core.Draft, error) {
	var d core.Draft

	date, err := core.ParseDate(sanitizeInput(r.FormValue("date")))
	if err != nil {
		return d, errors.New("日付が不正です")
	}
	amount, err := core.ParseYen(sanitizeInput(r.FormValue("amount")))
	if err != nil {
		return d, errors.New("金額が不正です")
	}

	d.Date = date
	d.Amount = amount
	d.Item = sanitizeInput(r.FormValue("item"))
	d.Category = core.NormalizeCategory(sanitizeInput(r.FormValue("category")))
	return d, nil
}

// parseIDList converts checkbox values into expense IDs, skipping
// anything that does not parse as a positive integer.
func parseIDList(values []string) []int64 {
	ids := make([]int64, 0, len(values))
	for _, v := range values {
		id, err := strconv.ParseInt(sanitizeInput(v), 10, 64)
		if err != nil || id <= 0 {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}
