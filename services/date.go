package services

import (
	"fmt"
	"strings"
	"time"
)

// dateLayouts are tried in order: HTML5 date inputs first, then the
// dd/mm/yyyy form the portal and its users write
var dateLayouts = []string{"2006-01-02", "02/01/2006", time.RFC3339}

// ParseDate parses a user-entered date
func ParseDate(dateStr string) (time.Time, error) {
	dateStr = strings.TrimSpace(dateStr)
	for _, layout := range dateLayouts {
		if parsed, err := time.Parse(layout, dateStr); err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: invalid date format, expected YYYY-MM-DD or DD/MM/YYYY", ErrInvalidInput)
}
