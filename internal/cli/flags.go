package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"github.com/alexanderramin/stagegate/internal/domain"
)

// dateValue is a YYYY-MM-DD flag. An unset flag leaves the pointer nil.
type dateValue struct {
	t **time.Time
}

var _ pflag.Value = dateValue{}

func newDateValue(p **time.Time) dateValue { return dateValue{t: p} }

func (d dateValue) String() string {
	if d.t == nil || *d.t == nil {
		return ""
	}
	return (*d.t).Format(domain.DateLayout)
}

func (d dateValue) Set(s string) error {
	t, err := domain.ParseDate(strings.TrimSpace(s))
	if err != nil {
		return err
	}
	*d.t = &t
	return nil
}

func (d dateValue) Type() string { return "date" }

func dateFlag(fs *pflag.FlagSet, p **time.Time, name, usage string) {
	fs.Var(newDateValue(p), name, usage+" (YYYY-MM-DD)")
}

// parseMoney turns "1,500.25" into minor units.
func parseMoney(s string) (int64, error) {
	clean := strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if clean == "" {
		return 0, nil
	}
	whole, frac, hasFrac := strings.Cut(clean, ".")
	if hasFrac && (len(frac) == 0 || len(frac) > 2) {
		return 0, fmt.Errorf("amount %q must have at most two decimals: %w", s, domain.ErrValidation)
	}
	units, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("amount %q is not a number: %w", s, domain.ErrValidation)
	}
	cents := int64(0)
	if hasFrac {
		if len(frac) == 1 {
			frac += "0"
		}
		if cents, err = strconv.ParseInt(frac, 10, 64); err != nil || cents < 0 {
			return 0, fmt.Errorf("amount %q is not a number: %w", s, domain.ErrValidation)
		}
	}
	if units < 0 || strings.HasPrefix(whole, "-") {
		return 0, fmt.Errorf("amount %q must not be negative: %w", s, domain.ErrValidation)
	}
	return units*100 + cents, nil
}
