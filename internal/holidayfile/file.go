// Package holidayfile reads the TOML holiday list and keeps the database in
// step with it while the server runs.
//
// The file holds one table per holiday:
//
//	[[holiday]]
//	date = 2026-03-04
//	name = "Holi"
package holidayfile

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/alexanderramin/stagegate/internal/domain"
)

type file struct {
	Holidays []entry `toml:"holiday"`
}

type entry struct {
	Date toml.LocalDate `toml:"date"`
	Name string         `toml:"name"`
}

// Parse decodes a holiday list. Duplicate dates are rejected; the result is
// sorted by date.
func Parse(r io.Reader) ([]domain.Holiday, error) {
	var f file
	dec := toml.NewDecoder(r).DisallowUnknownFields()
	if err := dec.Decode(&f); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return nil, fmt.Errorf("holiday file: %s: %w", strict.String(), domain.ErrValidation)
		}
		return nil, fmt.Errorf("holiday file: %w: %w", err, domain.ErrValidation)
	}

	seen := make(map[string]bool, len(f.Holidays))
	out := make([]domain.Holiday, 0, len(f.Holidays))
	for i, e := range f.Holidays {
		name := strings.TrimSpace(e.Name)
		if e.Date == (toml.LocalDate{}) {
			return nil, fmt.Errorf("holiday %d has no date: %w", i+1, domain.ErrValidation)
		}
		if name == "" {
			return nil, fmt.Errorf("holiday on %s has no name: %w", e.Date, domain.ErrValidation)
		}
		key := e.Date.String()
		if seen[key] {
			return nil, fmt.Errorf("holiday %s is listed twice: %w", key, domain.ErrValidation)
		}
		seen[key] = true
		out = append(out, domain.Holiday{
			Date: time.Date(e.Date.Year, time.Month(e.Date.Month), e.Date.Day, 0, 0, 0, 0, time.UTC),
			Name: name,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

// Load reads and parses the holiday file at path.
func Load(path string) ([]domain.Holiday, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open holiday file: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// Write encodes holidays in the same format Parse reads.
func Write(w io.Writer, holidays []domain.Holiday) error {
	f := file{Holidays: make([]entry, len(holidays))}
	for i, h := range holidays {
		f.Holidays[i] = entry{Date: localDate(h.Date), Name: h.Name}
	}
	if err := toml.NewEncoder(w).Encode(f); err != nil {
		return fmt.Errorf("encode holidays: %w", err)
	}
	return nil
}

func localDate(t time.Time) toml.LocalDate {
	return toml.LocalDate{Year: t.Year(), Month: int(t.Month()), Day: t.Day()}
}
