package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrInvalidYear = errors.New("year must be between 2000 and 2100")

// Line is one month of the balance sheet, in cents.
// Net is collections minus payroll minus fund usage.
type Line struct {
	Period      string `json:"period"`
	Collections int64  `json:"collections"`
	Payroll     int64  `json:"payroll"`
	FundUsage   int64  `json:"fundUsage"`
	Net         int64  `json:"net"`
}

type Totals struct {
	Collections int64 `json:"collections"`
	Payroll     int64 `json:"payroll"`
	FundUsage   int64 `json:"fundUsage"`
	Net         int64 `json:"net"`
}

// Sheet is the yearly income and expense statement.
type Sheet struct {
	Year        int       `json:"year"`
	Lines       []Line    `json:"lines"`
	Totals      Totals    `json:"totals"`
	GeneratedAt time.Time `json:"generatedAt"`
}

func ValidateYear(year int) error {
	if year < 2000 || year > 2100 {
		return ErrInvalidYear
	}
	return nil
}

// Build combines per-period figures into a sheet. Lines follow the order of
// periods; a period missing from a map counts as zero.
func Build(year int, periods []string, collections, payroll, usage map[string]int64) *Sheet {
	sheet := &Sheet{
		Year:        year,
		Lines:       make([]Line, 0, len(periods)),
		GeneratedAt: time.Now().UTC(),
	}
	for _, p := range periods {
		line := Line{
			Period:      p,
			Collections: collections[p],
			Payroll:     payroll[p],
			FundUsage:   usage[p],
		}
		line.Net = line.Collections - line.Payroll - line.FundUsage

		sheet.Lines = append(sheet.Lines, line)
		sheet.Totals.Collections += line.Collections
		sheet.Totals.Payroll += line.Payroll
		sheet.Totals.FundUsage += line.FundUsage
		sheet.Totals.Net += line.Net
	}
	return sheet
}

// Snapshot is a sheet frozen when its year is closed.
type Snapshot struct {
	Year     int
	Sheet    Sheet
	ClosedBy uuid.UUID
	ClosedAt time.Time
}

func NewSnapshot(sheet *Sheet, closedBy uuid.UUID) *Snapshot {
	return &Snapshot{
		Year:     sheet.Year,
		Sheet:    *sheet,
		ClosedBy: closedBy,
		ClosedAt: time.Now().UTC(),
	}
}
