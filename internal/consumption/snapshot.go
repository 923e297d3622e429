package consumption

import (
	"fmt"
	"time"

	"powerstats/internal/cache"
	"powerstats/internal/config"
	"powerstats/pkg/contracts/domain"
)

const snapshotDateLayout = "2006-01-02"

// HourlySnapshot is the parquet row of an hourly table snapshot
type HourlySnapshot struct {
	Country   string    `parquet:"name=country, type=BYTE_ARRAY, convertedtype=UTF8"`
	Date      string    `parquet:"name=date, type=BYTE_ARRAY, convertedtype=UTF8"`
	Weekday   int32     `parquet:"name=weekday, type=INT32"`
	Month     int32     `parquet:"name=month, type=INT32"`
	Year      int32     `parquet:"name=year, type=INT32"`
	Hours     []float64 `parquet:"name=hours, type=DOUBLE, repetitiontype=REPEATED"`
	Artifacts int32     `parquet:"name=artifacts, type=INT32"`
}

// MonthlySnapshot is the parquet row of a monthly table snapshot
type MonthlySnapshot struct {
	Country string    `parquet:"name=country, type=BYTE_ARRAY, convertedtype=UTF8"`
	Year    int32     `parquet:"name=year, type=INT32"`
	Sum     float64   `parquet:"name=sum, type=DOUBLE"`
	Months  []float64 `parquet:"name=months, type=DOUBLE, repetitiontype=REPEATED"`
}

// HourlyStore caches hourly tables
type HourlyStore = cache.Store[HourlySnapshot]

// MonthlyStore caches monthly tables
type MonthlyStore = cache.Store[MonthlySnapshot]

// NewHourlyStore creates the "hconsum" snapshot store for dir
func NewHourlyStore(opts cache.Options) (*HourlyStore, error) {
	if opts.Name == "" {
		opts.Name = config.HourlyCacheName
	}
	if opts.Kind == "" {
		opts.Kind = DatasetHourly
	}
	return cache.NewStore[HourlySnapshot](opts)
}

// NewMonthlyStore creates the "mconsum" snapshot store for dir
func NewMonthlyStore(opts cache.Options) (*MonthlyStore, error) {
	if opts.Name == "" {
		opts.Name = config.MonthlyCacheName
	}
	if opts.Kind == "" {
		opts.Kind = DatasetMonthly
	}
	return cache.NewStore[MonthlySnapshot](opts)
}

func encodeHourly(records []domain.HourlyRecord) []HourlySnapshot {
	rows := make([]HourlySnapshot, len(records))
	for i, r := range records {
		hours := make([]float64, domain.HoursPerDay)
		copy(hours, r.Hours[:])
		rows[i] = HourlySnapshot{
			Country:   r.Country,
			Date:      r.Date.Format(snapshotDateLayout),
			Weekday:   int32(r.Weekday),
			Month:     int32(r.Month),
			Year:      int32(r.Year),
			Hours:     hours,
			Artifacts: int32(r.Artifacts),
		}
	}
	return rows
}

func decodeHourly(rows []HourlySnapshot) ([]domain.HourlyRecord, error) {
	records := make([]domain.HourlyRecord, len(rows))
	for i, row := range rows {
		if len(row.Hours) != domain.HoursPerDay {
			return nil, fmt.Errorf("snapshot row %d has %d hours", i, len(row.Hours))
		}
		date, err := time.Parse(snapshotDateLayout, row.Date)
		if err != nil {
			return nil, fmt.Errorf("snapshot row %d: %w", i, err)
		}
		r := domain.HourlyRecord{
			Country:   row.Country,
			Date:      date,
			Weekday:   int(row.Weekday),
			Month:     int(row.Month),
			Year:      int(row.Year),
			Artifacts: domain.Artifacts(row.Artifacts),
		}
		copy(r.Hours[:], row.Hours)
		records[i] = r
	}
	return records, nil
}

func encodeMonthly(records []domain.MonthlyRecord) []MonthlySnapshot {
	rows := make([]MonthlySnapshot, len(records))
	for i, r := range records {
		months := make([]float64, domain.MonthsPerYear)
		copy(months, r.Months[:])
		rows[i] = MonthlySnapshot{
			Country: r.Country,
			Year:    int32(r.Year),
			Sum:     r.Sum,
			Months:  months,
		}
	}
	return rows
}

func decodeMonthly(rows []MonthlySnapshot) ([]domain.MonthlyRecord, error) {
	records := make([]domain.MonthlyRecord, len(rows))
	for i, row := range rows {
		if len(row.Months) != domain.MonthsPerYear {
			return nil, fmt.Errorf("snapshot row %d has %d months", i, len(row.Months))
		}
		r := domain.MonthlyRecord{
			Country: row.Country,
			Year:    int(row.Year),
			Sum:     row.Sum,
		}
		copy(r.Months[:], row.Months)
		records[i] = r
	}
	return records, nil
}
