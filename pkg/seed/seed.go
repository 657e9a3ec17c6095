// Package seed populates a database with generated fixture records.
//
// Records go through the repository one create at a time. A failure stops the
// run but keeps whatever was written before it; there is no enclosing
// transaction.
package seed

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/shopspring/decimal"

	"github.com/getmockd/bankmock/pkg/logging"
	"github.com/getmockd/bankmock/pkg/repository"
	"github.com/getmockd/bankmock/pkg/resource"
)

// Counts is the number of records generated per group. Accounts alternate
// between physical and legal holders; Documents is applied to bank and
// insurance documents each.
type Counts struct {
	Accounts       int
	Transactions   int
	VRPs           int
	MedicalInsured int
	Documents      int
}

// Result reports how many records of each kind were written.
type Result struct {
	Created map[resource.Kind]int
}

// Total is the number of records written across all kinds.
func (r Result) Total() int {
	n := 0
	for _, c := range r.Created {
		n += c
	}
	return n
}

// Seeder generates fixture records.
type Seeder struct {
	repo  *repository.Repository
	faker *gofakeit.Faker
	now   func() time.Time
	log   *slog.Logger
}

// Option configures a Seeder.
type Option func(*Seeder)

// WithRepository sets the repository records are written through.
func WithRepository(r *repository.Repository) Option {
	return func(s *Seeder) {
		if r != nil {
			s.repo = r
		}
	}
}

// WithClock sets the reference time for future and past dates.
func WithClock(now func() time.Time) Option {
	return func(s *Seeder) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets the logger.
func WithLogger(log *slog.Logger) Option {
	return func(s *Seeder) {
		if log != nil {
			s.log = log
		}
	}
}

// New creates a seeder. A zero seed draws a random one.
func New(seed int64, opts ...Option) *Seeder {
	s := &Seeder{
		repo:  repository.New(),
		faker: gofakeit.New(seed),
		now:   time.Now,
		log:   logging.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run writes the requested fixtures to q. On error the returned Result still
// counts the records written before the failure.
func (s *Seeder) Run(ctx context.Context, q repository.Querier, counts Counts) (Result, error) {
	res := Result{Created: make(map[resource.Kind]int)}
	now := s.now().UTC()

	create := func(kind resource.Kind, fields map[string]any) (resource.Row, error) {
		row, err := s.repo.Create(ctx, q, resource.Lookup(kind), fields)
		if err != nil {
			return nil, fmt.Errorf("seed %s: %w", kind, err)
		}
		res.Created[kind]++
		return row, nil
	}

	var accountIDs []string
	for i := range counts.Accounts {
		kind, fields := s.account(i)
		row, err := create(kind, fields)
		if err != nil {
			return res, err
		}
		accountIDs = append(accountIDs, row[resource.ColumnID].(string))
	}

	for range counts.Transactions {
		if _, err := create(resource.KindTransaction, s.transaction(now, accountIDs)); err != nil {
			return res, err
		}
	}
	for range counts.VRPs {
		if _, err := create(resource.KindVRP, s.vrp(now)); err != nil {
			return res, err
		}
	}
	for range counts.MedicalInsured {
		if _, err := create(resource.KindMedicalInsured, s.medicalInsured(now)); err != nil {
			return res, err
		}
	}
	for range counts.Documents {
		if _, err := create(resource.KindBankDocument, s.bankDocument(accountIDs)); err != nil {
			return res, err
		}
		if _, err := create(resource.KindInsuranceDocument, s.insuranceDocument(now)); err != nil {
			return res, err
		}
	}

	s.log.Info("fixtures seeded", "records", res.Total())
	return res, nil
}

func (s *Seeder) account(i int) (resource.Kind, map[string]any) {
	if i%2 == 0 {
		return resource.KindPhysicalAccount, map[string]any{
			"balance":  s.money(1000, 1_000_000),
			"currency": "RUB",
			"owner":    s.faker.Name(),
			"status":   "active",
		}
	}
	return resource.KindLegalAccount, map[string]any{
		"balance":  s.money(5000, 5_000_000),
		"currency": "USD",
		"company":  s.faker.Company(),
		"status":   "active",
	}
}

func (s *Seeder) transaction(now time.Time, accountIDs []string) map[string]any {
	yearStart := time.Date(now.Year(), 1, 1, 0, 0, 0, 0, time.UTC)
	return map[string]any{
		"date":        s.faker.DateRange(yearStart, now).UTC().Format(time.RFC3339),
		"amount":      s.money(-100_000, 100_000),
		"description": s.faker.Sentence(4),
		"account_id":  s.pick(accountIDs),
		"status":      s.faker.RandomString(resource.TxStatus),
	}
}

func (s *Seeder) vrp(now time.Time) map[string]any {
	return map[string]any{
		"max_amount":        s.money(1000, 50_000),
		"frequency":         s.faker.RandomString(resource.Frequencies),
		"valid_until":       s.futureDate(now, 5),
		"recipient_account": "RU" + s.faker.Numerify("######################"),
	}
}

func (s *Seeder) medicalInsured(now time.Time) map[string]any {
	age := s.faker.IntRange(18, 90)
	birth := now.AddDate(-age, 0, -s.faker.IntRange(0, 364))
	return map[string]any{
		"name":          s.faker.Name(),
		"policy_number": s.policyNumber(),
		"birth_date":    birth.Format(time.DateOnly),
	}
}

func (s *Seeder) bankDocument(accountIDs []string) map[string]any {
	fields := map[string]any{
		"content":   s.content(),
		"signature": s.faker.HexUint256(),
	}
	if len(accountIDs) > 0 {
		fields["account_id"] = s.pick(accountIDs)
	}
	return fields
}

func (s *Seeder) insuranceDocument(now time.Time) map[string]any {
	return map[string]any{
		"content":       s.content(),
		"policy_number": s.policyNumber(),
		"valid_until":   s.futureDate(now, 3),
	}
}

// money returns an amount in [lo, hi) rounded to cents.
func (s *Seeder) money(lo, hi float64) float64 {
	return decimal.NewFromFloat(s.faker.Float64Range(lo, hi)).Round(2).InexactFloat64()
}

// futureDate returns a date between tomorrow and years from now.
func (s *Seeder) futureDate(now time.Time, years int) string {
	days := s.faker.IntRange(1, years*365)
	return now.AddDate(0, 0, days).Format(time.DateOnly)
}

func (s *Seeder) policyNumber() string {
	return "POL" + s.faker.Numerify("#########")
}

func (s *Seeder) content() string {
	return base64.StdEncoding.EncodeToString([]byte(s.faker.Paragraph(1, 3, 8, " ")))
}

func (s *Seeder) pick(ids []string) string {
	if len(ids) == 0 {
		return "unassigned"
	}
	return ids[s.faker.IntRange(0, len(ids)-1)]
}
