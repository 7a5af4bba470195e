package seed_test

import (
	"context"
	"time"

	"github.com/frahmantamala/timeclock/internal/attendance"
	attendancePostgres "github.com/frahmantamala/timeclock/internal/attendance/postgres"
	"github.com/frahmantamala/timeclock/internal/auth"
	authPostgres "github.com/frahmantamala/timeclock/internal/auth/postgres"
	"github.com/frahmantamala/timeclock/internal/company"
	companyPostgres "github.com/frahmantamala/timeclock/internal/company/postgres"
	"github.com/frahmantamala/timeclock/internal/employee"
	employeePostgres "github.com/frahmantamala/timeclock/internal/employee/postgres"
	"github.com/frahmantamala/timeclock/internal/seed"
	"github.com/frahmantamala/timeclock/internal/testsupport"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"golang.org/x/crypto/bcrypt"
)

var _ = Describe("Seed Runner", func() {
	var (
		ctx       context.Context
		runner    *seed.Runner
		companies *company.Service
		records   attendance.RepositoryAPI
		brt       *time.Location
		plan      seed.Plan
	)

	BeforeEach(func() {
		db, err := testsupport.OpenDB()
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(db.Close)

		ctx = context.Background()
		authService := auth.NewService(authPostgres.NewRepository(db.Gorm), bcrypt.MinCost, testsupport.Logger())
		companies = company.NewService(companyPostgres.NewCompanyRepository(db.Gorm), testsupport.Logger())
		employees := employee.NewService(employeePostgres.NewEmployeeRepository(db.Gorm), companies, authService, testsupport.Logger())
		records = attendancePostgres.NewAttendanceRepository(db.Gorm)
		brt = time.FixedZone("BRT", -3*60*60)
		runner = seed.NewRunner(authService, companies, employees, testsupport.Logger()).
			WithRecords(records, brt)

		plan = seed.Plan{
			Managers: []seed.Manager{{CPF: "000.000.000-00", Password: "gerente123"}},
			Companies: []seed.Company{{
				Name: "Padaria Central", Street: "Rua das Flores", Number: "120", Neighborhood: "Boa Vista",
				City: "Recife", State: "PE", PostalCode: "50050-120",
			}},
			Employees: []seed.Employee{{
				Company: "Padaria Central", Name: "Ana", Email: "ana@example.com", CPF: "12345678901", Password: "segredo123",
			}},
			Records: []seed.Record{
				{Employee: "ana@example.com", Date: "2025-01-02", Entry: "09:01:15", Exit: "15:09:55"},
				{Employee: "ana@example.com", Date: "2025-01-03", Entry: "09:02:12", Exit: "15:02:11"},
			},
		}
	})

	outcomes := func(results []seed.Result) []seed.Outcome {
		out := make([]seed.Outcome, 0, len(results))
		for _, r := range results {
			out = append(out, r.Outcome)
		}
		return out
	}

	It("should create every item of a fresh plan", func() {
		results := runner.Run(ctx, plan)
		Expect(outcomes(results)).To(HaveLen(5))
		Expect(outcomes(results)).To(HaveEach(seed.OutcomeCreated))
		Expect(seed.Failed(results)).To(BeZero())
		Expect(results[0].Key).To(Equal("00000000000"))
	})

	It("should be idempotent", func() {
		runner.Run(ctx, plan)
		results := runner.Run(ctx, plan)
		Expect(outcomes(results)).To(HaveEach(seed.OutcomeAlreadyExists))

		list, err := companies.List(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(list).To(HaveLen(1))
	})

	It("should report failures and go on", func() {
		plan.Employees = append([]seed.Employee{{
			Company: "Inexistente", Name: "Bruno", Email: "bruno@example.com", CPF: "98765432100", Password: "segredo123",
		}}, plan.Employees...)
		plan.Managers[0].Password = "123"

		plan.Records = nil

		results := runner.Run(ctx, plan)
		Expect(outcomes(results)).To(Equal([]seed.Outcome{
			seed.OutcomeFailed,
			seed.OutcomeCreated,
			seed.OutcomeFailed,
			seed.OutcomeCreated,
		}))
		Expect(results[0].Err).To(HaveOccurred())
		Expect(results[2].Err).To(MatchError(ContainSubstring("Inexistente")))
		Expect(seed.Failed(results)).To(Equal(2))
	})

	It("should not count an employee's CPF as an existing manager", func() {
		Expect(seed.Failed(runner.Run(ctx, plan))).To(BeZero())

		result := runner.EnsureManager(ctx, seed.Manager{CPF: "123.456.789-01", Password: "gerente123"})
		Expect(result.Outcome).To(Equal(seed.OutcomeFailed))
		Expect(result.Err).To(MatchError(ContainSubstring("belongs to an employee account")))

		again := runner.EnsureManager(ctx, plan.Managers[0])
		Expect(again.Outcome).To(Equal(seed.OutcomeAlreadyExists))
	})

	Describe("attendance records", func() {
		BeforeEach(func() {
			plan.Records = nil
			Expect(seed.Failed(runner.Run(ctx, plan))).To(BeZero())
		})

		ana := func() int64 {
			emp, err := records.FindEmployeeByEmail(ctx, "ana@example.com")
			Expect(err).NotTo(HaveOccurred())
			return emp.ID
		}

		It("should store the clock times in the configured zone", func() {
			result := runner.EnsureRecord(ctx, seed.Record{Employee: "ana@example.com", Date: "2025-01-02", Entry: "09:01:15", Exit: "15:09:55"})
			Expect(result.Outcome).To(Equal(seed.OutcomeCreated))
			Expect(result.Key).To(Equal("ana@example.com 2025-01-02"))

			rows, err := records.ListByEmployee(ctx, ana(), nil, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(rows).To(HaveLen(1))
			Expect(rows[0].WorkDate).To(BeTemporally("==", time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)))
			Expect(rows[0].EntryAt).To(BeTemporally("==", time.Date(2025, 1, 2, 9, 1, 15, 0, brt)))
			Expect(rows[0].ExitAt).NotTo(BeNil())

			record := attendance.FromDataModel(rows[0])
			Expect(attendance.FormatWorked(record.Worked(time.Now()))).To(Equal("6 horas e 8 minutos."))
		})

		It("should match existing records by employee and date", func() {
			rec := seed.Record{Employee: "ana@example.com", Date: "2025-01-03", Entry: "09:02:12", Exit: "15:02:11"}
			Expect(runner.EnsureRecord(ctx, rec).Outcome).To(Equal(seed.OutcomeCreated))

			rec.Entry = "10:00:00"
			Expect(runner.EnsureRecord(ctx, rec).Outcome).To(Equal(seed.OutcomeAlreadyExists))

			rows, err := records.ListByEmployee(ctx, ana(), nil, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(rows).To(HaveLen(1))
		})

		It("should put an exit before the entry on the next day", func() {
			result := runner.EnsureRecord(ctx, seed.Record{Employee: "ana@example.com", Date: "2025-01-04", Entry: "22:00:00", Exit: "06:30:00"})
			Expect(result.Outcome).To(Equal(seed.OutcomeCreated))

			rows, err := records.ListByEmployee(ctx, ana(), nil, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(*rows[0].ExitAt).To(BeTemporally("==", time.Date(2025, 1, 5, 6, 30, 0, 0, brt)))
		})

		It("should fail unknown employees and malformed times", func() {
			unknown := runner.EnsureRecord(ctx, seed.Record{Employee: "ninguem@example.com", Date: "2025-01-02", Entry: "09:00:00"})
			Expect(unknown.Outcome).To(Equal(seed.OutcomeFailed))
			Expect(unknown.Err).To(MatchError(ContainSubstring("ninguem@example.com")))

			badDate := runner.EnsureRecord(ctx, seed.Record{Employee: "ana@example.com", Date: "02/01/2025", Entry: "09:00:00"})
			Expect(badDate.Outcome).To(Equal(seed.OutcomeFailed))

			badEntry := runner.EnsureRecord(ctx, seed.Record{Employee: "ana@example.com", Date: "2025-01-02", Entry: "9h"})
			Expect(badEntry.Outcome).To(Equal(seed.OutcomeFailed))
		})

		It("should refuse records without a store", func() {
			bare := seed.NewRunner(nil, nil, nil, testsupport.Logger())
			result := bare.EnsureRecord(ctx, seed.Record{Employee: "ana@example.com", Date: "2025-01-02", Entry: "09:00:00"})
			Expect(result.Err).To(MatchError(seed.ErrRecordsNotConfigured))
		})
	})
})
