package main

import (
	"context"
	"fmt"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/hackgods/clinicx/internal/appointment"
)

type seedOptions struct {
	Doctors      int
	Nurses       int
	Patients     int
	Appointments int
	Seed         uint64
	Slots        appointment.SlotSet
}

var specializations = []string{
	"Dermatology",
	"Cardiology",
	"General Practice",
	"Orthopedics",
	"Endocrinology",
	"Neurology",
	"Pediatrics",
	"Psychiatry",
	"Ophthalmology",
	"ENT",
}

var appointmentTypes = []string{"Consultation", "Follow-up", "Checkup", "Vaccination", "Lab Review"}

var weekdays = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

func runSeed(ctx context.Context, pool *pgxpool.Pool, opts seedOptions, logger zerolog.Logger) error {
	if opts.Seed == 0 {
		opts.Seed = uint64(time.Now().UnixNano())
	}
	faker := gofakeit.New(opts.Seed)
	logger.Info().Uint64("seed", opts.Seed).Msg("seed starting")

	doctorIDs, err := seedDoctors(ctx, pool, faker, opts.Doctors)
	if err != nil {
		return fmt.Errorf("seed doctors: %w", err)
	}
	logger.Info().Int("count", len(doctorIDs)).Msg("doctors seeded")

	if err := seedNurses(ctx, pool, faker, opts.Nurses); err != nil {
		return fmt.Errorf("seed nurses: %w", err)
	}
	logger.Info().Int("count", opts.Nurses).Msg("nurses seeded")

	patientIDs, err := seedPatients(ctx, pool, faker, opts.Patients, logger)
	if err != nil {
		return fmt.Errorf("seed patients: %w", err)
	}

	if err := seedAppointments(ctx, pool, faker, doctorIDs, patientIDs, opts.Slots, opts.Appointments, logger); err != nil {
		return fmt.Errorf("seed appointments: %w", err)
	}

	logger.Info().Msg("seed complete")
	return nil
}

func seedDoctors(ctx context.Context, pool *pgxpool.Pool, faker *gofakeit.Faker, count int) ([]string, error) {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	ids := make([]string, 0, count)
	for i := 0; i < count; i++ {
		id := uuid.NewString()
		spec := specializations[faker.Number(0, len(specializations)-1)]

		_, err := tx.Exec(ctx, `
			INSERT INTO doctors (id, name, specialization, color_code)
			VALUES ($1, $2, $3, $4)
		`, id, "Dr. "+faker.Name(), spec, faker.HexColor())
		if err != nil {
			return nil, err
		}

		// Each doctor works a random run of three to five consecutive days.
		start := faker.Number(0, len(weekdays)-1)
		days := faker.Number(3, 5)
		for d := 0; d < days; d++ {
			_, err := tx.Exec(ctx, `
				INSERT INTO working_days (doctor_id, day, start_time, close_time)
				VALUES ($1, $2, '08:00', '17:00')
			`, id, weekdays[(start+d)%len(weekdays)])
			if err != nil {
				return nil, err
			}
		}
		ids = append(ids, id)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return ids, nil
}

func seedNurses(ctx context.Context, pool *pgxpool.Pool, faker *gofakeit.Faker, count int) error {
	batch := &pgx.Batch{}
	for i := 0; i < count; i++ {
		batch.Queue(`INSERT INTO staff (id, name, role) VALUES ($1, $2, 'NURSE')`, uuid.NewString(), faker.Name())
	}
	return pool.SendBatch(ctx, batch).Close()
}

func seedPatients(ctx context.Context, pool *pgxpool.Pool, faker *gofakeit.Faker, count int, logger zerolog.Logger) ([]string, error) {
	const batchSize = 500

	ids := make([]string, 0, count)
	for offset := 0; offset < count; offset += batchSize {
		end := offset + batchSize
		if end > count {
			end = count
		}

		tx, err := pool.Begin(ctx)
		if err != nil {
			return nil, err
		}

		for i := offset; i < end; i++ {
			id := uuid.NewString()
			dob := faker.DateRange(time.Date(1940, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2020, 12, 31, 0, 0, 0, 0, time.UTC))
			gender := "MALE"
			if faker.Bool() {
				gender = "FEMALE"
			}

			_, err := tx.Exec(ctx, `
				INSERT INTO patients (id, first_name, last_name, gender, color_code, phone, address, date_of_birth)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			`, id, faker.FirstName(), faker.LastName(), gender, faker.HexColor(), faker.Phone(),
				faker.Street()+", "+faker.City(), appointment.CivilDate(dob))
			if err != nil {
				_ = tx.Rollback(ctx)
				return nil, err
			}
			ids = append(ids, id)
		}

		if err := tx.Commit(ctx); err != nil {
			return nil, err
		}
		logger.Info().Int("done", end).Int("total", count).Msg("patients seeded")
	}

	return ids, nil
}

// seedAppointments spreads bookings over the current year. Patients and
// doctors are drawn at random, so some slots end up double booked.
func seedAppointments(ctx context.Context, pool *pgxpool.Pool, faker *gofakeit.Faker, doctorIDs, patientIDs []string, slots appointment.SlotSet, count int, logger zerolog.Logger) error {
	if len(doctorIDs) == 0 || len(patientIDs) == 0 || len(slots) == 0 || count <= 0 {
		return nil
	}

	year := time.Now().Year()
	from := time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(year, 12, 31, 0, 0, 0, 0, time.UTC)

	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for i := 0; i < count; i++ {
		status := appointment.Statuses[faker.Number(0, len(appointment.Statuses)-1)]
		_, err := tx.Exec(ctx, `
			INSERT INTO appointments (patient_id, doctor_id, appointment_date, time, status, type)
			VALUES ($1, $2, $3, $4, $5, $6)
		`,
			patientIDs[faker.Number(0, len(patientIDs)-1)],
			doctorIDs[faker.Number(0, len(doctorIDs)-1)],
			appointment.CivilDate(faker.DateRange(from, to)),
			slots[faker.Number(0, len(slots)-1)],
			string(status),
			appointmentTypes[faker.Number(0, len(appointmentTypes)-1)],
		)
		if err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}
	logger.Info().Int("count", count).Msg("appointments seeded")
	return nil
}
