package command

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jaswdr/faker"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pulseox-org/pulseox/auth"
	"github.com/pulseox-org/pulseox/patients"
	"github.com/pulseox-org/pulseox/physicians"
	"github.com/pulseox-org/pulseox/pointer"
	"github.com/pulseox-org/pulseox/readings"
)

var genders = []string{"Male", "Female", "Other"}

var seedParams = struct {
	Physicians        int
	PatientsPerDoctor int
	Days              int
	ReadingsPerDay    int
	Password          string
}{}

var seedCommand = &cobra.Command{
	Use:   "all",
	Short: "Generate physicians, patients with devices and a backlog of readings",
	RunE:  func(cmd *cobra.Command, args []string) error { return Run(seedAll) },
}

func init() {
	seedCommand.Flags().IntVar(&seedParams.Physicians, "physicians", 2, "Number of physicians to create")
	seedCommand.Flags().IntVar(&seedParams.PatientsPerDoctor, "patients", 5, "Number of patients per physician")
	seedCommand.Flags().IntVar(&seedParams.Days, "days", 30, "Number of days of readings to backfill")
	seedCommand.Flags().IntVar(&seedParams.ReadingsPerDay, "readings-per-day", 24, "Number of readings per device per day")
	seedCommand.Flags().StringVar(&seedParams.Password, "password", "pulseox", "Password assigned to every generated account")

	rootCmd.AddCommand(seedCommand)
}

func seedAll(patientsService patients.Service, physiciansService physicians.Service, repo readings.Repository, logger *zap.SugaredLogger) error {
	ctx := context.Background()
	fake := faker.New()

	hash, err := auth.HashPassword(seedParams.Password)
	if err != nil {
		return err
	}

	created := 0
	for i := 0; i < seedParams.Physicians; i++ {
		physician, err := physiciansService.Create(ctx, physicians.Physician{
			Email:        fake.Internet().Email(),
			PasswordHash: hash,
			Name:         fake.Person().Name(),
			Specialty:    "Pulmonology",
			Phone:        fake.Phone().Number(),
		})
		if err != nil {
			return fmt.Errorf("unable to create physician: %w", err)
		}
		fmt.Printf("physician %s (%s)\n", physician.Name, physician.Email)

		for j := 0; j < seedParams.PatientsPerDoctor; j++ {
			patient, err := patientsService.Create(ctx, patients.Patient{
				Email:             fake.Internet().Email(),
				PasswordHash:      hash,
				Name:              fake.Person().Name(),
				Gender:            fake.RandomStringElement(genders),
				BirthDate:         fake.Time().ISO8601(time.Now().AddDate(-20, 0, 0))[:10],
				Phone:             fake.Phone().Number(),
				AssignedPhysician: physician.Id,
				Address: &patients.Address{
					Street: fake.Address().StreetAddress(),
					City:   fake.Address().City(),
					State:  fake.Address().State(),
					Zip:    fake.Address().PostCode(),
				},
				Devices: []patients.Device{{
					DeviceName:         "PulseOx Wearable",
					SerialNumber:       uuid.NewString(),
					StartTime:          "08:00",
					EndTime:            "20:00",
					FrequencyOfReading: "30",
				}},
			})
			if err != nil {
				return fmt.Errorf("unable to create patient: %w", err)
			}

			count, err := seedReadings(ctx, repo, fake, patient.Devices[0].SerialNumber)
			if err != nil {
				return fmt.Errorf("unable to create readings: %w", err)
			}

			logger.Debugw("seeded patient",
				"email", patient.Email,
				"physician", physician.Email,
				"readings", count)
			created++
		}
	}

	fmt.Printf("%v patients were created\n", created)
	return nil
}

func seedReadings(ctx context.Context, repo readings.Repository, fake faker.Faker, serialNumber string) (int, error) {
	day := time.Now().UTC().Truncate(24 * time.Hour).AddDate(0, 0, -seedParams.Days)
	step := 24 * time.Hour / time.Duration(seedParams.ReadingsPerDay)

	batch := make([]readings.Reading, 0, seedParams.Days*seedParams.ReadingsPerDay)
	for d := 0; d < seedParams.Days; d++ {
		for r := 0; r < seedParams.ReadingsPerDay; r++ {
			reading := readings.Reading{
				DeviceSerialNumber: serialNumber,
				HeartRate:          pointer.FromAny(float64(fake.IntBetween(55, 110))),
				Spo2:               pointer.FromAny(float64(fake.IntBetween(90, 100))),
				Timestamp:          day.Add(time.Duration(r) * step),
			}
			// Devices occasionally fail to report a channel
			if fake.IntBetween(0, 99) < 5 {
				reading.Spo2 = nil
			}
			batch = append(batch, reading)
		}
		day = day.AddDate(0, 0, 1)
	}

	if err := repo.CreateMany(ctx, batch); err != nil {
		return 0, err
	}
	return len(batch), nil
}
