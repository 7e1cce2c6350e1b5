package patients_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/fx/fxtest"

	"github.com/pulseox-org/pulseox/patients"
	patientsTest "github.com/pulseox-org/pulseox/patients/test"
	dbTest "github.com/pulseox-org/pulseox/store/test"
	"github.com/pulseox-org/pulseox/store"
)

var _ = Describe("Patients Repository", func() {
	var repo patients.Repository
	var collection *mongo.Collection
	var ctx context.Context

	BeforeEach(func() {
		var err error
		database := dbTest.GetTestDatabase()
		collection = database.Collection("patients")
		ctx = context.Background()

		lifecycle := fxtest.NewLifecycle(GinkgoT())
		repo, err = patients.NewRepository(database, lifecycle)
		Expect(err).ToNot(HaveOccurred())
		Expect(repo).ToNot(BeNil())
		lifecycle.RequireStart()
	})

	AfterEach(func() {
		_, err := collection.DeleteMany(ctx, primitive.M{})
		Expect(err).ToNot(HaveOccurred())
	})

	Describe("Create", func() {
		It("returns the created patient", func() {
			patient := patientsTest.RandomPatient()

			result, err := repo.Create(ctx, patient)

			Expect(err).ToNot(HaveOccurred())
			Expect(result).ToNot(BeNil())
			Expect(result.Id).ToNot(BeNil())
			Expect(result.Email).To(Equal(patient.Email))
			Expect(result.Devices).To(HaveLen(len(patient.Devices)))
		})

		It("rejects a duplicate email", func() {
			patient := patientsTest.RandomPatient()

			_, err := repo.Create(ctx, patient)
			Expect(err).ToNot(HaveOccurred())

			_, err = repo.Create(ctx, patient)
			Expect(err).To(MatchError(patients.ErrDuplicate))
		})
	})

	Describe("Get", func() {
		It("returns ErrNotFound for an unknown email", func() {
			_, err := repo.Get(ctx, "nobody@example.com")
			Expect(err).To(MatchError(patients.ErrNotFound))
		})
	})

	Describe("List", func() {
		It("filters by assigned physician", func() {
			physicianId := primitive.NewObjectID()
			assigned := patientsTest.RandomPatient()
			assigned.AssignedPhysician = &physicianId
			other := patientsTest.RandomPatient()

			_, err := repo.Create(ctx, assigned)
			Expect(err).ToNot(HaveOccurred())
			_, err = repo.Create(ctx, other)
			Expect(err).ToNot(HaveOccurred())

			result, err := repo.List(ctx, &patients.Filter{AssignedPhysician: &physicianId}, store.DefaultPagination())

			Expect(err).ToNot(HaveOccurred())
			Expect(result).To(HaveLen(1))
			Expect(result[0].Email).To(Equal(assigned.Email))
		})
	})

	Describe("AddDevice", func() {
		var patient *patients.Patient

		BeforeEach(func() {
			var err error
			patient, err = repo.Create(ctx, patientsTest.RandomPatient())
			Expect(err).ToNot(HaveOccurred())
		})

		It("appends the device to the registry", func() {
			device := patientsTest.RandomDevice()

			result, err := repo.AddDevice(ctx, patient.Email, device)

			Expect(err).ToNot(HaveOccurred())
			Expect(result.Devices).To(HaveLen(len(patient.Devices) + 1))
			Expect(result.Device(device.SerialNumber)).ToNot(BeNil())
		})

		It("rejects an already registered serial number", func() {
			_, err := repo.AddDevice(ctx, patient.Email, patient.Devices[0])
			Expect(err).To(MatchError(patients.ErrDuplicateDevice))
		})

		It("returns ErrNotFound for an unknown patient", func() {
			_, err := repo.AddDevice(ctx, "nobody@example.com", patientsTest.RandomDevice())
			Expect(err).To(MatchError(patients.ErrNotFound))
		})
	})

	Describe("UpdateDeviceSettings", func() {
		var patient *patients.Patient

		BeforeEach(func() {
			var err error
			patient, err = repo.Create(ctx, patientsTest.RandomPatient())
			Expect(err).ToNot(HaveOccurred())
		})

		It("updates the usage window and cadence", func() {
			settings := patients.DeviceSettings{
				StartTime:          "06:30",
				EndTime:            "22:15",
				FrequencyOfReading: "5",
			}

			result, err := repo.UpdateDeviceSettings(ctx, patient.Email, patient.Devices[0].SerialNumber, settings)

			Expect(err).ToNot(HaveOccurred())
			device := result.Device(patient.Devices[0].SerialNumber)
			Expect(device).ToNot(BeNil())
			Expect(device.StartTime).To(Equal(settings.StartTime))
			Expect(device.EndTime).To(Equal(settings.EndTime))
			Expect(device.FrequencyOfReading).To(Equal(settings.FrequencyOfReading))
		})

		It("returns ErrDeviceNotFound for an unknown serial number", func() {
			_, err := repo.UpdateDeviceSettings(ctx, patient.Email, "missing", patients.DeviceSettings{})
			Expect(err).To(MatchError(patients.ErrDeviceNotFound))
		})
	})

	Describe("RemoveDevice", func() {
		var patient *patients.Patient

		BeforeEach(func() {
			var err error
			patient, err = repo.Create(ctx, patientsTest.RandomPatient())
			Expect(err).ToNot(HaveOccurred())
		})

		It("removes the device from the registry", func() {
			serialNumber := patient.Devices[0].SerialNumber

			result, err := repo.RemoveDevice(ctx, patient.Email, serialNumber)

			Expect(err).ToNot(HaveOccurred())
			Expect(result.Devices).To(HaveLen(len(patient.Devices) - 1))
			Expect(result.Device(serialNumber)).To(BeNil())
		})

		It("returns ErrDeviceNotFound for an unknown serial number", func() {
			_, err := repo.RemoveDevice(ctx, patient.Email, "missing")
			Expect(err).To(MatchError(patients.ErrDeviceNotFound))
		})
	})
})
