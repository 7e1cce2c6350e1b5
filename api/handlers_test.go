package api_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/labstack/echo/v4"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"

	"github.com/pulseox-org/pulseox/api"
	"github.com/pulseox-org/pulseox/auth"
	"github.com/pulseox-org/pulseox/errors"
	"github.com/pulseox-org/pulseox/patients"
	"github.com/pulseox-org/pulseox/physicians"
	"github.com/pulseox-org/pulseox/pointer"
	"github.com/pulseox-org/pulseox/readings"
	readingsTest "github.com/pulseox-org/pulseox/readings/test"
	"github.com/pulseox-org/pulseox/stats"
)

const testPassword = "correct-horse"

func newContext(method, target string, body interface{}) (echo.Context, *httptest.ResponseRecorder) {
	var reader *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		Expect(err).ToNot(HaveOccurred())
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, target, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return echo.New().NewContext(req, rec), rec
}

func authenticate(c echo.Context, role, email string) {
	auth.SetAuthData(c, &auth.Auth{
		SubjectId: primitive.NewObjectID().Hex(),
		Email:     email,
		Role:      role,
	})
}

var _ = Describe("Handler", func() {
	var handler *api.Handler
	var repo *readingsTest.MockRepository
	var repoCtrl *gomock.Controller
	var patientsService *fakePatients
	var physiciansService *fakePhysicians
	var patient *patients.Patient
	var physician *physicians.Physician

	BeforeEach(func() {
		repoCtrl = gomock.NewController(GinkgoT())
		repo = readingsTest.NewMockRepository(repoCtrl)
		patientsService = &fakePatients{}
		physiciansService = &fakePhysicians{}

		hash, err := auth.HashPassword(testPassword)
		Expect(err).ToNot(HaveOccurred())

		physician, err = physiciansService.Create(nil, physicians.Physician{
			Email:        "dr@pulseox.test",
			PasswordHash: hash,
			Name:         "Dr. Ora Riva",
			Specialty:    "Pulmonology",
			Phone:        "555-0100",
		})
		Expect(err).ToNot(HaveOccurred())

		patient, err = patientsService.Create(nil, patients.Patient{
			Email:             "pat@pulseox.test",
			PasswordHash:      hash,
			Name:              "Pat Doe",
			Gender:            "Other",
			BirthDate:         "1984-02-21",
			Phone:             "555-0101",
			AssignedPhysician: physician.Id,
			Devices: []patients.Device{{
				DeviceName:         "PulseOx Wearable",
				SerialNumber:       "SN-1",
				StartTime:          "08:00",
				EndTime:            "20:00",
				FrequencyOfReading: "30",
			}},
		})
		Expect(err).ToNot(HaveOccurred())

		statsService, err := stats.NewService(repo, zap.NewNop().Sugar())
		Expect(err).ToNot(HaveOccurred())

		handler = api.NewHandler(api.Params{
			Patients:    patientsService,
			Physicians:  physiciansService,
			Readings:    repo,
			Stats:       statsService,
			TokenIssuer: auth.NewTokenIssuer(&auth.Config{Secret: "test-secret", TokenDuration: time.Hour}),
		})
	})

	AfterEach(func() {
		repoCtrl.Finish()
	})

	Describe("CreateReadings", func() {
		It("persists a batch with trimmed serial numbers", func() {
			at := time.Date(2024, time.May, 6, 10, 0, 0, 0, time.UTC)
			c, rec := newContext(http.MethodPost, "/v1/readings", []api.CreateReadingDto{{
				DeviceSerialNumber: "  SN-1  ",
				HeartRate:          pointer.FromAny(72.0),
				Spo2:               pointer.FromAny(97.0),
				Timestamp:          at,
			}})

			repo.EXPECT().
				CreateMany(gomock.Any(), gomock.Any()).
				DoAndReturn(func(_ interface{}, batch []readings.Reading) error {
					Expect(batch).To(HaveLen(1))
					Expect(batch[0].DeviceSerialNumber).To(Equal("SN-1"))
					Expect(batch[0].Timestamp).To(BeTemporally("==", at))
					return nil
				})

			Expect(handler.CreateReadings(c)).To(Succeed())
			Expect(rec.Code).To(Equal(http.StatusCreated))
		})

		It("accepts a single reading object", func() {
			at := time.Date(2024, time.May, 6, 10, 0, 0, 0, time.UTC)
			c, rec := newContext(http.MethodPost, "/v1/readings", api.CreateReadingDto{
				DeviceSerialNumber: "SN-1",
				HeartRate:          pointer.FromAny(64.0),
				Timestamp:          at,
			})

			repo.EXPECT().
				CreateMany(gomock.Any(), gomock.Any()).
				DoAndReturn(func(_ interface{}, batch []readings.Reading) error {
					Expect(batch).To(HaveLen(1))
					Expect(batch[0].Spo2).To(BeNil())
					return nil
				})

			Expect(handler.CreateReadings(c)).To(Succeed())
			Expect(rec.Code).To(Equal(http.StatusCreated))
		})

		It("rejects an empty batch", func() {
			c, _ := newContext(http.MethodPost, "/v1/readings", []api.CreateReadingDto{})

			err := handler.CreateReadings(c)
			Expect(err).To(HaveOccurred())
			Expect(err.(*echo.HTTPError).Code).To(Equal(http.StatusBadRequest))
		})

		It("rejects a reading without a timestamp", func() {
			c, _ := newContext(http.MethodPost, "/v1/readings", []api.CreateReadingDto{{
				DeviceSerialNumber: "SN-1",
				HeartRate:          pointer.FromAny(72.0),
			}})

			err := handler.CreateReadings(c)
			Expect(err).To(HaveOccurred())
			Expect(err.(*echo.HTTPError).Code).To(Equal(http.StatusBadRequest))
		})
	})

	Describe("LoginPatient", func() {
		It("issues a token for valid credentials", func() {
			c, rec := newContext(http.MethodPost, "/v1/patients/login", api.LoginDto{
				Email:    patient.Email,
				Password: testPassword,
			})

			Expect(handler.LoginPatient(c)).To(Succeed())
			Expect(rec.Code).To(Equal(http.StatusOK))

			response := api.LoginResponseDto{}
			Expect(json.Unmarshal(rec.Body.Bytes(), &response)).To(Succeed())
			Expect(response.Token).ToNot(BeEmpty())
			Expect(response.Message).To(Equal("login successful"))
		})

		It("rejects an invalid password", func() {
			c, _ := newContext(http.MethodPost, "/v1/patients/login", api.LoginDto{
				Email:    patient.Email,
				Password: "wrong",
			})

			Expect(handler.LoginPatient(c)).To(MatchError(errors.Unauthorized))
		})

		It("rejects an unknown email", func() {
			c, _ := newContext(http.MethodPost, "/v1/patients/login", api.LoginDto{
				Email:    "nobody@pulseox.test",
				Password: testPassword,
			})

			Expect(handler.LoginPatient(c)).To(MatchError(errors.Unauthorized))
		})
	})

	Describe("RegisterPatient", func() {
		It("stores the patient with a hashed password", func() {
			c, rec := newContext(http.MethodPost, "/v1/patients", api.RegisterPatientDto{
				Email:    "new@pulseox.test",
				Password: "s3cret",
				Name:     "Newbie",
			})

			Expect(handler.RegisterPatient(c)).To(Succeed())
			Expect(rec.Code).To(Equal(http.StatusCreated))

			created, err := patientsService.Get(nil, "new@pulseox.test")
			Expect(err).ToNot(HaveOccurred())
			Expect(created.PasswordHash).ToNot(Equal("s3cret"))
			Expect(auth.CheckPassword("s3cret", created.PasswordHash)).To(BeTrue())
		})

		It("requires email and password", func() {
			c, _ := newContext(http.MethodPost, "/v1/patients", api.RegisterPatientDto{
				Name: "No Credentials",
			})

			err := handler.RegisterPatient(c)
			Expect(err).To(HaveOccurred())
			Expect(err.(*echo.HTTPError).Code).To(Equal(http.StatusBadRequest))
		})
	})

	Describe("GetCurrentPatientDailyStats", func() {
		monday := time.Date(2024, time.May, 6, 0, 0, 0, 0, time.UTC)

		It("summarizes all readings when no period is given", func() {
			c, rec := newContext(http.MethodGet, "/v1/patients/me/stats/daily", nil)
			authenticate(c, auth.RolePatient, patient.Email)

			repo.EXPECT().EarliestTimestamp(gomock.Any(), gomock.Any()).Return(monday.Add(9*time.Hour), nil)
			repo.EXPECT().LatestTimestamp(gomock.Any(), gomock.Any()).Return(monday.Add(11*time.Hour), nil)
			repo.EXPECT().List(gomock.Any(), gomock.Any(), gomock.Any()).Return([]*readings.Reading{
				readingAt("SN-1", monday.Add(9*time.Hour), pointer.FromAny(60.0), pointer.FromAny(96.0)),
				readingAt("SN-1", monday.Add(11*time.Hour), pointer.FromAny(80.0), pointer.FromAny(98.0)),
			}, nil)

			Expect(handler.GetCurrentPatientDailyStats(c)).To(Succeed())
			Expect(rec.Code).To(Equal(http.StatusOK))

			response := api.DailySummaryResponseDto{}
			Expect(json.Unmarshal(rec.Body.Bytes(), &response)).To(Succeed())
			Expect(response.PatientEmail).To(Equal(patient.Email))
			Expect(response.DailyData).To(HaveLen(1))
			Expect(response.DailyData[0].Date).To(Equal("2024-05-06"))
			Expect(*response.DailyData[0].AverageHeartRate).To(Equal(70.0))
			Expect(*response.DailyData[0].AverageSpo2).To(Equal(97.0))
		})

		It("uses the explicit period verbatim", func() {
			c, rec := newContext(http.MethodGet, "/v1/patients/me/stats/daily?startDate=2024-05-06&endDate=2024-05-08", nil)
			authenticate(c, auth.RolePatient, patient.Email)

			repo.EXPECT().List(gomock.Any(), gomock.Any(), gomock.Any()).Return([]*readings.Reading{}, nil)

			Expect(handler.GetCurrentPatientDailyStats(c)).To(Succeed())
			Expect(rec.Code).To(Equal(http.StatusOK))

			response := api.DailySummaryResponseDto{}
			Expect(json.Unmarshal(rec.Body.Bytes(), &response)).To(Succeed())
			Expect(response.DailyData).To(HaveLen(3))
			Expect(response.DailyData[0].AverageHeartRate).To(BeNil())
		})

		It("rejects a partial period", func() {
			c, _ := newContext(http.MethodGet, "/v1/patients/me/stats/daily?startDate=2024-05-06", nil)
			authenticate(c, auth.RolePatient, patient.Email)

			err := handler.GetCurrentPatientDailyStats(c)
			Expect(err).To(HaveOccurred())
			Expect(err.(*echo.HTTPError).Code).To(Equal(http.StatusBadRequest))
		})

		It("rejects physicians", func() {
			c, _ := newContext(http.MethodGet, "/v1/patients/me/stats/daily", nil)
			authenticate(c, auth.RolePhysician, physician.Email)

			Expect(handler.GetCurrentPatientDailyStats(c)).To(MatchError(errors.Unauthorized))
		})
	})

	Describe("GetPhysicianPatientsWeeklyStats", func() {
		monday := time.Date(2024, time.May, 6, 0, 0, 0, 0, time.UTC)

		It("returns one entry per assigned patient", func() {
			c, rec := newContext(http.MethodGet, "/v1/physicians/me/patients/stats/weekly", nil)
			authenticate(c, auth.RolePhysician, physician.Email)

			repo.EXPECT().EarliestTimestamp(gomock.Any(), gomock.Any()).Return(monday.Add(9*time.Hour), nil)
			repo.EXPECT().LatestTimestamp(gomock.Any(), gomock.Any()).Return(monday.AddDate(0, 0, 1), nil)
			repo.EXPECT().List(gomock.Any(), gomock.Any(), gomock.Any()).Return([]*readings.Reading{
				readingAt("SN-1", monday.Add(9*time.Hour), pointer.FromAny(58.0), nil),
				readingAt("SN-1", monday.AddDate(0, 0, 1), pointer.FromAny(92.0), nil),
			}, nil)

			Expect(handler.GetPhysicianPatientsWeeklyStats(c)).To(Succeed())
			Expect(rec.Code).To(Equal(http.StatusOK))

			response := api.WeeklyStatsResponseDto{}
			Expect(json.Unmarshal(rec.Body.Bytes(), &response)).To(Succeed())
			Expect(response.Results).To(HaveLen(1))
			Expect(response.Results[0].PatientEmail).To(Equal(patient.Email))
			Expect(response.Results[0].Stats).To(HaveLen(1))
			Expect(response.Results[0].Stats[0].StartDate).To(Equal("2024-05-06"))
			Expect(response.Results[0].Stats[0].EndDate).To(Equal("2024-05-12"))
			Expect(*response.Results[0].Stats[0].AverageHeartRate).To(Equal(75.0))
		})

		It("includes patients whose devices have no readings", func() {
			c, rec := newContext(http.MethodGet, "/v1/physicians/me/patients/stats/weekly", nil)
			authenticate(c, auth.RolePhysician, physician.Email)

			repo.EXPECT().EarliestTimestamp(gomock.Any(), gomock.Any()).Return(time.Time{}, readings.ErrNotFound)

			Expect(handler.GetPhysicianPatientsWeeklyStats(c)).To(Succeed())
			Expect(rec.Code).To(Equal(http.StatusOK))

			response := api.WeeklyStatsResponseDto{}
			Expect(json.Unmarshal(rec.Body.Bytes(), &response)).To(Succeed())
			Expect(response.Results).To(HaveLen(1))
			Expect(response.Results[0].Stats).To(BeEmpty())
		})

		It("rejects patients", func() {
			c, _ := newContext(http.MethodGet, "/v1/physicians/me/patients/stats/weekly", nil)
			authenticate(c, auth.RolePatient, patient.Email)

			Expect(handler.GetPhysicianPatientsWeeklyStats(c)).To(MatchError(errors.Unauthorized))
		})
	})

	Describe("GetPhysicianPatientDailyStats", func() {
		It("rejects patients that are not assigned to the physician", func() {
			other, err := patientsService.Create(nil, patients.Patient{
				Email: "other@pulseox.test",
				Name:  "Other",
			})
			Expect(err).ToNot(HaveOccurred())

			c, _ := newContext(http.MethodGet, "/v1/physicians/me/patients/other@pulseox.test/stats/daily", nil)
			c.SetParamNames("email")
			c.SetParamValues(other.Email)
			authenticate(c, auth.RolePhysician, physician.Email)

			Expect(handler.GetPhysicianPatientDailyStats(c)).To(MatchError(errors.NotFound))
		})
	})

	Describe("UpdatePatientDeviceSettings", func() {
		It("updates the settings of a registered device", func() {
			c, rec := newContext(http.MethodPut, "/v1/patients/me/devices/SN-1", api.DeviceSettingsDto{
				StartTime:          "06:00",
				EndTime:            "22:00",
				FrequencyOfReading: "15",
			})
			c.SetParamNames("serialNumber")
			c.SetParamValues("SN-1")
			authenticate(c, auth.RolePatient, patient.Email)

			Expect(handler.UpdatePatientDeviceSettings(c)).To(Succeed())
			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(patient.Device("SN-1").StartTime).To(Equal("06:00"))
			Expect(patient.Device("SN-1").FrequencyOfReading).To(Equal("15"))
		})

		It("fails for an unknown device", func() {
			c, _ := newContext(http.MethodPut, "/v1/patients/me/devices/SN-404", api.DeviceSettingsDto{})
			c.SetParamNames("serialNumber")
			c.SetParamValues("SN-404")
			authenticate(c, auth.RolePatient, patient.Email)

			Expect(handler.UpdatePatientDeviceSettings(c)).To(MatchError(errors.NotFound))
		})
	})
})

func readingAt(serialNumber string, at time.Time, heartRate, spo2 *float64) *readings.Reading {
	return &readings.Reading{
		DeviceSerialNumber: serialNumber,
		HeartRate:          heartRate,
		Spo2:               spo2,
		Timestamp:          at,
	}
}
