package api

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/pulseox-org/pulseox/errors"
	"github.com/pulseox-org/pulseox/patients"
	"github.com/pulseox-org/pulseox/physicians"
	"github.com/pulseox-org/pulseox/readings"
	"github.com/pulseox-org/pulseox/stats"
)

type RegisterPatientDto struct {
	Email       string      `json:"email"`
	Password    string      `json:"password"`
	Name        string      `json:"name"`
	Gender      string      `json:"gender"`
	BirthDate   string      `json:"dob"`
	Address     *AddressDto `json:"address,omitempty"`
	Phone       string      `json:"phone"`
	PhysicianId *string     `json:"physicianId,omitempty"`
}

type RegisterPhysicianDto struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	Name      string `json:"name"`
	Specialty string `json:"specialty,omitempty"`
	Phone     string `json:"phone"`
}

type AddressDto struct {
	Street string `json:"street"`
	City   string `json:"city"`
	State  string `json:"state"`
	Zip    string `json:"zip"`
}

type LoginDto struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponseDto struct {
	Message string      `json:"message"`
	Token   string      `json:"token"`
	Subject interface{} `json:"subject"`
}

type ResetPasswordDto struct {
	Email           string `json:"email"`
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

type UpdatePatientDto struct {
	Name              *string     `json:"name,omitempty"`
	Address           *AddressDto `json:"address,omitempty"`
	Phone             *string     `json:"phone,omitempty"`
	AssignedPhysician *string     `json:"assignedPhysician,omitempty"`
}

type UpdatePhysicianDto struct {
	Name      *string `json:"name,omitempty"`
	Specialty *string `json:"specialty,omitempty"`
	Phone     *string `json:"phone,omitempty"`
}

type DeviceDto struct {
	DeviceName         string `json:"deviceName"`
	SerialNumber       string `json:"serialNumber"`
	StartTime          string `json:"startTime"`
	EndTime            string `json:"endTime"`
	FrequencyOfReading string `json:"frequencyOfReading"`
}

type DeviceSettingsDto struct {
	StartTime          string `json:"startTime"`
	EndTime            string `json:"endTime"`
	FrequencyOfReading string `json:"frequencyOfReading"`
}

type PatientDto struct {
	Id                string      `json:"id"`
	Email             string      `json:"email"`
	Name              string      `json:"name"`
	Gender            string      `json:"gender"`
	BirthDate         string      `json:"dob"`
	Address           *AddressDto `json:"address,omitempty"`
	Phone             string      `json:"phone"`
	AssignedPhysician *string     `json:"assignedPhysician,omitempty"`
	Devices           []DeviceDto `json:"devices"`
}

type PhysicianDto struct {
	Id        string `json:"id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	Specialty string `json:"specialty,omitempty"`
	Phone     string `json:"phone"`
}

type CreateReadingDto struct {
	DeviceSerialNumber string    `json:"deviceSerialNumber"`
	HeartRate          *float64  `json:"heart_rate,omitempty"`
	Spo2               *float64  `json:"spo2,omitempty"`
	Timestamp          time.Time `json:"timestamp"`
}

type ReadingDto struct {
	DeviceSerialNumber string    `json:"deviceSerialNumber"`
	HeartRate          *float64  `json:"heart_rate,omitempty"`
	Spo2               *float64  `json:"spo2,omitempty"`
	Timestamp          time.Time `json:"timestamp"`
}

type DailySummaryResponseDto struct {
	PatientName  string               `json:"patientName"`
	PatientEmail string               `json:"patientEmail"`
	DailyData    []stats.DailySummary `json:"dailyData"`
	Devices      []DeviceDto          `json:"devices,omitempty"`
}

type WeeklyStatsResultDto struct {
	PatientName  string                `json:"patientName"`
	PatientEmail string                `json:"patientEmail"`
	Stats        []stats.WeeklySummary `json:"stats"`
}

type WeeklyStatsResponseDto struct {
	Results []WeeklyStatsResultDto `json:"results"`
}

type DeviceReadingsResponseDto struct {
	StartTime          string       `json:"startTime"`
	EndTime            string       `json:"endTime"`
	FrequencyOfReading string       `json:"frequencyOfReading"`
	Readings           []ReadingDto `json:"readings"`
}

func NewPatientDto(patient *patients.Patient) PatientDto {
	dto := PatientDto{
		Email:     patient.Email,
		Name:      patient.Name,
		Gender:    patient.Gender,
		BirthDate: patient.BirthDate,
		Phone:     patient.Phone,
		Devices:   NewDeviceDtos(patient.Devices),
	}
	if patient.Id != nil {
		dto.Id = patient.Id.Hex()
	}
	if patient.Address != nil {
		dto.Address = &AddressDto{
			Street: patient.Address.Street,
			City:   patient.Address.City,
			State:  patient.Address.State,
			Zip:    patient.Address.Zip,
		}
	}
	if patient.AssignedPhysician != nil {
		physicianId := patient.AssignedPhysician.Hex()
		dto.AssignedPhysician = &physicianId
	}
	return dto
}

func NewPatientDtos(list []*patients.Patient) []PatientDto {
	dtos := make([]PatientDto, 0, len(list))
	for _, patient := range list {
		dtos = append(dtos, NewPatientDto(patient))
	}
	return dtos
}

func NewDeviceDto(device patients.Device) DeviceDto {
	return DeviceDto(device)
}

func NewDeviceDtos(devices []patients.Device) []DeviceDto {
	dtos := make([]DeviceDto, 0, len(devices))
	for _, device := range devices {
		dtos = append(dtos, NewDeviceDto(device))
	}
	return dtos
}

func NewPhysicianDto(physician *physicians.Physician) PhysicianDto {
	dto := PhysicianDto{
		Email:     physician.Email,
		Name:      physician.Name,
		Specialty: physician.Specialty,
		Phone:     physician.Phone,
	}
	if physician.Id != nil {
		dto.Id = physician.Id.Hex()
	}
	return dto
}

func NewPhysicianDtos(list []*physicians.Physician) []PhysicianDto {
	dtos := make([]PhysicianDto, 0, len(list))
	for _, physician := range list {
		dtos = append(dtos, NewPhysicianDto(physician))
	}
	return dtos
}

func NewReadingDtos(list []*readings.Reading) []ReadingDto {
	dtos := make([]ReadingDto, 0, len(list))
	for _, reading := range list {
		dtos = append(dtos, ReadingDto{
			DeviceSerialNumber: reading.DeviceSerialNumber,
			HeartRate:          reading.HeartRate,
			Spo2:               reading.Spo2,
			Timestamp:          reading.Timestamp,
		})
	}
	return dtos
}

func (d RegisterPatientDto) Patient(passwordHash string) (patients.Patient, error) {
	patient := patients.Patient{
		Email:        d.Email,
		PasswordHash: passwordHash,
		Name:         d.Name,
		Gender:       d.Gender,
		BirthDate:    d.BirthDate,
		Phone:        d.Phone,
		Devices:      []patients.Device{},
	}
	if d.Address != nil {
		patient.Address = &patients.Address{
			Street: d.Address.Street,
			City:   d.Address.City,
			State:  d.Address.State,
			Zip:    d.Address.Zip,
		}
	}
	if d.PhysicianId != nil {
		physicianId, err := primitive.ObjectIDFromHex(*d.PhysicianId)
		if err != nil {
			return patients.Patient{}, errors.BadRequest
		}
		patient.AssignedPhysician = &physicianId
	}
	return patient, nil
}

func (d UpdatePatientDto) Update() (patients.Update, error) {
	update := patients.Update{
		Name:  d.Name,
		Phone: d.Phone,
	}
	if d.Address != nil {
		update.Address = &patients.Address{
			Street: d.Address.Street,
			City:   d.Address.City,
			State:  d.Address.State,
			Zip:    d.Address.Zip,
		}
	}
	if d.AssignedPhysician != nil {
		physicianId, err := primitive.ObjectIDFromHex(*d.AssignedPhysician)
		if err != nil {
			return patients.Update{}, errors.BadRequest
		}
		update.AssignedPhysician = &physicianId
	}
	return update, nil
}
