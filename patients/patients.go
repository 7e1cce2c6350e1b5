package patients

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/pulseox-org/pulseox/store"
)

var (
	ErrNotFound        = errors.New("patient not found")
	ErrDuplicate       = errors.New("patient is already registered")
	ErrDeviceNotFound  = errors.New("device not registered under this patient")
	ErrDuplicateDevice = errors.New("device already registered")
)

type Service interface {
	Get(ctx context.Context, email string) (*Patient, error)
	List(ctx context.Context, filter *Filter, pagination store.Pagination) ([]*Patient, error)
	Create(ctx context.Context, patient Patient) (*Patient, error)
	Update(ctx context.Context, email string, update Update) (*Patient, error)
	UpdatePasswordHash(ctx context.Context, email string, passwordHash string) error
	AddDevice(ctx context.Context, email string, device Device) (*Patient, error)
	UpdateDeviceSettings(ctx context.Context, email string, serialNumber string, settings DeviceSettings) (*Patient, error)
	RemoveDevice(ctx context.Context, email string, serialNumber string) (*Patient, error)
}

type Patient struct {
	Id                *primitive.ObjectID `bson:"_id,omitempty"`
	Email             string              `bson:"email"`
	PasswordHash      string              `bson:"passwordHash"`
	Name              string              `bson:"name"`
	Gender            string              `bson:"gender"`
	BirthDate         string              `bson:"dob"`
	Address           *Address            `bson:"address,omitempty"`
	Phone             string              `bson:"phone"`
	AssignedPhysician *primitive.ObjectID `bson:"assignedPhysician,omitempty"`
	Devices           []Device            `bson:"devices"`
}

type Address struct {
	Street string `bson:"street"`
	City   string `bson:"city"`
	State  string `bson:"state"`
	Zip    string `bson:"zip"`
}

// Device is an entry in a patient's device registry. The usage window and
// reading cadence are stored verbatim as reported by the registering
// client.
type Device struct {
	DeviceName         string `bson:"deviceName"`
	SerialNumber       string `bson:"serialNumber"`
	StartTime          string `bson:"startTime"`
	EndTime            string `bson:"endTime"`
	FrequencyOfReading string `bson:"frequencyOfReading"`
}

type DeviceSettings struct {
	StartTime          string
	EndTime            string
	FrequencyOfReading string
}

type Update struct {
	Name              *string
	Address           *Address
	Phone             *string
	AssignedPhysician *primitive.ObjectID
}

type Filter struct {
	Email             *string
	AssignedPhysician *primitive.ObjectID
}

// DeviceSerialNumbers resolves the patient's device registry to the set
// of serial numbers used as input to the stats engine.
func (p *Patient) DeviceSerialNumbers() []string {
	serialNumbers := make([]string, 0, len(p.Devices))
	for _, device := range p.Devices {
		serialNumbers = append(serialNumbers, device.SerialNumber)
	}
	return serialNumbers
}

func (p *Patient) Device(serialNumber string) *Device {
	for i := range p.Devices {
		if p.Devices[i].SerialNumber == serialNumber {
			return &p.Devices[i]
		}
	}
	return nil
}
