package test

import (
	"fmt"
	"time"

	"github.com/pulseox-org/pulseox/patients"
	"github.com/pulseox-org/pulseox/store/test"
)

var genders = []string{"Male", "Female", "Other"}

func RandomPatient() patients.Patient {
	return patients.Patient{
		Email:        test.Faker.Internet().Email(),
		PasswordHash: test.Faker.UUID().V4(),
		Name:         test.Faker.Person().Name(),
		Gender:       test.Faker.RandomStringElement(genders),
		BirthDate:    test.Faker.Time().ISO8601(time.Now())[:10],
		Address: &patients.Address{
			Street: test.Faker.Address().StreetAddress(),
			City:   test.Faker.Address().City(),
			State:  test.Faker.Address().State(),
			Zip:    test.Faker.Address().PostCode(),
		},
		Phone:   test.Faker.Phone().Number(),
		Devices: []patients.Device{RandomDevice(), RandomDevice()},
	}
}

func RandomDevice() patients.Device {
	return patients.Device{
		DeviceName:         test.Faker.Company().Name(),
		SerialNumber:       test.Faker.UUID().V4(),
		StartTime:          "08:00",
		EndTime:            "20:00",
		FrequencyOfReading: fmt.Sprintf("%d", test.Faker.IntBetween(1, 60)),
	}
}
