package test

import (
	"github.com/pulseox-org/pulseox/physicians"
	"github.com/pulseox-org/pulseox/store/test"
)

var specialties = []string{"Cardiology", "Pulmonology", "Internal Medicine", "General Practice"}

func RandomPhysician() physicians.Physician {
	return physicians.Physician{
		Email:        test.Faker.Internet().Email(),
		PasswordHash: test.Faker.UUID().V4(),
		Name:         test.Faker.Person().Name(),
		Specialty:    test.Faker.RandomStringElement(specialties),
		Phone:        test.Faker.Phone().Number(),
	}
}
