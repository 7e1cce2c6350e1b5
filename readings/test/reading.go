package test

import (
	"time"

	"github.com/pulseox-org/pulseox/pointer"
	"github.com/pulseox-org/pulseox/readings"
	"github.com/pulseox-org/pulseox/store/test"
)

func RandomReading(deviceSerialNumber string) readings.Reading {
	return readings.Reading{
		DeviceSerialNumber: deviceSerialNumber,
		HeartRate:          pointer.FromAny(float64(test.Faker.IntBetween(45, 180))),
		Spo2:               pointer.FromAny(float64(test.Faker.IntBetween(85, 100))),
		Timestamp:          time.Now().UTC().Add(-time.Duration(test.Faker.IntBetween(0, 86400)) * time.Second),
	}
}

func RandomReadingAt(deviceSerialNumber string, at time.Time) readings.Reading {
	reading := RandomReading(deviceSerialNumber)
	reading.Timestamp = at
	return reading
}
