package readings_test

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/fx/fxtest"

	"github.com/pulseox-org/pulseox/readings"
	readingsTest "github.com/pulseox-org/pulseox/readings/test"
	"github.com/pulseox-org/pulseox/store"
	dbTest "github.com/pulseox-org/pulseox/store/test"
)

var _ = Describe("Readings Repository", func() {
	var repo readings.Repository
	var collection *mongo.Collection
	var ctx context.Context

	BeforeEach(func() {
		var err error
		database := dbTest.GetTestDatabase()
		collection = database.Collection("readings")
		ctx = context.Background()

		lifecycle := fxtest.NewLifecycle(GinkgoT())
		repo, err = readings.NewRepository(database, lifecycle)
		Expect(err).ToNot(HaveOccurred())
		Expect(repo).ToNot(BeNil())
		lifecycle.RequireStart()
	})

	AfterEach(func() {
		_, err := collection.DeleteMany(ctx, primitive.M{})
		Expect(err).ToNot(HaveOccurred())
	})

	Describe("Create", func() {
		It("assigns an id to the created reading", func() {
			result, err := repo.Create(ctx, readingsTest.RandomReading("SN-1"))

			Expect(err).ToNot(HaveOccurred())
			Expect(result).ToNot(BeNil())
			Expect(result.Id).ToNot(BeNil())
		})
	})

	Describe("CreateMany", func() {
		It("persists the whole batch", func() {
			batch := []readings.Reading{
				readingsTest.RandomReading("SN-1"),
				readingsTest.RandomReading("SN-1"),
				readingsTest.RandomReading("SN-2"),
			}

			Expect(repo.CreateMany(ctx, batch)).To(Succeed())

			count, err := collection.CountDocuments(ctx, primitive.M{})
			Expect(err).ToNot(HaveOccurred())
			Expect(count).To(BeEquivalentTo(3))
		})

		It("accepts an empty batch", func() {
			Expect(repo.CreateMany(ctx, nil)).To(Succeed())
		})
	})

	Describe("List", func() {
		var base time.Time

		BeforeEach(func() {
			base = time.Date(2024, time.May, 6, 0, 0, 0, 0, time.UTC)
			batch := []readings.Reading{
				readingsTest.RandomReadingAt("SN-1", base.Add(1*time.Hour)),
				readingsTest.RandomReadingAt("SN-1", base.Add(26*time.Hour)),
				readingsTest.RandomReadingAt("SN-2", base.Add(3*time.Hour)),
				readingsTest.RandomReadingAt("SN-3", base.Add(4*time.Hour)),
			}
			Expect(repo.CreateMany(ctx, batch)).To(Succeed())
		})

		It("filters by device serial numbers", func() {
			result, err := repo.List(ctx, &readings.Filter{
				DeviceSerialNumbers: []string{"SN-1", "SN-2"},
			}, nil)

			Expect(err).ToNot(HaveOccurred())
			Expect(result).To(HaveLen(3))
		})

		It("restricts results to the half-open time range", func() {
			result, err := repo.List(ctx, &readings.Filter{
				DeviceSerialNumbers: []string{"SN-1"},
				Range: &readings.TimeRange{
					Start: base,
					End:   base.Add(26 * time.Hour),
				},
			}, nil)

			Expect(err).ToNot(HaveOccurred())
			Expect(result).To(HaveLen(1))
			Expect(result[0].Timestamp).To(BeTemporally("==", base.Add(1*time.Hour)))
		})

		It("sorts by the requested attribute", func() {
			sort := store.Sort{Attribute: "timestamp", Ascending: false}
			result, err := repo.List(ctx, &readings.Filter{
				DeviceSerialNumbers: []string{"SN-1"},
			}, &sort)

			Expect(err).ToNot(HaveOccurred())
			Expect(result).To(HaveLen(2))
			Expect(result[0].Timestamp.After(result[1].Timestamp)).To(BeTrue())
		})
	})

	Describe("EarliestTimestamp", func() {
		It("returns ErrNotFound when the device set has no readings", func() {
			_, err := repo.EarliestTimestamp(ctx, []string{"SN-404"})
			Expect(err).To(MatchError(readings.ErrNotFound))
		})

		It("returns the oldest timestamp of the device set", func() {
			base := time.Date(2024, time.May, 6, 0, 0, 0, 0, time.UTC)
			Expect(repo.CreateMany(ctx, []readings.Reading{
				readingsTest.RandomReadingAt("SN-1", base.Add(5*time.Hour)),
				readingsTest.RandomReadingAt("SN-2", base.Add(2*time.Hour)),
				readingsTest.RandomReadingAt("SN-3", base),
			})).To(Succeed())

			result, err := repo.EarliestTimestamp(ctx, []string{"SN-1", "SN-2"})
			Expect(err).ToNot(HaveOccurred())
			Expect(result).To(BeTemporally("==", base.Add(2*time.Hour)))
		})
	})

	Describe("LatestTimestamp", func() {
		It("returns the newest timestamp of the device set", func() {
			base := time.Date(2024, time.May, 6, 0, 0, 0, 0, time.UTC)
			Expect(repo.CreateMany(ctx, []readings.Reading{
				readingsTest.RandomReadingAt("SN-1", base),
				readingsTest.RandomReadingAt("SN-1", base.Add(7*time.Hour)),
			})).To(Succeed())

			result, err := repo.LatestTimestamp(ctx, []string{"SN-1"})
			Expect(err).ToNot(HaveOccurred())
			Expect(result).To(BeTemporally("==", base.Add(7*time.Hour)))
		})
	})
})
