package service_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"readiq.app/api/internal/model"
	"readiq.app/api/internal/service"
)

var _ = Describe("SeatChecker", func() {
	var (
		ctx     context.Context
		client  *mockBillingClient
		checker service.SeatChecker
	)

	BeforeEach(func() {
		ctx = context.Background()
		client = &mockBillingClient{}
		checker = service.NewSeatChecker(client, "organization_seats")
	})

	It("asks for the seat feature of the organization", func() {
		var gotCustomer, gotFeature string
		client.checkFn = func(_ context.Context, customerID, featureID string) (*model.FeatureUsage, error) {
			gotCustomer, gotFeature = customerID, featureID
			return &model.FeatureUsage{Allowed: true, IncludedUsage: 10, Usage: 5}, nil
		}

		Expect(checker.Check(ctx, "org_1")).To(Succeed())
		Expect(gotCustomer).To(Equal("org_1"))
		Expect(gotFeature).To(Equal("organization_seats"))
	})

	It("reports the quota when no seats remain", func() {
		client.checkFn = func(context.Context, string, string) (*model.FeatureUsage, error) {
			return &model.FeatureUsage{Allowed: false, IncludedUsage: 10, Usage: 10}, nil
		}

		err := checker.Check(ctx, "org_1")

		var seatErr *service.SeatLimitExceededError
		Expect(errors.As(err, &seatErr)).To(BeTrue())
		Expect(seatErr.RemainingSeats).To(Equal(int64(0)))
		Expect(seatErr.TotalSeats).To(Equal(int64(10)))
		Expect(seatErr.Usage).To(Equal(int64(10)))
		Expect(seatErr.Unlimited).To(BeFalse())
	})

	It("never reports negative remaining seats", func() {
		client.checkFn = func(context.Context, string, string) (*model.FeatureUsage, error) {
			return &model.FeatureUsage{Allowed: false, IncludedUsage: 10, Usage: 12}, nil
		}

		var seatErr *service.SeatLimitExceededError
		Expect(errors.As(checker.Check(ctx, "org_1"), &seatErr)).To(BeTrue())
		Expect(seatErr.RemainingSeats).To(Equal(int64(0)))
	})

	It("fails closed when the billing provider errors", func() {
		cause := errors.New("connection refused")
		client.checkFn = func(context.Context, string, string) (*model.FeatureUsage, error) {
			return nil, cause
		}

		err := checker.Check(ctx, "org_1")

		var seatErr *service.SeatLimitExceededError
		Expect(errors.As(err, &seatErr)).To(BeTrue())
		Expect(err).To(MatchError(cause))
	})

	It("fails closed on an empty answer", func() {
		client.checkFn = func(context.Context, string, string) (*model.FeatureUsage, error) {
			return nil, nil
		}

		var seatErr *service.SeatLimitExceededError
		Expect(errors.As(checker.Check(ctx, "org_1"), &seatErr)).To(BeTrue())
		Expect(seatErr.TotalSeats).To(BeZero())
	})

	It("uses the balance when the plan includes no seats", func() {
		balance := int64(3)
		client.checkFn = func(context.Context, string, string) (*model.FeatureUsage, error) {
			return &model.FeatureUsage{Allowed: true, Balance: &balance, Usage: 2}, nil
		}

		summary, err := checker.Summary(ctx, "org_1")
		Expect(err).NotTo(HaveOccurred())
		Expect(summary.RemainingSeats).To(Equal(int64(3)))
		Expect(summary.Allowed).To(BeTrue())
	})

	It("passes transport errors through from Summary", func() {
		client.checkFn = func(context.Context, string, string) (*model.FeatureUsage, error) {
			return nil, errors.New("timeout")
		}

		_, err := checker.Summary(ctx, "org_1")
		Expect(err).To(MatchError(ContainSubstring("timeout")))
	})
})
