package service_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"readiq.app/api/internal/billing"
	"readiq.app/api/internal/service"
	"readiq.app/api/internal/store"
)

var _ = Describe("PaymentService", func() {
	var (
		ctx      context.Context
		client   *mockBillingClient
		sessions *store.MemoryPaymentSessionStore
		now      time.Time
		svc      service.PaymentService
	)

	BeforeEach(func() {
		ctx = context.Background()
		client = &mockBillingClient{}
		now = time.Now()
		sessions = store.NewMemoryPaymentSessionStore().WithClock(func() time.Time { return now })
		svc = service.NewPaymentService(client, sessions, "https://api.readiq.app", 30*time.Minute)
	})

	It("starts a checkout that returns to the completion url", func() {
		var attached billing.AttachInput
		client.attachFn = func(_ context.Context, in billing.AttachInput) (*billing.AttachResult, error) {
			attached = in
			return &billing.AttachResult{CheckoutURL: "https://pay.example/cs_1"}, nil
		}

		session, err := svc.StartCheckout(ctx, service.CheckoutInput{OrganizationID: "org_1", ProductID: "pro", UserID: 3})
		Expect(err).NotTo(HaveOccurred())
		Expect(session.CheckoutURL).To(Equal("https://pay.example/cs_1"))
		Expect(attached.CustomerID).To(Equal("org_1"))
		Expect(attached.SuccessURL).To(Equal("https://api.readiq.app/api/billing/checkout/" + session.ID + "/complete"))
	})

	It("completes a checkout only once", func() {
		session, err := svc.StartCheckout(ctx, service.CheckoutInput{OrganizationID: "org_1", ProductID: "pro"})
		Expect(err).NotTo(HaveOccurred())

		completed, err := svc.CompleteCheckout(ctx, session.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(completed.OrganizationID).To(Equal("org_1"))

		_, err = svc.CompleteCheckout(ctx, session.ID)
		Expect(err).To(MatchError(service.ErrPaymentSessionExpired))
	})

	It("completes a checkout once under concurrent callbacks", func() {
		session, err := svc.StartCheckout(ctx, service.CheckoutInput{OrganizationID: "org_1", ProductID: "pro"})
		Expect(err).NotTo(HaveOccurred())

		var (
			wg        sync.WaitGroup
			completed atomic.Int32
		)
		for range 8 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if _, err := svc.CompleteCheckout(ctx, session.ID); err == nil {
					completed.Add(1)
				}
			}()
		}
		wg.Wait()

		Expect(completed.Load()).To(Equal(int32(1)))
	})

	It("expires sessions after the ttl", func() {
		session, err := svc.StartCheckout(ctx, service.CheckoutInput{OrganizationID: "org_1", ProductID: "pro"})
		Expect(err).NotTo(HaveOccurred())

		now = now.Add(31 * time.Minute)
		_, err = svc.CompleteCheckout(ctx, session.ID)
		Expect(err).To(MatchError(service.ErrPaymentSessionExpired))
	})

	It("does not store a session when the billing provider fails", func() {
		client.attachFn = func(context.Context, billing.AttachInput) (*billing.AttachResult, error) {
			return nil, errors.New("bad product")
		}

		_, err := svc.StartCheckout(ctx, service.CheckoutInput{OrganizationID: "org_1", ProductID: "pro"})
		Expect(err).To(MatchError(service.ErrCheckoutFailed))
		Expect(sessions.Sweep()).To(BeZero())
	})

	It("requires a product", func() {
		_, err := svc.StartCheckout(ctx, service.CheckoutInput{OrganizationID: "org_1"})
		Expect(err).To(MatchError(service.ErrProductRequired))
	})
})
