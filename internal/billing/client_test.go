package billing_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"readiq.app/api/core/config"
	"readiq.app/api/internal/billing"
)

var _ = Describe("Client", func() {
	var (
		ctx     context.Context
		server  *httptest.Server
		handler http.HandlerFunc
		client  billing.Client
		calls   atomic.Int32
	)

	BeforeEach(func() {
		ctx = context.Background()
		calls.Store(0)
		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			handler(w, r)
		}))
		client = billing.NewClient(config.BillingConfig{
			SecretKey:  "sk_test",
			BaseURL:    server.URL,
			Timeout:    time.Second,
			MaxRetries: 1,
		})
	})

	AfterEach(func() {
		server.Close()
	})

	Describe("CheckFeatureUsage", func() {
		It("sends the customer and feature with the secret key", func() {
			handler = func(w http.ResponseWriter, r *http.Request) {
				Expect(r.URL.Path).To(Equal("/v1/check"))
				Expect(r.Header.Get("Authorization")).To(Equal("Bearer sk_test"))

				var body map[string]string
				Expect(json.NewDecoder(r.Body).Decode(&body)).To(Succeed())
				Expect(body).To(HaveKeyWithValue("customer_id", "org_1"))
				Expect(body).To(HaveKeyWithValue("feature_id", "organization_seats"))

				_, _ = w.Write([]byte(`{"allowed":true,"balance":5,"included_usage":10,"usage":5,"unlimited":false}`))
			}

			usage, err := client.CheckFeatureUsage(ctx, "org_1", "organization_seats")
			Expect(err).NotTo(HaveOccurred())
			Expect(usage.Allowed).To(BeTrue())
			Expect(usage.IncludedUsage).To(Equal(int64(10)))
			Expect(usage.Usage).To(Equal(int64(5)))
			Expect(*usage.Balance).To(Equal(int64(5)))
		})

		It("does not retry a failing check", func() {
			handler = func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusServiceUnavailable)
			}

			_, err := client.CheckFeatureUsage(ctx, "org_1", "organization_seats")
			Expect(err).To(HaveOccurred())
			Expect(calls.Load()).To(Equal(int32(1)))
		})

		It("refuses to run without a secret key", func() {
			unconfigured := billing.NewClient(config.BillingConfig{BaseURL: server.URL})
			_, err := unconfigured.CheckFeatureUsage(ctx, "org_1", "organization_seats")
			Expect(err).To(MatchError(billing.ErrNotConfigured))
		})
	})

	Describe("Attach", func() {
		It("returns the checkout url", func() {
			handler = func(w http.ResponseWriter, r *http.Request) {
				Expect(r.URL.Path).To(Equal("/v1/attach"))
				_, _ = w.Write([]byte(`{"checkout_url":"https://pay.example/cs_1","customer_id":"org_1","product_id":"pro"}`))
			}

			result, err := client.Attach(ctx, billing.AttachInput{CustomerID: "org_1", ProductID: "pro"})
			Expect(err).NotTo(HaveOccurred())
			Expect(result.CheckoutURL).To(Equal("https://pay.example/cs_1"))
		})

		It("surfaces provider errors", func() {
			handler = func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusBadRequest)
				_, _ = w.Write([]byte(`{"message":"unknown product"}`))
			}

			_, err := client.Attach(ctx, billing.AttachInput{CustomerID: "org_1", ProductID: "nope"})
			Expect(err).To(MatchError(ContainSubstring("unknown product")))
		})
	})
})
