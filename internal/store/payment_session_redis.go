package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"readiq.app/api/internal/model"
)

const paymentSessionKeyPrefix = "payment_session:"

type redisPaymentSessionStore struct {
	client *redis.Client
}

func NewRedisPaymentSessionStore(client *redis.Client) PaymentSessionStore {
	return &redisPaymentSessionStore{client: client}
}

func (s *redisPaymentSessionStore) Save(ctx context.Context, session *model.PaymentSession, ttl time.Duration) error {
	payload, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("encoding payment session: %w", err)
	}
	if err := s.client.Set(ctx, paymentSessionKeyPrefix+session.ID, payload, ttl).Err(); err != nil {
		return fmt.Errorf("saving payment session: %w", err)
	}
	return nil
}

func (s *redisPaymentSessionStore) Take(ctx context.Context, id string) (*model.PaymentSession, error) {
	payload, err := s.client.GetDel(ctx, paymentSessionKeyPrefix+id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("taking payment session: %w", err)
	}

	var session model.PaymentSession
	if err := json.Unmarshal(payload, &session); err != nil {
		return nil, fmt.Errorf("decoding payment session: %w", err)
	}
	return &session, nil
}
