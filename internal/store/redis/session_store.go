package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/spec-kit/support-core/internal/clock"
	"github.com/spec-kit/support-core/internal/domain"
	"github.com/spec-kit/support-core/internal/store"
	apperrors "github.com/spec-kit/support-core/pkg/util/errorutil"
)

const (
	sessionKeyPrefix = "session:id:"
	slotKeyPrefix    = "session:slot:"
	ticketKeyPrefix  = "session:ticket:"
)

// SessionStore keeps ephemeral sessions in Redis. Values are JSON with a
// TTL as a teardown backstop; the participant-slot key enforces one live
// session per kind/ticket/participant pair via SETNX, and ConditionalUpdate
// uses WATCH so concurrent writers against one session id serialize through
// the server.
type SessionStore struct {
	client *goredis.Client
	schema store.Schema[domain.Session]
	clock  clock.Clock
	ttl    time.Duration
}

// NewSessionStore instantiates the store.
func NewSessionStore(client *goredis.Client, clk clock.Clock, ttl time.Duration) *SessionStore {
	return &SessionStore{
		client: client,
		schema: store.SessionSchema(),
		clock:  clk,
		ttl:    ttl,
	}
}

func (s *SessionStore) Create(ctx context.Context, session *domain.Session) (*domain.Session, error) {
	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	now := s.clock.Now()
	session.CreatedAt = now
	session.UpdatedAt = now

	reserved, err := s.client.SetNX(ctx, slotKeyPrefix+session.ParticipantKey(), session.ID, s.ttl).Result()
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	if !reserved {
		return nil, apperrors.NewConflict("session already exists for participants", map[string]any{
			"ticket_id": session.TicketID,
			"kind":      string(session.Kind),
		})
	}

	payload, err := json.Marshal(session)
	if err != nil {
		s.rollbackCreate(ctx, session)
		return nil, apperrors.NewInternalError(err)
	}
	_, err = s.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.Set(ctx, sessionKeyPrefix+session.ID, payload, s.ttl)
		pipe.SAdd(ctx, ticketKeyPrefix+session.TicketID, session.ID)
		pipe.Expire(ctx, ticketKeyPrefix+session.TicketID, s.ttl)
		return nil
	})
	if err != nil {
		s.rollbackCreate(ctx, session)
		return nil, apperrors.NewInternalError(err)
	}
	return session, nil
}

// rollbackCreate releases the slot reservation (and any partially written
// body) when the create pipeline fails, so a retry is not locked out until
// the slot TTL expires.
func (s *SessionStore) rollbackCreate(ctx context.Context, session *domain.Session) {
	s.client.Del(context.WithoutCancel(ctx),
		slotKeyPrefix+session.ParticipantKey(),
		sessionKeyPrefix+session.ID,
	)
}

func (s *SessionStore) GetByID(ctx context.Context, id string) (*domain.Session, error) {
	payload, err := s.client.Get(ctx, sessionKeyPrefix+id).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, apperrors.NewNotFound("session", map[string]any{"id": id})
		}
		return nil, apperrors.NewInternalError(err)
	}
	var session domain.Session
	if err := json.Unmarshal(payload, &session); err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return &session, nil
}

func (s *SessionStore) GetByIDs(ctx context.Context, ids []string) ([]*domain.Session, error) {
	result := make([]*domain.Session, 0, len(ids))
	for _, id := range ids {
		session, err := s.GetByID(ctx, id)
		if err != nil {
			if apperrors.IsNotFound(err) {
				continue
			}
			return nil, err
		}
		result = append(result, session)
	}
	return result, nil
}

func (s *SessionStore) GetByIndex(ctx context.Context, index, value string) ([]*domain.Session, error) {
	if index != store.SessionIndexTicket {
		return nil, apperrors.NewInternalError(fmt.Errorf("unknown index %q on session", index))
	}
	ids, err := s.client.SMembers(ctx, ticketKeyPrefix+value).Result()
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return s.GetByIDs(ctx, ids)
}

func (s *SessionStore) ConditionalUpdate(ctx context.Context, id string, expected, update store.Fields) (*domain.Session, error) {
	key := sessionKeyPrefix + id
	var updated *domain.Session

	txn := func(tx *goredis.Tx) error {
		payload, err := tx.Get(ctx, key).Bytes()
		if err != nil {
			if errors.Is(err, goredis.Nil) {
				return apperrors.NewNotFound("session", map[string]any{"id": id})
			}
			return apperrors.NewInternalError(err)
		}
		var session domain.Session
		if err := json.Unmarshal(payload, &session); err != nil {
			return apperrors.NewInternalError(err)
		}

		for name, want := range expected {
			get, ok := s.schema.Get[name]
			if !ok {
				return apperrors.NewInternalError(fmt.Errorf("unknown field %q on session", name))
			}
			if !store.FieldEqual(get(&session), want) {
				return apperrors.NewPreconditionFailed("session state changed", map[string]any{"id": id, "field": name})
			}
		}
		for name, value := range update {
			set, ok := s.schema.Set[name]
			if !ok {
				return apperrors.NewInternalError(fmt.Errorf("field %q on session is not mutable", name))
			}
			if err := set(&session, value); err != nil {
				return apperrors.NewInternalError(err)
			}
		}
		session.UpdatedAt = s.clock.Now()

		next, err := json.Marshal(&session)
		if err != nil {
			return apperrors.NewInternalError(err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
			pipe.Set(ctx, key, next, goredis.KeepTTL)
			return nil
		})
		if err != nil {
			return err
		}
		updated = &session
		return nil
	}

	if err := s.client.Watch(ctx, txn, key); err != nil {
		if errors.Is(err, goredis.TxFailedErr) {
			// Another writer slipped in between read and write.
			return nil, apperrors.NewPreconditionFailed("session state changed", map[string]any{"id": id})
		}
		return nil, err
	}
	return updated, nil
}

func (s *SessionStore) Clear(ctx context.Context) error {
	for _, pattern := range []string{sessionKeyPrefix + "*", slotKeyPrefix + "*", ticketKeyPrefix + "*"} {
		iter := s.client.Scan(ctx, 0, pattern, 0).Iterator()
		for iter.Next(ctx) {
			if err := s.client.Del(ctx, iter.Val()).Err(); err != nil {
				return apperrors.NewInternalError(err)
			}
		}
		if err := iter.Err(); err != nil {
			return apperrors.NewInternalError(err)
		}
	}
	return nil
}
