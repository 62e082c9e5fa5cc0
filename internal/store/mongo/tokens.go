package mongo

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/dropDatabas3/tasknest/internal/domain/repository"
)

type RefreshStore struct {
	c *mongo.Collection
}

// Upsert pisa el registro del usuario si existe. El hash anterior deja de
// ser consultable: el refresh token previo queda inválido por diseño.
func (s *RefreshStore) Upsert(ctx context.Context, userID, tokenHash string, expiresAt time.Time) error {
	now := time.Now().UTC()
	_, err := s.c.UpdateOne(ctx,
		bson.M{"userId": userID},
		bson.M{
			"$set": bson.M{
				"tokenHash": tokenHash,
				"expiresAt": expiresAt,
				"revoked":   false,
				"updatedAt": now,
			},
			"$setOnInsert": bson.M{
				"_id":       uuid.NewString(),
				"createdAt": now,
			},
		},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		log.Printf(`{"level":"error","msg":"refresh_upsert_err","err":"%v"}`, err)
	}
	return err
}

func (s *RefreshStore) GetByHash(ctx context.Context, tokenHash string) (*repository.RefreshToken, error) {
	var t repository.RefreshToken
	err := s.c.FindOne(ctx, bson.M{"tokenHash": tokenHash}).Decode(&t)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}

func (s *RefreshStore) Revoke(ctx context.Context, tokenHash string) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"tokenHash": tokenHash},
		bson.M{"$set": bson.M{"revoked": true, "updatedAt": time.Now().UTC()}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}
