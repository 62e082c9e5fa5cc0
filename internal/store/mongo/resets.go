package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/dropDatabas3/tasknest/internal/domain/repository"
)

type ResetStore struct {
	c *mongo.Collection
}

func (s *ResetStore) Create(ctx context.Context, t *repository.PasswordResetToken) error {
	t.CreatedAt = time.Now().UTC()
	_, err := s.c.InsertOne(ctx, t)
	return err
}

func (s *ResetStore) GetByHash(ctx context.Context, tokenHash string) (*repository.PasswordResetToken, error) {
	var t repository.PasswordResetToken
	err := s.c.FindOne(ctx, bson.M{"tokenHash": tokenHash}).Decode(&t)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}

func (s *ResetStore) MarkUsed(ctx context.Context, id string) error {
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"used": true}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}
