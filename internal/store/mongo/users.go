package mongo

import (
	"context"
	"errors"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/dropDatabas3/tasknest/internal/domain/repository"
)

type UserStore struct {
	c *mongo.Collection
}

func (s *UserStore) Create(ctx context.Context, u *repository.User) error {
	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now
	_, err := s.c.InsertOne(ctx, u)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			log.Printf(`{"level":"warn","msg":"user_create_duplicate","email":"%s"}`, u.Email)
			return repository.ErrConflict
		}
		return err
	}
	return nil
}

func (s *UserStore) GetByID(ctx context.Context, id string) (*repository.User, error) {
	return s.findOne(ctx, bson.M{"_id": id})
}

func (s *UserStore) GetByPublicID(ctx context.Context, publicID string) (*repository.User, error) {
	return s.findOne(ctx, bson.M{"publicId": publicID})
}

func (s *UserStore) GetByEmail(ctx context.Context, email string) (*repository.User, error) {
	return s.findOne(ctx, bson.M{"email": email})
}

func (s *UserStore) GetByFederatedSubject(ctx context.Context, provider repository.Provider, subjectID string) (*repository.User, error) {
	return s.findOne(ctx, bson.M{"provider": provider, "federatedSubjectId": subjectID})
}

func (s *UserStore) ExistsByEmailOrPhone(ctx context.Context, email, phone string) (bool, error) {
	filter := bson.M{"$or": bson.A{bson.M{"email": email}, bson.M{"phoneNumber": phone}}}
	n, err := s.c.CountDocuments(ctx, filter)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *UserStore) UpdateCredentialHash(ctx context.Context, userID, newHash string) error {
	return s.setFields(ctx, userID, bson.M{"credentialHash": newHash})
}

func (s *UserStore) UpdateRole(ctx context.Context, userID string, role repository.Role) error {
	return s.setFields(ctx, userID, bson.M{"role": role})
}

func (s *UserStore) SetTOTPRequired(ctx context.Context, userID string, required bool) error {
	return s.setFields(ctx, userID, bson.M{"totpRequired": required})
}

func (s *UserStore) LinkFederated(ctx context.Context, userID string, provider repository.Provider, subjectID string) error {
	return s.setFields(ctx, userID, bson.M{
		"provider":           provider,
		"federatedSubjectId": subjectID,
		"isVerified":         true,
	})
}

func (s *UserStore) findOne(ctx context.Context, filter bson.M) (*repository.User, error) {
	var u repository.User
	err := s.c.FindOne(ctx, filter).Decode(&u)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (s *UserStore) setFields(ctx context.Context, userID string, set bson.M) error {
	set["updatedAt"] = time.Now().UTC()
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": userID}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}
