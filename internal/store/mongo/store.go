// Package mongo implementa los repositorios sobre MongoDB
// (go.mongodb.org/mongo-driver). Los índices únicos de users son la
// garantía real contra identidades duplicadas; acá solo los declaramos.
package mongo

import (
	"context"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	collUsers    = "users"
	collRefresh  = "refresh_tokens"
	collResets   = "password_reset_tokens"
	collProjects = "projects"
)

type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

// Connect abre la conexión, hace ping y asegura índices.
func Connect(ctx context.Context, uri, database string) (*Store, error) {
	cctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(cctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(cctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	s := &Store{client: client, db: client.Database(database)}
	if err := s.ensureIndexes(cctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	log.Printf(`{"level":"info","msg":"mongo_connected","db":"%s"}`, database)
	return s, nil
}

func (s *Store) Close(ctx context.Context) error { return s.client.Disconnect(ctx) }

func (s *Store) Users() *UserStore            { return &UserStore{c: s.db.Collection(collUsers)} }
func (s *Store) RefreshTokens() *RefreshStore { return &RefreshStore{c: s.db.Collection(collRefresh)} }
func (s *Store) ResetTokens() *ResetStore     { return &ResetStore{c: s.db.Collection(collResets)} }
func (s *Store) Projects() *ProjectStore      { return &ProjectStore{c: s.db.Collection(collProjects)} }

func (s *Store) ensureIndexes(ctx context.Context) error {
	unique := func(keys bson.D) mongo.IndexModel {
		return mongo.IndexModel{Keys: keys, Options: options.Index().SetUnique(true)}
	}
	// phoneNumber y federatedSubjectId son opcionales: índice único parcial
	// para no chocar entre documentos que no traen el campo.
	partialUnique := func(keys bson.D, field string) mongo.IndexModel {
		return mongo.IndexModel{
			Keys: keys,
			Options: options.Index().
				SetUnique(true).
				SetPartialFilterExpression(bson.M{field: bson.M{"$exists": true, "$type": "string"}}),
		}
	}

	_, err := s.db.Collection(collUsers).Indexes().CreateMany(ctx, []mongo.IndexModel{
		unique(bson.D{{Key: "email", Value: 1}}),
		unique(bson.D{{Key: "publicId", Value: 1}}),
		partialUnique(bson.D{{Key: "phoneNumber", Value: 1}}, "phoneNumber"),
		partialUnique(bson.D{{Key: "provider", Value: 1}, {Key: "federatedSubjectId", Value: 1}}, "federatedSubjectId"),
	})
	if err != nil {
		return err
	}

	_, err = s.db.Collection(collRefresh).Indexes().CreateMany(ctx, []mongo.IndexModel{
		unique(bson.D{{Key: "userId", Value: 1}}), // a lo sumo un registro vivo por usuario
		{Keys: bson.D{{Key: "tokenHash", Value: 1}}},
	})
	if err != nil {
		return err
	}

	_, err = s.db.Collection(collResets).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "tokenHash", Value: 1}}},
		{Keys: bson.D{{Key: "userId", Value: 1}}},
	})
	if err != nil {
		return err
	}

	_, err = s.db.Collection(collProjects).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "ownerId", Value: 1}}},
	})
	return err
}
