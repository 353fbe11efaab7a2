// mongo — реализация storage.Storage на MongoDB: один документ на ключ.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/pribylovaa/car-marketplace/internal/storage"
	"go.mongodb.org/mongo-driver/bson"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	kvCollection  = "cart_kv"
	defaultDBName = "marketplace"
)

// document — запись коллекции cart_kv.
type document struct {
	Key       string    `bson:"_id"`
	Value     []byte    `bson:"value"`
	UpdatedAt time.Time `bson:"updated_at"`
}

// Storage — тонкий адаптер над коллекцией cart_kv.
type Storage struct {
	client *mongodriver.Client
	db     *mongodriver.Database
	kv     *mongodriver.Collection
}

// New подключается к MongoDB и проверяет соединение.
// Имя БД берётся из пути URI, иначе — defaultDBName.
func New(ctx context.Context, uri string) (*Storage, error) {
	if uri == "" {
		return nil, fmt.Errorf("mongo: empty uri")
	}

	cli, err := mongodriver.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}

	if err := cli.Ping(ctx, readpref.Primary()); err != nil {
		_ = cli.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}

	db := cli.Database(databaseFromURI(uri))

	return &Storage{
		client: cli,
		db:     db,
		kv:     db.Collection(kvCollection),
	}, nil
}

func (s *Storage) Get(ctx context.Context, key string) ([]byte, error) {
	const op = "storage/mongo/Get"

	if key == "" {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrEmptyKey)
	}

	var doc document
	if err := s.kv.FindOne(ctx, bson.M{"_id": key}).Decode(&doc); err != nil {
		if errors.Is(err, mongodriver.ErrNoDocuments) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return doc.Value, nil
}

func (s *Storage) Set(ctx context.Context, key string, value []byte) error {
	const op = "storage/mongo/Set"

	if key == "" {
		return fmt.Errorf("%s: %w", op, storage.ErrEmptyKey)
	}

	doc := document{Key: key, Value: value, UpdatedAt: time.Now().UTC()}
	_, err := s.kv.ReplaceOne(ctx, bson.M{"_id": key}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *Storage) Delete(ctx context.Context, key string) error {
	const op = "storage/mongo/Delete"

	if key == "" {
		return fmt.Errorf("%s: %w", op, storage.ErrEmptyKey)
	}

	if _, err := s.kv.DeleteOne(ctx, bson.M{"_id": key}); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *Storage) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return s.client.Disconnect(ctx)
}

// databaseFromURI извлекает имя базы данных из URI-пути mongodb.
func databaseFromURI(uri string) string {
	u, err := url.Parse(uri)
	if err == nil {
		if name := strings.Trim(u.Path, "/"); name != "" {
			return name
		}
	}

	return defaultDBName
}

var _ storage.Storage = (*Storage)(nil)
