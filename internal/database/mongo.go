package database

import (
	"context"
	"errors"
	"fmt"
	"lovealbum/entity"
	"lovealbum/internal/config"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	collectionCodes    = "access_codes"
	collectionAlbums   = "albums"
	collectionCounters = "counters"
)

// codeRecord is the stored form of a code; seq keeps insertion order across writers.
type codeRecord struct {
	entity.AccessCode `bson:",inline"`
	Seq               int64 `bson:"seq"`
}

var bySeq = bson.D{{Key: "seq", Value: 1}}

type MongoDB struct {
	clientOptions *options.ClientOptions
	database      string
}

func NewMongoClient(conf *config.Config) *MongoDB {
	if !conf.Mongo.Enabled {
		return nil
	}
	connectionUri := fmt.Sprintf("mongodb://%s:%s", conf.Mongo.Host, conf.Mongo.Port)
	clientOptions := options.Client().ApplyURI(connectionUri)
	if conf.Mongo.User != "" {
		clientOptions.SetAuth(options.Credential{
			Username:   conf.Mongo.User,
			Password:   conf.Mongo.Password,
			AuthSource: conf.Mongo.Database,
		})
	}
	return &MongoDB{
		clientOptions: clientOptions,
		database:      conf.Mongo.Database,
	}
}

func (m *MongoDB) connect(ctx context.Context) (*mongo.Client, error) {
	connection, err := mongo.Connect(ctx, m.clientOptions)
	if err != nil {
		return nil, fmt.Errorf("mongodb connect: %w", err)
	}
	return connection, nil
}

func (m *MongoDB) disconnect(ctx context.Context, connection *mongo.Client) {
	_ = connection.Disconnect(ctx)
}

func (m *MongoDB) findError(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil
	}
	return fmt.Errorf("mongodb find: %w", err)
}

// Codes returns all codes in insertion order.
func (m *MongoDB) Codes(ctx context.Context) ([]*entity.AccessCode, error) {
	connection, err := m.connect(ctx)
	if err != nil {
		return nil, err
	}
	defer m.disconnect(ctx, connection)

	collection := connection.Database(m.database).Collection(collectionCodes)
	opts := options.Find().SetSort(bySeq)
	cursor, err := collection.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	codes := make([]*entity.AccessCode, 0)
	if err = cursor.All(ctx, &codes); err != nil {
		return nil, err
	}
	return codes, nil
}

func (m *MongoDB) FindCode(ctx context.Context, code string) (*entity.AccessCode, error) {
	connection, err := m.connect(ctx)
	if err != nil {
		return nil, err
	}
	defer m.disconnect(ctx, connection)

	collection := connection.Database(m.database).Collection(collectionCodes)
	filter := bson.D{{Key: "code", Value: code}}
	opts := options.FindOne().SetSort(bySeq)
	var ac entity.AccessCode
	err = collection.FindOne(ctx, filter, opts).Decode(&ac)
	if err != nil {
		return nil, m.findError(err)
	}
	return &ac, nil
}

func (m *MongoDB) InsertCode(ctx context.Context, code *entity.AccessCode) error {
	connection, err := m.connect(ctx)
	if err != nil {
		return err
	}
	defer m.disconnect(ctx, connection)

	seq, err := m.nextSeq(ctx, connection, collectionCodes)
	if err != nil {
		return err
	}
	collection := connection.Database(m.database).Collection(collectionCodes)
	_, err = collection.InsertOne(ctx, codeRecord{AccessCode: *code, Seq: seq})
	return err
}

// nextSeq increments the named counter atomically and returns the new value.
func (m *MongoDB) nextSeq(ctx context.Context, connection *mongo.Client, name string) (int64, error) {
	collection := connection.Database(m.database).Collection(collectionCounters)
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	var counter struct {
		Seq int64 `bson:"seq"`
	}
	err := collection.FindOneAndUpdate(ctx, bson.D{{Key: "_id", Value: name}}, bson.D{{Key: "$inc", Value: bson.D{{Key: "seq", Value: int64(1)}}}}, opts).Decode(&counter)
	if err != nil {
		return 0, fmt.Errorf("mongodb counter: %w", err)
	}
	return counter.Seq, nil
}

func (m *MongoDB) UpdateCode(ctx context.Context, code *entity.AccessCode) error {
	connection, err := m.connect(ctx)
	if err != nil {
		return err
	}
	defer m.disconnect(ctx, connection)

	collection := connection.Database(m.database).Collection(collectionCodes)
	filter := bson.D{{Key: "code", Value: code.Code}}
	update := bson.D{{Key: "$set", Value: bson.D{
		{Key: "used", Value: code.Used},
		{Key: "first_used_at", Value: code.FirstUsedAt},
		{Key: "expires_at", Value: code.ExpiresAt},
	}}}
	result, err := collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return entity.ErrCodeNotFound
	}
	return nil
}

func (m *MongoDB) DeleteCode(ctx context.Context, code string) error {
	connection, err := m.connect(ctx)
	if err != nil {
		return err
	}
	defer m.disconnect(ctx, connection)

	collection := connection.Database(m.database).Collection(collectionCodes)
	_, err = collection.DeleteMany(ctx, bson.D{{Key: "code", Value: code}})
	return err
}

func (m *MongoDB) GetAlbum(ctx context.Context, id string) (*entity.Album, error) {
	connection, err := m.connect(ctx)
	if err != nil {
		return nil, err
	}
	defer m.disconnect(ctx, connection)

	collection := connection.Database(m.database).Collection(collectionAlbums)
	var album entity.Album
	err = collection.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&album)
	if err != nil {
		return nil, m.findError(err)
	}
	if album.Blocks == nil {
		album.Blocks = []*entity.Block{}
	}
	return &album, nil
}

// SaveAlbum replaces the whole document; there is no merge with what is stored.
func (m *MongoDB) SaveAlbum(ctx context.Context, album *entity.Album) error {
	connection, err := m.connect(ctx)
	if err != nil {
		return err
	}
	defer m.disconnect(ctx, connection)

	collection := connection.Database(m.database).Collection(collectionAlbums)
	opts := options.Replace().SetUpsert(true)
	_, err = collection.ReplaceOne(ctx, bson.D{{Key: "_id", Value: album.ID}}, album, opts)
	return err
}

func (m *MongoDB) DeleteAlbum(ctx context.Context, id string) error {
	connection, err := m.connect(ctx)
	if err != nil {
		return err
	}
	defer m.disconnect(ctx, connection)

	collection := connection.Database(m.database).Collection(collectionAlbums)
	_, err = collection.DeleteOne(ctx, bson.D{{Key: "_id", Value: id}})
	return err
}

func (m *MongoDB) Close() {}
