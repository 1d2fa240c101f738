package database

import (
	"context"
	"fmt"
	"log/slog"
	"lovealbum/entity"
	"lovealbum/internal/config"
	"lovealbum/lib/sl"
)

// Database is implemented by every storage backend: Memory, MongoDB and MySql.
type Database interface {
	Codes(ctx context.Context) ([]*entity.AccessCode, error)
	FindCode(ctx context.Context, code string) (*entity.AccessCode, error)
	InsertCode(ctx context.Context, code *entity.AccessCode) error
	UpdateCode(ctx context.Context, code *entity.AccessCode) error
	DeleteCode(ctx context.Context, code string) error
	GetAlbum(ctx context.Context, id string) (*entity.Album, error)
	SaveAlbum(ctx context.Context, album *entity.Album) error
	DeleteAlbum(ctx context.Context, id string) error
	Close()
}

// New opens the backend selected by storage.driver.
func New(conf *config.Config, log *slog.Logger) (Database, error) {
	log = log.With(sl.Module("database"), slog.String("driver", conf.Storage.Driver))
	switch conf.Storage.Driver {
	case config.StorageMemory:
		log.Warn("using in-memory storage; data is lost on restart")
		return NewMemory(), nil
	case config.StorageMongo:
		mongo := NewMongoClient(conf)
		if mongo == nil {
			return nil, fmt.Errorf("mongo is disabled in configuration")
		}
		log.With(slog.String("database", conf.Mongo.Database)).Info("using mongodb storage")
		return mongo, nil
	case config.StorageMySQL:
		mysql, err := NewSQLClient(conf)
		if err != nil {
			return nil, err
		}
		log.With(slog.String("database", conf.MySQL.Database)).Info("using mysql storage")
		return mysql, nil
	}
	return nil, fmt.Errorf("unknown storage driver %q", conf.Storage.Driver)
}
