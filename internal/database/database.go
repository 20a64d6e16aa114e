package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/abisalde/storefront-auth/internal/configs"
	"github.com/abisalde/storefront-auth/internal/database/migrations"
	"github.com/go-sql-driver/mysql"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const UsersCollection = "users"

// Database holds whichever backend the config selected. Exactly one of SQLDB
// and Mongo is set.
type Database struct {
	SQLDB  *sql.DB
	Mongo  *mongo.Client
	driver string
	config *configs.Config
}

func Connect(ctx context.Context, cfg *configs.Config) (*Database, error) {
	db := &Database{driver: cfg.DB.Driver, config: cfg}

	switch cfg.DB.Driver {
	case "mongo":
		client, err := ConnectMongo(ctx, cfg.DB.URI)
		if err != nil {
			return nil, err
		}
		db.Mongo = client
	case "mysql", "sqlite3":
		sqlDB, err := OpenSQL(ctx, cfg.DB.Driver, cfg.DB.URI)
		if err != nil {
			return nil, err
		}
		db.SQLDB = sqlDB

		if cfg.DB.Migrate {
			if err := Migrate(ctx, sqlDB, cfg.DB.Driver); err != nil {
				_ = sqlDB.Close()
				return nil, fmt.Errorf("database migration failed: %w", err)
			}
		}
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.DB.Driver)
	}

	return db, nil
}

func (db *Database) Driver() string {
	return db.driver
}

// Users is the user collection when running on the document store.
func (db *Database) Users() *mongo.Collection {
	return db.Mongo.Database(db.config.DB.Name).Collection(UsersCollection)
}

func (db *Database) Close(ctx context.Context) error {
	if db.Mongo != nil {
		if err := db.Mongo.Disconnect(ctx); err != nil {
			return fmt.Errorf("failed to close mongo connection: %w", err)
		}
	}
	if db.SQLDB != nil {
		if err := db.SQLDB.Close(); err != nil {
			return fmt.Errorf("failed to close database connection: %w", err)
		}
	}
	return nil
}

func (db *Database) HealthCheck(ctx context.Context) error {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
	}

	switch {
	case db.Mongo != nil:
		return db.Mongo.Ping(ctx, readpref.Primary())
	case db.SQLDB != nil:
		return db.SQLDB.PingContext(ctx)
	default:
		return errors.New("database is not initialized")
	}
}

// OpenSQL opens and pings a SQL pool. MySQL DSNs are forced to parse times
// and report matched rather than changed rows.
func OpenSQL(ctx context.Context, driver, dsn string) (*sql.DB, error) {
	if driver == "mysql" {
		mcfg, err := mysql.ParseDSN(dsn)
		if err != nil {
			return nil, fmt.Errorf("invalid mysql dsn: %w", err)
		}
		mcfg.ParseTime = true
		mcfg.ClientFoundRows = true
		mcfg.Loc = time.UTC
		dsn = mcfg.FormatDSN()
	}

	sqlDB, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	if driver == "sqlite3" {
		// one writer; avoids SQLITE_BUSY and keeps :memory: databases shared
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetMaxOpenConns(100)
		sqlDB.SetConnMaxLifetime(time.Hour)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := sqlDB.PingContext(pingCtx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("database ping failed: %w", err)
	}

	return sqlDB, nil
}

func Migrate(ctx context.Context, db *sql.DB, driver string) error {
	goose.SetBaseFS(migrations.FS)
	defer goose.SetBaseFS(nil)

	if err := goose.SetDialect(driver); err != nil {
		return fmt.Errorf("goose dialect: %w", err)
	}
	return goose.UpContext(ctx, db, driver)
}

func ConnectMongo(ctx context.Context, uri string) (*mongo.Client, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}

	if err := client.Ping(connectCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping failed: %w", err)
	}

	return client, nil
}
