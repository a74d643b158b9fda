package delivery

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/matzehuels/clubreport/pkg/cache"
	"github.com/matzehuels/clubreport/pkg/errors"
)

// ArchiveConfig selects the MongoDB collection receiving reports.
type ArchiveConfig struct {
	URI        string `toml:"uri"`
	Database   string `toml:"database"`
	Collection string `toml:"collection"`
}

// Record is the stored form of an artifact. The artifact name is the primary
// key, so delivering the same report twice replaces the first copy.
type Record struct {
	Name      string    `bson:"_id"`
	Date      string    `bson:"date"`
	Format    string    `bson:"format"`
	Size      int       `bson:"size"`
	SHA256    string    `bson:"sha256"`
	Data      []byte    `bson:"data"`
	RunID     string    `bson:"run_id,omitempty"`
	UpdatedAt time.Time `bson:"updated_at"`
}

// NewRecord builds the stored form of a.
func NewRecord(a Artifact, now time.Time) Record {
	return Record{
		Name:      a.Name,
		Date:      a.Date,
		Format:    a.Format,
		Size:      len(a.Data),
		SHA256:    cache.Hash(a.Data),
		Data:      a.Data,
		RunID:     a.RunID,
		UpdatedAt: now.UTC(),
	}
}

// replacer is the subset of *mongo.Collection used by Archive.
type replacer interface {
	ReplaceOne(ctx context.Context, filter any, replacement any, opts ...*options.ReplaceOptions) (*mongo.UpdateResult, error)
}

// Archive upserts artifacts into a MongoDB collection.
type Archive struct {
	coll   replacer
	name   string
	client *mongo.Client
	now    func() time.Time
}

// OpenArchive connects to cfg.URI. Close releases the connection.
func OpenArchive(ctx context.Context, cfg ArchiveConfig) (*Archive, error) {
	if cfg.URI == "" {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "archive: uri is required")
	}
	if cfg.Database == "" {
		cfg.Database = "clubreport"
	}
	if cfg.Collection == "" {
		cfg.Collection = "reports"
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "archive: connect")
	}
	coll := client.Database(cfg.Database).Collection(cfg.Collection)
	return &Archive{coll: coll, name: cfg.Database + "." + cfg.Collection, client: client, now: time.Now}, nil
}

// Name implements [Deliverer].
func (a *Archive) Name() string { return "mongo:" + a.name }

// Deliver implements [Deliverer].
func (a *Archive) Deliver(ctx context.Context, art Artifact) error {
	rec := NewRecord(art, a.now())
	_, err := a.coll.ReplaceOne(ctx, bson.M{"_id": rec.Name}, rec, options.Replace().SetUpsert(true))
	if err != nil {
		return errors.Wrap(errors.ErrCodeDeliveryFailed, err, "archive %s", art.Name)
	}
	return nil
}

// Close disconnects from MongoDB.
func (a *Archive) Close(ctx context.Context) error {
	if a.client == nil {
		return nil
	}
	return a.client.Disconnect(ctx)
}
