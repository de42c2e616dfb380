// Package mongodb provides a MongoDB-backed inventory store for
// deployments that already run a shared Mongo instance instead of a local
// database file.
package mongodb

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/bkante/entrepot/internal/domain/models"
	"github.com/bkante/entrepot/internal/repository"
)

const (
	inventoryCollection = "inventory"
	countersCollection  = "counters"
)

// Store implements repository.InventoryStore against MongoDB. Pallet-id
// uniqueness is enforced with a unique index so the store stays
// authoritative for duplicate rejection.
type Store struct {
	client *mongo.Client
	dbName string
}

var _ repository.InventoryStore = (*Store)(nil)

type palletDocument struct {
	ID           int64     `bson:"id"`
	PalletID     string    `bson:"pallet_id"`
	ProductName  string    `bson:"product_name"`
	Price        string    `bson:"price"`
	ExpiryDate   time.Time `bson:"expiry_date"`
	LotID        string    `bson:"lot_id"`
	UnitsPerCase int       `bson:"units_per_case"`
	LocationID   string    `bson:"location_id,omitempty"`
	LastUpdate   time.Time `bson:"last_update"`
}

// NewStore connects to MongoDB, verifies the connection and ensures the
// indexes the workflow depends on.
func NewStore(ctx context.Context, uri, dbName string) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect to mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}

	s := &Store{client: client, dbName: dbName}
	if err := s.ensureIndexes(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	coll := s.collection()
	_, err := coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "pallet_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "lot_id", Value: 1}}},
		{Keys: bson.D{{Key: "product_name", Value: 1}}},
		{Keys: bson.D{{Key: "location_id", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("create inventory indexes: %w", err)
	}
	return nil
}

func (s *Store) collection() *mongo.Collection {
	return s.client.Database(s.dbName).Collection(inventoryCollection)
}

// nextID hands out monotonically increasing row ids from a counter
// document, mirroring the autoincrement column of the SQLite store.
func (s *Store) nextID(ctx context.Context) (int64, error) {
	coll := s.client.Database(s.dbName).Collection(countersCollection)

	var counter struct {
		Value int64 `bson:"value"`
	}
	err := coll.FindOneAndUpdate(ctx,
		bson.M{"_id": inventoryCollection},
		bson.M{"$inc": bson.M{"value": 1}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&counter)
	if err != nil {
		return 0, fmt.Errorf("allocate row id: %w", err)
	}
	return counter.Value, nil
}

// FindByPalletID looks a single pallet up by its unique identifier.
func (s *Store) FindByPalletID(ctx context.Context, palletID string) (models.PalletRecord, bool, error) {
	var doc palletDocument
	err := s.collection().FindOne(ctx, bson.M{"pallet_id": palletID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.PalletRecord{}, false, nil
	}
	if err != nil {
		return models.PalletRecord{}, false, fmt.Errorf("find pallet %s: %w", palletID, err)
	}

	rec, err := doc.record()
	if err != nil {
		return models.PalletRecord{}, false, err
	}
	return rec, true, nil
}

// FindByLot returns every pallet of the lot in insertion order.
func (s *Store) FindByLot(ctx context.Context, lotID string) ([]models.PalletRecord, error) {
	cursor, err := s.collection().Find(ctx, bson.M{"lot_id": lotID},
		options.Find().SetSort(bson.D{{Key: "id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("find lot %s: %w", lotID, err)
	}
	return collectRecords(ctx, cursor)
}

// FindByLocation reports the pallet occupying the normalized slot, if any.
func (s *Store) FindByLocation(ctx context.Context, location string) (string, bool, error) {
	var doc palletDocument
	err := s.collection().FindOne(ctx, bson.M{"location_id": location}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("check location %s: %w", location, err)
	}
	return doc.PalletID, true, nil
}

// Insert adds a new pallet document.
func (s *Store) Insert(ctx context.Context, rec models.PalletRecord) (int64, error) {
	id, err := s.nextID(ctx)
	if err != nil {
		return 0, err
	}

	doc := palletDocument{
		ID:           id,
		PalletID:     rec.PalletID,
		ProductName:  rec.ProductName,
		Price:        rec.Price.String(),
		ExpiryDate:   rec.ExpiryDate,
		LotID:        rec.LotID,
		UnitsPerCase: rec.UnitsPerCase,
		LocationID:   rec.LocationID,
		LastUpdate:   rec.LastUpdate,
	}
	if _, err := s.collection().InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return 0, repository.ErrDuplicatePallet
		}
		return 0, fmt.Errorf("insert pallet %s: %w", rec.PalletID, err)
	}
	return id, nil
}

// UpdateLocation moves a pallet to a new normalized slot.
func (s *Store) UpdateLocation(ctx context.Context, palletID, location string, ts time.Time) error {
	res, err := s.collection().UpdateOne(ctx,
		bson.M{"pallet_id": palletID},
		bson.M{"$set": bson.M{"location_id": location, "last_update": ts}})
	if err != nil {
		return fmt.Errorf("update location of pallet %s: %w", palletID, err)
	}
	if res.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// Delete removes a pallet document.
func (s *Store) Delete(ctx context.Context, palletID string) error {
	res, err := s.collection().DeleteOne(ctx, bson.M{"pallet_id": palletID})
	if err != nil {
		return fmt.Errorf("delete pallet %s: %w", palletID, err)
	}
	if res.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// Search performs a substring match against the selected field, case as
// stored.
func (s *Store) Search(ctx context.Context, query string, by models.SearchField) ([]models.PalletRecord, error) {
	var field string
	switch by {
	case models.SearchByLot:
		field = "lot_id"
	case models.SearchByProduct:
		field = "product_name"
	default:
		return nil, fmt.Errorf("unsupported search field %q", by)
	}

	filter := bson.M{field: bson.M{"$regex": regexp.QuoteMeta(query)}}
	cursor, err := s.collection().Find(ctx, filter,
		options.Find().SetSort(bson.D{{Key: "id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("search inventory by %s: %w", field, err)
	}
	return collectRecords(ctx, cursor)
}

// All returns the full inventory in insertion order.
func (s *Store) All(ctx context.Context) ([]models.PalletRecord, error) {
	cursor, err := s.collection().Find(ctx, bson.M{},
		options.Find().SetSort(bson.D{{Key: "id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list inventory: %w", err)
	}
	return collectRecords(ctx, cursor)
}

// Close disconnects from MongoDB.
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (d palletDocument) record() (models.PalletRecord, error) {
	price, err := decimal.NewFromString(d.Price)
	if err != nil {
		return models.PalletRecord{}, fmt.Errorf("decode price %q: %w", d.Price, err)
	}
	return models.PalletRecord{
		ID:           d.ID,
		PalletID:     d.PalletID,
		ProductName:  d.ProductName,
		Price:        price,
		ExpiryDate:   d.ExpiryDate,
		LotID:        d.LotID,
		UnitsPerCase: d.UnitsPerCase,
		LocationID:   d.LocationID,
		LastUpdate:   d.LastUpdate,
	}, nil
}

func collectRecords(ctx context.Context, cursor *mongo.Cursor) ([]models.PalletRecord, error) {
	defer func() { _ = cursor.Close(ctx) }()

	records := make([]models.PalletRecord, 0)
	for cursor.Next(ctx) {
		var doc palletDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode inventory document: %w", err)
		}
		rec, err := doc.record()
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}
	return records, nil
}
