package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/AlxM1/aelo/internal/cart"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var ErrCartNotFound = errors.New("cart not found")

const cartTTL = 90 * 24 * time.Hour

func ConnectMongoDB(ctx context.Context, uri, database string) (*mongo.Database, error) {
	clientOpts := options.Client().
		ApplyURI(uri).
		SetConnectTimeout(10 * time.Second).
		SetServerSelectionTimeout(5 * time.Second).
		SetMaxPoolSize(100).
		SetMinPoolSize(10)

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	return client.Database(database), nil
}

type cartDocument struct {
	SessionID string         `bson:"session_id"`
	Lines     []cartLineData `bson:"lines"`
	CreatedAt time.Time      `bson:"created_at"`
	UpdatedAt time.Time      `bson:"updated_at"`
}

// prices are kept as decimal strings so no float rounding creeps in
type cartLineData struct {
	ProductID string `bson:"product_id"`
	Name      string `bson:"name"`
	UnitPrice string `bson:"unit_price"`
	Quantity  int    `bson:"quantity"`
	Image     string `bson:"image,omitempty"`
	Tagline   string `bson:"tagline,omitempty"`
	Icon      string `bson:"icon,omitempty"`
}

// MongoCartRepository keeps one document per cart session.
type MongoCartRepository struct {
	collection *mongo.Collection
}

func NewMongoCartRepository(db *mongo.Database) *MongoCartRepository {
	return &MongoCartRepository{collection: db.Collection("carts")}
}

// GetCart returns the stored lines of a session. Lines that cannot be parsed
// yield an error wrapping cart.ErrCorruptSnapshot.
func (m *MongoCartRepository) GetCart(ctx context.Context, sessionID string) ([]cart.Line, error) {
	var doc cartDocument
	err := m.collection.FindOne(ctx, bson.M{"session_id": sessionID}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrCartNotFound
		}
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}

	lines := make([]cart.Line, 0, len(doc.Lines))
	for _, l := range doc.Lines {
		id, err := uuid.Parse(l.ProductID)
		if err != nil {
			return nil, fmt.Errorf("%w: product id %q", cart.ErrCorruptSnapshot, l.ProductID)
		}
		price, err := decimal.NewFromString(l.UnitPrice)
		if err != nil {
			return nil, fmt.Errorf("%w: price %q", cart.ErrCorruptSnapshot, l.UnitPrice)
		}
		lines = append(lines, cart.Line{
			ProductID: id,
			Name:      l.Name,
			UnitPrice: price,
			Quantity:  l.Quantity,
			Image:     l.Image,
			Tagline:   l.Tagline,
			Icon:      l.Icon,
		})
	}
	return lines, nil
}

// SaveCart replaces the session's lines. Concurrent writers are last-write-wins.
func (m *MongoCartRepository) SaveCart(ctx context.Context, sessionID string, lines []cart.Line) error {
	data := make([]cartLineData, 0, len(lines))
	for _, l := range lines {
		data = append(data, cartLineData{
			ProductID: l.ProductID.String(),
			Name:      l.Name,
			UnitPrice: l.UnitPrice.String(),
			Quantity:  l.Quantity,
			Image:     l.Image,
			Tagline:   l.Tagline,
			Icon:      l.Icon,
		})
	}

	now := time.Now().UTC()
	update := bson.M{
		"$set":         bson.M{"lines": data, "updated_at": now},
		"$setOnInsert": bson.M{"session_id": sessionID, "created_at": now},
	}
	opts := options.Update().SetUpsert(true)

	if _, err := m.collection.UpdateOne(ctx, bson.M{"session_id": sessionID}, update, opts); err != nil {
		return fmt.Errorf("failed to save cart: %w", err)
	}
	return nil
}

func (m *MongoCartRepository) DeleteCart(ctx context.Context, sessionID string) error {
	result, err := m.collection.DeleteOne(ctx, bson.M{"session_id": sessionID})
	if err != nil {
		return fmt.Errorf("failed to delete cart: %w", err)
	}
	if result.DeletedCount == 0 {
		return ErrCartNotFound
	}
	return nil
}

func (m *MongoCartRepository) CreateIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "session_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "updated_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(int32(cartTTL.Seconds())),
		},
	}

	if _, err := m.collection.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}
