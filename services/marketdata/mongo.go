package marketdata

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoDB collection names
const (
	MongoDBName          = "marketpulse_feed"
	MongoQuoteCollection = "instrument_quotes"
	MongoWeekCollection  = "week_aggregates"
	mongoConnectTimeout  = 30 * time.Second
	mongoQueryTimeout    = 10 * time.Second
)

// MongoClient handles the market-data feed connection. Quote snapshots and
// weekly aggregates are written by the upstream feed as one document per
// instrument; this service only reads them.
type MongoClient struct {
	client      *mongo.Client
	database    *mongo.Database
	mu          sync.RWMutex
	isConnected bool
	uri         string
	lastError   string
}

// NewMongoClient initializes the market-data client. An empty URI disables
// the feed: quote reads fail and dispatch pipelines fall back to zero
// records, which is the documented transient-fetch behavior.
func NewMongoClient(uri string) *MongoClient {
	m := &MongoClient{uri: uri}
	if uri == "" {
		log.Println("MONGODB_URI not set, market data feed disabled")
		m.lastError = "MONGODB_URI environment variable not set"
		return m
	}
	if err := m.Connect(); err != nil {
		log.Printf("Market data feed connection failed: %v", err)
	}
	return m
}

// Connect establishes the feed connection
func (m *MongoClient) Connect() error {
	if m.uri == "" {
		m.lastError = "MONGODB_URI environment variable not set"
		return fmt.Errorf("%s", m.lastError)
	}

	ctx, cancel := context.WithTimeout(context.Background(), mongoConnectTimeout)
	defer cancel()

	clientOptions := options.Client().
		ApplyURI(m.uri).
		SetServerAPIOptions(options.ServerAPI(options.ServerAPIVersion1)).
		SetMaxPoolSize(10).
		SetMinPoolSize(2).
		SetMaxConnIdleTime(30 * time.Second)

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		m.lastError = err.Error()
		return fmt.Errorf("failed to connect to market data feed: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		m.lastError = err.Error()
		return fmt.Errorf("market data feed ping failed: %w", err)
	}

	m.mu.Lock()
	m.client = client
	m.database = client.Database(MongoDBName)
	m.isConnected = true
	m.lastError = ""
	m.mu.Unlock()

	log.Println("Market data feed connection verified successfully")
	return nil
}

// IsConnected reports whether the feed is reachable
func (m *MongoClient) IsConnected() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.isConnected
}

// Close disconnects from the feed
func (m *MongoClient) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.client == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	m.isConnected = false
	return m.client.Disconnect(ctx)
}

func (m *MongoClient) collection(name string) (*mongo.Collection, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.isConnected || m.database == nil {
		return nil, fmt.Errorf("market data feed not connected: %s", m.lastError)
	}
	return m.database.Collection(name), nil
}

// GetQuote returns the current snapshot for one instrument
func (m *MongoClient) GetQuote(ctx context.Context, instrumentID int) (InstrumentQuote, error) {
	coll, err := m.collection(MongoQuoteCollection)
	if err != nil {
		return InstrumentQuote{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, mongoQueryTimeout)
	defer cancel()

	var quote InstrumentQuote
	err = coll.FindOne(ctx, bson.M{"instrument_id": instrumentID}).Decode(&quote)
	if err != nil {
		return InstrumentQuote{}, fmt.Errorf("quote lookup for instrument %d: %w", instrumentID, err)
	}
	return quote, nil
}

// GetWeekAggregate returns the weekly summary for one instrument
func (m *MongoClient) GetWeekAggregate(ctx context.Context, instrumentID int) (WeekAggregate, error) {
	coll, err := m.collection(MongoWeekCollection)
	if err != nil {
		return WeekAggregate{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, mongoQueryTimeout)
	defer cancel()

	var week WeekAggregate
	err = coll.FindOne(ctx, bson.M{"instrument_id": instrumentID}).Decode(&week)
	if err != nil {
		return WeekAggregate{}, fmt.Errorf("week aggregate lookup for instrument %d: %w", instrumentID, err)
	}
	return week, nil
}
