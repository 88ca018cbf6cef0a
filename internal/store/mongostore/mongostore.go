// Package mongostore stores tables in MongoDB, one document per table.
package mongostore

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/roach88/rollcall/internal/store"
)

// Collection holds the table documents.
const Collection = "tables"

type tableDoc struct {
	Name     string     `bson:"_id"`
	Header   []string   `bson:"header"`
	Rows     [][]string `bson:"rows"`
	Revision string     `bson:"revision"`
}

// Store is a TableStore backed by a MongoDB collection.
type Store struct {
	client *mongo.Client
	c      *mongo.Collection
}

var _ store.TableStore = (*Store)(nil)

// New wraps an existing database handle. The caller owns the client.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection(Collection)}
}

// Connect dials uri and returns a store on the named database.
// Close disconnects the client.
func Connect(ctx context.Context, uri, database string) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	s := New(client.Database(database))
	s.client = client
	return s, nil
}

// Close disconnects the client if this store created it.
func (s *Store) Close(ctx context.Context) error {
	if s.client == nil {
		return nil
	}
	return s.client.Disconnect(ctx)
}

// Read returns the named table. A missing document reads as an empty table.
func (s *Store) Read(ctx context.Context, name string) (store.Table, error) {
	var doc tableDoc
	err := s.c.FindOne(ctx, bson.M{"_id": name}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return store.Table{Name: name, Header: []string{}, Rows: [][]string{}, Revision: store.EmptyRevision}, nil
	}
	if err != nil {
		return store.Table{}, fmt.Errorf("read %s: %w", name, err)
	}

	if doc.Header == nil {
		doc.Header = []string{}
	}
	if doc.Rows == nil {
		doc.Rows = [][]string{}
	}
	return store.Table{Name: name, Header: doc.Header, Rows: doc.Rows, Revision: doc.Revision}, nil
}

// Write replaces the table document if its revision equals expect.
//
// The filter on revision makes the replace a single-document compare-and-swap.
// A table that has never been written is created with InsertOne; a duplicate
// key there means another writer created it first.
func (s *Store) Write(ctx context.Context, name string, header []string, rows [][]string, expect string) (string, error) {
	if header == nil {
		header = []string{}
	}
	if rows == nil {
		rows = [][]string{}
	}
	revision := store.Fingerprint(header, rows)
	doc := tableDoc{Name: name, Header: header, Rows: rows, Revision: revision}

	res, err := s.c.ReplaceOne(ctx, bson.M{"_id": name, "revision": expect}, doc)
	if err != nil {
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	if res.MatchedCount == 1 {
		return revision, nil
	}

	if expect != store.EmptyRevision {
		return "", fmt.Errorf("write %s: %w", name, store.ErrRevisionMismatch)
	}

	if _, err := s.c.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return "", fmt.Errorf("write %s: %w", name, store.ErrRevisionMismatch)
		}
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	return revision, nil
}
