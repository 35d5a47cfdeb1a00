package mongo

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/alexanderjulianmartinez/dq-watch/internal/source"
)

const connectTimeout = 5 * time.Second

// Fetcher reads every document of one collection, without _id.
type Fetcher struct {
	uri        string
	database   string
	collection string
}

func NewFetcher(uri, database, collection string) *Fetcher {
	return &Fetcher{uri: uri, database: database, collection: collection}
}

func (f *Fetcher) Name() string {
	return "mongodb"
}

func (f *Fetcher) Fetch(ctx context.Context) (*source.Dataset, error) {
	if f.uri == "" {
		return nil, errors.New("mongodb connection string is empty")
	}

	opts := options.Client().ApplyURI(f.uri).SetConnectTimeout(connectTimeout)
	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("mongodb connect: %w", err)
	}
	defer client.Disconnect(context.Background())

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		return nil, fmt.Errorf("mongodb ping failed: %w", err)
	}

	coll := client.Database(f.database).Collection(f.collection)
	cur, err := coll.Find(ctx, bson.D{}, options.Find().SetProjection(bson.D{{Key: "_id", Value: 0}}))
	if err != nil {
		return nil, fmt.Errorf("mongodb find %s.%s: %w", f.database, f.collection, err)
	}
	defer cur.Close(ctx)

	var docs []bson.D
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("mongodb decode: %w", err)
	}
	return datasetFromDocs(docs), nil
}

// datasetFromDocs flattens documents into a table. Columns are the union of
// top-level keys in first-seen order; a key absent from a document is null.
func datasetFromDocs(docs []bson.D) *source.Dataset {
	ds := &source.Dataset{}
	index := map[string]int{}
	for _, doc := range docs {
		for _, e := range doc {
			if _, ok := index[e.Key]; !ok {
				index[e.Key] = len(ds.Columns)
				ds.Columns = append(ds.Columns, e.Key)
			}
		}
	}

	for _, doc := range docs {
		row := make([]any, len(ds.Columns))
		for _, e := range doc {
			row[index[e.Key]] = convertValue(e.Value)
		}
		ds.Rows = append(ds.Rows, row)
	}
	return ds
}

func convertValue(v any) any {
	switch t := v.(type) {
	case int32:
		return int64(t)
	case primitive.Decimal128:
		f, err := strconv.ParseFloat(t.String(), 64)
		if err != nil {
			return t.String()
		}
		return f
	case primitive.DateTime:
		return t.Time().UTC()
	case primitive.ObjectID:
		return t.Hex()
	case primitive.Null, primitive.Undefined:
		return nil
	default:
		return v
	}
}
