// Package store provides the Milvus-backed vector store client. The
// store owns the persisted entries; everything else in the pipeline
// treats it as a remote service with upsert and search.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/milvus-io/milvus/client/v2/column"
	"github.com/milvus-io/milvus/client/v2/entity"
	"github.com/milvus-io/milvus/client/v2/index"
	"github.com/milvus-io/milvus/client/v2/milvusclient"

	"github.com/blackpowerc/ragchat/internal/core"
	"github.com/blackpowerc/ragchat/internal/logger"
)

// Field names for the segment collection.
const (
	FieldID       = "id"
	FieldText     = "text"
	FieldSource   = "source"
	FieldMetadata = "metadata"
	FieldVector   = "vector"
)

const (
	idMaxLength     = "255"
	sourceMaxLength = "1024"
	textMaxLength   = "65535"
)

// Options configures a MilvusStore.
type Options struct {
	Address    string
	Username   string
	Password   string
	Database   string
	Collection string
	Dimension  int
	// Recreate drops an existing collection before creating a fresh one.
	Recreate bool
}

// MilvusStore implements core.VectorStore on top of a Milvus collection.
type MilvusStore struct {
	client     *milvusclient.Client
	collection string
	dimension  int
	recreate   bool
}

// NewMilvusStore connects to Milvus and prepares the configured
// collection. With Recreate set, an existing collection is dropped
// first; otherwise an existing collection must carry the declared
// vector dimension or initialization fails.
func NewMilvusStore(ctx context.Context, opts Options) (*MilvusStore, error) {
	if opts.Address == "" {
		return nil, fmt.Errorf("%w: milvus address is required", core.ErrInvalidConfig)
	}
	if opts.Collection == "" {
		return nil, fmt.Errorf("%w: milvus collection is required", core.ErrInvalidConfig)
	}
	if opts.Dimension <= 0 {
		return nil, fmt.Errorf("%w: vector dimension must be positive", core.ErrInvalidConfig)
	}

	logger.StoreInfo("Connecting to Milvus at %s (collection %s, dimension %d)", opts.Address, opts.Collection, opts.Dimension)
	client, err := milvusclient.New(ctx, &milvusclient.ClientConfig{
		Address:  opts.Address,
		Username: opts.Username,
		Password: opts.Password,
		DBName:   opts.Database,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Milvus: %w", err)
	}

	s := &MilvusStore{
		client:     client,
		collection: opts.Collection,
		dimension:  opts.Dimension,
		recreate:   opts.Recreate,
	}
	if err := s.init(ctx); err != nil {
		client.Close(ctx)
		return nil, err
	}
	return s, nil
}

// init ensures the collection exists with the declared dimension and is
// loaded into memory for searching.
func (s *MilvusStore) init(ctx context.Context) error {
	exists, err := s.client.HasCollection(ctx, milvusclient.NewHasCollectionOption(s.collection))
	if err != nil {
		return fmt.Errorf("failed to check if collection exists: %w", err)
	}

	if exists && s.recreate {
		logger.StoreInfo("Dropping collection %s for a clean start", s.collection)
		if err := s.client.DropCollection(ctx, milvusclient.NewDropCollectionOption(s.collection)); err != nil {
			return fmt.Errorf("failed to drop collection %s: %w", s.collection, err)
		}
		exists = false
	}

	if exists {
		// Never truncate vectors silently; a mismatched existing
		// collection is fatal.
		stored, err := s.storedDimension(ctx)
		if err != nil {
			return err
		}
		if stored != s.dimension {
			return fmt.Errorf("%w: collection %s stores %d-dimensional vectors, configured dimension is %d",
				core.ErrInvalidConfig, s.collection, stored, s.dimension)
		}
	} else {
		if err := s.createCollection(ctx); err != nil {
			return err
		}
	}

	if _, err := s.client.LoadCollection(ctx, milvusclient.NewLoadCollectionOption(s.collection)); err != nil {
		return fmt.Errorf("failed to load collection %s into memory: %w", s.collection, err)
	}
	return nil
}

func (s *MilvusStore) createCollection(ctx context.Context) error {
	schema := &entity.Schema{
		CollectionName: s.collection,
		Description:    "Document segment vectors",
		Fields: []*entity.Field{
			{
				Name:       FieldID,
				DataType:   entity.FieldTypeVarChar,
				PrimaryKey: true,
				AutoID:     false,
				TypeParams: map[string]string{"max_length": idMaxLength},
			},
			{
				Name:       FieldText,
				DataType:   entity.FieldTypeVarChar,
				TypeParams: map[string]string{"max_length": textMaxLength},
			},
			{
				Name:       FieldSource,
				DataType:   entity.FieldTypeVarChar,
				TypeParams: map[string]string{"max_length": sourceMaxLength},
			},
			{
				Name:     FieldMetadata,
				DataType: entity.FieldTypeJSON,
			},
			{
				Name:       FieldVector,
				DataType:   entity.FieldTypeFloatVector,
				TypeParams: map[string]string{"dim": strconv.Itoa(s.dimension)},
			},
		},
	}

	if err := s.client.CreateCollection(ctx, milvusclient.NewCreateCollectionOption(s.collection, schema)); err != nil {
		return fmt.Errorf("failed to create collection %s: %w", s.collection, err)
	}

	idx := index.NewHNSWIndex(entity.COSINE, 16, 200)
	if _, err := s.client.CreateIndex(ctx, milvusclient.NewCreateIndexOption(s.collection, FieldVector, idx)); err != nil {
		return fmt.Errorf("failed to create index on vector field: %w", err)
	}

	logger.StoreInfo("Created collection %s with HNSW/COSINE index", s.collection)
	return nil
}

// storedDimension reads the vector dimension of the existing collection.
func (s *MilvusStore) storedDimension(ctx context.Context) (int, error) {
	coll, err := s.client.DescribeCollection(ctx, milvusclient.NewDescribeCollectionOption(s.collection))
	if err != nil {
		return 0, fmt.Errorf("failed to describe collection %s: %w", s.collection, err)
	}
	for _, field := range coll.Schema.Fields {
		if field.Name != FieldVector {
			continue
		}
		dim, err := strconv.Atoi(field.TypeParams["dim"])
		if err != nil {
			return 0, fmt.Errorf("failed to parse dimension of collection %s: %w", s.collection, err)
		}
		return dim, nil
	}
	return 0, fmt.Errorf("collection %s has no %s field", s.collection, FieldVector)
}

// Upsert stores one vector per segment and returns the assigned ids.
// Entries are always inserted under fresh ids; re-ingesting the same
// document duplicates its segments, deduplication is the caller's
// responsibility.
func (s *MilvusStore) Upsert(ctx context.Context, vectors [][]float32, segments []core.Segment) ([]string, error) {
	if len(segments) == 0 {
		return nil, fmt.Errorf("%w: no segments to store", core.ErrEmptyInput)
	}
	if len(vectors) != len(segments) {
		return nil, fmt.Errorf("got %d vectors for %d segments", len(vectors), len(segments))
	}

	ids := make([]string, len(segments))
	texts := make([]string, len(segments))
	sources := make([]string, len(segments))
	metadatas := make([][]byte, len(segments))
	for i, seg := range segments {
		if len(vectors[i]) != s.dimension {
			return nil, fmt.Errorf("%w: vector %d has dimension %d, collection expects %d",
				core.ErrInvalidConfig, i, len(vectors[i]), s.dimension)
		}
		ids[i] = uuid.NewString()
		texts[i] = seg.Text
		sources[i] = seg.Source
		meta := seg.Metadata
		if meta == nil {
			meta = map[string]string{}
		}
		metaBytes, err := json.Marshal(meta)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal segment metadata: %w", err)
		}
		metadatas[i] = metaBytes
	}

	insertOpt := milvusclient.NewColumnBasedInsertOption(s.collection,
		column.NewColumnVarChar(FieldID, ids),
		column.NewColumnVarChar(FieldText, texts),
		column.NewColumnVarChar(FieldSource, sources),
		column.NewColumnJSONBytes(FieldMetadata, metadatas),
		column.NewColumnFloatVector(FieldVector, s.dimension, vectors),
	)
	if _, err := s.client.Insert(ctx, insertOpt); err != nil {
		return nil, fmt.Errorf("failed to insert segments: %w", err)
	}

	if _, err := s.client.Flush(ctx, milvusclient.NewFlushOption(s.collection)); err != nil {
		return nil, fmt.Errorf("failed to flush collection %s: %w", s.collection, err)
	}

	logger.StoreDebug("Inserted %d segments into %s", len(segments), s.collection)
	return ids, nil
}

// Search returns up to maxResults entries with similarity >= minScore,
// ordered by descending score. Equal scores come back in store-defined
// order.
func (s *MilvusStore) Search(ctx context.Context, vector []float32, maxResults int, minScore float32) ([]core.Content, error) {
	if maxResults <= 0 {
		maxResults = 5
	}
	if len(vector) != s.dimension {
		return nil, fmt.Errorf("%w: query vector has dimension %d, collection expects %d",
			core.ErrInvalidConfig, len(vector), s.dimension)
	}

	searchOpt := milvusclient.NewSearchOption(s.collection, maxResults, []entity.Vector{entity.FloatVector(vector)}).
		WithANNSField(FieldVector).
		WithOutputFields(FieldID, FieldText, FieldSource, FieldMetadata).
		WithAnnParam(index.NewHNSWAnnParam(100))

	resultSets, err := s.client.Search(ctx, searchOpt)
	if err != nil {
		return nil, fmt.Errorf("failed to execute search: %w", err)
	}
	if len(resultSets) == 0 || resultSets[0].ResultCount == 0 {
		return nil, nil
	}

	rs := resultSets[0]
	var contents []core.Content
	for i := 0; i < rs.ResultCount; i++ {
		score := rs.Scores[i]
		if score < minScore {
			continue
		}

		id, err := rs.IDs.GetAsString(i)
		if err != nil {
			logger.Warn("Skipping search hit %d: unreadable id: %v", i, err)
			continue
		}

		content := core.Content{ID: id, Score: score}
		if col := rs.GetColumn(FieldText); col != nil {
			if text, err := col.GetAsString(i); err == nil {
				content.Text = text
			}
		}
		if col := rs.GetColumn(FieldSource); col != nil {
			if source, err := col.GetAsString(i); err == nil {
				content.Source = source
			}
		}
		if col := rs.GetColumn(FieldMetadata); col != nil {
			if raw, err := col.GetAsString(i); err == nil && raw != "" {
				var meta map[string]string
				if err := json.Unmarshal([]byte(raw), &meta); err == nil {
					content.Metadata = meta
				}
			}
		}
		contents = append(contents, content)
	}

	logger.StoreDebug("Search returned %d/%d hits above score %.2f", len(contents), rs.ResultCount, minScore)
	return contents, nil
}

// Close closes the connection to Milvus.
func (s *MilvusStore) Close(ctx context.Context) error {
	return s.client.Close(ctx)
}
