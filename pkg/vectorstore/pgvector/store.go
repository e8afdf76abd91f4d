package pgvector

import (
	"context"
	"time"

	"chartnotes-be/pkg/vectorstore"

	pgv "github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SessionChunk is the persisted form of a vectorstore.Record.
type SessionChunk struct {
	VectorID     string     `gorm:"primaryKey;size:128"`
	Namespace    string     `gorm:"size:256;not null;index:idx_session_chunks_namespace"`
	SessionDate  string     `gorm:"size:32;not null"`
	ChunkSummary string     `gorm:"type:text"`
	ChunkText    string     `gorm:"type:text"`
	Embedding    pgv.Vector `gorm:"type:vector(1536)"` // text-embedding-3-small dimensions
	CreatedAt    time.Time  `gorm:"autoCreateTime"`
	UpdatedAt    time.Time  `gorm:"autoUpdateTime"`
}

func (SessionChunk) TableName() string {
	return "session_chunks"
}

// Store keeps session chunk vectors in Postgres via pgvector.
type Store struct {
	db *gorm.DB
}

var _ vectorstore.Store = &Store{}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func toModel(r vectorstore.Record) *SessionChunk {
	return &SessionChunk{
		VectorID:     r.VectorID,
		Namespace:    r.Namespace,
		SessionDate:  r.SessionDate,
		ChunkSummary: r.ChunkSummary,
		ChunkText:    r.ChunkText,
		Embedding:    pgv.NewVector(r.Embedding),
	}
}

func toRecord(m *SessionChunk) vectorstore.Record {
	return vectorstore.Record{
		VectorID:     m.VectorID,
		Namespace:    m.Namespace,
		SessionDate:  m.SessionDate,
		ChunkSummary: m.ChunkSummary,
		ChunkText:    m.ChunkText,
		Embedding:    m.Embedding.Slice(),
	}
}

func (s *Store) UpsertBatch(ctx context.Context, records []vectorstore.Record) error {
	if len(records) == 0 {
		return nil
	}
	models := make([]*SessionChunk, len(records))
	for i, r := range records {
		models[i] = toModel(r)
	}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "vector_id"}},
			UpdateAll: true,
		}).
		Create(models).Error
}

func (s *Store) Query(ctx context.Context, namespace string, vector []float32, topK int) ([]vectorstore.Match, error) {
	if topK <= 0 {
		return nil, nil
	}

	// Cosine distance in pgvector is 1 - cosine_similarity, so the
	// similarity score is 1 - (embedding <=> query).
	type result struct {
		SessionChunk
		Similarity float64
	}
	var results []result

	queryVector := pgv.NewVector(vector)

	err := s.db.WithContext(ctx).
		Table("session_chunks").
		Select("session_chunks.*, 1 - (embedding <=> ?) as similarity", queryVector).
		Where("namespace = ?", namespace).
		Order("similarity DESC").
		Limit(topK).
		Scan(&results).Error
	if err != nil {
		return nil, err
	}

	matches := make([]vectorstore.Match, len(results))
	for i, res := range results {
		matches[i] = vectorstore.Match{
			Record: toRecord(&res.SessionChunk),
			Score:  res.Similarity,
		}
	}
	return matches, nil
}

func (s *Store) ListIDs(ctx context.Context, namespace, prefix string) ([]string, error) {
	var ids []string
	query := s.db.WithContext(ctx).
		Model(&SessionChunk{}).
		Where("namespace = ?", namespace)
	if prefix != "" {
		query = query.Where("vector_id LIKE ?", prefix+"%")
	}
	if err := query.Order("vector_id").Pluck("vector_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func (s *Store) Fetch(ctx context.Context, namespace string, ids []string) ([]vectorstore.Record, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var models []*SessionChunk
	err := s.db.WithContext(ctx).
		Where("namespace = ?", namespace).
		Where("vector_id IN ?", ids).
		Order("vector_id").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	records := make([]vectorstore.Record, len(models))
	for i, m := range models {
		records[i] = toRecord(m)
	}
	return records, nil
}

func (s *Store) DeleteIDs(ctx context.Context, namespace string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).
		Where("namespace = ?", namespace).
		Where("vector_id IN ?", ids).
		Delete(&SessionChunk{}).Error
}

func (s *Store) DeleteNamespace(ctx context.Context, namespace string) error {
	return s.db.WithContext(ctx).
		Where("namespace = ?", namespace).
		Delete(&SessionChunk{}).Error
}

func (s *Store) NamespaceExists(ctx context.Context, namespace string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&SessionChunk{}).
		Where("namespace = ?", namespace).
		Limit(1).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
