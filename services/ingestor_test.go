package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/yunseo/custombotAI/models"
)

// fakeStore records every persistence call so tests can assert on the
// pipeline's write and cleanup behavior.
type fakeStore struct {
	insertedDocs   []*models.Document
	insertedChunks []models.Chunk
	processedIDs   []primitive.ObjectID
	deletedDocs    []primitive.ObjectID
	deletedChunks  []primitive.ObjectID

	insertDocErr    error
	insertChunksErr error
	markErr         error
}

func (f *fakeStore) InsertDocument(_ context.Context, doc *models.Document) error {
	if f.insertDocErr != nil {
		return f.insertDocErr
	}
	f.insertedDocs = append(f.insertedDocs, doc)
	return nil
}

func (f *fakeStore) MarkDocumentProcessed(_ context.Context, id primitive.ObjectID) error {
	if f.markErr != nil {
		return f.markErr
	}
	f.processedIDs = append(f.processedIDs, id)
	return nil
}

func (f *fakeStore) DeleteDocument(_ context.Context, id primitive.ObjectID) error {
	f.deletedDocs = append(f.deletedDocs, id)
	return nil
}

func (f *fakeStore) InsertChunks(_ context.Context, chunks []models.Chunk) error {
	if f.insertChunksErr != nil {
		return f.insertChunksErr
	}
	f.insertedChunks = append(f.insertedChunks, chunks...)
	return nil
}

func (f *fakeStore) DeleteChunksByDocumentID(_ context.Context, documentID primitive.ObjectID) error {
	f.deletedChunks = append(f.deletedChunks, documentID)
	return nil
}

// fakeEmbedder returns a constant-dimension vector per input, or a
// configured error.
type fakeEmbedder struct {
	err   error
	calls int
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := f.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (f *fakeEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	vectors := make([][]float32, len(texts))
	for i := range texts {
		vectors[i] = []float32{0.1, 0.2, 0.3}
	}
	return vectors, nil
}

func newTestIngestor(store *fakeStore, embedder *fakeEmbedder) *Ingestor {
	return NewIngestor(store, NewExtractor(), NewChunker(1000, 200), embedder)
}

func ingestableText() []byte {
	return []byte(strings.Repeat("this sentence is long enough to clear the minimum chunk length. ", 5))
}

func TestIngest_Success(t *testing.T) {
	store := &fakeStore{}
	ingestor := newTestIngestor(store, &fakeEmbedder{})

	result, err := ingestor.Ingest(context.Background(), "bot-1", UploadedFile{
		Name:         "notes.txt",
		DeclaredType: "text/plain",
		Data:         ingestableText(),
	})

	require.NoError(t, err)
	require.Len(t, store.insertedDocs, 1)

	doc := store.insertedDocs[0]
	assert.Equal(t, "bot-1", doc.BotID)
	assert.Equal(t, "notes.txt", doc.Filename)
	assert.False(t, doc.Processed, "document is recorded before processing completes")
	assert.Equal(t, doc.ID.Hex(), result.DocumentID)

	require.NotEmpty(t, store.insertedChunks)
	assert.Equal(t, result.ChunkCount, len(store.insertedChunks))
	for i, chunk := range store.insertedChunks {
		assert.Equal(t, "bot-1", chunk.BotID)
		assert.Equal(t, doc.ID, chunk.DocumentID)
		assert.Equal(t, []float32{0.1, 0.2, 0.3}, chunk.Embedding)
		assert.Equal(t, "notes.txt", chunk.Metadata.Filename)
		assert.Equal(t, i, chunk.Metadata.ChunkIndex)
		assert.Equal(t, len(store.insertedChunks), chunk.Metadata.TotalChunks)
	}

	require.Len(t, store.processedIDs, 1)
	assert.Equal(t, doc.ID, store.processedIDs[0])
	assert.Empty(t, store.deletedDocs)
	assert.Empty(t, store.deletedChunks)
}

func TestIngest_FileTooLarge_NoWrites(t *testing.T) {
	store := &fakeStore{}
	ingestor := newTestIngestor(store, &fakeEmbedder{})

	_, err := ingestor.Ingest(context.Background(), "bot-1", UploadedFile{
		Name:         "huge.txt",
		DeclaredType: "text/plain",
		Data:         make([]byte, MaxUploadBytes+1),
	})

	require.Error(t, err)
	assert.True(t, models.IsCode(err, models.CodeFileTooLarge))
	assert.Empty(t, store.insertedDocs, "validation failures must not touch the store")
	assert.Empty(t, store.deletedDocs)
}

func TestIngest_UnsupportedFormat_NoWrites(t *testing.T) {
	store := &fakeStore{}
	ingestor := newTestIngestor(store, &fakeEmbedder{})

	_, err := ingestor.Ingest(context.Background(), "bot-1", UploadedFile{
		Name:         "image.png",
		DeclaredType: "image/png",
		Data:         []byte{0x89, 0x50},
	})

	require.Error(t, err)
	assert.True(t, models.IsCode(err, models.CodeUnsupportedFormat))
	assert.Empty(t, store.insertedDocs)
}

func TestIngest_EmbedFailure_CleansUp(t *testing.T) {
	store := &fakeStore{}
	embedErr := models.NewError(models.CodeEmbeddingRequestFailed, "provider down", errors.New("boom"))
	ingestor := newTestIngestor(store, &fakeEmbedder{err: embedErr})

	_, err := ingestor.Ingest(context.Background(), "bot-1", UploadedFile{
		Name:         "notes.txt",
		DeclaredType: "text/plain",
		Data:         ingestableText(),
	})

	require.Error(t, err)
	assert.True(t, models.IsCode(err, models.CodeEmbeddingRequestFailed))

	require.Len(t, store.insertedDocs, 1)
	docID := store.insertedDocs[0].ID
	assert.Equal(t, []primitive.ObjectID{docID}, store.deletedChunks)
	assert.Equal(t, []primitive.ObjectID{docID}, store.deletedDocs)
	assert.Empty(t, store.processedIDs)
}

func TestIngest_ShortContent_CleansUp(t *testing.T) {
	store := &fakeStore{}
	embedder := &fakeEmbedder{}
	ingestor := newTestIngestor(store, embedder)

	_, err := ingestor.Ingest(context.Background(), "bot-1", UploadedFile{
		Name:         "tiny.txt",
		DeclaredType: "text/plain",
		Data:         []byte("Too short. Really."),
	})

	require.Error(t, err)
	assert.True(t, models.IsCode(err, models.CodeEmptyContent))
	assert.Zero(t, embedder.calls, "nothing gets embedded when chunking yields nothing")

	require.Len(t, store.insertedDocs, 1)
	assert.Len(t, store.deletedDocs, 1)
	assert.Len(t, store.deletedChunks, 1)
}

func TestIngest_ChunkInsertFailure_CleansUp(t *testing.T) {
	store := &fakeStore{insertChunksErr: errors.New("write concern violated")}
	ingestor := newTestIngestor(store, &fakeEmbedder{})

	_, err := ingestor.Ingest(context.Background(), "bot-1", UploadedFile{
		Name:         "notes.txt",
		DeclaredType: "text/plain",
		Data:         ingestableText(),
	})

	require.Error(t, err)
	assert.True(t, models.IsCode(err, models.CodePersistenceFailed))
	assert.Len(t, store.deletedDocs, 1)
	assert.Len(t, store.deletedChunks, 1)
	assert.Empty(t, store.processedIDs)
}

func TestIngest_InsertDocumentFailure(t *testing.T) {
	store := &fakeStore{insertDocErr: errors.New("connection refused")}
	ingestor := newTestIngestor(store, &fakeEmbedder{})

	_, err := ingestor.Ingest(context.Background(), "bot-1", UploadedFile{
		Name:         "notes.txt",
		DeclaredType: "text/plain",
		Data:         ingestableText(),
	})

	require.Error(t, err)
	assert.True(t, models.IsCode(err, models.CodePersistenceFailed))
	assert.Empty(t, store.deletedDocs, "nothing to clean up when the first write fails")
}

func TestIngest_CanceledContext_CleansUp(t *testing.T) {
	store := &fakeStore{}
	ingestor := newTestIngestor(store, &fakeEmbedder{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := ingestor.Ingest(ctx, "bot-1", UploadedFile{
		Name:         "notes.txt",
		DeclaredType: "text/plain",
		Data:         ingestableText(),
	})

	require.Error(t, err)
	assert.True(t, models.IsCode(err, models.CodePersistenceFailed))
	assert.ErrorIs(t, err, context.Canceled)

	// cleanup still ran despite the canceled caller context
	require.Len(t, store.insertedDocs, 1)
	assert.Len(t, store.deletedDocs, 1)
	assert.Len(t, store.deletedChunks, 1)
	assert.Empty(t, store.processedIDs)
}
