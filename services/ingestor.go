package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/yunseo/custombotAI/models"
)

// MaxUploadBytes is the upload size ceiling (10 MB).
const MaxUploadBytes = 10 * 1024 * 1024

// IngestState tracks where an upload is in the pipeline.
type IngestState string

const (
	StateReceived   IngestState = "received"
	StateExtracting IngestState = "extracting"
	StateChunking   IngestState = "chunking"
	StateEmbedding  IngestState = "embedding"
	StatePersisting IngestState = "persisting"
	StateCompleted  IngestState = "completed"
	StateFailed     IngestState = "failed"
)

// IngestResult reports a completed ingestion run.
type IngestResult struct {
	DocumentID string
	ChunkCount int
}

// Ingestor drives one upload through extract -> chunk -> embed ->
// persist. Runs for different documents are independent; each owns its
// own document and chunk rows and shares no mutable state.
type Ingestor struct {
	store     DocumentStore
	extractor *Extractor
	chunker   *Chunker
	embedder  EmbeddingProvider
}

func NewIngestor(store DocumentStore, extractor *Extractor, chunker *Chunker, embedder EmbeddingProvider) *Ingestor {
	return &Ingestor{
		store:     store,
		extractor: extractor,
		chunker:   chunker,
		embedder:  embedder,
	}
}

// Ingest validates the file, records it, and runs the pipeline. The
// document record is written before the heavy steps so the upload is
// auditable; if anything after that fails (including cancellation), the
// record and any chunks written so far are removed again. Validation
// failures happen before any write.
func (ing *Ingestor) Ingest(ctx context.Context, botID string, file UploadedFile) (*IngestResult, error) {
	start := time.Now()
	state := StateReceived
	log.Printf("Ingestion %s: file=%s size=%d bot=%s", state, file.Name, len(file.Data), botID)

	if int64(len(file.Data)) > MaxUploadBytes {
		return nil, models.NewError(models.CodeFileTooLarge,
			fmt.Sprintf("file size too large, maximum is %d bytes", MaxUploadBytes), nil)
	}
	if !ing.extractor.IsSupported(file.Name, file.DeclaredType) {
		return nil, models.NewError(models.CodeUnsupportedFormat,
			"unsupported file type, upload PDF, DOCX, TXT, or MD files", nil)
	}

	doc := &models.Document{
		ID:        primitive.NewObjectID(),
		BotID:     botID,
		Filename:  file.Name,
		FileType:  file.DeclaredType,
		FileSize:  int64(len(file.Data)),
		Processed: false,
		CreatedAt: time.Now(),
	}
	if err := ing.store.InsertDocument(ctx, doc); err != nil {
		return nil, models.NewError(models.CodePersistenceFailed, "failed to save file record", err)
	}

	state = StateExtracting
	log.Printf("Ingestion %s: document=%s", state, doc.ID.Hex())
	text, err := ing.extractor.ExtractText(file)
	if err != nil {
		return nil, ing.fail(ctx, doc, state, err)
	}

	state = StateChunking
	chunks := ing.chunker.ChunkText(text)
	if len(chunks) == 0 {
		return nil, ing.fail(ctx, doc, state,
			models.NewError(models.CodeEmptyContent, "no valid text chunks created from file", nil))
	}
	log.Printf("Ingestion %s: document=%s chunks=%d", state, doc.ID.Hex(), len(chunks))

	state = StateEmbedding
	embeddings, err := ing.embedder.EmbedBatch(ctx, chunks)
	if err != nil {
		return nil, ing.fail(ctx, doc, state, err)
	}

	if err := ctx.Err(); err != nil {
		return nil, ing.fail(ctx, doc, state,
			models.NewError(models.CodePersistenceFailed, "ingestion canceled", err))
	}

	state = StatePersisting
	now := time.Now()
	records := make([]models.Chunk, len(chunks))
	for i, content := range chunks {
		records[i] = models.Chunk{
			ID:         primitive.NewObjectID(),
			BotID:      botID,
			DocumentID: doc.ID,
			Content:    content,
			Embedding:  embeddings[i],
			Metadata: models.ChunkMetadata{
				Filename:    file.Name,
				FileType:    file.DeclaredType,
				ChunkIndex:  i,
				TotalChunks: len(chunks),
			},
			CreatedAt: now,
		}
	}
	if err := ing.store.InsertChunks(ctx, records); err != nil {
		return nil, ing.fail(ctx, doc, state,
			models.NewError(models.CodePersistenceFailed, "failed to save knowledge chunks", err))
	}
	if err := ing.store.MarkDocumentProcessed(ctx, doc.ID); err != nil {
		return nil, ing.fail(ctx, doc, state,
			models.NewError(models.CodePersistenceFailed, "failed to finalize file record", err))
	}

	state = StateCompleted
	log.Printf("Ingestion %s: document=%s chunks=%d in %v", state, doc.ID.Hex(), len(chunks), time.Since(start))
	return &IngestResult{
		DocumentID: doc.ID.Hex(),
		ChunkCount: len(chunks),
	}, nil
}

// fail removes the half-written document and chunks before surfacing the
// original error. Cleanup runs even when the caller's context is already
// canceled; a cleanup failure is logged, never returned over cause.
func (ing *Ingestor) fail(ctx context.Context, doc *models.Document, state IngestState, cause error) error {
	log.Printf("Ingestion %s -> %s: document=%s: %v", state, StateFailed, doc.ID.Hex(), cause)

	cleanupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()

	if err := ing.store.DeleteChunksByDocumentID(cleanupCtx, doc.ID); err != nil {
		log.Printf("Cleanup failed for chunks of document %s: %v", doc.ID.Hex(), err)
	}
	if err := ing.store.DeleteDocument(cleanupCtx, doc.ID); err != nil {
		log.Printf("Cleanup failed for document %s: %v", doc.ID.Hex(), err)
	}
	return cause
}
