package controllers

import (
	"errors"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/yunseo/custombotAI/config"
	"github.com/yunseo/custombotAI/models"
	"github.com/yunseo/custombotAI/services"
	"github.com/yunseo/custombotAI/storage"
)

// RAGController wires the ingestion and retrieval pipeline behind the
// HTTP API.
type RAGController struct {
	config    *config.Config
	store     *storage.MongoStore
	ingestor  *services.Ingestor
	retriever *services.Retriever
	generator *services.Generator
}

func NewRAGController(cfg *config.Config, store *storage.MongoStore) *RAGController {
	extractor := services.NewExtractor()
	chunker := services.NewChunker(cfg.ChunkSize, cfg.ChunkOverlap)
	embedder := services.NewEmbedder(cfg.EmbeddingBaseURL, cfg.EmbeddingAPIKey, cfg.EmbeddingModel)
	generator := services.NewGenerator(cfg.OllamaURL, cfg.OllamaLLMModel)

	return &RAGController{
		config:    cfg,
		store:     store,
		ingestor:  services.NewIngestor(store, extractor, chunker, embedder),
		retriever: services.NewRetriever(store, embedder),
		generator: generator,
	}
}

// CreateBot registers a new bot scope with optional instructions.
func (rc *RAGController) CreateBot(c *gin.Context) {
	var req models.CreateBotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Code: "invalid_request", Message: "name is required"})
		return
	}

	now := time.Now()
	bot := &models.Bot{
		ID:           primitive.NewObjectID(),
		Name:         req.Name,
		Description:  req.Description,
		Instructions: req.Instructions,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := rc.store.InsertBot(c.Request.Context(), bot); err != nil {
		log.Printf("Failed to create bot: %v", err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Code: "persistence_failed", Message: "failed to create bot"})
		return
	}

	c.JSON(http.StatusCreated, bot)
}

func (rc *RAGController) ListBots(c *gin.Context) {
	bots, err := rc.store.ListBots(c.Request.Context())
	if err != nil {
		log.Printf("Failed to list bots: %v", err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Code: "persistence_failed", Message: "failed to list bots"})
		return
	}
	if bots == nil {
		bots = []models.Bot{}
	}
	c.JSON(http.StatusOK, bots)
}

// UploadDocument accepts a multipart file for one bot and runs the full
// ingestion pipeline on it.
func (rc *RAGController) UploadDocument(c *gin.Context) {
	start := time.Now()

	bot, ok := rc.requireBot(c)
	if !ok {
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Code: "invalid_request", Message: "no file provided"})
		return
	}

	src, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Code: "invalid_request", Message: "failed to open uploaded file"})
		return
	}
	defer src.Close()

	data, err := io.ReadAll(io.LimitReader(src, services.MaxUploadBytes+1))
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Code: "invalid_request", Message: "failed to read uploaded file"})
		return
	}

	result, err := rc.ingestor.Ingest(c.Request.Context(), bot.ID.Hex(), services.UploadedFile{
		Name:         fileHeader.Filename,
		DeclaredType: fileHeader.Header.Get("Content-Type"),
		Data:         data,
	})
	if err != nil {
		respondPipelineError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.UploadResponse{
		FileID:           result.DocumentID,
		Filename:         fileHeader.Filename,
		ChunksProcessed:  result.ChunkCount,
		ProcessingTimeMs: time.Since(start).Milliseconds(),
		Message:          "file processed successfully",
	})
}

func (rc *RAGController) ListDocuments(c *gin.Context) {
	bot, ok := rc.requireBot(c)
	if !ok {
		return
	}

	docs, err := rc.store.ListDocumentsByBotID(c.Request.Context(), bot.ID.Hex())
	if err != nil {
		log.Printf("Failed to list documents: %v", err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Code: "persistence_failed", Message: "failed to list documents"})
		return
	}
	if docs == nil {
		docs = []models.Document{}
	}
	c.JSON(http.StatusOK, docs)
}

// SearchKnowledge embeds the query and returns the bot's most similar
// chunks. An empty result list is a valid response, not an error.
func (rc *RAGController) SearchKnowledge(c *gin.Context) {
	bot, ok := rc.requireBot(c)
	if !ok {
		return
	}

	var req models.SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Code: "invalid_request", Message: "query is required"})
		return
	}

	results, err := rc.retriever.Retrieve(c.Request.Context(), bot.ID.Hex(), req.Query, req.Threshold, req.TopK)
	if err != nil {
		respondPipelineError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.SearchResponse{
		Results: results,
		Bot: models.BotInfo{
			Name:         bot.Name,
			Instructions: bot.Instructions,
		},
	})
}

// QueryBot answers a question grounded in the bot's knowledge base. When
// nothing relevant is stored, the answer is generated without reference
// context rather than failing.
func (rc *RAGController) QueryBot(c *gin.Context) {
	start := time.Now()

	bot, ok := rc.requireBot(c)
	if !ok {
		return
	}

	var req models.QueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Code: "invalid_request", Message: "question is required"})
		return
	}

	results, err := rc.retriever.Retrieve(c.Request.Context(), bot.ID.Hex(), req.Question, req.Threshold, req.TopK)
	if err != nil {
		respondPipelineError(c, err)
		return
	}
	log.Printf("Query for bot %s retrieved %d chunks", bot.ID.Hex(), len(results))

	prompt := services.BuildAugmentedPrompt(bot.Instructions, results, req.Question)
	answer, err := rc.generator.GenerateResponse(c.Request.Context(), prompt)
	if err != nil {
		log.Printf("Generation failed: %v", err)
		c.JSON(http.StatusBadGateway, models.ErrorResponse{Code: "generation_failed", Message: "failed to generate response"})
		return
	}

	c.JSON(http.StatusOK, models.QueryResponse{
		Answer:           answer,
		Sources:          results,
		Grounded:         len(results) > 0,
		ProcessingTimeMs: time.Since(start).Milliseconds(),
	})
}

// requireBot resolves the :id path parameter to an active bot, writing
// the error response itself when that fails.
func (rc *RAGController) requireBot(c *gin.Context) (*models.Bot, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Code: "invalid_request", Message: "invalid bot id"})
		return nil, false
	}

	bot, err := rc.store.GetBot(c.Request.Context(), id)
	if err != nil {
		log.Printf("Failed to load bot %s: %v", id.Hex(), err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Code: "persistence_failed", Message: "failed to load bot"})
		return nil, false
	}
	if bot == nil {
		c.JSON(http.StatusNotFound, models.ErrorResponse{Code: "bot_not_found", Message: "custom bot not found"})
		return nil, false
	}
	return bot, true
}

// respondPipelineError maps the stable error codes onto HTTP statuses.
// Only the code and the safe message cross the boundary; causes go to
// the log.
func respondPipelineError(c *gin.Context, err error) {
	var pe *models.PipelineError
	if !errors.As(err, &pe) {
		log.Printf("Unexpected error: %v", err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Code: "internal_error", Message: "internal server error"})
		return
	}

	log.Printf("Pipeline error: %v", pe)

	status := http.StatusInternalServerError
	switch pe.Code {
	case models.CodeUnsupportedFormat:
		status = http.StatusBadRequest
	case models.CodeFileTooLarge:
		status = http.StatusRequestEntityTooLarge
	case models.CodeEmptyContent, models.CodeExtractionFailed:
		status = http.StatusUnprocessableEntity
	case models.CodeEmbeddingUnavailable, models.CodeEmbeddingRequestFailed, models.CodeRetrievalUnavailable:
		status = http.StatusBadGateway
	case models.CodePersistenceFailed:
		status = http.StatusInternalServerError
	}

	c.JSON(status, models.ErrorResponse{Code: string(pe.Code), Message: pe.Message})
}
