package commands

import (
	"github.com/urfave/cli/v3"

	"github.com/patelhet04/EssayBot-API/internal/config"
	"github.com/patelhet04/EssayBot-API/internal/embedding"
	"github.com/patelhet04/EssayBot-API/internal/indexstore"
	"github.com/patelhet04/EssayBot-API/internal/llmservice"
	"github.com/patelhet04/EssayBot-API/internal/logging"
	"github.com/patelhet04/EssayBot-API/internal/tenant"
)

// AppContext carries the configuration and tenant layout shared by the
// professor-scoped commands.
type AppContext struct {
	Config *config.Config
	Dirs   tenant.Dirs
}

// NewAppContext loads configuration, resolves the professor's workspace
// directories and mirrors diagnostics into the tenant log file.
func NewAppContext(cmd *cli.Command) (*AppContext, error) {
	cfg, err := config.Load(cmd.String("config"), cmd.String("env"))
	if err != nil {
		return nil, err
	}

	professor := cmd.String("professor")
	projectRoot := cmd.String("project-root")
	dirs, err := tenant.NewDirs(projectRoot, professor)
	if err != nil {
		return nil, err
	}
	if err := logging.AddTenantFile(projectRoot, professor); err != nil {
		return nil, err
	}

	return &AppContext{Config: cfg, Dirs: dirs}, nil
}

// Embedder builds the embedding client from configuration.
func (ac *AppContext) Embedder() (embedding.Embedder, error) {
	return embedding.NewOllama(ac.Config.EmbedLLM.BaseURL, ac.Config.EmbedLLM.Model)
}

// OpenIndex loads the professor's saved knowledge index and wraps it in
// a retriever tuned from configuration. A professor with no usable
// index yet gets an empty store, so retrieval finds nothing and the
// grading prompts fall back to the placeholder context.
func (ac *AppContext) OpenIndex(embedder embedding.Embedder) (*indexstore.Store, *indexstore.Retriever) {
	store := indexstore.LoadOrNew(ac.Dirs.IndexPath(), embedder, ac.Config.RAG.EncryptionKey)
	retriever := indexstore.NewRetriever(store, ac.Config.RAG.TopK, ac.Config.RAG.FetchK, ac.Config.RAG.ScoreThreshold)
	return store, retriever
}

// GenerationClient builds the generation client, optionally overriding
// the configured model.
func (ac *AppContext) GenerationClient(model string) *llmservice.Client {
	return llmservice.New(ac.Config.GradeLLM).WithModel(model)
}
