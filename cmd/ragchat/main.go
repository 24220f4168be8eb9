package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/blackpowerc/ragchat/internal/config"
	"github.com/blackpowerc/ragchat/internal/core"
	"github.com/blackpowerc/ragchat/internal/embed"
	"github.com/blackpowerc/ragchat/internal/ingest"
	"github.com/blackpowerc/ragchat/internal/llm"
	"github.com/blackpowerc/ragchat/internal/loader"
	"github.com/blackpowerc/ragchat/internal/logger"
	"github.com/blackpowerc/ragchat/internal/memory"
	"github.com/blackpowerc/ragchat/internal/rag"
	"github.com/blackpowerc/ragchat/internal/splitter"
	"github.com/blackpowerc/ragchat/internal/store"
)

func main() {
	debug := flag.Bool("debug", false, "Enable debug logging")
	sources := flag.String("sources", "", "Comma-separated document URLs or paths to ingest")
	flag.Parse()

	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		logger.Init(*debug)
		logger.Info("Warning: No .env file found or error loading it")
	}

	cfg := config.FromEnv()
	if *debug {
		cfg.Debug = true
	}
	logger.Init(cfg.Debug)

	if *sources != "" {
		cfg.Sources = nil
		for _, s := range strings.Split(*sources, ",") {
			if s = strings.TrimSpace(s); s != "" {
				cfg.Sources = append(cfg.Sources, s)
			}
		}
	}

	if err := cfg.Validate(); err != nil {
		logger.Error("Invalid configuration: %v", err)
		os.Exit(1)
	}

	// Cancel the root context on CTRL+C; an in-flight turn stops
	// forwarding to the model backend.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-quit
		logger.Info("Shutting down...")
		cancel()
	}()

	if err := run(ctx, cfg); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("%v", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	logger.Info("Initializing services...")

	embedder, err := embed.NewOllamaEmbedder(embed.Options{
		BaseURL:     cfg.Ollama.BaseURL,
		Model:       cfg.Ollama.EmbeddingModel,
		Timeout:     cfg.Ollama.Timeout,
		MaxRetries:  cfg.Ollama.MaxRetries,
		LogRequests: cfg.Ollama.LogRequests,
	})
	if err != nil {
		return err
	}

	chatModel, err := llm.NewOllamaChat(llm.Options{
		BaseURL:     cfg.Ollama.BaseURL,
		Model:       cfg.Ollama.ChatModel,
		Temperature: cfg.Ollama.Temperature,
		NumCtx:      cfg.Ollama.NumCtx,
		Timeout:     cfg.Ollama.Timeout,
		MaxRetries:  cfg.Ollama.MaxRetries,
		LogRequests: cfg.Ollama.LogRequests,
	})
	if err != nil {
		return err
	}

	vectorStore, err := store.NewMilvusStore(ctx, store.Options{
		Address:    cfg.Milvus.Address,
		Username:   cfg.Milvus.Username,
		Password:   cfg.Milvus.Password,
		Database:   cfg.Milvus.Database,
		Collection: cfg.Milvus.Collection,
		Dimension:  cfg.Milvus.Dimension,
		Recreate:   cfg.Milvus.Recreate,
	})
	if err != nil {
		return err
	}
	defer vectorStore.Close(context.Background())

	if len(cfg.Sources) > 0 {
		if err := ingestSources(ctx, cfg, embedder, vectorStore); err != nil {
			return err
		}
	} else {
		logger.Info("No document sources configured, answering from existing store content")
	}

	window, err := memory.NewWindow(cfg.RAG.MemoryWindow)
	if err != nil {
		return err
	}
	compressor, err := rag.NewCompressor(chatModel)
	if err != nil {
		return err
	}
	retriever, err := rag.NewRetriever(embedder, vectorStore, cfg.RAG.MaxResults, cfg.RAG.MinScore)
	if err != nil {
		return err
	}
	injector, err := rag.NewInjector(cfg.RAG.PromptTemplate)
	if err != nil {
		return err
	}
	augmentor, err := rag.NewAugmentor(compressor, retriever, injector, chatModel, window, 0)
	if err != nil {
		return err
	}

	return repl(ctx, augmentor)
}

func ingestSources(ctx context.Context, cfg *config.Config, embedder core.Embedder, vectorStore core.VectorStore) error {
	var opts []loader.Option
	if cfg.Parser == "html" {
		opts = append(opts, loader.WithParser(loader.HTMLParser{}))
	}

	split, err := splitter.NewRecursive(cfg.RAG.MaxSegmentSize, cfg.RAG.SegmentOverlap)
	if err != nil {
		return err
	}
	ingestor, err := ingest.New(loader.New(opts...), split, embedder, vectorStore)
	if err != nil {
		return err
	}
	return ingestor.IngestSources(ctx, cfg.Sources)
}

// repl reads questions from stdin until "stop" or end of input. A
// failed turn reports the error and keeps the session alive.
func repl(ctx context.Context, augmentor *rag.Augmentor) error {
	fmt.Println("Press CTRL + C or type 'stop' to exit.")
	fmt.Println()

	scanner := bufio.NewScanner(os.Stdin)
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		fmt.Print("[user input]: ")
		if !scanner.Scan() {
			return scanner.Err()
		}

		input := strings.TrimSpace(scanner.Text())
		if strings.EqualFold(input, "stop") {
			return nil
		}
		if input == "" {
			continue
		}

		answer, err := augmentor.Answer(ctx, input)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			logger.Error("Turn failed: %v", err)
			fmt.Println("[bot answer]: Sorry, I could not answer that. Please try again.")
			continue
		}
		fmt.Println("[bot answer]: " + answer)
	}
}
