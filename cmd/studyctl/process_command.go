package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"study-backend/internal/contents"
	"study-backend/internal/extract"
	"study-backend/internal/generation"
	"study-backend/internal/llm"
	openai "study-backend/internal/llm/openai"
	"study-backend/internal/materials"
	"study-backend/internal/processor"
	"study-backend/internal/shared/config"
	localstore "study-backend/internal/shared/storage/object/local"
)

const cliUserID = "cli"

type processOptions struct {
	File  string
	Text  string
	Title string
	Kind  string
}

func newProcessCommand(ctx *commandContext) *cobra.Command {
	var opts processOptions

	cmd := &cobra.Command{
		Use:   "process",
		Short: "Generate study content for a local file or text",
		Example: `  studyctl process --file notes.pdf --type quiz
  studyctl process --text "Photosynthesis converts light into chemical energy" --type flashcard`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.config()
			gateway, err := providerGateway(cfg)
			if err != nil {
				return err
			}
			workDir, err := os.MkdirTemp("", "studyctl-*")
			if err != nil {
				return err
			}
			defer os.RemoveAll(workDir)

			resp, err := runProcess(cmd.Context(), gateway, workDir, cfg, opts)
			if err != nil {
				return err
			}
			return writeJSON(cmd, resp)
		},
	}

	cmd.Flags().StringVarP(&opts.File, "file", "f", "", "Path of a pdf, docx, txt, md, csv or image file")
	cmd.Flags().StringVar(&opts.Text, "text", "", "Study text to process instead of a file")
	cmd.Flags().StringVar(&opts.Title, "title", "", "Material title")
	cmd.Flags().StringVarP(&opts.Kind, "type", "t", string(contents.KindSummary), "Content type: summary, flashcard or quiz")

	return cmd
}

func providerGateway(cfg config.Config) (llm.Completer, error) {
	transport, err := openai.NewTransport(openai.Config{
		APIKey:  cfg.OpenAIAPIKey,
		BaseURL: cfg.OpenAIBaseURL,
		Model:   cfg.LLMModel,
		Timeout: cfg.LLMTimeout,
	})
	if err != nil {
		return nil, err
	}
	return llm.NewGateway(transport, llm.RetryPolicy{
		MaxAttempts: cfg.LLMMaxRetries + 1,
		BaseDelay:   cfg.LLMRetryBase,
	}), nil
}

// runProcess stores the input as a material in memory and runs one job against it.
func runProcess(ctx context.Context, gateway llm.Completer, workDir string, cfg config.Config, opts processOptions) (processor.Response, error) {
	kind, ok := contents.ParseKind(opts.Kind)
	if !ok {
		return processor.Response{}, fmt.Errorf("unknown content type %q", opts.Kind)
	}
	hasFile := strings.TrimSpace(opts.File) != ""
	hasText := strings.TrimSpace(opts.Text) != ""
	if hasFile == hasText {
		return processor.Response{}, errors.New("exactly one of --file or --text is required")
	}

	store := localstore.New(workDir)
	materialRepo := materials.NewMemoryRepo()
	contentRepo := contents.NewMemoryRepo()
	svc := &materials.Service{Repo: materialRepo, Contents: contentRepo, Store: store}

	var (
		m   materials.StudyMaterial
		err error
	)
	if hasFile {
		f, openErr := os.Open(opts.File)
		if openErr != nil {
			return processor.Response{}, openErr
		}
		defer f.Close()
		m, err = svc.Upload(ctx, materials.UploadInput{
			UserID:   cliUserID,
			Title:    opts.Title,
			FileName: filepath.Base(opts.File),
			Body:     f,
		})
	} else {
		m, err = svc.CreateText(ctx, materials.TextInput{UserID: cliUserID, Title: opts.Title, Content: opts.Text})
	}
	if err != nil {
		return processor.Response{}, err
	}

	proc := &processor.Service{
		Materials: materialRepo,
		Contents:  contentRepo,
		Extractor: &extract.Extractor{
			Store:    store,
			Gateway:  gateway,
			Bucket:   cfg.MaterialsBucket,
			Cache:    extract.NewMemoryCache(),
			CacheTTL: time.Hour,
		},
		Gateway:          gateway,
		Strategies:       generation.Default(),
		MaxContentLength: cfg.MaxContentLen,
		MarkFailed:       cfg.MarkFailed,
	}
	return proc.ProcessMaterial(ctx, m.ID, kind)
}

// writeJSON encodes v as indented JSON to the command's stdout.
func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
