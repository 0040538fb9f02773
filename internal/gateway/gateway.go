// Package gateway is the single dispatch boundary for all orchestration
// operations. It validates arguments against per-operation schemas before any
// component runs and wraps every outcome in a uniform envelope.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/articleforge/articleforge/internal/assemble"
	"github.com/articleforge/articleforge/internal/images"
	"github.com/articleforge/articleforge/internal/research"
	"github.com/articleforge/articleforge/pkg/models"
)

// The finite set of gateway operations. Anything else is unknown.
const (
	OpStartJob         = "start_job"
	OpCheckStatus      = "check_status"
	OpGetResult        = "get_result"
	OpGenerateVariants = "generate_variants"
	OpGenerateBatch    = "generate_batch"
	OpAssemble         = "assemble"
)

// Error category codes carried in the error envelope.
const (
	CodeValidation       = "VALIDATION_ERROR"
	CodeNotFound         = "NOT_FOUND"
	CodeNotReady         = "NOT_READY"
	CodeUpstream         = "UPSTREAM_ERROR"
	CodeUnknownOperation = "UNKNOWN_OPERATION"
	CodeInternal         = "INTERNAL_ERROR"
)

// Request is one tool call: an operation name plus raw JSON arguments.
type Request struct {
	Operation string          `json:"operation"`
	Arguments json.RawMessage `json:"arguments"`
}

// Error is a categorized dispatch failure.
type Error struct {
	Code    string
	Message string
	Details any
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// ResearchService is the job orchestration surface the gateway dispatches to.
type ResearchService interface {
	Start(ctx context.Context, spec models.ResearchSpec, outputPath string) (*research.StartReceipt, error)
	Status(id string) (models.Job, error)
	Result(id string) (models.Job, error)
}

// ArticleGenerator is the parallel fan-out surface.
type ArticleGenerator interface {
	GenerateVariants(ctx context.Context, research string, spec models.ResearchSpec) (map[string]string, error)
}

// ImageGenerator is the partial-failure batch surface.
type ImageGenerator interface {
	GenerateBatch(ctx context.Context, prompts []models.ImagePrompt, outputDir string) (*images.Report, error)
}

// Dispatcher routes validated operations to their components. It is the only
// path by which any component is reachable.
type Dispatcher struct {
	research  ResearchService
	articles  ArticleGenerator
	images    ImageGenerator
	outputDir string
	schemas   *schemaSet
}

// NewDispatcher wires the components behind the gateway. outputDir is the
// fallback destination for image batches that omit output_dir.
func NewDispatcher(researchSvc ResearchService, articles ArticleGenerator, imageGen ImageGenerator, outputDir string) *Dispatcher {
	return &Dispatcher{
		research:  researchSvc,
		articles:  articles,
		images:    imageGen,
		outputDir: outputDir,
		schemas:   compileSchemas(),
	}
}

// Dispatch validates and executes one operation. A nil *Error means success
// and the returned value is the operation's data payload.
func (d *Dispatcher) Dispatch(ctx context.Context, req Request) (any, *Error) {
	slog.Info("tool call", "operation", req.Operation)

	schema, known := d.schemas.forOperation(req.Operation)
	if !known {
		slog.Warn("unknown operation", "operation", req.Operation)
		return nil, &Error{
			Code:    CodeUnknownOperation,
			Message: fmt.Sprintf("unknown operation %q", req.Operation),
		}
	}

	args := req.Arguments
	if len(args) == 0 {
		args = json.RawMessage("{}")
	}
	if err := validate(schema, args); err != nil {
		return nil, &Error{
			Code:    CodeValidation,
			Message: "invalid arguments for " + req.Operation,
			Details: err.Error(),
		}
	}

	switch req.Operation {
	case OpStartJob:
		return d.startJob(ctx, args)
	case OpCheckStatus:
		return d.checkStatus(args)
	case OpGetResult:
		return d.getResult(args)
	case OpGenerateVariants:
		return d.generateVariants(ctx, args)
	case OpGenerateBatch:
		return d.generateBatch(ctx, args)
	case OpAssemble:
		return d.assemble(args)
	default:
		// Unreachable: the schema lookup already rejected unknown names.
		return nil, &Error{Code: CodeUnknownOperation, Message: req.Operation}
	}
}

type startJobArgs struct {
	Spec       models.ResearchSpec `json:"spec"`
	OutputPath string              `json:"output_path"`
}

func (d *Dispatcher) startJob(ctx context.Context, raw json.RawMessage) (any, *Error) {
	var args startJobArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, decodeError(err)
	}
	args.Spec.ApplyDefaults()

	receipt, err := d.research.Start(ctx, args.Spec, args.OutputPath)
	if err != nil {
		return nil, mapServiceError(err)
	}
	return receipt, nil
}

type jobIDArgs struct {
	JobID string `json:"job_id"`
}

type statusResponse struct {
	JobID    string `json:"job_id"`
	Status   string `json:"status"`
	Progress int    `json:"progress"`
	Message  string `json:"message"`
	Error    string `json:"error,omitempty"`
}

func (d *Dispatcher) checkStatus(raw json.RawMessage) (any, *Error) {
	var args jobIDArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, decodeError(err)
	}

	job, err := d.research.Status(args.JobID)
	if err != nil {
		return nil, mapServiceError(err)
	}
	return statusResponse{
		JobID:    job.ID,
		Status:   job.Status,
		Progress: job.Progress,
		Message:  job.Message,
		Error:    job.Error,
	}, nil
}

func (d *Dispatcher) getResult(raw json.RawMessage) (any, *Error) {
	var args jobIDArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, decodeError(err)
	}

	job, err := d.research.Result(args.JobID)
	if err != nil {
		return nil, mapServiceError(err)
	}
	if job.SavedTo != "" {
		return map[string]any{"saved_to": job.SavedTo}, nil
	}
	return map[string]any{"result": job.Result}, nil
}

type generateVariantsArgs struct {
	Research string              `json:"research"`
	Spec     models.ResearchSpec `json:"spec"`
}

func (d *Dispatcher) generateVariants(ctx context.Context, raw json.RawMessage) (any, *Error) {
	var args generateVariantsArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, decodeError(err)
	}
	args.Spec.ApplyDefaults()

	variants, err := d.articles.GenerateVariants(ctx, args.Research, args.Spec)
	if err != nil {
		return nil, mapServiceError(err)
	}
	return map[string]any{"variant_results": variants}, nil
}

type generateBatchArgs struct {
	Prompts   []models.ImagePrompt `json:"prompts"`
	OutputDir string               `json:"output_dir"`
}

func (d *Dispatcher) generateBatch(ctx context.Context, raw json.RawMessage) (any, *Error) {
	var args generateBatchArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, decodeError(err)
	}
	dir := args.OutputDir
	if dir == "" {
		dir = d.outputDir
	}
	if dir == "" {
		return nil, &Error{Code: CodeValidation, Message: "output_dir is required when no default output directory is configured"}
	}

	report, err := d.images.GenerateBatch(ctx, args.Prompts, dir)
	if err != nil {
		return nil, mapServiceError(err)
	}
	return report, nil
}

type assembleArgs struct {
	Draft  string   `json:"draft"`
	Images []string `json:"images"`
	Format string   `json:"format"`
}

func (d *Dispatcher) assemble(raw json.RawMessage) (any, *Error) {
	var args assembleArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, decodeError(err)
	}

	res, err := assemble.Assemble(args.Draft, args.Images, args.Format)
	if err != nil {
		return nil, &Error{Code: CodeValidation, Message: err.Error()}
	}
	return map[string]any{
		"assembled_document": res.Markdown,
		"metadata":           res.Metadata,
	}, nil
}

func decodeError(err error) *Error {
	return &Error{Code: CodeValidation, Message: "malformed arguments", Details: err.Error()}
}

// mapServiceError translates component sentinels into envelope categories.
func mapServiceError(err error) *Error {
	switch {
	case errors.Is(err, research.ErrNotFound):
		return &Error{Code: CodeNotFound, Message: "job not found"}
	case errors.Is(err, research.ErrNotReady):
		return &Error{Code: CodeNotReady, Message: "job not complete"}
	case errors.Is(err, research.ErrJobFailed),
		errors.Is(err, models.ErrProviderUnavailable),
		errors.Is(err, models.ErrInferenceTimeout),
		errors.Is(err, models.ErrInvalidResponse):
		return &Error{Code: CodeUpstream, Message: err.Error()}
	default:
		return &Error{Code: CodeInternal, Message: err.Error()}
	}
}
