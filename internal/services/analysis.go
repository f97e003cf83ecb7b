package services

import (
	"fmt"

	"github.com/varlor/calculations/internal/config"
	"github.com/varlor/calculations/internal/indicator"
	"github.com/varlor/calculations/internal/logging"
	"github.com/varlor/calculations/internal/models"
	"github.com/varlor/calculations/internal/preprocess"
)

// AnalysisService runs one analysis request end to end: decode, validate,
// preprocess, evaluate operations, encode.
type AnalysisService struct {
	logger *logging.Logger
	cfg    config.AnalysisConfig
	engine *indicator.Engine
}

// NewAnalysisService creates an analysis service
func NewAnalysisService(logger *logging.Logger, cfg config.AnalysisConfig) *AnalysisService {
	return &AnalysisService{
		logger: logger,
		cfg:    cfg,
		engine: indicator.New(),
	}
}

// Run processes one request body of the given format and returns the
// response payload. Errors are ServiceErrors carrying their HTTP mapping.
func (s *AnalysisService) Run(body []byte, format BodyFormat) (*models.AnalysisResponse, error) {
	request, err := decodeRequest(body, format)
	if err != nil {
		return nil, err
	}

	if request.declaredMime != "" && !request.descriptor.Autodetect {
		declaredFormat, err := DetectFormat(request.declaredMime)
		if err != nil || declaredFormat != format {
			return nil, NewValidation("`data_descriptor.content_type` does not match the body format")
		}
	}

	if s.cfg.MaxRows > 0 && request.dataset.Len() > s.cfg.MaxRows {
		return nil, NewValidation(fmt.Sprintf("dataset exceeds the row ceiling of %d", s.cfg.MaxRows))
	}
	if s.cfg.MaxExpressionLength > 0 {
		for _, operation := range request.operations {
			if len(operation.Expr) > s.cfg.MaxExpressionLength {
				return nil, NewValidation(fmt.Sprintf("expression exceeds the length ceiling of %d characters", s.cfg.MaxExpressionLength))
			}
		}
	}

	multiplier := s.cfg.DefaultOutlierMultiplier
	if request.options.DropOutliersPercent != nil {
		multiplier = *request.options.DropOutliersPercent
	}
	preprocessor, err := preprocess.New(multiplier)
	if err != nil {
		return nil, NewInternal(err.Error())
	}

	result := preprocessor.Process(request.dataset)

	var operationResults []indicator.Result
	if len(request.operations) > 0 {
		operations := make([]indicator.Operation, len(request.operations))
		for i, definition := range request.operations {
			operations[i] = indicator.Operation{
				Expr:   definition.Expr,
				Alias:  definition.Alias,
				Params: definition.Params,
			}
		}
		operationResults = s.engine.Execute(result.Cleaned, operations)
	}

	s.logger.Debug("Analysis request processed",
		"origin", request.descriptor.Origin,
		"input_rows", result.Report.InputRowCount,
		"outliers_removed", result.Report.OutliersRemoved,
		"missing_values_replaced", result.Report.MissingValuesReplaced,
		"operations", len(request.operations))

	return buildResponse(result, operationResults), nil
}
