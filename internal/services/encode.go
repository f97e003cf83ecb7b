package services

import (
	"github.com/varlor/calculations/internal/dataset"
	"github.com/varlor/calculations/internal/indicator"
	"github.com/varlor/calculations/internal/models"
	"github.com/varlor/calculations/internal/preprocess"
)

// buildResponse renders the preprocessing result and operation results
// into the wire payload shared by the JSON and YAML encoders.
func buildResponse(result *preprocess.Result, operationResults []indicator.Result) *models.AnalysisResponse {
	response := &models.AnalysisResponse{
		CleanedDataset:  datasetPayload(result.Cleaned),
		OutliersDataset: datasetPayload(result.Outliers),
		Report:          reportPayload(result.Report),
	}
	if len(operationResults) > 0 {
		response.OperationResults = resultPayloads(operationResults)
	}
	return response
}

func datasetPayload(ds *dataset.Dataset) models.DatasetPayload {
	columns := ds.Columns()
	if columns == nil {
		columns = []string{}
	}

	rows := make([]models.RowPayload, 0, ds.Len())
	for _, point := range ds.Points() {
		values := make(map[string]interface{}, len(columns))
		for _, column := range columns {
			if field, ok := point.Get(column); ok {
				values[column] = field.Interface()
			}
		}

		row := models.RowPayload{Values: values}
		if point.HasMeta() {
			row.Meta = point.Meta().ToMap()
		}
		rows = append(rows, row)
	}

	return models.DatasetPayload{Columns: columns, Rows: rows}
}

func reportPayload(report preprocess.Report) models.ReportPayload {
	normalized := report.NormalizedFields
	if normalized == nil {
		normalized = []string{}
	}
	return models.ReportPayload{
		InputRowCount:         report.InputRowCount,
		OutputRowCount:        report.OutputRowCount,
		OutliersRemoved:       report.OutliersRemoved,
		MissingValuesReplaced: report.MissingValuesReplaced,
		NormalizedFields:      normalized,
	}
}

func resultPayloads(results []indicator.Result) []models.OperationResultPayload {
	payloads := make([]models.OperationResultPayload, 0, len(results))
	for _, result := range results {
		payload := models.OperationResultPayload{
			Expr:         result.Expr,
			Status:       string(result.Status),
			ErrorMessage: result.ErrorMessage,
			ExecutedAt:   result.ExecutedAt,
		}
		switch {
		case result.Scalar != nil:
			payload.Result = *result.Scalar
		case result.Sequence != nil:
			payload.Result = result.Sequence
		}
		payloads = append(payloads, payload)
	}
	return payloads
}
