package models

// HealthResponse represents health check response
type HealthResponse struct {
	Status    string `json:"status" yaml:"status"`
	Timestamp string `json:"timestamp" yaml:"timestamp"`
	Version   string `json:"version" yaml:"version"`
}

// RowPayload is one row of a serialized dataset. Meta is omitted when the
// row carries no provenance.
type RowPayload struct {
	Values map[string]interface{} `json:"values" yaml:"values"`
	Meta   map[string]interface{} `json:"_meta,omitempty" yaml:"_meta,omitempty"`
}

// DatasetPayload is the wire form of a dataset
type DatasetPayload struct {
	Columns []string     `json:"columns" yaml:"columns"`
	Rows    []RowPayload `json:"rows" yaml:"rows"`
}

// ReportPayload summarizes one preprocessing run
type ReportPayload struct {
	InputRowCount         int      `json:"input_row_count" yaml:"input_row_count"`
	OutputRowCount        int      `json:"output_row_count" yaml:"output_row_count"`
	OutliersRemoved       int      `json:"outliers_removed" yaml:"outliers_removed"`
	MissingValuesReplaced int      `json:"missing_values_replaced" yaml:"missing_values_replaced"`
	NormalizedFields      []string `json:"normalized_fields" yaml:"normalized_fields"`
}

// OperationResultPayload is the wire form of one operation result.
// Result is a scalar float, a sequence of floats, or null.
type OperationResultPayload struct {
	Expr         string      `json:"expr" yaml:"expr"`
	Status       string      `json:"status" yaml:"status"`
	Result       interface{} `json:"result" yaml:"result"`
	ErrorMessage string      `json:"error_message,omitempty" yaml:"error_message,omitempty"`
	ExecutedAt   string      `json:"executed_at" yaml:"executed_at"`
}

// AnalysisResponse is the success envelope of the preprocess endpoint.
// OperationResults is present iff the request carried operations.
type AnalysisResponse struct {
	CleanedDataset   DatasetPayload           `json:"cleaned_dataset" yaml:"cleaned_dataset"`
	OutliersDataset  DatasetPayload           `json:"outliers_dataset" yaml:"outliers_dataset"`
	Report           ReportPayload            `json:"report" yaml:"report"`
	OperationResults []OperationResultPayload `json:"operation_results,omitempty" yaml:"operation_results,omitempty"`
}

// ErrorResponse is the error envelope shared by every failure path
type ErrorResponse struct {
	Error     string `json:"error" yaml:"error"`
	Details   string `json:"details" yaml:"details"`
	Timestamp string `json:"timestamp" yaml:"timestamp"`
}
