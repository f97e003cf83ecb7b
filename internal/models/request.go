package models

// DataDescriptor describes the origin and declared format of the inbound
// dataset. ContentType, when present and different from the actual body
// media type, is rejected unless Autodetect is set.
type DataDescriptor struct {
	Origin      string `json:"origin" yaml:"origin"`
	ContentType string `json:"content_type,omitempty" yaml:"content_type,omitempty"`
	Autodetect  bool   `json:"autodetect,omitempty" yaml:"autodetect,omitempty"`
}

// AnalysisOptions carries the preprocessing tunables of one request.
type AnalysisOptions struct {
	// DropOutliersPercent is interpreted as the IQR multiplier k.
	DropOutliersPercent *float64 `json:"drop_outliers_percent,omitempty" yaml:"drop_outliers_percent,omitempty"`
}

// OperationDefinition is one analytic operation of the request.
type OperationDefinition struct {
	Expr   string            `json:"expr" yaml:"expr"`
	Alias  string            `json:"alias,omitempty" yaml:"alias,omitempty"`
	Params map[string]string `json:"params,omitempty" yaml:"params,omitempty"`
}
