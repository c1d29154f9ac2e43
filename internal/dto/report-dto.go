package dto

type ImportRowError struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

type ImportResultDTO struct {
	TotalRows         int              `json:"total_rows"`
	SuccessfulImports int              `json:"successful_imports"`
	FailedImports     int              `json:"failed_imports"`
	Errors            []ImportRowError `json:"errors"`
}
