package errors

import (
	"fmt"
	"net/http"
)

// Code represents an error code with HTTP status and message
type Code struct {
	Code    int    // Business error code
	Status  int    // HTTP status code
	Message string // Default message
}

const (
	Success = 0

	// Common errors (1000-1999)
	ErrInternalServer = 1000
	ErrInvalidParams  = 1001
	ErrNotFound       = 1002
	ErrBadRequest     = 1007
	ErrServiceUnavail = 1008

	// Document errors (2000-2999)
	ErrNoFileUploaded      = 2000
	ErrUnsupportedFileType = 2001
	ErrFileTooLarge        = 2002
	ErrDocumentProcessing  = 2003
	ErrNoContentToDownload = 2004
	ErrDocumentEmpty       = 2005

	// Analysis errors (3000-3999)
	ErrInvalidAnalysisRequest = 3000
	ErrAnalysisFailed         = 3001
	ErrProviderFailed         = 3002
	ErrProviderNotConfigured  = 3003
	ErrAnalysisNotFound       = 3004
	ErrInvalidChatRequest     = 3005
	ErrStreamingUnsupported   = 3006
)

var codeMap = map[int]Code{
	Success: {Success, http.StatusOK, "Success"},

	ErrInternalServer: {ErrInternalServer, http.StatusInternalServerError, "Internal server error"},
	ErrInvalidParams:  {ErrInvalidParams, http.StatusBadRequest, "Invalid parameters"},
	ErrNotFound:       {ErrNotFound, http.StatusNotFound, "Resource not found"},
	ErrBadRequest:     {ErrBadRequest, http.StatusBadRequest, "Bad request"},
	ErrServiceUnavail: {ErrServiceUnavail, http.StatusServiceUnavailable, "Service unavailable"},

	ErrNoFileUploaded:      {ErrNoFileUploaded, http.StatusBadRequest, "No file uploaded"},
	ErrUnsupportedFileType: {ErrUnsupportedFileType, http.StatusInternalServerError, "Unsupported file format"},
	ErrFileTooLarge:        {ErrFileTooLarge, http.StatusRequestEntityTooLarge, "File size exceeds limit"},
	ErrDocumentProcessing:  {ErrDocumentProcessing, http.StatusInternalServerError, "Failed to process file"},
	ErrNoContentToDownload: {ErrNoContentToDownload, http.StatusBadRequest, "No content to download"},
	ErrDocumentEmpty:       {ErrDocumentEmpty, http.StatusInternalServerError, "Document contains no text"},

	ErrInvalidAnalysisRequest: {ErrInvalidAnalysisRequest, http.StatusBadRequest, "Invalid request data"},
	ErrAnalysisFailed:         {ErrAnalysisFailed, http.StatusInternalServerError, "Analysis failed"},
	ErrProviderFailed:         {ErrProviderFailed, http.StatusBadGateway, "Provider request failed"},
	ErrProviderNotConfigured:  {ErrProviderNotConfigured, http.StatusServiceUnavailable, "Provider not configured"},
	ErrAnalysisNotFound:       {ErrAnalysisNotFound, http.StatusNotFound, "Analysis not found"},
	ErrInvalidChatRequest:     {ErrInvalidChatRequest, http.StatusBadRequest, "Invalid chat request"},
	ErrStreamingUnsupported:   {ErrStreamingUnsupported, http.StatusInternalServerError, "Streaming not supported"},
}

// GetCode returns the Code for a given error code
func GetCode(code int) Code {
	if c, ok := codeMap[code]; ok {
		return c
	}
	return codeMap[ErrInternalServer]
}

// GetHTTPStatus returns HTTP status for a given error code
func GetHTTPStatus(code int) int {
	return GetCode(code).Status
}

// GetMessage returns the default message for a given error code
func GetMessage(code int) string {
	return GetCode(code).Message
}

// IsClientError checks if the code maps to a 4xx status
func IsClientError(code int) bool {
	status := GetHTTPStatus(code)
	return status >= 400 && status < 500
}

// FormatError formats the default message with optional details
func FormatError(code int, details ...string) string {
	msg := GetMessage(code)
	if len(details) > 0 && details[0] != "" {
		return fmt.Sprintf("%s: %s", msg, details[0])
	}
	return msg
}
