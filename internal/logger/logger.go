package logger

import (
	"fmt"
	"log"
	"os"
)

var (
	// Debug flag to control debug logging
	debugEnabled = false
	// The logger instances
	debugLogger *log.Logger
	infoLogger  *log.Logger
	warnLogger  *log.Logger
	errorLogger *log.Logger
)

// Init initializes the logger
func Init(debug bool) {
	debugEnabled = debug

	debugLogger = log.New(os.Stdout, "DEBUG: ", log.Ldate|log.Ltime|log.Lshortfile)
	infoLogger = log.New(os.Stdout, "INFO: ", log.Ldate|log.Ltime)
	warnLogger = log.New(os.Stdout, "WARN: ", log.Ldate|log.Ltime)
	errorLogger = log.New(os.Stderr, "ERROR: ", log.Ldate|log.Ltime|log.Lshortfile)

	if debugEnabled {
		Debug("Debug logging enabled")
	}
}

// Debug logs a debug message if debug mode is enabled
func Debug(format string, v ...interface{}) {
	if debugEnabled && debugLogger != nil {
		debugLogger.Output(2, fmt.Sprintf(format, v...))
	}
}

// Info logs an info message
func Info(format string, v ...interface{}) {
	if infoLogger != nil {
		infoLogger.Output(2, fmt.Sprintf(format, v...))
	}
}

// Warn logs a warning message
func Warn(format string, v ...interface{}) {
	if warnLogger != nil {
		warnLogger.Output(2, fmt.Sprintf(format, v...))
	}
}

// Error logs an error message
func Error(format string, v ...interface{}) {
	if errorLogger != nil {
		errorLogger.Output(2, fmt.Sprintf(format, v...))
	}
}

// IsDebugEnabled returns whether debug logging is enabled
func IsDebugEnabled() bool {
	return debugEnabled
}

// Component-tagged helpers so provider and pipeline logs stay greppable.

// LLMDebug logs a debug message for the chat model client
func LLMDebug(format string, v ...interface{}) { Debug("[LLM] "+format, v...) }

// LLMInfo logs an info message for the chat model client
func LLMInfo(format string, v ...interface{}) { Info("[LLM] "+format, v...) }

// LLMError logs an error message for the chat model client
func LLMError(format string, v ...interface{}) { Error("[LLM] "+format, v...) }

// EmbedDebug logs a debug message for the embedding client
func EmbedDebug(format string, v ...interface{}) { Debug("[Embed] "+format, v...) }

// EmbedInfo logs an info message for the embedding client
func EmbedInfo(format string, v ...interface{}) { Info("[Embed] "+format, v...) }

// StoreDebug logs a debug message for the vector store client
func StoreDebug(format string, v ...interface{}) { Debug("[Store] "+format, v...) }

// StoreInfo logs an info message for the vector store client
func StoreInfo(format string, v ...interface{}) { Info("[Store] "+format, v...) }

// RAGDebug logs a debug message for the retrieval pipeline
func RAGDebug(format string, v ...interface{}) { Debug("[RAG] "+format, v...) }

// RAGInfo logs an info message for the retrieval pipeline
func RAGInfo(format string, v ...interface{}) { Info("[RAG] "+format, v...) }
