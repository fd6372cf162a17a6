package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"finrisk/internal"
)

// InputTypeFromPath guesses the input type from a file extension.
func InputTypeFromPath(path string) (internal.InputSource, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return internal.SourceXLSX, nil
	case ".html", ".htm":
		return internal.SourceHTMLTable, nil
	case ".eml":
		return internal.SourceEmail, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedInput, path)
	}
}

func ReadInput(inputType internal.InputSource, blob []byte, sheet string) (internal.Dataset, error) {
	switch inputType {
	case internal.SourceXLSX:
		return ReadXLSX(blob, sheet)
	case internal.SourceHTMLTable:
		return ReadHTMLTable(string(blob))
	case internal.SourceEmail:
		return ReadEmail(blob, sheet)
	default:
		return internal.Dataset{}, fmt.Errorf("%w: %s", ErrUnsupportedInput, inputType)
	}
}

func ReadFile(path string, sheet string) (internal.Dataset, error) {
	inputType, err := InputTypeFromPath(path)
	if err != nil {
		return internal.Dataset{}, err
	}
	blob, err := os.ReadFile(path)
	if err != nil {
		return internal.Dataset{}, err
	}
	ds, err := ReadInput(inputType, blob, sheet)
	if err != nil {
		return internal.Dataset{}, err
	}
	if ds.Name == "" {
		ds.Name = baseName(path)
	}
	return ds, nil
}
