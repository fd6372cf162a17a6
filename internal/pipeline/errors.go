package pipeline

import "errors"

var (
	ErrNoSheet          = errors.New("sheet not found")
	ErrNoHeader         = errors.New("no header row")
	ErrNoTable          = errors.New("no table found")
	ErrNoAttachment     = errors.New("no spreadsheet attachment")
	ErrUnsupportedInput = errors.New("unsupported input type")
)
