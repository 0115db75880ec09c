package checklist

import "errors"

var (
	ErrTemplateNotFound = errors.New("checklist template not found")
	ErrInstanceNotFound = errors.New("checklist instance not found")
	ErrItemNotFound     = errors.New("checklist item not found")
	ErrInvalidTarget    = errors.New("assignment target required")
)
