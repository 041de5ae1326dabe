package locator

import (
	"errors"
	"fmt"
)

// ErrGeneration - генератор не выдал ни одного кандидата для элемента.
// Абсолютный XPath строится всегда, поэтому это ошибка в коде, а не в документе.
var ErrGeneration = errors.New("generator produced no candidates")

// StageError - фатальная ошибка стадии конвейера с контекстом для диагностики.
type StageError struct {
	Stage string
	Input string
	Err   error
}

func (e *StageError) Error() string {
	if e.Input != "" {
		return fmt.Sprintf("stage %s (%s): %v", e.Stage, e.Input, e.Err)
	}
	return fmt.Sprintf("stage %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }
