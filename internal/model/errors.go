package model

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	ErrEmptySeries       = errors.New("empty candle series")
	ErrNonIncreasingTime = errors.New("candle timestamps are not strictly increasing")
	ErrMalformedBar      = errors.New("malformed bar")
)

// DataFetchError means the run could not obtain a usable candle series.
// Nothing is sent when it occurs.
type DataFetchError struct {
	Provider string
	Err      error
}

func (e *DataFetchError) Error() string {
	return fmt.Sprintf("data fetch from %s: %v", e.Provider, e.Err)
}

func (e *DataFetchError) Unwrap() error { return e.Err }

// InsufficientDataError means the evaluation target has too little history
// for a required reading. Reading is empty when the series itself is too short.
type InsufficientDataError struct {
	Have    int
	Need    int
	Index   int
	Reading string
}

func (e *InsufficientDataError) Error() string {
	if e.Reading == "" {
		return fmt.Sprintf("insufficient data: have %d candles, need %d", e.Have, e.Need)
	}
	return fmt.Sprintf("insufficient data: %s not ready at index %d (have %d candles, need %d)",
		e.Reading, e.Index, e.Have, e.Need)
}

// DeliveryError wraps a failed notification attempt. It is logged and never retried.
type DeliveryError struct {
	Channel    string
	StatusCode int
	Err        error
}

func (e *DeliveryError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("deliver via %s: status %d: %v", e.Channel, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("deliver via %s: %v", e.Channel, e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }

// IsDataFetch reports whether err is, or wraps, a DataFetchError.
func IsDataFetch(err error) bool {
	var target *DataFetchError
	return errors.As(err, &target)
}

// IsInsufficientData reports whether err is, or wraps, an InsufficientDataError.
func IsInsufficientData(err error) bool {
	var target *InsufficientDataError
	return errors.As(err, &target)
}
