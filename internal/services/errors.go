package services

import "errors"

var (
	// ErrDatasetNotFound is returned when the named dataset is not loaded
	ErrDatasetNotFound = errors.New("dataset not found")

	// ErrYearNotFound is returned when a dataset has no races for a year
	ErrYearNotFound = errors.New("year not found")

	// ErrFlipsNotSupported is returned for flip analysis on datasets where
	// consecutive elections do not cover the same seats
	ErrFlipsNotSupported = errors.New("flip analysis not supported for this dataset")

	// ErrNoData is returned when no dataset loaded at all
	ErrNoData = errors.New("no datasets loaded")
)
