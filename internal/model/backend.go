package model

import (
	"github.com/born-ml/born/autodiff"
	"github.com/born-ml/born/backend/cpu"
)

// Backend is the compute stack every experiment runs on: the framework's
// CPU backend wrapped with the gradient-tape autodiff decorator. All glue
// code in this repository is written against this single concrete stack;
// the experiments mirror single-device runs.
type Backend = *autodiff.Backend[*cpu.Backend]

// NewBackend builds the shared compute stack.
func NewBackend() Backend {
	return autodiff.New(cpu.New())
}
