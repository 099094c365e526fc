package model

import (
	"fmt"

	"github.com/born-ml/born/nn"
	"github.com/born-ml/born/tensor"
)

// namedParam pairs a stable checkpoint key with a trainable parameter.
// Models enumerate their parameters in a fixed order so checkpoints stay
// readable across runs.
type namedParam struct {
	name  string
	param *nn.Parameter[Backend]
}

// layerParams names a layer's weight (and bias, if present) under prefix.
func layerParams(prefix string, params []*nn.Parameter[Backend]) []namedParam {
	named := []namedParam{{prefix + ".weight", params[0]}}
	if len(params) > 1 {
		named = append(named, namedParam{prefix + ".bias", params[1]})
	}
	return named
}

func stateDictOf(params []namedParam) map[string]*tensor.RawTensor {
	dict := make(map[string]*tensor.RawTensor, len(params))
	for _, np := range params {
		dict[np.name] = np.param.Tensor().Raw()
	}
	return dict
}

func loadStateDictInto(params []namedParam, dict map[string]*tensor.RawTensor) error {
	for _, np := range params {
		raw, ok := dict[np.name]
		if !ok {
			return fmt.Errorf("missing %s in state dict", np.name)
		}
		dst := np.param.Tensor()
		if !raw.Shape().Equal(dst.Shape()) {
			return fmt.Errorf("%s shape mismatch: expected %v, got %v", np.name, dst.Shape(), raw.Shape())
		}
		if raw.DType() != tensor.Float32 {
			return fmt.Errorf("%s dtype mismatch: expected float32, got %v", np.name, raw.DType())
		}
		copy(dst.Data(), raw.AsFloat32())
	}
	return nil
}
