package nn

import "github.com/nicolamaritan/cgrad/internal/tensor"

// Sequential chains layers, feeding each one's output to the next.
type Sequential struct {
	Layers []Layer
}

// NewSequential builds a Sequential from the given layers, in order.
func NewSequential(layers ...Layer) *Sequential {
	return &Sequential{Layers: layers}
}

func (s *Sequential) Forward(x *tensor.Tensor) (*tensor.Tensor, error) {
	var err error
	for _, layer := range s.Layers {
		x, err = layer.Forward(x)
		if err != nil {
			return nil, err
		}
	}
	return x, nil
}

// Parameters collects every layer's trainable parameters, in layer
// order.
func (s *Sequential) Parameters() []*tensor.Tensor {
	var params []*tensor.Tensor
	for _, layer := range s.Layers {
		params = append(params, layer.Parameters()...)
	}
	return params
}
