package sink

import (
	"encoding/json"

	"github.com/berthubert/go-simplomon/pkg/model"
)

func marshalScalarMap(m map[string]model.Scalar) (string, error) {
	if len(m) == 0 {
		return "{}", nil
	}
	plain := make(map[string]any, len(m))
	for k, v := range m {
		plain[k] = v.Value()
	}
	b, err := json.Marshal(plain)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
