package trace

import (
	"fmt"
	"strings"
)

// Layer identifies one of the six architectural tiers an event is
// attributed to. The tier semantics are opaque to the tracer; only the
// canonical rank (L1 < L2 < ... < L6) is meaningful here.
type Layer int

const (
	L1 Layer = iota + 1
	L2
	L3
	L4
	L5
	L6
)

// layerInfo carries the short code and descriptive name for a layer.
type layerInfo struct {
	code string
	name string
}

var layers = map[Layer]layerInfo{
	L1: {"api", "API"},
	L2: {"app", "Application"},
	L3: {"domain", "Domain"},
	L4: {"service", "Service"},
	L5: {"data", "Data Access"},
	L6: {"infra", "Infrastructure"},
}

// AllLayers returns the six layers in canonical rank order.
func AllLayers() []Layer {
	return []Layer{L1, L2, L3, L4, L5, L6}
}

// Tag returns the canonical tag ("L1".."L6").
func (l Layer) Tag() string {
	if !l.IsValid() {
		return "L?"
	}
	return fmt.Sprintf("L%d", int(l))
}

// Code returns the short code ("api", "app", ...).
func (l Layer) Code() string {
	return layers[l].code
}

// Name returns the descriptive name.
func (l Layer) Name() string {
	return layers[l].name
}

// Rank returns the canonical rank used for flow-direction checks.
func (l Layer) Rank() int {
	return int(l)
}

// IsValid reports whether l is one of the six defined layers.
func (l Layer) IsValid() bool {
	return l >= L1 && l <= L6
}

func (l Layer) String() string {
	return l.Tag()
}

// ParseLayer resolves a layer from either its tag ("L3") or its short
// code ("domain"), case-insensitively and with surrounding whitespace
// ignored.
func ParseLayer(s string) (Layer, error) {
	normalized := strings.ToLower(strings.TrimSpace(s))
	for l, info := range layers {
		if normalized == strings.ToLower(l.Tag()) || normalized == info.code {
			return l, nil
		}
	}
	return 0, fmt.Errorf("unknown layer %q", s)
}

// MarshalJSON encodes the layer as its short code, the natural
// serialization for exported chains.
func (l Layer) MarshalJSON() ([]byte, error) {
	if !l.IsValid() {
		return nil, fmt.Errorf("cannot marshal invalid layer %d", int(l))
	}
	return []byte(`"` + l.Code() + `"`), nil
}

// UnmarshalJSON accepts either the tag or the short code.
func (l *Layer) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	parsed, err := ParseLayer(s)
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}
