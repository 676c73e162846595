// Package option holds the inputs shared by the pricers: the five
// Black-Scholes parameters, the option direction and the error taxonomy.
package option

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Kind is the option direction.
type Kind int

const (
	Call Kind = iota
	Put
)

func (k Kind) String() string {
	switch k {
	case Call:
		return "call"
	case Put:
		return "put"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// ParseKind accepts "call"/"c" and "put"/"p" in any case.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "c", "call":
		return Call, nil
	case "p", "put":
		return Put, nil
	}
	return 0, &InvalidArgumentError{Arg: "kind", Reason: fmt.Sprintf("unknown option kind %q", s)}
}

// Params are the Black-Scholes inputs of a single European option.
type Params struct {
	S     float64 `json:"spot"       validate:"gt=0"` // 标的价格
	K     float64 `json:"strike"     validate:"gt=0"` // 行权价格
	T     float64 `json:"maturity"   validate:"gt=0"` // 剩余期限（年）
	Sigma float64 `json:"volatility" validate:"gt=0"` // 年化波动率
	R     float64 `json:"rate"`                       // 连续复利无风险利率
}

var validate = validator.New()

// Validate reports the first parameter outside its domain as a *DomainError.
func (p Params) Validate() error {
	err := validate.Struct(p)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		v, _ := fe.Value().(float64)
		return &DomainError{Field: fe.Field(), Value: v}
	}
	return fmt.Errorf("validate params: %w", err)
}

// WithSpot returns a copy of p with S replaced.
func (p Params) WithSpot(s float64) Params {
	p.S = s
	return p
}

// WithVol returns a copy of p with Sigma replaced.
func (p Params) WithVol(sigma float64) Params {
	p.Sigma = sigma
	return p
}

func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

func (k *Kind) UnmarshalText(b []byte) error {
	parsed, err := ParseKind(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}
