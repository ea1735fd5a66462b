package currency

import (
	"fmt"
	"math/big"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// Unit is a denomination of the chain's native coin. Decimals is the power of
// ten between the unit and wei.
type Unit struct {
	Name     string
	Symbol   string
	Decimals int32
}

var (
	DefaultETH  = &Unit{Name: "ETH", Symbol: "ETH", Decimals: 18}
	DefaultGWEI = &Unit{Name: "GWEI", Symbol: "GWEI", Decimals: 9}
	DefaultWEI  = &Unit{Name: "WEI", Symbol: "WEI", Decimals: 0}
)

// Registry resolves unit names case-insensitively.
type Registry struct {
	units map[string]*Unit
}

// NewRegistry returns a registry holding units. A later unit with a duplicate
// name replaces the earlier one.
func NewRegistry(units ...*Unit) *Registry {
	r := &Registry{units: make(map[string]*Unit, len(units))}
	for _, u := range units {
		if u != nil && u.Name != "" {
			r.units[strings.ToUpper(u.Name)] = u
		}
	}
	return r
}

// NewDefaultRegistry returns a registry holding the native EVM units.
func NewDefaultRegistry() *Registry {
	return NewRegistry(DefaultETH, DefaultGWEI, DefaultWEI)
}

func (r *Registry) Get(name string) (*Unit, error) {
	unit, ok := r.units[strings.ToUpper(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("currency unit %q not found (known: %s)", name, strings.Join(r.Names(), ", "))
	}
	return unit, nil
}

// Names lists the registered unit names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.units))
	for name := range r.units {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// FromWei expresses a wei amount in the named unit without rounding.
func (r *Registry) FromWei(wei *big.Int, to string) (decimal.Decimal, error) {
	unit, err := r.Get(to)
	if err != nil {
		return decimal.Zero, err
	}
	if wei == nil {
		return decimal.Zero, nil
	}
	return decimal.NewFromBigInt(wei, -unit.Decimals), nil
}

// Format renders a wei amount as an exact decimal string in unit, e.g. "0.5 ETH".
func Format(wei *big.Int, unit *Unit) string {
	if wei == nil {
		wei = new(big.Int)
	}
	if unit == nil {
		unit = DefaultWEI
	}
	return decimal.NewFromBigInt(wei, -unit.Decimals).String() + " " + unit.Symbol
}

// UnmarshalYAML accepts a unit name such as "eth" or "GWEI".
func (u *Unit) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var name string
	if err := unmarshal(&name); err != nil {
		return err
	}
	unit, err := NewDefaultRegistry().Get(name)
	if err != nil {
		return err
	}
	*u = *unit
	return nil
}

func (u *Unit) String() string {
	return u.Symbol
}
