package preset

// Binding assigns one concrete value to one option key.
type Binding struct {
	Key   string
	Value any
}

// Combination is one fully resolved assignment drawn from a preset's
// cartesian expansion. Binding order matches the preset's declaration
// order.
type Combination struct {
	bindings []Binding
}

func NewCombination(bindings []Binding) Combination {
	return Combination{bindings: bindings}
}

func (c Combination) Get(key string) (any, bool) {
	for _, b := range c.bindings {
		if b.Key == key {
			return b.Value, true
		}
	}
	return nil, false
}

func (c Combination) Bindings() []Binding {
	return c.bindings
}

func (c Combination) Len() int {
	return len(c.bindings)
}

func (c Combination) with(key string, value any) Combination {
	next := make([]Binding, len(c.bindings), len(c.bindings)+1)
	copy(next, c.bindings)
	return Combination{bindings: append(next, Binding{Key: key, Value: value})}
}

// Expand computes the cartesian product over the normalized option
// sequences in odometer order: the first declared key varies slowest.
// An empty option set yields exactly one empty combination, so an image
// with no declared options still produces one pass-through variant.
func Expand(n Normalized) []Combination {
	combos := []Combination{{}}
	for _, opt := range n.Options {
		next := make([]Combination, 0, len(combos)*len(opt.Values))
		for _, c := range combos {
			for _, v := range opt.Values {
				next = append(next, c.with(opt.Key, v))
			}
		}
		combos = next
	}
	return combos
}
