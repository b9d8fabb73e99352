package aggregates

// Contract names an aggregate, the tables only it writes, and the rule its
// transactions keep.
type Contract struct {
	Name      string
	Tables    []string
	Invariant string
}

type Aggregate interface {
	Contract() Contract
}

// Op is the operation label used in errors, logs and write metrics.
func (c Contract) Op(method string) string {
	return c.Name + "." + method
}

// Owns reports whether table is written only through this aggregate.
func (c Contract) Owns(table string) bool {
	for _, t := range c.Tables {
		if t == table {
			return true
		}
	}
	return false
}
