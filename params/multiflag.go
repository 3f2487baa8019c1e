package params

import (
	"flag"
	"strings"

	"github.com/pkg/errors"
)

type multiflag struct {
	name   string
	values []string
	seen   map[string]struct{}
}

var _ flag.Getter = (*multiflag)(nil)

func (f *multiflag) String() string {
	if f == nil {
		return ""
	}
	return strings.Join(f.values, ",")
}

func (f *multiflag) Set(s string) error {
	if err := f.checkDuplicated(s); err != nil {
		return err
	}
	f.values = append(f.values, s)
	f.seen[s] = struct{}{}
	return nil
}

func (f *multiflag) Get() any { return f.values }

func (f *multiflag) checkDuplicated(value string) error {
	if _, ok := f.seen[value]; ok {
		return errors.Errorf("duplicated value %v of parameter %v", value, f.name)
	}
	return nil
}

// multiVal registers a repeatable flag; set values are appended to the defaults.
func multiVal(flagSet *flag.FlagSet, name string, defValues []string, usage string) *[]string {
	values := &multiflag{name: name, values: append([]string{}, defValues...), seen: map[string]struct{}{}}
	for _, defValue := range defValues {
		values.seen[defValue] = struct{}{}
	}
	flagSet.Var(values, name, usage)
	return &values.values
}
