package deps

import (
	"reflect"

	"github.com/pingcap/errors"
	"go.uber.org/dig"
)

// Deps is a thin wrapper of a dig container used to assemble long lived
// components.
type Deps struct {
	container *dig.Container
}

func NewDeps() *Deps {
	return &Deps{
		container: dig.New(),
	}
}

// Provide registers a constructor with the container.
func (d *Deps) Provide(constructor interface{}) error {
	if err := d.container.Provide(constructor); err != nil {
		return errors.Trace(err)
	}
	return nil
}

// Construct calls fn with arguments resolved from the container and returns
// its first result. fn must return (T, error).
func (d *Deps) Construct(fn interface{}) (interface{}, error) {
	fnVal := reflect.ValueOf(fn)
	fnTp := fnVal.Type()
	if fnTp.Kind() != reflect.Func || fnTp.NumOut() != 2 {
		return nil, errors.Errorf("invalid constructor %s", fnTp.String())
	}

	var (
		obj    interface{}
		errOut error
	)
	invoker := reflect.MakeFunc(reflect.FuncOf(inTypes(fnTp), []reflect.Type{reflect.TypeOf((*error)(nil)).Elem()}, false),
		func(args []reflect.Value) []reflect.Value {
			results := fnVal.Call(args)
			obj = results[0].Interface()
			if e := results[1].Interface(); e != nil {
				errOut = e.(error)
			}
			return []reflect.Value{reflect.Zero(reflect.TypeOf((*error)(nil)).Elem())}
		})
	if err := d.container.Invoke(invoker.Interface()); err != nil {
		return nil, errors.Trace(err)
	}
	if errOut != nil {
		return nil, errOut
	}
	return obj, nil
}

// Fill populates the fields of a dig.In struct pointed to by target.
func (d *Deps) Fill(target interface{}) error {
	targetVal := reflect.ValueOf(target)
	if targetVal.Kind() != reflect.Ptr {
		return errors.Errorf("target must be a pointer, got %T", target)
	}
	elemTp := targetVal.Elem().Type()
	filler := reflect.MakeFunc(reflect.FuncOf([]reflect.Type{elemTp}, nil, false),
		func(args []reflect.Value) []reflect.Value {
			targetVal.Elem().Set(args[0])
			return nil
		})
	return errors.Trace(d.container.Invoke(filler.Interface()))
}

func inTypes(fnTp reflect.Type) []reflect.Type {
	ret := make([]reflect.Type, 0, fnTp.NumIn())
	for i := 0; i < fnTp.NumIn(); i++ {
		ret = append(ret, fnTp.In(i))
	}
	return ret
}
