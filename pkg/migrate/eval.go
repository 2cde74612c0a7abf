package migrate

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"reflect"
	"strconv"
)

// Eval parses and evaluates a generated expression against the default
// symbol table plus any extra namespaces (typically the modules whose structs
// the expression references, keyed "module.StructName"). It is the inverse of
// Serialize: Eval(Serialize(v)) reproduces an equal value.
func Eval(src string, extra ...map[string]any) (any, error) {
	symbols := Symbols()
	for _, ns := range extra {
		for name, value := range ns {
			symbols[name] = value
		}
	}

	expr, err := parser.ParseExpr(src)
	if err != nil {
		return nil, fmt.Errorf("cannot parse expression %q: %w", src, err)
	}
	ev := &evaluator{symbols: symbols}
	return ev.eval(expr)
}

type evaluator struct {
	symbols map[string]any
}

func (ev *evaluator) eval(expr ast.Expr) (any, error) {
	switch e := expr.(type) {
	case *ast.BasicLit:
		return evalBasicLit(e)
	case *ast.Ident:
		return ev.evalIdent(e)
	case *ast.SelectorExpr:
		return ev.evalSelector(e)
	case *ast.CallExpr:
		return ev.evalCall(e)
	case *ast.CompositeLit:
		return ev.evalComposite(e)
	case *ast.UnaryExpr:
		return ev.evalUnary(e)
	case *ast.ParenExpr:
		return ev.eval(e.X)
	default:
		return nil, fmt.Errorf("unsupported expression node %T", expr)
	}
}

func evalBasicLit(lit *ast.BasicLit) (any, error) {
	switch lit.Kind {
	case token.STRING:
		return strconv.Unquote(lit.Value)
	case token.INT:
		return strconv.ParseInt(lit.Value, 0, 64)
	case token.FLOAT:
		return strconv.ParseFloat(lit.Value, 64)
	default:
		return nil, fmt.Errorf("unsupported literal %s", lit.Value)
	}
}

func (ev *evaluator) evalIdent(ident *ast.Ident) (any, error) {
	switch ident.Name {
	case "true":
		return true, nil
	case "false":
		return false, nil
	case "nil":
		return nil, nil
	}
	if v, ok := ev.symbols[ident.Name]; ok {
		return v, nil
	}
	return nil, fmt.Errorf("unknown identifier %q", ident.Name)
}

// evalSelector resolves either a qualified name from the symbol table
// ("schema.Int") or a method bound to an evaluated receiver.
func (ev *evaluator) evalSelector(sel *ast.SelectorExpr) (any, error) {
	if ident, ok := sel.X.(*ast.Ident); ok {
		qualified := ident.Name + "." + sel.Sel.Name
		if v, ok := ev.symbols[qualified]; ok {
			return v, nil
		}
	}
	recv, err := ev.eval(sel.X)
	if err != nil {
		return nil, err
	}
	method := reflect.ValueOf(recv).MethodByName(sel.Sel.Name)
	if !method.IsValid() {
		return nil, fmt.Errorf("value %v has no method %q", recv, sel.Sel.Name)
	}
	return method, nil
}

func (ev *evaluator) evalCall(call *ast.CallExpr) (any, error) {
	fn, err := ev.eval(call.Fun)
	if err != nil {
		return nil, err
	}
	fv, ok := fn.(reflect.Value)
	if !ok {
		fv = reflect.ValueOf(fn)
	}
	if fv.Kind() != reflect.Func {
		return nil, fmt.Errorf("cannot call non-function %v", fn)
	}

	args := make([]any, len(call.Args))
	for i, arg := range call.Args {
		v, err := ev.eval(arg)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}

	in, err := coerceArgs(fv.Type(), args)
	if err != nil {
		return nil, err
	}
	out := fv.Call(in)
	return unpackResults(out)
}

// coerceArgs adapts evaluated arguments to the function signature. Literal
// integers parse as int64 and have to convert into the numeric parameter
// types the constructors actually take.
func coerceArgs(ft reflect.Type, args []any) ([]reflect.Value, error) {
	fixed := ft.NumIn()
	if ft.IsVariadic() {
		fixed--
		if len(args) < fixed {
			return nil, fmt.Errorf("expected at least %d arguments, got %d", fixed, len(args))
		}
	} else if len(args) != fixed {
		return nil, fmt.Errorf("expected %d arguments, got %d", fixed, len(args))
	}

	in := make([]reflect.Value, len(args))
	for i, arg := range args {
		var param reflect.Type
		if i < fixed {
			param = ft.In(i)
		} else {
			param = ft.In(ft.NumIn() - 1).Elem()
		}
		v, err := coerceArg(param, arg)
		if err != nil {
			return nil, fmt.Errorf("argument %d: %w", i, err)
		}
		in[i] = v
	}
	return in, nil
}

func coerceArg(param reflect.Type, arg any) (reflect.Value, error) {
	if arg == nil {
		switch param.Kind() {
		case reflect.Interface, reflect.Ptr, reflect.Map, reflect.Slice:
			return reflect.Zero(param), nil
		}
		return reflect.Value{}, fmt.Errorf("cannot pass nil as %s", param)
	}
	v := reflect.ValueOf(arg)
	if v.Type().AssignableTo(param) {
		return v, nil
	}
	if v.Type().ConvertibleTo(param) && param.Kind() != reflect.Interface {
		return v.Convert(param), nil
	}
	return reflect.Value{}, fmt.Errorf("cannot use %v (%s) as %s", arg, v.Type(), param)
}

func unpackResults(out []reflect.Value) (any, error) {
	switch len(out) {
	case 1:
		return out[0].Interface(), nil
	case 2:
		if err, ok := out[1].Interface().(error); ok && err != nil {
			return nil, err
		}
		return out[0].Interface(), nil
	default:
		return nil, fmt.Errorf("unsupported call result arity %d", len(out))
	}
}

// evalComposite handles the two literal shapes serialization emits:
// []any{...} and map[string]any{...}.
func (ev *evaluator) evalComposite(lit *ast.CompositeLit) (any, error) {
	switch typ := lit.Type.(type) {
	case *ast.ArrayType:
		if !isAnyIdent(typ.Elt) {
			return nil, fmt.Errorf("unsupported slice element type in composite literal")
		}
		out := make([]any, len(lit.Elts))
		for i, elt := range lit.Elts {
			v, err := ev.eval(elt)
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil
	case *ast.MapType:
		out := make(map[string]any, len(lit.Elts))
		for _, elt := range lit.Elts {
			kv, ok := elt.(*ast.KeyValueExpr)
			if !ok {
				return nil, fmt.Errorf("map literal entries must be key: value pairs")
			}
			key, err := ev.eval(kv.Key)
			if err != nil {
				return nil, err
			}
			ks, ok := key.(string)
			if !ok {
				return nil, fmt.Errorf("map literal keys must be strings, got %T", key)
			}
			value, err := ev.eval(kv.Value)
			if err != nil {
				return nil, err
			}
			out[ks] = value
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported composite literal type %T", lit.Type)
	}
}

func isAnyIdent(expr ast.Expr) bool {
	ident, ok := expr.(*ast.Ident)
	return ok && (ident.Name == "any" || ident.Name == "interface{}")
}

func (ev *evaluator) evalUnary(expr *ast.UnaryExpr) (any, error) {
	if expr.Op != token.SUB {
		return nil, fmt.Errorf("unsupported unary operator %s", expr.Op)
	}
	v, err := ev.eval(expr.X)
	if err != nil {
		return nil, err
	}
	switch n := v.(type) {
	case int64:
		return -n, nil
	case float64:
		return -n, nil
	default:
		return nil, fmt.Errorf("cannot negate %T", v)
	}
}
