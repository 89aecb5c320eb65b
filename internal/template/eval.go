package template

import (
	"errors"
	"fmt"
	"strings"

	"github.com/chatspan-ml/chatspan/internal/conversation"
)

// evaluator holds the state of one render: the output buffer, the recorded
// generation spans, and the variable scope chain. Nothing here outlives the
// render call, so concurrent renders of the same Template never contend.
type evaluator struct {
	tmpl     *Template
	scopes   []map[string]Value
	buf      strings.Builder
	spans    []conversation.Span
	genDepth int
}

func (ev *evaluator) pushScope() {
	ev.scopes = append(ev.scopes, map[string]Value{})
}

func (ev *evaluator) popScope() {
	ev.scopes = ev.scopes[:len(ev.scopes)-1]
}

func (ev *evaluator) lookup(name string) (Value, bool) {
	for i := len(ev.scopes) - 1; i >= 0; i-- {
		if v, ok := ev.scopes[i][name]; ok {
			return v, true
		}
	}
	return Value{}, false
}

// setVar binds in the innermost scope, shadowing outer bindings. Namespace
// fields are the only way to write through to an outer binding.
func (ev *evaluator) setVar(name string, v Value) {
	ev.scopes[len(ev.scopes)-1][name] = v
}

func (ev *evaluator) wrap(node string, pos int, err error) error {
	var ee *EvalError
	if errors.As(err, &ee) {
		return err
	}
	return &EvalError{Name: ev.tmpl.name, Node: node, Pos: pos, Err: err}
}

func (ev *evaluator) evalNodes(nodes []Node) error {
	for _, n := range nodes {
		if err := ev.evalNode(n); err != nil {
			return err
		}
	}
	return nil
}

func (ev *evaluator) evalNode(n Node) error {
	switch node := n.(type) {
	case *TextNode:
		ev.buf.WriteString(node.Text)
		return nil

	case *OutputNode:
		v, err := ev.eval(node.Expr)
		if err != nil {
			return ev.wrap("output", node.Pos, err)
		}
		ev.buf.WriteString(v.Text())
		return nil

	case *IfNode:
		for _, br := range node.Branches {
			cond, err := ev.eval(br.Cond)
			if err != nil {
				return ev.wrap("if", node.Pos, err)
			}
			if cond.Truthy() {
				return ev.evalNodes(br.Body)
			}
		}
		return ev.evalNodes(node.Else)

	case *ForNode:
		seq, err := ev.eval(node.Seq)
		if err != nil {
			return ev.wrap("for", node.Pos, err)
		}
		if seq.Kind() != KindList {
			return ev.wrap("for", node.Pos, fmt.Errorf("%w: cannot iterate %v", ErrTypeMismatch, seq.Kind()))
		}
		items := seq.list
		for i, item := range items {
			ev.pushScope()
			ev.setVar(node.Var, item)
			ev.setVar("loop", Object([]Field{
				{Key: "index0", Val: Int(i)},
				{Key: "index", Val: Int(i + 1)},
				{Key: "first", Val: Bool(i == 0)},
				{Key: "last", Val: Bool(i == len(items)-1)},
			}))
			err := ev.evalNodes(node.Body)
			ev.popScope()
			if err != nil {
				return err
			}
		}
		return nil

	case *SetNode:
		v, err := ev.eval(node.Expr)
		if err != nil {
			return ev.wrap("set", node.Pos, err)
		}
		if node.Field == "" {
			ev.setVar(node.Target, v)
			return nil
		}
		target, ok := ev.lookup(node.Target)
		if !ok {
			return ev.wrap("set", node.Pos, fmt.Errorf("%w: %s", ErrUndefinedVariable, node.Target))
		}
		if target.Kind() != KindNamespace {
			return ev.wrap("set", node.Pos, fmt.Errorf("%w: %s is not a namespace", ErrTypeMismatch, node.Target))
		}
		target.ns.Set(node.Field, v)
		return nil

	case *GenerationNode:
		start := ev.buf.Len()
		ev.genDepth++
		err := ev.evalNodes(node.Body)
		ev.genDepth--
		if err != nil {
			return err
		}
		if ev.genDepth > 0 {
			// Nested blocks flatten into the outermost span.
			return nil
		}
		end := ev.buf.Len()
		if end == start {
			return nil
		}
		if n := len(ev.spans); n > 0 && ev.spans[n-1].End == start {
			ev.spans[n-1].End = end
			return nil
		}
		ev.spans = append(ev.spans, conversation.Span{Start: start, End: end})
		return nil
	}
	return fmt.Errorf("unhandled node %T", n)
}

func (ev *evaluator) eval(e Expr) (Value, error) {
	switch expr := e.(type) {
	case *StringLit:
		return Str(expr.Val), nil
	case *IntLit:
		return Int(expr.Val), nil
	case *BoolLit:
		return Bool(expr.Val), nil
	case *NoneLit:
		return None(), nil

	case *VarExpr:
		v, ok := ev.lookup(expr.Name)
		if !ok {
			return Value{}, fmt.Errorf("%w: %s", ErrUndefinedVariable, expr.Name)
		}
		return v, nil

	case *AttrExpr:
		base, err := ev.eval(expr.X)
		if err != nil {
			return Value{}, err
		}
		return base.Attr(expr.Name), nil

	case *IndexExpr:
		return ev.evalIndex(expr)

	case *SliceExpr:
		return ev.evalSlice(expr)

	case *CallExpr:
		return ev.evalCall(expr)

	case *FilterExpr:
		base, err := ev.eval(expr.X)
		if err != nil {
			return Value{}, err
		}
		switch expr.Name {
		case "tojson":
			return Str(base.JSON()), nil
		case "length":
			n := base.Len()
			if n < 0 {
				return Value{}, fmt.Errorf("%w: %v has no length", ErrTypeMismatch, base.Kind())
			}
			return Int(n), nil
		}
		return Value{}, fmt.Errorf("%w: unknown filter %q", ErrTypeMismatch, expr.Name)

	case *UnaryExpr:
		x, err := ev.eval(expr.X)
		if err != nil {
			return Value{}, err
		}
		switch expr.Op {
		case "not":
			return Bool(!x.Truthy()), nil
		case "-":
			if x.Kind() != KindInt {
				return Value{}, fmt.Errorf("%w: cannot negate %v", ErrTypeMismatch, x.Kind())
			}
			return Int(-x.n), nil
		}
		return Value{}, fmt.Errorf("unhandled unary operator %q", expr.Op)

	case *BinaryExpr:
		return ev.evalBinary(expr)

	case *TestExpr:
		return ev.evalTest(expr)
	}
	return Value{}, fmt.Errorf("unhandled expression %T", e)
}

func (ev *evaluator) evalIndex(expr *IndexExpr) (Value, error) {
	base, err := ev.eval(expr.X)
	if err != nil {
		return Value{}, err
	}
	idx, err := ev.eval(expr.Index)
	if err != nil {
		return Value{}, err
	}

	switch base.Kind() {
	case KindList:
		if idx.Kind() != KindInt {
			return Value{}, fmt.Errorf("%w: list index must be an integer", ErrTypeMismatch)
		}
		i := idx.n
		if i < 0 {
			i += len(base.list)
		}
		if i < 0 || i >= len(base.list) {
			return Value{}, fmt.Errorf("%w: index %d of %d elements", ErrIndexOutOfRange, idx.n, len(base.list))
		}
		return base.list[i], nil

	case KindString:
		if idx.Kind() != KindInt {
			return Value{}, fmt.Errorf("%w: string index must be an integer", ErrTypeMismatch)
		}
		runes := []rune(base.s)
		i := idx.n
		if i < 0 {
			i += len(runes)
		}
		if i < 0 || i >= len(runes) {
			return Value{}, fmt.Errorf("%w: index %d of %d characters", ErrIndexOutOfRange, idx.n, len(runes))
		}
		return Str(string(runes[i])), nil

	case KindObject, KindNamespace:
		if idx.Kind() != KindString {
			return Value{}, fmt.Errorf("%w: object key must be a string", ErrTypeMismatch)
		}
		return base.Attr(idx.s), nil
	}
	return Value{}, fmt.Errorf("%w: cannot index %v", ErrTypeMismatch, base.Kind())
}

func (ev *evaluator) evalSlice(expr *SliceExpr) (Value, error) {
	base, err := ev.eval(expr.X)
	if err != nil {
		return Value{}, err
	}
	if base.Kind() != KindList && base.Kind() != KindString {
		return Value{}, fmt.Errorf("%w: cannot slice %v", ErrTypeMismatch, base.Kind())
	}

	part := func(e Expr) (*int, error) {
		if e == nil {
			return nil, nil
		}
		v, err := ev.eval(e)
		if err != nil {
			return nil, err
		}
		if v.Kind() != KindInt {
			return nil, fmt.Errorf("%w: slice bounds must be integers", ErrTypeMismatch)
		}
		n := v.n
		return &n, nil
	}
	start, err := part(expr.Start)
	if err != nil {
		return Value{}, err
	}
	stop, err := part(expr.Stop)
	if err != nil {
		return Value{}, err
	}
	step, err := part(expr.Step)
	if err != nil {
		return Value{}, err
	}
	if base.Kind() == KindString {
		runes := []rune(base.s)
		elems := make([]Value, len(runes))
		for i, r := range runes {
			elems[i] = Str(string(r))
		}
		out, err := sliceList(elems, start, stop, step)
		if err != nil {
			return Value{}, err
		}
		var sb strings.Builder
		for _, e := range out {
			sb.WriteString(e.s)
		}
		return Str(sb.String()), nil
	}

	out, err := sliceList(base.list, start, stop, step)
	if err != nil {
		return Value{}, err
	}
	return List(out), nil
}

// sliceList applies [start:stop:step] with the clamping rules of the source
// language: out-of-range bounds clamp instead of failing, negative bounds
// count from the end, negative steps walk backwards.
func sliceList(list []Value, start, stop, step *int) ([]Value, error) {
	n := len(list)
	st := 1
	if step != nil {
		st = *step
	}
	if st == 0 {
		return nil, fmt.Errorf("%w: slice step cannot be zero", ErrTypeMismatch)
	}

	norm := func(p *int, def int, min, max int) int {
		if p == nil {
			return def
		}
		i := *p
		if i < 0 {
			i += n
		}
		if i < min {
			return min
		}
		if i > max {
			return max
		}
		return i
	}

	var out []Value
	if st > 0 {
		lo := norm(start, 0, 0, n)
		hi := norm(stop, n, 0, n)
		for i := lo; i < hi; i += st {
			out = append(out, list[i])
		}
	} else {
		lo := norm(start, n-1, -1, n-1)
		hi := norm(stop, -1, -1, n-1)
		for i := lo; i > hi; i += st {
			out = append(out, list[i])
		}
	}
	return out, nil
}

func (ev *evaluator) evalCall(expr *CallExpr) (Value, error) {
	// namespace(...) constructor.
	if v, ok := expr.X.(*VarExpr); ok && v.Name == "namespace" {
		if len(expr.Args) > 0 {
			return Value{}, fmt.Errorf("%w: namespace() takes keyword arguments only", ErrTypeMismatch)
		}
		ns := &Namespace{}
		for _, kw := range expr.Kwargs {
			val, err := ev.eval(kw.Expr)
			if err != nil {
				return Value{}, err
			}
			ns.Set(kw.Name, val)
		}
		return NamespaceValue(ns), nil
	}

	attr, ok := expr.X.(*AttrExpr)
	if !ok {
		return Value{}, fmt.Errorf("%w: value is not callable", ErrTypeMismatch)
	}
	base, err := ev.eval(attr.X)
	if err != nil {
		return Value{}, err
	}
	if base.Kind() != KindString {
		return Value{}, fmt.Errorf("%w: no method %q on %v", ErrTypeMismatch, attr.Name, base.Kind())
	}

	args := make([]Value, len(expr.Args))
	for i, a := range expr.Args {
		args[i], err = ev.eval(a)
		if err != nil {
			return Value{}, err
		}
	}
	return callStringMethod(base.s, attr.Name, args)
}

func callStringMethod(s, method string, args []Value) (Value, error) {
	strArg := func(i int) (string, error) {
		if i >= len(args) || args[i].Kind() != KindString {
			return "", fmt.Errorf("%w: %s expects a string argument", ErrTypeMismatch, method)
		}
		return args[i].s, nil
	}

	switch method {
	case "startswith":
		prefix, err := strArg(0)
		if err != nil {
			return Value{}, err
		}
		return Bool(strings.HasPrefix(s, prefix)), nil

	case "endswith":
		suffix, err := strArg(0)
		if err != nil {
			return Value{}, err
		}
		return Bool(strings.HasSuffix(s, suffix)), nil

	case "split":
		sep, err := strArg(0)
		if err != nil {
			return Value{}, err
		}
		parts := strings.Split(s, sep)
		out := make([]Value, len(parts))
		for i, p := range parts {
			out[i] = Str(p)
		}
		return List(out), nil

	case "strip", "lstrip", "rstrip":
		cutset := " \t\n\r"
		if len(args) > 0 {
			var err error
			if cutset, err = strArg(0); err != nil {
				return Value{}, err
			}
		}
		switch method {
		case "strip":
			return Str(strings.Trim(s, cutset)), nil
		case "lstrip":
			return Str(strings.TrimLeft(s, cutset)), nil
		default:
			return Str(strings.TrimRight(s, cutset)), nil
		}
	}
	return Value{}, fmt.Errorf("%w: unknown string method %q", ErrTypeMismatch, method)
}

func (ev *evaluator) evalBinary(expr *BinaryExpr) (Value, error) {
	left, err := ev.eval(expr.L)
	if err != nil {
		return Value{}, err
	}

	// and/or short-circuit: the right side may be guarded by the left, as in
	// `loop.last or (messages[loop.index0 + 1].role != "tool")`.
	switch expr.Op {
	case "and":
		if !left.Truthy() {
			return Bool(false), nil
		}
		right, err := ev.eval(expr.R)
		if err != nil {
			return Value{}, err
		}
		return Bool(right.Truthy()), nil
	case "or":
		if left.Truthy() {
			return Bool(true), nil
		}
		right, err := ev.eval(expr.R)
		if err != nil {
			return Value{}, err
		}
		return Bool(right.Truthy()), nil
	}

	right, err := ev.eval(expr.R)
	if err != nil {
		return Value{}, err
	}

	switch expr.Op {
	case "+":
		if left.Kind() == KindString && right.Kind() == KindString {
			return Str(left.s + right.s), nil
		}
		if left.Kind() == KindInt && right.Kind() == KindInt {
			return Int(left.n + right.n), nil
		}
		return Value{}, fmt.Errorf("%w: cannot add %v and %v", ErrTypeMismatch, left.Kind(), right.Kind())

	case "-":
		if left.Kind() == KindInt && right.Kind() == KindInt {
			return Int(left.n - right.n), nil
		}
		return Value{}, fmt.Errorf("%w: cannot subtract %v and %v", ErrTypeMismatch, left.Kind(), right.Kind())

	case "==":
		return Bool(left.Equal(right)), nil
	case "!=":
		return Bool(!left.Equal(right)), nil

	case "<", "<=", ">", ">=":
		if left.Kind() != KindInt || right.Kind() != KindInt {
			return Value{}, fmt.Errorf("%w: cannot order %v and %v", ErrTypeMismatch, left.Kind(), right.Kind())
		}
		switch expr.Op {
		case "<":
			return Bool(left.n < right.n), nil
		case "<=":
			return Bool(left.n <= right.n), nil
		case ">":
			return Bool(left.n > right.n), nil
		default:
			return Bool(left.n >= right.n), nil
		}

	case "in":
		switch right.Kind() {
		case KindString:
			if left.Kind() != KindString {
				return Value{}, fmt.Errorf("%w: 'in' on a string needs a string operand", ErrTypeMismatch)
			}
			return Bool(strings.Contains(right.s, left.s)), nil
		case KindList:
			for _, e := range right.list {
				if left.Equal(e) {
					return Bool(true), nil
				}
			}
			return Bool(false), nil
		case KindObject:
			if left.Kind() != KindString {
				return Bool(false), nil
			}
			return Bool(right.Attr(left.s).Kind() != KindUndefined), nil
		}
		return Value{}, fmt.Errorf("%w: 'in' needs a string, list, or object", ErrTypeMismatch)
	}
	return Value{}, fmt.Errorf("unhandled binary operator %q", expr.Op)
}

func (ev *evaluator) evalTest(expr *TestExpr) (Value, error) {
	x, err := ev.eval(expr.X)
	if err != nil {
		// `is defined` is the one place an unknown variable is a question,
		// not a bug.
		if expr.Test == "defined" && errors.Is(err, ErrUndefinedVariable) {
			return Bool(expr.Negate), nil
		}
		return Value{}, err
	}

	var res bool
	switch expr.Test {
	case "defined":
		res = x.Kind() != KindUndefined
	case "none":
		res = x.Kind() == KindNone
	case "string":
		res = x.Kind() == KindString
	case "false":
		res = x.Kind() == KindBool && !x.b
	case "true":
		res = x.Kind() == KindBool && x.b
	}
	if expr.Negate {
		res = !res
	}
	return Bool(res), nil
}
