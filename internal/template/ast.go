package template

// Node is a statement-level element of a parsed template. The tree is
// immutable after parsing and safe to share across concurrent renders.
type Node interface {
	pos() int
}

// TextNode is literal output text, already whitespace-trimmed according to
// the `-` markers on adjacent tags.
type TextNode struct {
	Pos  int
	Text string
}

// OutputNode appends the stringified value of Expr to the output.
type OutputNode struct {
	Pos  int
	Expr Expr
}

// Branch is one arm of an if/elif chain.
type Branch struct {
	Cond Expr
	Body []Node
}

// IfNode evaluates the first branch whose condition is truthy, or Else.
type IfNode struct {
	Pos      int
	Branches []Branch
	Else     []Node
}

// ForNode iterates Seq, binding Var and a `loop` object per iteration.
type ForNode struct {
	Pos  int
	Var  string
	Seq  Expr
	Body []Node
}

// SetNode binds Target in the innermost scope, or mutates Target.Field when
// Field is non-empty (namespace assignment: the one binding that persists
// across loop iterations).
type SetNode struct {
	Pos    int
	Target string
	Field  string
	Expr   Expr
}

// GenerationNode marks its body output as a generation target span.
// Nested generation blocks flatten to the outermost.
type GenerationNode struct {
	Pos  int
	Body []Node
}

func (n *TextNode) pos() int       { return n.Pos }
func (n *OutputNode) pos() int     { return n.Pos }
func (n *IfNode) pos() int         { return n.Pos }
func (n *ForNode) pos() int        { return n.Pos }
func (n *SetNode) pos() int        { return n.Pos }
func (n *GenerationNode) pos() int { return n.Pos }

// Expr is an expression-level element.
type Expr interface {
	epos() int
}

// VarExpr references a context variable by name.
type VarExpr struct {
	Pos  int
	Name string
}

// StringLit is a string literal with escapes already resolved.
type StringLit struct {
	Pos int
	Val string
}

// IntLit is an integer literal.
type IntLit struct {
	Pos int
	Val int
}

// BoolLit is `true` or `false`.
type BoolLit struct {
	Pos int
	Val bool
}

// NoneLit is `none`.
type NoneLit struct {
	Pos int
}

// AttrExpr accesses X.Name. A missing attribute evaluates to undefined,
// not an error.
type AttrExpr struct {
	Pos  int
	X    Expr
	Name string
}

// IndexExpr accesses X[Index]: integer (possibly negative) indices on lists,
// string keys on objects.
type IndexExpr struct {
	Pos   int
	X     Expr
	Index Expr
}

// SliceExpr accesses X[Start:Stop:Step] on a list. Absent parts are nil.
type SliceExpr struct {
	Pos   int
	X     Expr
	Start Expr
	Stop  Expr
	Step  Expr
}

// Kwarg is a keyword argument, as in namespace(multi_step_tool=true).
type Kwarg struct {
	Name string
	Expr Expr
}

// CallExpr invokes a string method (X is an AttrExpr naming the method) or
// the namespace() constructor (X is VarExpr{"namespace"}).
type CallExpr struct {
	Pos    int
	X      Expr
	Args   []Expr
	Kwargs []Kwarg
}

// FilterExpr applies a filter: X | Name.
type FilterExpr struct {
	Pos  int
	X    Expr
	Name string
}

// UnaryExpr is `not X` or `-X`.
type UnaryExpr struct {
	Pos int
	Op  string
	X   Expr
}

// BinaryExpr covers +, -, comparisons, `in`, and short-circuit and/or.
type BinaryExpr struct {
	Pos int
	Op  string
	L   Expr
	R   Expr
}

// TestExpr is `X is Test` or `X is not Test` for the tests defined, none,
// string, false, true.
type TestExpr struct {
	Pos    int
	X      Expr
	Test   string
	Negate bool
}

func (e *VarExpr) epos() int    { return e.Pos }
func (e *StringLit) epos() int  { return e.Pos }
func (e *IntLit) epos() int     { return e.Pos }
func (e *BoolLit) epos() int    { return e.Pos }
func (e *NoneLit) epos() int    { return e.Pos }
func (e *AttrExpr) epos() int   { return e.Pos }
func (e *IndexExpr) epos() int  { return e.Pos }
func (e *SliceExpr) epos() int  { return e.Pos }
func (e *CallExpr) epos() int   { return e.Pos }
func (e *FilterExpr) epos() int { return e.Pos }
func (e *UnaryExpr) epos() int  { return e.Pos }
func (e *BinaryExpr) epos() int { return e.Pos }
func (e *TestExpr) epos() int   { return e.Pos }
