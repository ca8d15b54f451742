// Package ast defines the expression tree a caller builds instead of writing a native
// closure. Trees are plain data: the compiler walks them, it never executes them.
package ast

import (
	"fmt"
	"reflect"
	"strings"
)

// NodeType identifies a node variant.
type NodeType string

const (
	NodeConstant  NodeType = "Constant"
	NodeParameter NodeType = "Parameter"
	NodeMember    NodeType = "Member"
	NodeBinary    NodeType = "Binary"
	NodeUnary     NodeType = "Unary"
	NodeCall      NodeType = "Call"
	NodeNew       NodeType = "New"
	NodeNewArray  NodeType = "NewArray"
	NodeLambda    NodeType = "Lambda"
)

// Node is a node of an expression tree.
//
// This is a sealed interface: only types in this package implement it.
type Node interface {
	Type() NodeType
	String() string
	node()
}

// Op is a binary or unary operator.
type Op string

const (
	OpAdd      Op = "+"
	OpSubtract Op = "-"
	OpMultiply Op = "*"
	OpDivide   Op = "/"
	OpModulo   Op = "%"

	OpAnd Op = "&&"
	OpOr  Op = "||"

	OpEqual          Op = "=="
	OpNotEqual       Op = "!="
	OpLessThan       Op = "<"
	OpLessOrEqual    Op = "<="
	OpGreaterThan    Op = ">"
	OpGreaterOrEqual Op = ">="

	OpBitAnd     Op = "&"
	OpBitOr      Op = "|"
	OpXor        Op = "^"
	OpLeftShift  Op = "<<"
	OpRightShift Op = ">>"
	OpCoalesce   Op = "??"

	OpNot     Op = "!"
	OpNegate  Op = "neg"
	OpConvert Op = "convert"
)

// IsComparison reports whether op yields a boolean from two comparable operands.
func (op Op) IsComparison() bool {
	switch op {
	case OpEqual, OpNotEqual, OpLessThan, OpLessOrEqual, OpGreaterThan, OpGreaterOrEqual:
		return true
	}
	return false
}

// IsLogical reports whether op is a short-circuit boolean connective.
func (op Op) IsLogical() bool {
	return op == OpAnd || op == OpOr
}

// Declaring names the surface a method call belongs to.
type Declaring string

const (
	// DeclString marks string instance methods (StartsWith, ToUpper, ...).
	DeclString Declaring = "string"
	// DeclSql marks the query helper surface (Sql.In, Sql.Desc, Sql.Sum, ...).
	DeclSql Declaring = "Sql"
	// DeclEnumerable marks collection methods (Contains on a slice).
	DeclEnumerable Declaring = "enumerable"
	// DeclMath marks pure numeric helpers (Abs, Round, ...).
	DeclMath Declaring = "Math"
)

// ConstantExpr is a literal value with its declared type.
type ConstantExpr struct {
	Value    any
	DataType reflect.Type
}

// ParameterExpr is the row a lambda is applied to.
type ParameterExpr struct {
	Name string
}

// MemberExpr accesses a member off Target.
type MemberExpr struct {
	Target Node
	Name   string
}

// BinaryExpr applies Op to Left and Right.
type BinaryExpr struct {
	Op    Op
	Left  Node
	Right Node
}

// UnaryExpr applies Op to Operand. DataType is the target of a conversion.
type UnaryExpr struct {
	Op       Op
	Operand  Node
	DataType reflect.Type
}

// CallExpr invokes Method on Target, or statically when Target is nil.
type CallExpr struct {
	Target    Node
	Method    string
	Declaring Declaring
	Args      []Node
}

// NewExpr constructs a tuple; Names holds the member name of each argument.
type NewExpr struct {
	Names []string
	Args  []Node
}

// NewArrayExpr constructs an array from its elements.
type NewArrayExpr struct {
	Elements []Node
}

// LambdaExpr is a captured one-argument function.
type LambdaExpr struct {
	Param *ParameterExpr
	Body  Node
}

func (*ConstantExpr) node()  {}
func (*ParameterExpr) node() {}
func (*MemberExpr) node()    {}
func (*BinaryExpr) node()    {}
func (*UnaryExpr) node()     {}
func (*CallExpr) node()      {}
func (*NewExpr) node()       {}
func (*NewArrayExpr) node()  {}
func (*LambdaExpr) node()    {}

func (*ConstantExpr) Type() NodeType  { return NodeConstant }
func (*ParameterExpr) Type() NodeType { return NodeParameter }
func (*MemberExpr) Type() NodeType    { return NodeMember }
func (*BinaryExpr) Type() NodeType    { return NodeBinary }
func (*UnaryExpr) Type() NodeType     { return NodeUnary }
func (*CallExpr) Type() NodeType      { return NodeCall }
func (*NewExpr) Type() NodeType       { return NodeNew }
func (*NewArrayExpr) Type() NodeType  { return NodeNewArray }
func (*LambdaExpr) Type() NodeType    { return NodeLambda }

func (e *ConstantExpr) String() string {
	if s, ok := e.Value.(string); ok {
		return fmt.Sprintf("%q", s)
	}
	if e.Value == nil {
		return "null"
	}
	return fmt.Sprintf("%v", e.Value)
}

func (e *ParameterExpr) String() string { return e.Name }

func (e *MemberExpr) String() string {
	if e.Target == nil {
		return e.Name
	}
	return e.Target.String() + "." + e.Name
}

func (e *BinaryExpr) String() string {
	return fmt.Sprintf("(%s %s %s)", e.Left, e.Op, e.Right)
}

func (e *UnaryExpr) String() string {
	switch e.Op {
	case OpNot:
		return "!" + e.Operand.String()
	case OpNegate:
		return "-" + e.Operand.String()
	default:
		return fmt.Sprintf("(%v)%s", e.DataType, e.Operand)
	}
}

func (e *CallExpr) String() string {
	prefix := string(e.Declaring)
	if e.Target != nil {
		prefix = e.Target.String()
	}
	return fmt.Sprintf("%s.%s(%s)", prefix, e.Method, joinNodes(e.Args))
}

func (e *NewExpr) String() string {
	parts := make([]string, len(e.Args))
	for i, a := range e.Args {
		if i < len(e.Names) && e.Names[i] != "" {
			parts[i] = e.Names[i] + " = " + a.String()
		} else {
			parts[i] = a.String()
		}
	}
	return "new { " + strings.Join(parts, ", ") + " }"
}

func (e *NewArrayExpr) String() string { return "[" + joinNodes(e.Elements) + "]" }

func (e *LambdaExpr) String() string {
	return e.Param.Name + " => " + e.Body.String()
}

func joinNodes(nodes []Node) string {
	parts := make([]string, len(nodes))
	for i, n := range nodes {
		parts[i] = n.String()
	}
	return strings.Join(parts, ", ")
}

// IsClosed reports whether n never references row, which makes it eligible for
// evaluation before any SQL is emitted.
func IsClosed(n Node, row *ParameterExpr) bool {
	switch e := n.(type) {
	case nil:
		return true
	case *ConstantExpr:
		return true
	case *ParameterExpr:
		return e != row && (row == nil || e.Name != row.Name)
	case *MemberExpr:
		return IsClosed(e.Target, row)
	case *BinaryExpr:
		return IsClosed(e.Left, row) && IsClosed(e.Right, row)
	case *UnaryExpr:
		return IsClosed(e.Operand, row)
	case *CallExpr:
		if !IsClosed(e.Target, row) {
			return false
		}
		for _, a := range e.Args {
			if !IsClosed(a, row) {
				return false
			}
		}
		return true
	case *NewExpr:
		for _, a := range e.Args {
			if !IsClosed(a, row) {
				return false
			}
		}
		return true
	case *NewArrayExpr:
		for _, a := range e.Elements {
			if !IsClosed(a, row) {
				return false
			}
		}
		return true
	case *LambdaExpr:
		return IsClosed(e.Body, row)
	}
	return false
}

// IsRowMember reports whether m accesses a member directly off row.
func IsRowMember(m *MemberExpr, row *ParameterExpr) bool {
	p, ok := m.Target.(*ParameterExpr)
	return ok && row != nil && (p == row || p.Name == row.Name)
}
