// Package lambda parses textual lambdas such as
//
//	x => x.Age.HasValue && x.Age.Value > 40
//
// into expression trees. Free identifiers resolve to caller-supplied variables.
package lambda

import (
	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// Lexer defines the tokens of the lambda language.
var Lexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "String", Pattern: `"(?:\\.|[^"\\])*"`},
	{Name: "Number", Pattern: `\d+(?:\.\d+)?`},
	{Name: "Ident", Pattern: `[\p{L}_][\p{L}\p{N}_]*`},
	{Name: "Op", Pattern: `=>|\?\?|\|\||&&|==|!=|<=|>=|<<|>>|[-+*/%!<>&|^.,()\[\]{}=]`},
	{Name: "Whitespace", Pattern: `\s+`},
})

type lambdaNode struct {
	Pos   lexer.Position
	Param string    `@Ident "=>"`
	Body  *exprNode `@@`
}

// exprNode is the lowest precedence level: right-associative ??.
type exprNode struct {
	Left  *orNode   `@@`
	Right *exprNode `( "??" @@ )?`
}

type orNode struct {
	Left *andNode   `@@`
	Rest []*andNode `( "||" @@ )*`
}

type andNode struct {
	Left *bitOrNode   `@@`
	Rest []*bitOrNode `( "&&" @@ )*`
}

type bitOrNode struct {
	Left *xorNode   `@@`
	Rest []*xorNode `( "|" @@ )*`
}

type xorNode struct {
	Left *bitAndNode   `@@`
	Rest []*bitAndNode `( "^" @@ )*`
}

type bitAndNode struct {
	Left *equalityNode   `@@`
	Rest []*equalityNode `( "&" @@ )*`
}

type equalityNode struct {
	Left *relationalNode `@@`
	Rest []*equalityTail `@@*`
}

type equalityTail struct {
	Op    string          `@( "==" | "!=" )`
	Right *relationalNode `@@`
}

type relationalNode struct {
	Left *shiftNode       `@@`
	Rest []*relationalTail `@@*`
}

type relationalTail struct {
	Op    string     `@( "<=" | ">=" | "<" | ">" )`
	Right *shiftNode `@@`
}

type shiftNode struct {
	Left *additiveNode `@@`
	Rest []*shiftTail  `@@*`
}

type shiftTail struct {
	Op    string        `@( "<<" | ">>" )`
	Right *additiveNode `@@`
}

type additiveNode struct {
	Left *termNode       `@@`
	Rest []*additiveTail `@@*`
}

type additiveTail struct {
	Op    string    `@( "+" | "-" )`
	Right *termNode `@@`
}

type termNode struct {
	Left *unaryNode  `@@`
	Rest []*termTail `@@*`
}

type termTail struct {
	Op    string     `@( "*" | "/" | "%" )`
	Right *unaryNode `@@`
}

type unaryNode struct {
	Op      string       `  ( @( "!" | "-" )`
	Operand *unaryNode   `    @@ )`
	Postfix *postfixNode `| @@`
}

type postfixNode struct {
	Primary   *primaryNode    `@@`
	Selectors []*selectorNode `@@*`
}

type selectorNode struct {
	Pos  lexer.Position
	Name string    `"." @Ident`
	Call *callNode `@@?`
}

type callNode struct {
	Open bool        `@"("`
	Args []*exprNode `( @@ ( "," @@ )* )? ")"`
}

type primaryNode struct {
	Number *string    `  @Number`
	String *string    `| @String`
	Bool   *string    `| @( "true" | "false" )`
	Null   bool       `| @"null"`
	New    *newNode   `| @@`
	Array  *arrayNode `| @@`
	Ident  *identNode `| @@`
	Group  *exprNode  `| "(" @@ ")"`
}

type identNode struct {
	Pos  lexer.Position
	Name string    `@Ident`
	Call *callNode `@@?`
}

type newNode struct {
	Keyword bool         `@"new" "{"`
	Members []*newMember `( @@ ( "," @@ )* )? "}"`
}

type newMember struct {
	Name  string    `( @Ident "=" )?`
	Value *exprNode `@@`
}

type arrayNode struct {
	Open     bool        `@"["`
	Elements []*exprNode `( @@ ( "," @@ )* )? "]"`
}

var parser = participle.MustBuild[lambdaNode](
	participle.Lexer(Lexer),
	participle.Elide("Whitespace"),
	participle.Unquote("String"),
	participle.UseLookahead(4),
)
