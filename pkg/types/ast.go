package types

// NodeType identifies the type of an AST node.
type NodeType string

// AST node types of the condition language.
const (
	// Literals
	NodeInt    NodeType = "int"
	NodeFloat  NodeType = "float"
	NodeString NodeType = "string"
	NodeBool   NodeType = "bool"

	// References
	NodeIdent  NodeType = "ident"  // variable, globals or function name
	NodeMember NodeType = "member" // LHS.Value
	NodeCall   NodeType = "call"   // Value(Arguments) or LHS.Value(Arguments)

	// Operators
	NodeUnary     NodeType = "unary"     // Value RHS
	NodeBinary    NodeType = "binary"    // LHS Value RHS
	NodeCondition NodeType = "condition" // LHS ? RHS : Else

	// Statements
	NodeBlock  NodeType = "block"  // { Statements }
	NodeLet    NodeType = "let"    // let Value = RHS
	NodeAssign NodeType = "assign" // Value = RHS
	NodeIf     NodeType = "if"     // if (LHS) RHS else Else
	NodeReturn NodeType = "return" // return RHS

	// Text templates
	NodeTemplate NodeType = "template" // Arguments are literal text and placeholders
)

// ASTNode represents a node in the Abstract Syntax Tree.
type ASTNode struct {
	Type     NodeType
	Value    string // identifier, member name, operator or literal text
	Int      int64
	Float    float64
	Bool     bool
	Position int

	LHS        *ASTNode
	RHS        *ASTNode
	Else       *ASTNode
	Arguments  []*ASTNode
	Statements []*ASTNode

	// Implicit marks a return produced by a trailing block expression.
	Implicit bool
}

// NewASTNode creates a new AST node of the specified type.
func NewASTNode(nodeType NodeType, position int) *ASTNode {
	return &ASTNode{
		Type:     nodeType,
		Position: position,
	}
}

// String returns a string representation of the node type.
func (n *ASTNode) String() string {
	return string(n.Type)
}
