package transformer

import (
	"reflect" // Used for reflection to access token fields dynamically

	"github.com/VKCOM/php-parser/pkg/ast"
	"github.com/VKCOM/php-parser/pkg/token"

	"github.com/runstack/obfuscator/internal/logging"
)

var (
	tokenType  = reflect.TypeOf((*token.Token)(nil))
	tokensType = reflect.TypeOf(([]*token.Token)(nil))
)

// CommentStripperVisitor removes comment tokens from the FreeFloating slices of all tokens in the AST.
type CommentStripperVisitor struct {
	removed int
}

// NewCommentStripperVisitor creates a new visitor instance.
func NewCommentStripperVisitor() *CommentStripperVisitor {
	return &CommentStripperVisitor{}
}

// Name implements Pass.
func (v *CommentStripperVisitor) Name() string { return "strip-comments" }

// Transform strips every comment in the tree rooted at root.
func (v *CommentStripperVisitor) Transform(root ast.Vertex) ast.Vertex {
	v.removed = 0
	if root == nil {
		return nil
	}
	NewTraverser(v).Traverse(root)
	logging.V(logging.LevelPass).Infof("strip-comments: removed %d comments", v.removed)
	return root
}

// Removed returns the number of comments removed by the last Transform.
func (v *CommentStripperVisitor) Removed() int {
	return v.removed
}

// EnterNode is called for each node. We inspect its fields for tokens.
func (v *CommentStripperVisitor) EnterNode(n ast.Vertex) bool {
	if n == nil {
		return false
	}

	// There's no single interface covering all token fields, so walk the
	// struct: *token.Token and []*token.Token fields carry the FreeFloating lists.
	rv := reflect.ValueOf(n)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return true
	}
	rv = rv.Elem()
	if rv.Kind() != reflect.Struct {
		return true
	}
	for i := 0; i < rv.NumField(); i++ {
		field := rv.Field(i)
		switch field.Type() {
		case tokenType:
			if !field.IsNil() {
				v.clearComments(field.Interface().(*token.Token))
			}
		case tokensType:
			for _, t := range field.Interface().([]*token.Token) {
				v.clearComments(t)
			}
		}
	}
	return true
}

// LeaveNode implements NodeVisitor.
func (v *CommentStripperVisitor) LeaveNode(ast.Vertex) {}

// clearComments removes T_COMMENT and T_DOC_COMMENT from a token's FreeFloating slice.
// If the comment was the only thing separating two tokens, a single space is
// kept in its place.
func (v *CommentStripperVisitor) clearComments(t *token.Token) {
	if t == nil || len(t.FreeFloating) == 0 {
		return
	}

	kept := make([]*token.Token, 0, len(t.FreeFloating))
	removed := 0
	gap := -1
	for _, ff := range t.FreeFloating {
		if ff == nil {
			continue
		}
		if isComment(ff) {
			removed++
			if gap < 0 {
				gap = len(kept)
			}
			logging.V(logging.LevelPass+1).Infof("removing comment: %q", ff.Value)
			continue
		}
		kept = append(kept, ff)
	}
	if removed == 0 {
		return
	}

	if !hasWhitespace(kept) {
		space := &token.Token{ID: token.T_WHITESPACE, Value: []byte(" ")}
		kept = append(kept[:gap], append([]*token.Token{space}, kept[gap:]...)...)
	}
	t.FreeFloating = kept
	v.removed += removed
}

func isComment(t *token.Token) bool {
	return t.ID == token.T_COMMENT || t.ID == token.T_DOC_COMMENT
}

// hasWhitespace reports whether tokens still separate their neighbours. An
// open tag always ends in whitespace.
func hasWhitespace(tokens []*token.Token) bool {
	for _, t := range tokens {
		switch t.ID {
		case token.T_WHITESPACE, token.T_OPEN_TAG:
			if len(t.Value) > 0 {
				return true
			}
		}
	}
	return false
}
