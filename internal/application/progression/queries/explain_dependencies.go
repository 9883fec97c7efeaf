package queries

import (
	"context"
	"fmt"

	"github.com/factorlab/beltplan-go/internal/application/common"
	"github.com/factorlab/beltplan-go/internal/application/session"
	"github.com/factorlab/beltplan-go/internal/domain/deps"
	"github.com/factorlab/beltplan-go/internal/domain/gamedata"
)

// ExplainDependenciesQuery represents a query for the boolean dependency
// structure of one object, rendered for display.
type ExplainDependenciesQuery struct {
	Kind string
	Name string
}

// ExplainDependenciesResponse represents an object's dependency tree.
type ExplainDependenciesResponse struct {
	Object string
	Root   *DependencyNode
}

// DependencyNode is one rendered vertex: either a requirement list with its
// category, or a grouping with an operator and children.
type DependencyNode struct {
	// List fields.
	Category    string
	RequiresAll bool
	OneTime     bool
	Objects     []RequiredObject

	// Group fields.
	Operator string
	Children []*DependencyNode
}

// RequiredObject is one listed requirement with its accessibility, so a
// renderer can show which branch currently satisfies the dependent.
type RequiredObject struct {
	Name       string
	Kind       string
	Accessible bool
}

// ExplainDependenciesHandler handles the ExplainDependencies query
type ExplainDependenciesHandler struct {
	session *session.Session
}

// NewExplainDependenciesHandler creates a new ExplainDependenciesHandler
func NewExplainDependenciesHandler(s *session.Session) *ExplainDependenciesHandler {
	return &ExplainDependenciesHandler{session: s}
}

// Handle executes the ExplainDependencies query
func (h *ExplainDependenciesHandler) Handle(ctx context.Context, request common.Request) (common.Response, error) {
	query, ok := request.(*ExplainDependenciesQuery)
	if !ok {
		return nil, fmt.Errorf("invalid request type: expected *ExplainDependenciesQuery")
	}

	obj, err := h.session.ResolveMilestone(query.Kind, query.Name)
	if err != nil {
		return nil, err
	}

	node := h.session.Graph().NodeOf(obj.Info().ID)
	builder := &treeBuilder{
		db:     h.session.Database(),
		engine: h.session.Engine(),
		root:   &DependencyNode{Operator: "all"},
	}
	builder.stack = []*DependencyNode{builder.root}
	node.Walk(builder)

	root := builder.root
	// A single child needs no synthetic grouping around it.
	if len(root.Children) == 1 {
		root = root.Children[0]
	}
	return &ExplainDependenciesResponse{
		Object: obj.Info().Name,
		Root:   root,
	}, nil
}

// treeBuilder folds Walk callbacks into a DependencyNode tree.
type treeBuilder struct {
	db     *gamedata.Database
	engine interface {
		IsAccessible(gamedata.ObjectID) bool
	}
	root  *DependencyNode
	stack []*DependencyNode
}

func (b *treeBuilder) VisitList(flags deps.Flags, ids []gamedata.ObjectID) {
	node := &DependencyNode{
		Category:    flags.Category(),
		RequiresAll: flags.RequiresAll(),
		OneTime:     flags.IsOneTimeInvestment(),
	}
	for _, id := range ids {
		info := b.db.Get(id).Info()
		node.Objects = append(node.Objects, RequiredObject{
			Name:       info.Name,
			Kind:       info.Kind.String(),
			Accessible: b.engine.IsAccessible(id),
		})
	}
	b.attach(node)
}

func (b *treeBuilder) EnterGroup(op deps.GroupOp) {
	node := &DependencyNode{Operator: opString(op)}
	b.attach(node)
	b.stack = append(b.stack, node)
}

func (b *treeBuilder) LeaveGroup(op deps.GroupOp) {
	b.stack = b.stack[:len(b.stack)-1]
}

func (b *treeBuilder) attach(node *DependencyNode) {
	parent := b.stack[len(b.stack)-1]
	parent.Children = append(parent.Children, node)
}

func opString(op deps.GroupOp) string {
	if op == deps.GroupAny {
		return "any"
	}
	return "all"
}
