package railway

// Connection is the relay style list wrapper the resource graph returns for every collection.
type Connection[T any] struct {
	Edges []Edge[T] `json:"edges"`
}

type Edge[T any] struct {
	Node T `json:"node"`
}

// Nodes unwraps the edges into a plain slice.
func (c Connection[T]) Nodes() []T {
	nodes := make([]T, 0, len(c.Edges))
	for _, edge := range c.Edges {
		nodes = append(nodes, edge.Node)
	}
	return nodes
}
