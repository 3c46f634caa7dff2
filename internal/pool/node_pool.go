package pool

import (
	"github.com/google/uuid"
	pkgerrors "github.com/pkg/errors"

	"github.com/nicolamaritan/cgrad/internal/graph"
)

// GraphNodeAllocator recycles graph.Node and graph.Link records.
type GraphNodeAllocator struct {
	freeNodes []*graph.Node
	freeLinks []*graph.Link

	maxSlots  int
	liveNodes int
	liveLinks int
	stats     Stats
}

// NewGraphNodeAllocator builds a node/link pool.
func NewGraphNodeAllocator(cfg Config) *GraphNodeAllocator {
	return &GraphNodeAllocator{
		freeNodes: make([]*graph.Node, 0, cfg.InitialNodes),
		freeLinks: make([]*graph.Link, 0, cfg.InitialLinks),
		maxSlots:  cfg.MaxSlots,
	}
}

// AllocNode returns a recycled or freshly allocated, ID-tagged node with
// an empty outgoing list.
func (p *GraphNodeAllocator) AllocNode() (*graph.Node, error) {
	if n := len(p.freeNodes); n > 0 {
		node := p.freeNodes[n-1]
		p.freeNodes = p.freeNodes[:n-1]
		node.ID = uuid.New()
		p.stats.Allocated++
		p.stats.Recycled++
		p.liveNodes++
		return node, nil
	}

	if p.maxSlots > 0 && p.liveNodes >= p.maxSlots {
		return nil, pkgerrors.Wrapf(ErrOutOfMemory, "pool: node slot budget %d exhausted", p.maxSlots)
	}

	node := &graph.Node{ID: uuid.New(), Outgoing: make([]*graph.Link, 0, 4)}
	p.stats.Allocated++
	p.stats.Grown++
	p.liveNodes++
	return node, nil
}

// AllocLink returns a recycled or freshly allocated, zeroed link record.
func (p *GraphNodeAllocator) AllocLink() (*graph.Link, error) {
	if n := len(p.freeLinks); n > 0 {
		link := p.freeLinks[n-1]
		p.freeLinks = p.freeLinks[:n-1]
		*link = graph.Link{}
		p.stats.Allocated++
		p.stats.Recycled++
		p.liveLinks++
		return link, nil
	}

	if p.maxSlots > 0 && p.liveLinks >= p.maxSlots {
		return nil, pkgerrors.Wrapf(ErrOutOfMemory, "pool: link slot budget %d exhausted", p.maxSlots)
	}

	link := &graph.Link{}
	p.stats.Allocated++
	p.stats.Grown++
	p.liveLinks++
	return link, nil
}

// FreeNode returns a node's links to the link pool and the node itself
// to the node pool.
func (p *GraphNodeAllocator) FreeNode(node *graph.Node) {
	if node == nil {
		return
	}
	for _, link := range node.Outgoing {
		p.FreeLink(link)
	}
	node.Reset()
	p.liveNodes--
	p.freeNodes = append(p.freeNodes, node)
}

// FreeLink returns a single link record to the pool.
func (p *GraphNodeAllocator) FreeLink(link *graph.Link) {
	if link == nil {
		return
	}
	p.liveLinks--
	p.freeLinks = append(p.freeLinks, link)
}

// Stats reports node/link pool activity, combined.
func (p *GraphNodeAllocator) Stats() Stats {
	return Stats{
		Allocated: p.stats.Allocated,
		Recycled:  p.stats.Recycled,
		Grown:     p.stats.Grown,
		Live:      p.liveNodes + p.liveLinks,
	}
}
