package syncer

import "github.com/phrazzld/errbook/internal/domain"

type partition struct {
	entity domain.EntityType
	items  []*domain.Mutation
}

// partitionByEntity groups queue items by entity type. Partitions are
// ordered by their first item and keep queue order within.
func partitionByEntity(items []*domain.Mutation) []*partition {
	var out []*partition
	index := make(map[domain.EntityType]*partition)
	for _, m := range items {
		p, ok := index[m.EntityType]
		if !ok {
			p = &partition{entity: m.EntityType}
			index[m.EntityType] = p
			out = append(out, p)
		}
		p.items = append(p.items, m)
	}
	return out
}

func (p *partition) ids() []string {
	ids := make([]string, len(p.items))
	for i, m := range p.items {
		ids[i] = m.ID
	}
	return ids
}

func (p *partition) batch() Batch {
	b := Batch{Type: p.entity, Items: make([]BatchItem, len(p.items))}
	for i, m := range p.items {
		b.Items[i] = BatchItem{
			Operation: m.Operation,
			RecordID:  m.RecordID,
			Data:      m.Payload,
		}
	}
	return b
}
