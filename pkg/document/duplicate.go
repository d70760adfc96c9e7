package document

import "github.com/aretw0/parley/pkg/domain"

// Duplicate returns a deep copy of doc under newID where every node and
// connection has a fresh GUID. Connections follow their nodes.
func Duplicate(doc *domain.Document, newID string) (*domain.Document, error) {
	f, err := Encode(doc)
	if err != nil {
		return nil, err
	}

	remap := make(map[string]string, len(f.Nodes))
	for i := range f.Nodes {
		fresh := domain.NewGUID()
		remap[f.Nodes[i].GUID] = fresh
		f.Nodes[i].GUID = fresh
	}
	for i := range f.Connections {
		c := &f.Connections[i]
		c.GUID = domain.NewGUID()
		if to, ok := remap[c.From]; ok {
			c.From = to
		}
		if to, ok := remap[c.To]; ok {
			c.To = to
		}
	}
	f.ID = newID
	return Decode(f)
}
