package model

// Page is one descending window of blocks together with the receipts of
// every full transaction they contain.
type Page struct {
	Index    int                 `json:"index"`
	Size     int                 `json:"size"`
	Head     uint64              `json:"head"`
	Blocks   []*Block            `json:"blocks"`
	Receipts map[string]*Receipt `json:"receipts"`
}

// HasNext reports whether older blocks exist below this page.
func (p *Page) HasNext() bool {
	if len(p.Blocks) == 0 {
		return false
	}
	return p.Blocks[len(p.Blocks)-1].Number > 0
}

// TransactionCount counts the full transactions across the page.
func (p *Page) TransactionCount() int {
	n := 0
	for _, b := range p.Blocks {
		n += len(b.TransactionHashes())
	}
	return n
}
