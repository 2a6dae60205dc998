package repository

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
	MaxPageNumber   = 1_000_000
)

// Page is 1-based offset pagination.
type Page struct {
	Number int
	Size   int
}

// Normalize applies defaults and clamps the page number and size.
func (p Page) Normalize() Page {
	if p.Number < 1 {
		p.Number = 1
	}
	if p.Number > MaxPageNumber {
		p.Number = MaxPageNumber
	}
	if p.Size <= 0 {
		p.Size = DefaultPageSize
	}
	if p.Size > MaxPageSize {
		p.Size = MaxPageSize
	}
	return p
}

func (p Page) limit() uint64  { return uint64(p.Size) }
func (p Page) offset() uint64 { return uint64(p.Number-1) * uint64(p.Size) }
