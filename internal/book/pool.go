package book

import "sync"

// OrderPool recycles Order objects across cancel/fill and the next add.
type OrderPool struct {
	p *sync.Pool
}

func NewOrderPool() *OrderPool {
	return &OrderPool{
		p: &sync.Pool{New: func() any { return &Order{} }},
	}
}

func (p *OrderPool) Get() *Order {
	return p.p.Get().(*Order)
}

func (p *OrderPool) Put(o *Order) {
	o.Reset()
	p.p.Put(o)
}
