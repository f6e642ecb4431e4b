package gauge

// Panel groups the serving-cell and neighbour-cell gauges.
type Panel struct {
	PrimaryRSRP   *Gauge
	PrimaryRSRQ   *Gauge
	NeighbourRSRP *Gauge
	NeighbourRSRQ *Gauge
}

// NewPanel returns a panel built from the presets.
func NewPanel() *Panel {
	return &Panel{
		PrimaryRSRP:   New(PrimaryRSRP),
		PrimaryRSRQ:   New(PrimaryRSRQ),
		NeighbourRSRP: New(NeighbourRSRP),
		NeighbourRSRQ: New(NeighbourRSRQ),
	}
}

// ApplyPrimary shows a serving-cell sample.
func (p *Panel) ApplyPrimary(rsrp, rsrq float64) {
	p.PrimaryRSRP.Set(rsrp)
	p.PrimaryRSRQ.Set(rsrq)
}

// ApplyNeighbour shows a neighbour-cell sample.
func (p *Panel) ApplyNeighbour(rsrp, rsrq float64) {
	p.NeighbourRSRP.Set(rsrp)
	p.NeighbourRSRQ.Set(rsrq)
}

// ResetPrimary clears the serving-cell gauges.
func (p *Panel) ResetPrimary() {
	p.PrimaryRSRP.Reset()
	p.PrimaryRSRQ.Reset()
}

// ResetNeighbour clears the neighbour-cell gauges.
func (p *Panel) ResetNeighbour() {
	p.NeighbourRSRP.Reset()
	p.NeighbourRSRQ.Reset()
}

// Readings returns all four gauges in display order.
func (p *Panel) Readings() []Reading {
	return []Reading{
		p.PrimaryRSRP.Reading(),
		p.PrimaryRSRQ.Reading(),
		p.NeighbourRSRP.Reading(),
		p.NeighbourRSRQ.Reading(),
	}
}
