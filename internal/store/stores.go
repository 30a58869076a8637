package store

// Stores bundles the entity stores that share one backend.
type Stores struct {
	Users         *UserStore
	Customers     *CustomerStore
	Samples       *SampleStore
	ClosedSamples *ClosedSampleStore
	Staging       *Staging
}

func New(b Backend, adminPassword, tempDir string) (*Stores, error) {
	samples := NewSampleStore(b)
	staging, err := NewStaging(tempDir, samples)
	if err != nil {
		return nil, err
	}
	return &Stores{
		Users:         NewUserStore(b, adminPassword),
		Customers:     NewCustomerStore(b),
		Samples:       samples,
		ClosedSamples: NewClosedSampleStore(b),
		Staging:       staging,
	}, nil
}
